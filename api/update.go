package api

import (
	"errors"
	"time"
)

// Release holds the metadata of a published release, as reported by the
// release registry. It is fetched fresh on every check and never persisted.
type Release struct {
	Version      string    `json:"version"`
	DownloadURL  string    `json:"download_url"`
	ReleaseNotes string    `json:"release_notes"`
	PublishedAt  time.Time `json:"published_at"`
}

// Update defines a struct to hold the agent's update policy and state.
type Update struct {
	Config UpdateConfig `json:"config" yaml:"config"`

	State UpdateState `json:"state" yaml:"state"`
}

// UpdateConfig defines a struct to hold configuration details for the update checks.
type UpdateConfig struct {
	AutoUpdate     bool   `json:"auto_update"     yaml:"auto_update"`
	GithubRepo     string `json:"github_repo"     yaml:"github_repo"`
	GithubToken    string `json:"github_token"    yaml:"github_token"`
	CheckFrequency string `json:"check_frequency" yaml:"check_frequency"`

	ConfigSyncEndpoint string `json:"config_sync_endpoint" yaml:"config_sync_endpoint"`
	ConfigSyncAPIKey   string `json:"config_sync_api_key"  yaml:"config_sync_api_key"`
}

// UpdateState holds information about the current update state.
type UpdateState struct {
	CurrentVersion string    `json:"current_version" yaml:"current_version"`
	LastCheck      time.Time `json:"last_check"      yaml:"last_check"`
	Status         string    `json:"status"          yaml:"status"`
}

// UpdateStatus is the summary returned to the host UI and CLI.
type UpdateStatus struct {
	CurrentVersion    string    `json:"current_version"`
	AutoUpdateEnabled bool      `json:"auto_update_enabled"`
	LastCheck         time.Time `json:"last_check"`
	GithubRepo        string    `json:"github_repo"`
	ConfigSyncEnabled bool      `json:"config_sync_enabled"`
}

// Validate performs basic sanity checks against update configuration.
func (c *UpdateConfig) Validate() error {
	// Check the repository identifier is of the "owner/name" form.
	if c.GithubRepo != "" && !validRepoIdentifier(c.GithubRepo) {
		return errors.New("invalid github repository '" + c.GithubRepo + "'")
	}

	// Check the update frequency is valid.
	if c.CheckFrequency != "" && c.CheckFrequency != "never" {
		_, err := time.ParseDuration(c.CheckFrequency)
		if err != nil {
			return errors.New("invalid update check frequency: " + err.Error())
		}
	}

	return nil
}

func validRepoIdentifier(repo string) bool {
	slash := -1

	for i, r := range repo {
		if r == '/' {
			if slash >= 0 {
				return false
			}

			slash = i
		}
	}

	return slash > 0 && slash < len(repo)-1
}
