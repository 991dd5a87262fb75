// Package configsync pulls configuration-only updates from the control plane.
package configsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/blackbox-racing/blackboxd/internal/config"
)

// Client queries the control-plane endpoint for configuration updates and
// applies them to the persisted configuration store. It never touches the
// code-update path.
type Client struct {
	endpoint string
	apiKey   string
	clientID string

	store  *config.Store
	client *http.Client
}

// NewClient returns a config-sync client for the provided endpoint. The
// client is disabled when either the endpoint or the API key is empty.
func NewClient(endpoint string, apiKey string, clientID string, store *config.Store) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		clientID: clientID,

		store: store,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether the client has enough configuration to operate.
func (c *Client) Enabled() bool {
	return c.endpoint != "" && c.apiKey != ""
}

// CheckAndApply asks the control plane whether configuration updates exist
// for this client and, if so, merges them into the persisted configuration.
// Returns true when the configuration was changed.
func (c *Client) CheckAndApply(ctx context.Context, currentVersion string) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	// API structs.
	type checkPost struct {
		CurrentVersion string `json:"current_version"`
		ClientID       string `json:"client_id"`
	}

	type checkResp struct {
		HasUpdates    bool           `json:"has_updates"`
		ConfigUpdates map[string]any `json:"config_updates"`
	}

	// Prepare the check request.
	data, err := json.Marshal(checkPost{
		CurrentVersion: currentVersion,
		ClientID:       c.clientID,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/updates/check", bytes.NewReader(data))
	if err != nil {
		return false, err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	// Make the REST call.
	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, errors.New("unexpected HTTP status: " + resp.Status)
	}

	// Parse the response.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}

	check := checkResp{}

	err = json.Unmarshal(body, &check)
	if err != nil {
		return false, err
	}

	if !check.HasUpdates || len(check.ConfigUpdates) == 0 {
		return false, nil
	}

	// Merge the updates into the persisted configuration.
	c.store.Merge(check.ConfigUpdates)

	err = c.store.Save()
	if err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Applied configuration update from control plane", "keys", len(check.ConfigUpdates))

	return true, nil
}
