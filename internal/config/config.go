// Package config manages the agent's persisted JSON configuration store.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// settingsFile is the persisted configuration, relative to the installation
// directory. localSettingsFile overlays it and is never written by the agent.
const (
	settingsFile      = "config/settings.json"
	localSettingsFile = "config/settings.local.json"
)

// Store holds the agent configuration loaded from the installation tree.
type Store struct {
	path string

	data map[string]any
}

// Load reads the configuration from the installation directory. A missing
// settings file yields an empty store; when a local settings overlay exists
// its top-level keys take precedence.
func Load(installDir string) (*Store, error) {
	s := &Store{
		path: filepath.Join(installDir, settingsFile),
		data: map[string]any{},
	}

	for _, path := range []string{s.path, filepath.Join(installDir, localSettingsFile)} {
		body, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, err
		}

		overlay := map[string]any{}

		err = json.Unmarshal(body, &overlay)
		if err != nil {
			return nil, err
		}

		for key, value := range overlay {
			s.data[key] = value
		}
	}

	return s, nil
}

// GetString returns the string value at the provided dotted key path, or an
// empty string when the path is absent or not a string.
func (s *Store) GetString(path string) string {
	value, _ := s.lookup(path).(string)

	return value
}

// GetBool returns the boolean value at the provided dotted key path, or the
// fallback when the path is absent or not a boolean.
func (s *Store) GetBool(path string, fallback bool) bool {
	value, ok := s.lookup(path).(bool)
	if !ok {
		return fallback
	}

	return value
}

// GetFloat returns the numeric value at the provided dotted key path, or the
// fallback when the path is absent or not a number.
func (s *Store) GetFloat(path string, fallback float64) float64 {
	value, ok := s.lookup(path).(float64)
	if !ok {
		return fallback
	}

	return value
}

func (s *Store) lookup(path string) any {
	var current any = s.data

	for _, key := range strings.Split(path, ".") {
		section, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current, ok = section[key]
		if !ok {
			return nil
		}
	}

	return current
}

// Merge overwrites top-level keys with the provided updates. Nested values
// are replaced wholesale, not merged.
func (s *Store) Merge(updates map[string]any) {
	for key, value := range updates {
		s.data[key] = value
	}
}

// Save writes the configuration back to the settings file.
func (s *Store) Save() error {
	err := os.MkdirAll(filepath.Dir(s.path), 0o700)
	if err != nil {
		return err
	}

	body, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, body, 0o600)
}
