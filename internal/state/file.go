// Package state manages the agent's persisted state file.
package state

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
)

// LoadOrCreate parses the on-disk state file and returns a State struct.
// If no file exists, a new one is created with default values.
func LoadOrCreate(path string) (*State, error) {
	s := State{
		path: path,
	}

	body, err := os.ReadFile(path) //nolint:gosec
	if err == nil {
		err = json.Unmarshal(body, &s)

		return &s, err
	}

	if os.IsNotExist(err) {
		// Initialize with default values.
		s.initialize()

		// State file doesn't exist, create it and return it.
		err = s.Save()
		if err != nil {
			return nil, err
		}

		return &s, nil
	}

	return nil, err
}

// Save writes out the current state struct into its on-disk storage.
func (s *State) Save() error {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, body, 0o600)
}

// initialize sets default values for a new state file.
func (s *State) initialize() {
	// Generate a stable client identifier for the control plane.
	s.ClientID = uuid.NewString()

	// Enable automatic updates by default.
	s.Update.Config.AutoUpdate = true

	// Set the initial update frequency to 6 hours.
	s.Update.Config.CheckFrequency = "6h"
}
