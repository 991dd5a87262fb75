package state

import (
	"github.com/blackbox-racing/blackboxd/api"
)

// State represents the on-disk persistent state.
type State struct {
	path string

	// ClientID uniquely identifies this agent to the control plane.
	ClientID string `json:"client_id"`

	// Update holds the update policy and the current update state.
	Update api.Update `json:"update"`
}
