package providers

import (
	"context"

	"github.com/blackbox-racing/blackboxd/api"
)

// Provider represents a release registry that can be queried for the latest
// published release of the agent.
type Provider interface {
	Type() string

	// Latest returns the newest published release, or nil when the registry
	// reports that no releases exist.
	Latest(ctx context.Context) (*api.Release, error)
}
