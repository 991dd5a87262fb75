package providers

import (
	"errors"
)

// ErrProviderUnavailable is returned when a provider isn't ready for use yet,
// typically because of registry rate limiting.
var ErrProviderUnavailable = errors.New("provider isn't currently available")

// ErrNoUpdateAvailable is returned when no newer release is available.
var ErrNoUpdateAvailable = errors.New("no update available")
