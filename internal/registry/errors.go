package registry

import "errors"

// Domain errors for the registry package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, registry.ErrClientNotFound) {
//	    // handle not found case
//	}
var (
	// ErrClientNotFound is returned when a client ID does not exist.
	ErrClientNotFound = errors.New("registry: client not found")

	// ErrDeviceNotFound is returned when a device ID does not exist
	// within its client, or no device matches an identity lookup.
	ErrDeviceNotFound = errors.New("registry: device not found")

	// ErrAuthFailed is returned when authentication fails. It deliberately
	// does not distinguish a wrong key from an unknown client.
	ErrAuthFailed = errors.New("registry: authentication failed")
)
