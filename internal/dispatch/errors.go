package dispatch

import "errors"

// Domain errors for the dispatch package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrValidation is returned for a recognised directive that is
	// semantically invalid (unknown state, or blink without resolvable
	// parameters).
	ErrValidation = errors.New("dispatch: invalid command")

	// ErrDeviceResolution is returned when no device matches the
	// command's location/type/name reference. Nothing is published.
	ErrDeviceResolution = errors.New("dispatch: device resolution failed")

	// ErrSink is returned when publishing to the external sink fails.
	// The command may or may not have reached the controller; delivery
	// is unconfirmed and is not retried automatically.
	ErrSink = errors.New("dispatch: sink publish failed")
)
