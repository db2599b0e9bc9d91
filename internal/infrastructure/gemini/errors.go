package gemini

import "errors"

// Domain errors for the gemini package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrRequestFailed indicates the HTTP call to the model endpoint
	// failed or returned a non-200 status.
	ErrRequestFailed = errors.New("gemini: request failed")

	// ErrEmptyResponse indicates the model returned no candidates or an
	// empty text part.
	ErrEmptyResponse = errors.New("gemini: empty response")
)
