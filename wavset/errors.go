package wavset

import "errors"

var (
	// ErrNoMatchingAudio is reported when no wave of a set fits a request.
	// Callers treat it as silence, not as a failure.
	ErrNoMatchingAudio = errors.New("wavset: no matching audio")

	// ErrInvalidFrameData marks a block whose partial arrays are malformed.
	ErrInvalidFrameData = errors.New("wavset: invalid frame data")
)
