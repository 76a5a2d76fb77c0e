package instrument

import "errors"

var (
	// ErrNoSamples is returned when building an instrument without samples.
	ErrNoSamples = errors.New("instrument has no samples")

	// ErrInvalidSample marks a sample whose markers or note are out of range.
	ErrInvalidSample = errors.New("invalid sample")
)
