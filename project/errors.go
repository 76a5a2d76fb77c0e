package project

import "errors"

var (
	// ErrUnknownInstrument is returned for instrument ids without an
	// instrument.
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrClosed is returned by operations on a closed project.
	ErrClosed = errors.New("project closed")
)
