package synth

import "errors"

// ErrUnsupportedMessage is returned by AddMidiEvent for MIDI messages the
// synth does not act on. The message is dropped.
var ErrUnsupportedMessage = errors.New("synth: unsupported midi message")
