package main

import "strings"

type actionKind int

const (
	actNone actionKind = iota
	actNote
	actOctave
	actVolume
	actProperty
	actNextProperty
	actPanic
	actQuit
)

type action struct {
	kind  actionKind
	value int
}

// Two keyboard rows starting at C, like a piano.
const (
	lowerRow = "awsedftgyhujk"
	upperRow = "AWSEDFTGYHUJK"
)

// keyAction maps one byte read from the raw terminal to an action.
func keyAction(b byte) action {
	if i := strings.IndexByte(lowerRow, b); i >= 0 {
		return action{actNote, i}
	}
	if i := strings.IndexByte(upperRow, b); i >= 0 {
		return action{actNote, i + 12}
	}

	switch b {
	case 'z':
		return action{actOctave, -1}
	case 'x':
		return action{actOctave, 1}
	case '-':
		return action{actVolume, -3}
	case '+', '=':
		return action{actVolume, 3}
	case '[':
		return action{actProperty, -50}
	case ']':
		return action{actProperty, 50}
	case '\t':
		return action{actNextProperty, 1}
	case ' ':
		return action{actPanic, 0}
	case 'q', 3: // 3 is ctrl-c in raw mode
		return action{actQuit, 0}
	}

	return action{}
}
