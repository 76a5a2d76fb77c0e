package synth

import (
	"cmp"

	"gitlab.com/gomidi/midi/v2"
)

// EventKind identifies an inbound event.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	ControlChange
	PitchBend
)

// Event is one inbound MIDI-like event. Offset is the sample position
// within the next Process call.
type Event struct {
	Offset  int
	Kind    EventKind
	Channel int
	// Key is the note of NoteOn/NoteOff or the controller of ControlChange.
	Key int
	// Value is the velocity of NoteOn or the controller value.
	Value int
	// Bend is the signed pitch bend in [-8192, 8191].
	Bend int
}

func compareOffset(a, b Event) int {
	return cmp.Compare(a.Offset, b.Offset)
}

// parseMidi decodes one raw channel message.
func parseMidi(offset int, raw []byte) (Event, bool) {
	var (
		msg              = midi.Message(raw)
		ch, key, vel, cc uint8
		rel              int16
		abs              uint16
	)

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Offset: offset, Kind: NoteOn, Channel: int(ch), Key: int(key), Value: int(vel)}, true
	case msg.GetNoteEnd(&ch, &key):
		return Event{Offset: offset, Kind: NoteOff, Channel: int(ch), Key: int(key)}, true
	case msg.GetControlChange(&ch, &cc, &vel):
		return Event{Offset: offset, Kind: ControlChange, Channel: int(ch), Key: int(cc), Value: int(vel)}, true
	case msg.GetPitchBend(&ch, &rel, &abs):
		return Event{Offset: offset, Kind: PitchBend, Channel: int(ch), Bend: int(rel)}, true
	}

	return Event{}, false
}

// OutEventKind identifies an outbound event.
type OutEventKind int

const (
	// VoiceIdle reports that a released voice went silent.
	VoiceIdle OutEventKind = iota
)

func (k OutEventKind) String() string {
	if k == VoiceIdle {
		return "voice-idle"
	}

	return "unknown"
}

// OutEvent is one outbound notification.
type OutEvent struct {
	Kind  OutEventKind
	Voice int
	Note  int
}
