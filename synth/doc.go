// Package synth schedules polyphonic voices over a morph plan.
//
// MidiSynth owns a fixed pool of voices. Note-on events pick an idle voice
// or steal one, note-off events move voices into an exponential release,
// and released voices return to idle once they produced a full window of
// silence. Events carry a sample offset; Process splits its output at those
// offsets so every event takes effect on the exact sample it names.
//
// MidiSynth belongs to the audio goroutine. Hand it work from other
// goroutines through package project.
package synth
