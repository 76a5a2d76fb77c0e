// Package project connects the non-realtime side of the synthesizer to the
// audio goroutine.
//
// A Project owns the editable state: instruments, the morph plan and the
// volume. Edits are turned into control events and queued under a mutex.
// Process, called from the audio callback, only try-locks that mutex: when
// it wins, the queued events run in enqueue order before the block is
// rendered; when it loses, the block is rendered with the previous state
// and the events wait for the next block.
//
// Events are destroyed on the non-realtime side, at the next enqueue, so
// the audio callback never releases large objects such as superseded
// WavSets.
package project
