package decoder

import "github.com/XieJiSS/spectmorph/wavset"

// Source supplies spectral frames to a LiveDecoder.
type Source interface {
	// Retrigger selects the model for a new note.
	Retrigger(channel int, freq float64, velocity int, mixFreq float64)
	// Audio returns the model selected by the last Retrigger, or nil.
	Audio() *wavset.Audio
	// Block returns frame i of the selected model, or nil when i is out of
	// range. The result is valid until the next call.
	Block(i int) *wavset.Block
}

// WavSetSource serves frames from a WavSet snapshot.
//
// SetWavSet only stages the snapshot; it becomes current at the next
// Retrigger, so a note in flight keeps reading the model it started with.
type WavSetSource struct {
	current *wavset.WavSet
	next    *wavset.WavSet
	pending bool
	audio   *wavset.Audio
}

// NewWavSetSource returns a source over ws (which may be nil).
func NewWavSetSource(ws *wavset.WavSet) *WavSetSource {
	return &WavSetSource{current: ws}
}

// SetWavSet stages ws for the next retrigger.
func (s *WavSetSource) SetWavSet(ws *wavset.WavSet) {
	s.next = ws
	s.pending = true
}

// WavSet returns the snapshot used by the current note.
func (s *WavSetSource) WavSet() *wavset.WavSet {
	return s.current
}

// Retrigger implements Source.
func (s *WavSetSource) Retrigger(channel int, freq float64, velocity int, _ float64) {
	if s.pending {
		s.current = s.next
		s.next = nil
		s.pending = false
	}

	s.audio, _ = s.current.BestAudio(channel, freq, velocity)
}

// Audio implements Source.
func (s *WavSetSource) Audio() *wavset.Audio {
	return s.audio
}

// Block implements Source.
func (s *WavSetSource) Block(i int) *wavset.Block {
	if s.audio == nil || i < 0 || i >= len(s.audio.Blocks) {
		return nil
	}

	return &s.audio.Blocks[i]
}
