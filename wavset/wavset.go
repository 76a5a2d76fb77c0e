package wavset

import (
	"math"

	"github.com/XieJiSS/spectmorph/dsp/core"
)

// Velocity bounds of MIDI note velocities.
const (
	VelocityMin = 0
	VelocityMax = 127
)

// Wave binds a note, channel and velocity range to one Audio.
type Wave struct {
	MidiNote    int
	Channel     int
	VelocityMin int
	VelocityMax int
	Audio       *Audio
}

// Accepts reports whether w serves the given channel and velocity.
func (w *Wave) Accepts(channel, velocity int) bool {
	return w.Channel == channel && velocity >= w.VelocityMin && velocity <= w.VelocityMax
}

// WavSet is a named collection of spectral models.
type WavSet struct {
	Name  string
	Waves []Wave
}

// BestAudio returns the Audio whose fundamental is nearest to freq in
// semitones among the waves accepting channel and velocity. Ties keep the
// first wave. ErrNoMatchingAudio is returned when no wave qualifies.
func (ws *WavSet) BestAudio(channel int, freq float64, velocity int) (*Audio, error) {
	if ws == nil || freq <= 0 {
		return nil, ErrNoMatchingAudio
	}

	note := core.FreqToNote(freq)

	var (
		best     *Audio
		bestDist = math.Inf(1)
	)

	for i := range ws.Waves {
		w := &ws.Waves[i]
		if w.Audio == nil || !w.Accepts(channel, velocity) {
			continue
		}

		if d := math.Abs(core.FreqToNote(w.Audio.FundamentalFreq) - note); d < bestDist {
			best = w.Audio
			bestDist = d
		}
	}

	if best == nil {
		return nil, ErrNoMatchingAudio
	}

	return best, nil
}

// Single returns a one-wave set covering every velocity of channel 0.
// The wave note is derived from the fundamental of a.
func Single(name string, a *Audio) *WavSet {
	return &WavSet{
		Name: name,
		Waves: []Wave{{
			MidiNote:    int(math.Round(core.FreqToNote(a.FundamentalFreq))),
			Channel:     0,
			VelocityMin: VelocityMin,
			VelocityMax: VelocityMax,
			Audio:       a,
		}},
	}
}
