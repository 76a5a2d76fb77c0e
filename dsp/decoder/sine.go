package decoder

import (
	"fmt"
	"math"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/dsp/partial"
)

// SineDecoder synthesizes the partials of a frame by direct summation.
type SineDecoder struct {
	mixFreq float64
}

// NewSineDecoder returns a decoder producing samples at mixFreq.
func NewSineDecoder(mixFreq float64) (*SineDecoder, error) {
	if mixFreq <= 0 || math.IsNaN(mixFreq) || math.IsInf(mixFreq, 0) {
		return nil, fmt.Errorf("sine decoder mix freq must be > 0 and finite: %v", mixFreq)
	}

	return &SineDecoder{mixFreq: mixFreq}, nil
}

// Process writes
//
//	out[n] = sum_p mag_p * sin(n*2π*f_p/mixFreq - phase_p) * window[n]
//
// for every n in out. Stored phases are negated start phases, which is the
// convention partial.Tracker propagates. window must be at least as long as
// out. Partials at or above Nyquist are skipped.
func (d *SineDecoder) Process(f *partial.Frame, window, out []float64) {
	core.Zero(out)

	n := min(len(out), len(window))
	nyquist := d.mixFreq / 2

	for p, freq := range f.Freqs {
		if freq >= nyquist {
			continue
		}

		mag := f.Magnitude(p)
		if mag == 0 {
			continue
		}

		// Rotate a phasor instead of calling sin per sample.
		s, c := math.Sincos(-f.Phase(p))
		ds, dc := math.Sincos(2 * math.Pi * freq / d.mixFreq)

		for i := range n {
			out[i] += mag * s * window[i]
			s, c = s*dc+c*ds, c*dc-s*ds
		}
	}
}
