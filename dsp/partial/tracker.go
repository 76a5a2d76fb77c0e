package partial

import (
	"fmt"
	"math"
)

// Tracker propagates phases from the previously emitted frame into the next
// one.
type Tracker struct {
	last    Frame
	step    int
	mixFreq float64
}

// NewTracker returns a Tracker for frames advancing by step samples at
// mixFreq.
func NewTracker(step int, mixFreq float64) (*Tracker, error) {
	if step <= 0 {
		return nil, fmt.Errorf("partial tracker step must be > 0: %d", step)
	}

	if mixFreq <= 0 || math.IsNaN(mixFreq) || math.IsInf(mixFreq, 0) {
		return nil, fmt.Errorf("partial tracker mix freq must be > 0 and finite: %v", mixFreq)
	}

	return &Tracker{step: step, mixFreq: mixFreq}, nil
}

// Reset forgets the previous frame and changes the frame geometry.
func (t *Tracker) Reset(step int, mixFreq float64) {
	t.last.Reset()
	if step > 0 {
		t.step = step
	}
	if mixFreq > 0 {
		t.mixFreq = mixFreq
	}
}

// Last returns the previously emitted frame. It is valid until the next
// Track, Continue or Reset call.
func (t *Tracker) Last() *Frame {
	return &t.last
}

// Track rescales the frequencies of f by ratio, then gives every partial
// that continues a previous partial the propagated phase
//
//	phase_prev - step * 2π * f_prev / mixFreq
//
// Unmatched partials keep their analysed phase. f is modified in place and
// becomes the new previous frame.
func (t *Tracker) Track(f *Frame, ratio float64) {
	for p := range f.Freqs {
		f.Freqs[p] *= ratio
	}

	for p, freq := range f.Freqs {
		best := -1
		bestDiff := math.Inf(1)

		for q, lf := range t.last.Freqs {
			if !Match(lf, freq) {
				continue
			}

			if d := math.Abs(lf - freq); d < bestDiff {
				best = q
				bestDiff = d
			}
		}

		if best < 0 {
			continue
		}

		// The phase is propagated backwards; the decoders were built
		// against this convention.
		delta := 2 * math.Pi * t.last.Freqs[best] / t.mixFreq
		phase := t.last.Phase(best) - float64(t.step)*delta
		f.SetPolar(p, f.Magnitude(p), phase)
	}

	t.last.CopyFrame(f)
}

// Continue writes the previous frame into dst with every partial advanced
// as if it had matched itself. It is used to hold output when the next
// frame cannot be decoded.
func (t *Tracker) Continue(dst *Frame) {
	dst.CopyFrame(&t.last)

	for p, freq := range dst.Freqs {
		delta := 2 * math.Pi * freq / t.mixFreq
		dst.SetPolar(p, dst.Magnitude(p), dst.Phase(p)-float64(t.step)*delta)
	}

	t.last.CopyFrame(dst)
}
