package partial

import (
	"math"

	"github.com/XieJiSS/spectmorph/wavset"
)

// Frame is a mutable working copy of a wavset.Block.
type Frame struct {
	Freqs  []float64
	Phases []float64
	Noise  []float64
}

// CopyFrom overwrites f with the contents of b, reusing f's storage.
func (f *Frame) CopyFrom(b *wavset.Block) {
	f.Freqs = append(f.Freqs[:0], b.Freqs...)
	f.Phases = append(f.Phases[:0], b.Phases...)
	f.Noise = append(f.Noise[:0], b.Noise...)
}

// CopyFrame overwrites f with the contents of other.
func (f *Frame) CopyFrame(other *Frame) {
	f.Freqs = append(f.Freqs[:0], other.Freqs...)
	f.Phases = append(f.Phases[:0], other.Phases...)
	f.Noise = append(f.Noise[:0], other.Noise...)
}

// Reset empties the frame, keeping its storage.
func (f *Frame) Reset() {
	f.Freqs = f.Freqs[:0]
	f.Phases = f.Phases[:0]
	f.Noise = f.Noise[:0]
}

// Len returns the partial count.
func (f *Frame) Len() int {
	return len(f.Freqs)
}

// Magnitude returns the magnitude of partial i.
func (f *Frame) Magnitude(i int) float64 {
	return math.Hypot(f.Phases[2*i], f.Phases[2*i+1])
}

// Phase returns the phase of partial i in radians.
func (f *Frame) Phase(i int) float64 {
	return math.Atan2(f.Phases[2*i], f.Phases[2*i+1])
}

// SetPolar stores magnitude and phase of partial i.
func (f *Frame) SetPolar(i int, mag, phase float64) {
	f.Phases[2*i] = math.Sin(phase) * mag
	f.Phases[2*i+1] = math.Cos(phase) * mag
}

// Match reports whether b lies within ±5% of a.
func Match(a, b float64) bool {
	return b < a*1.05 && b > a*0.95
}
