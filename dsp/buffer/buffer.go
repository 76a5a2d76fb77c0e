package buffer

import (
	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// Buffer wraps a float64 slice with reuse-friendly semantics. Used as an
// overlap-add shift register it accumulates decoded frames with Accumulate
// and releases finished samples with Shift.
type Buffer struct {
	samples []float64
}

// New returns a zero-filled Buffer of the given length.
func New(length int) *Buffer {
	if length < 0 {
		length = 0
	}
	return &Buffer{samples: make([]float64, length)}
}

// Samples returns the underlying slice.
func (b *Buffer) Samples() []float64 {
	return b.samples
}

// Len returns the current number of samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Resize sets the length to n, reusing existing capacity when possible.
// All samples are zero afterwards.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}
	b.samples = core.EnsureLen(b.samples, n)
	b.Zero()
}

// Zero sets all samples to 0.
func (b *Buffer) Zero() {
	core.Zero(b.samples)
}

// Shift drops the first n samples, moves the rest to the front and zeroes
// the tail.
func (b *Buffer) Shift(n int) {
	core.ShiftLeft(b.samples, n)
}

// Accumulate adds src to the head of the buffer. Values of src beyond the
// buffer length are ignored.
func (b *Buffer) Accumulate(src []float64) {
	n := min(len(src), len(b.samples))
	if n == 0 {
		return
	}
	vecmath.AddBlockInPlace(b.samples[:n], src[:n])
}

// At returns sample i, or 0 when i is out of range.
func (b *Buffer) At(i int) float64 {
	if i < 0 || i >= len(b.samples) {
		return 0
	}
	return b.samples[i]
}
