package wavset

import (
	"fmt"
	"math"
)

// NoLoop is the LoopPoint value of an Audio that plays through once.
const NoLoop = -1

// Block is one analysis frame: sinusoidal partials plus a noise envelope.
type Block struct {
	// Freqs holds partial frequencies in Hz.
	Freqs []float64
	// Phases holds interleaved (sin*mag, cos*mag) pairs, two per partial.
	Phases []float64
	// Noise holds the band envelope of the residual.
	Noise []float64
}

// Validate reports ErrInvalidFrameData when the phase pairs do not match the
// partial count or a frequency is negative or not finite.
func (b *Block) Validate() error {
	if len(b.Phases) != 2*len(b.Freqs) {
		return fmt.Errorf("%w: %d phase values for %d partials", ErrInvalidFrameData, len(b.Phases), len(b.Freqs))
	}

	for i, f := range b.Freqs {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: partial %d has frequency %v", ErrInvalidFrameData, i, f)
		}
	}

	for _, v := range b.Noise {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite noise envelope", ErrInvalidFrameData)
		}
	}

	return nil
}

// Magnitude returns the magnitude of partial i.
func (b *Block) Magnitude(i int) float64 {
	return math.Hypot(b.Phases[2*i], b.Phases[2*i+1])
}

// Phase returns the phase of partial i in radians.
func (b *Block) Phase(i int) float64 {
	return math.Atan2(b.Phases[2*i], b.Phases[2*i+1])
}

// Audio is a spectral model for one pitch/velocity range.
type Audio struct {
	MixFreq         float64
	FrameSizeMs     float64
	FrameStepMs     float64
	FundamentalFreq float64

	// LoopPoint is the frame index playback holds at, or NoLoop.
	LoopPoint int

	AttackStartMs float64
	AttackEndMs   float64

	// ZeroValuesAtStart counts leading samples (at MixFreq) that are
	// analysis padding and must not be played.
	ZeroValuesAtStart int

	Blocks []Block
}

// Validate checks the header fields needed for playback. Blocks are
// validated lazily by the decoder.
func (a *Audio) Validate() error {
	if a.MixFreq <= 0 {
		return fmt.Errorf("audio mix freq must be > 0: %v", a.MixFreq)
	}

	if a.FrameSizeMs <= 0 {
		return fmt.Errorf("audio frame size must be > 0: %v", a.FrameSizeMs)
	}

	if a.FrameStepMs <= 0 || a.FrameStepMs > a.FrameSizeMs {
		return fmt.Errorf("audio frame step must be in (0, frame size]: %v", a.FrameStepMs)
	}

	if a.FundamentalFreq <= 0 {
		return fmt.Errorf("audio fundamental freq must be > 0: %v", a.FundamentalFreq)
	}

	// Models that generate their blocks on demand carry no Blocks.
	if a.LoopPoint < NoLoop || (len(a.Blocks) > 0 && a.LoopPoint >= len(a.Blocks)) {
		return fmt.Errorf("audio loop point out of range: %d", a.LoopPoint)
	}

	if a.ZeroValuesAtStart < 0 {
		return fmt.Errorf("audio zero values at start must be >= 0: %d", a.ZeroValuesAtStart)
	}

	return nil
}

// Looping reports whether the model holds at a loop frame.
func (a *Audio) Looping() bool {
	return a.LoopPoint != NoLoop
}
