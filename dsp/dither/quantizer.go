package dither

import (
	"math"
	"math/rand/v2"
)

// Quantizer converts samples in [-1, 1] to signed integers of a fixed bit
// depth. It keeps noise shaping state and is not safe for concurrent use.
type Quantizer struct {
	bitDepth  int
	typ       Type
	amplitude float64
	shaping   bool
	rng       *rand.Rand

	scale  float64
	lo, hi int
	err    float64
}

// NewQuantizer returns a 16 bit triangular dither quantizer unless opts
// say otherwise.
func NewQuantizer(opts ...Option) (*Quantizer, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	q := &Quantizer{
		bitDepth:  cfg.bitDepth,
		typ:       cfg.typ,
		amplitude: cfg.amplitude,
		shaping:   cfg.shaping,
		rng:       cfg.rng,
	}

	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	q.scale = math.Exp2(float64(q.bitDepth - 1))
	q.hi = int(q.scale) - 1
	q.lo = -int(q.scale)

	return q, nil
}

// ProcessInteger quantises one sample. Results are clipped to the integer
// range; clipping does not feed the noise shaper.
func (q *Quantizer) ProcessInteger(x float64) int {
	v := x * q.scale
	if q.shaping {
		v -= q.err
	}

	r := math.Round(v + q.noise())
	if q.shaping {
		q.err = r - v
	}

	return max(q.lo, min(q.hi, int(r)))
}

// ProcessInto quantises src into dst, which must be at least as long.
func (q *Quantizer) ProcessInto(dst []int, src []float64) {
	for i, x := range src {
		dst[i] = q.ProcessInteger(x)
	}
}

// Reset clears the noise shaping state.
func (q *Quantizer) Reset() {
	q.err = 0
}

// BitDepth returns the target bit depth.
func (q *Quantizer) BitDepth() int { return q.bitDepth }

// Type returns the dither noise distribution.
func (q *Quantizer) Type() Type { return q.typ }

func (q *Quantizer) noise() float64 {
	switch q.typ {
	case Rectangular:
		return q.amplitude * (q.rng.Float64() - 0.5)
	case Triangular:
		return q.amplitude * (q.rng.Float64() - q.rng.Float64())
	default:
		return 0
	}
}
