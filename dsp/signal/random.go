// Package signal holds the seedable noise source and level helpers.
package signal

import "math/rand/v2"

// Random is a seedable, allocation-free pseudo random generator for the
// audio path. Two generators with the same seed produce the same sequence.
type Random struct {
	src *rand.PCG
}

// NewRandom returns a generator seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// SetSeed restarts the sequence from seed.
func (r *Random) SetSeed(seed uint64) {
	r.src.Seed(seed, seed^0x9e3779b97f4a7c15)
}

// Float64 returns a value in [0, 1).
func (r *Random) Float64() float64 {
	return float64(r.src.Uint64()>>11) / (1 << 53)
}

// Float64Range returns a value in [begin, end).
func (r *Random) Float64Range(begin, end float64) float64 {
	return r.Float64()*(end-begin) + begin
}
