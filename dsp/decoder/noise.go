package decoder

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/dsp/signal"
	"github.com/XieJiSS/spectmorph/dsp/spectrum"
)

// DefaultNoiseSeed seeds the noise generator of decoders built without an
// explicit seed.
const DefaultNoiseSeed = 0x5eed

// NoiseDecoder synthesizes band-limited noise from a band envelope.
//
// Each bin of the half spectrum gets the envelope value of its band as
// amplitude and a random phase; the block is inverse transformed and
// windowed. The random generator is the only state kept between calls.
type NoiseDecoder struct {
	blockSize    int
	audioMixFreq float64
	rng          *signal.Random
	plan         *algofft.Plan[complex128]

	// binPos maps output bin k to its position in the analysis half
	// spectrum, or -1 when the bin lies above the analysed range.
	binPos []int
	half   int

	spec []complex128
	time []complex128
}

// NewNoiseDecoder returns a decoder for blocks of blockSize samples at
// mixFreq, reading envelopes analysed at audioMixFreq. blockSize must be a
// power of two.
func NewNoiseDecoder(audioMixFreq, mixFreq float64, blockSize int, seed uint64) (*NoiseDecoder, error) {
	if audioMixFreq <= 0 || mixFreq <= 0 {
		return nil, fmt.Errorf("noise decoder mix freqs must be > 0: %v, %v", audioMixFreq, mixFreq)
	}

	if blockSize < 2 || blockSize&(blockSize-1) != 0 {
		return nil, fmt.Errorf("noise decoder block size must be a power of two >= 2: %d", blockSize)
	}

	plan, err := algofft.NewPlan64(blockSize)
	if err != nil {
		return nil, fmt.Errorf("noise decoder: %w", err)
	}

	half := blockSize/2 + 1
	binPos := make([]int, half)

	for k := range half {
		freq := float64(k) * mixFreq / float64(blockSize)

		x := freq / (audioMixFreq / 2)
		if x >= 1 {
			binPos[k] = -1
			continue
		}

		binPos[k] = int(x * float64(half))
	}

	return &NoiseDecoder{
		blockSize:    blockSize,
		audioMixFreq: audioMixFreq,
		rng:          signal.NewRandom(seed),
		plan:         plan,
		binPos:       binPos,
		half:         half,
		spec:         make([]complex128, blockSize),
		time:         make([]complex128, blockSize),
	}, nil
}

// BlockSize returns the transform length.
func (d *NoiseDecoder) BlockSize() int {
	return d.blockSize
}

// Process writes one windowed noise block shaped by envelope into out.
// Band b of B covers analysis bins [b*H/B, (b+1)*H/B) of the H-bin half
// spectrum. DC and Nyquist stay empty. out is zeroed when envelope is empty
// or all zero.
func (d *NoiseDecoder) Process(envelope, window, out []float64) {
	core.Zero(out)

	bands := len(envelope)
	if bands == 0 {
		return
	}

	clear(d.spec)

	scale := float64(d.blockSize) / 2
	audible := false

	for k := 1; k < d.blockSize/2; k++ {
		pos := d.binPos[k]
		if pos < 0 {
			break
		}

		amp := envelope[spectrum.BandOf(pos, d.half, bands)]

		// Draw the phase even for silent bins so the sequence does not
		// depend on the envelope.
		phase := d.rng.Float64Range(0, 2*math.Pi)

		if amp <= 0 {
			continue
		}

		s, c := math.Sincos(phase)
		v := complex(amp*scale*c, amp*scale*s)
		d.spec[k] = v
		d.spec[d.blockSize-k] = complex(real(v), -imag(v))
		audible = true
	}

	if !audible {
		return
	}

	if err := d.plan.Inverse(d.time, d.spec); err != nil {
		return
	}

	n := min(len(out), len(window), d.blockSize)
	for i := range n {
		out[i] = real(d.time[i]) * window[i]
	}
}
