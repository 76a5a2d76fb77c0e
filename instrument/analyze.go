package instrument

import (
	"cmp"
	"fmt"
	"math"
	"math/cmplx"
	"slices"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/dsp/spectrum"
	"github.com/XieJiSS/spectmorph/dsp/window"
	"github.com/XieJiSS/spectmorph/wavset"
)

const (
	// Analysis transforms are this many times longer than the next power
	// of two above the frame size.
	zeroPadding = 2

	// Partials below this level are not tracked.
	peakFloorDB = -90.0
)

type analysis struct {
	mixFreq    float64
	frameSize  int
	frameStep  int
	fftSize    int
	synthSize  int
	window     []float64
	windowSum  float64
	windowPow  float64
	bands      int
	maxPeaks   int
	peakFloor  float64
	plan       *algofft.Plan[complex128]
	in, spec   []complex128
	mag, resid []float64
	windowed   []float64
}

type peakPartial struct {
	freq, mag, phase float64
}

// Analyze builds the spectral model of signal, sampled at mixFreq, whose
// pitch is fundamental. Frames are centred on multiples of the frame step;
// the first one on signal[0], so half a frame of padding precedes the
// signal and is recorded as ZeroValuesAtStart.
func (b *Builder) Analyze(signal []float64, mixFreq, fundamental float64) (*wavset.Audio, error) {
	if mixFreq <= 0 || math.IsNaN(mixFreq) || math.IsInf(mixFreq, 0) {
		return nil, fmt.Errorf("analysis mix freq must be > 0 and finite: %v", mixFreq)
	}

	if fundamental <= 0 {
		return nil, fmt.Errorf("analysis fundamental must be > 0: %v", fundamental)
	}

	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: empty signal", ErrInvalidSample)
	}

	an, err := b.newAnalysis(mixFreq)
	if err != nil {
		return nil, err
	}

	pad := an.frameSize / 2
	padded := make([]float64, pad+len(signal)+an.frameSize)
	copy(padded[pad:], signal)

	frames := (pad + len(signal) + an.frameStep - 1) / an.frameStep

	a := &wavset.Audio{
		MixFreq:           mixFreq,
		FrameSizeMs:       float64(an.frameSize) * 1000 / mixFreq,
		FrameStepMs:       float64(an.frameStep) * 1000 / mixFreq,
		FundamentalFreq:   fundamental,
		LoopPoint:         wavset.NoLoop,
		ZeroValuesAtStart: pad,
		Blocks:            make([]wavset.Block, frames),
	}

	for k := range a.Blocks {
		start := k * an.frameStep
		if err := an.frame(padded[start:start+an.frameSize], &a.Blocks[k]); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (b *Builder) newAnalysis(mixFreq float64) (*analysis, error) {
	frameSize := msToSamples(b.frameSizeMs, mixFreq)
	frameStep := msToSamples(b.frameStepMs, mixFreq)

	if frameStep < 1 || frameSize < 2*frameStep {
		return nil, fmt.Errorf("analysis frame geometry invalid at %v Hz: size %d, step %d", mixFreq, frameSize, frameStep)
	}

	fftSize := window.NextPowerOfTwo(frameSize) * zeroPadding

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, err
	}

	w := window.Generate(window.TypeHann, frameSize, window.WithPeriodic())

	pow := 0.0
	for _, v := range w {
		pow += v * v
	}

	an := &analysis{
		mixFreq:   mixFreq,
		frameSize: frameSize,
		frameStep: frameStep,
		fftSize:   fftSize,
		synthSize: window.NextPowerOfTwo(frameSize),
		window:    w,
		windowSum: window.Sum(w),
		windowPow: pow,
		bands:     b.noiseBands,
		maxPeaks:  b.maxPartials,
		plan:      plan,
		in:        make([]complex128, fftSize),
		spec:      make([]complex128, fftSize),
		mag:       make([]float64, fftSize/2+1),
		resid:     make([]float64, fftSize/2),
		windowed:  make([]float64, frameSize),
	}
	an.peakFloor = core.DBToLinear(peakFloorDB) * an.windowSum / 2

	return an, nil
}

// frame analyses one frame. The windowed frame is rotated so that its
// centre lands on index 0; the spectrum phase then is the phase at the
// frame centre.
func (an *analysis) frame(x []float64, blk *wavset.Block) error {
	n := an.fftSize
	c := an.frameSize / 2

	if err := window.ApplyInto(an.windowed, x, an.window); err != nil {
		return err
	}

	clear(an.in)
	for i, v := range an.windowed {
		an.in[(i-c+n)%n] = complex(v, 0)
	}

	if err := an.plan.Forward(an.spec, an.in); err != nil {
		return err
	}

	spectrum.MagnitudeInto(an.mag, an.spec)

	peaks := spectrum.FindPeaks(an.mag, an.peakFloor, 0)
	partials := make([]peakPartial, 0, min(len(peaks), an.maxPeaks))
	kept := make([]spectrum.Peak, 0, cap(partials))
	copy(an.resid, an.mag)

	for _, p := range peaks {
		if len(partials) == an.maxPeaks {
			break
		}

		freq := p.Bin * an.mixFreq / float64(n)
		if freq <= 0 || freq >= an.mixFreq/2 || sidelobe(p, kept) {
			continue
		}

		// sin(x) = cos(x - π/2); the stored phase is the negated phase at
		// the frame start.
		centre := cmplx.Phase(an.spec[p.Index]) + math.Pi/2
		start := centre - 2*math.Pi*freq*float64(c)/an.mixFreq

		partials = append(partials, peakPartial{
			freq:  freq,
			mag:   p.Magnitude * 2 / an.windowSum,
			phase: -start,
		})
		kept = append(kept, p)

		for k := range an.resid {
			an.resid[k] = max(0, an.resid[k]-p.Magnitude*leakage(math.Abs(float64(k)-p.Bin)/zeroPadding))
		}
	}

	slices.SortFunc(partials, func(a, b peakPartial) int {
		return cmp.Compare(a.freq, b.freq)
	})

	blk.Freqs = make([]float64, len(partials))
	blk.Phases = make([]float64, 2*len(partials))
	for i, p := range partials {
		s, co := math.Sincos(p.phase)
		blk.Freqs[i] = p.freq
		blk.Phases[2*i] = s * p.mag
		blk.Phases[2*i+1] = co * p.mag
	}

	// Band energies of the residual, scaled to the per-bin sine amplitude
	// the noise decoder expects at its block size.
	for i, m := range an.resid {
		an.resid[i] = m * m
	}

	blk.Noise = make([]float64, an.bands)
	spectrum.BandAverages(blk.Noise, an.resid)

	scale := 2 / math.Sqrt(float64(an.synthSize)*an.windowPow)
	for i, e := range blk.Noise {
		blk.Noise[i] = math.Sqrt(e) * scale
	}

	return nil
}

// leakage bounds the Hann window response d bins away from its peak,
// relative to the peak. The main lobe is treated as full leakage.
func leakage(d float64) float64 {
	if d <= 2 {
		return 1
	}

	return 1 / (math.Pi * d * (d*d - 1))
}

// sidelobe reports whether p could be a sidelobe of a stronger peak.
func sidelobe(p spectrum.Peak, stronger []spectrum.Peak) bool {
	for _, q := range stronger {
		if p.Magnitude < 2*q.Magnitude*leakage(math.Abs(p.Bin-q.Bin)/zeroPadding) {
			return true
		}
	}

	return false
}
