package testutil

import "github.com/XieJiSS/spectmorph/wavset"

// AudioSpec describes a synthetic spectral model.
type AudioSpec struct {
	Fundamental float64
	MixFreq     float64
	Frames      int
	FrameStep   int // samples
	FrameSize   int // samples
	ZeroValues  int
	Harmonics   []float64 // magnitudes of partials 1..n; default {0.5}
	Noise       []float64 // band envelope copied into every frame
	Loop        bool
	LoopPoint   int // frame index, used when Loop is set
}

// SineAudio builds an Audio whose frames hold steady harmonics of the
// fundamental with zero analysed phase.
func SineAudio(spec AudioSpec) *wavset.Audio {
	harmonics := spec.Harmonics
	if len(harmonics) == 0 {
		harmonics = []float64{0.5}
	}

	loop := wavset.NoLoop
	if spec.Loop {
		loop = spec.LoopPoint
	}

	a := &wavset.Audio{
		MixFreq:           spec.MixFreq,
		FrameSizeMs:       float64(spec.FrameSize) * 1000 / spec.MixFreq,
		FrameStepMs:       float64(spec.FrameStep) * 1000 / spec.MixFreq,
		FundamentalFreq:   spec.Fundamental,
		LoopPoint:         loop,
		ZeroValuesAtStart: spec.ZeroValues,
	}

	for range spec.Frames {
		blk := wavset.Block{
			Freqs:  make([]float64, len(harmonics)),
			Phases: make([]float64, 2*len(harmonics)),
			Noise:  append([]float64(nil), spec.Noise...),
		}

		for h, mag := range harmonics {
			blk.Freqs[h] = spec.Fundamental * float64(h+1)
			blk.Phases[2*h+1] = mag
		}

		a.Blocks = append(a.Blocks, blk)
	}

	return a
}

// A440 returns the 440 Hz model with 4 frames, step 256 and size 512 at
// 44.1 kHz, preceded by zeroValues padding samples.
func A440(zeroValues int) *wavset.Audio {
	return SineAudio(AudioSpec{
		Fundamental: 440,
		MixFreq:     44100,
		Frames:      4,
		FrameStep:   256,
		FrameSize:   512,
		ZeroValues:  zeroValues,
	})
}
