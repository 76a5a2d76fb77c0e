package main

import (
	"math"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/wavset"
)

type blockSummary struct {
	partials      int
	strongestFreq float64
	peakDB        float64
	noiseDB       float64
}

func summarizeBlock(b *wavset.Block) blockSummary {
	s := blockSummary{partials: len(b.Freqs), peakDB: math.Inf(-1)}

	peak := 0.0
	for i, f := range b.Freqs {
		if m := b.Magnitude(i); m > peak {
			peak, s.strongestFreq = m, f
		}
	}
	if peak > 0 {
		s.peakDB = core.LinearToDB(peak)
	}

	s.noiseDB = noiseDB(b.Noise)

	return s
}

// noiseDB returns the RMS of the noise envelope in dB.
func noiseDB(bands []float64) float64 {
	if len(bands) == 0 {
		return math.Inf(-1)
	}

	sum := 0.0
	for _, v := range bands {
		sum += v * v
	}
	if sum == 0 {
		return math.Inf(-1)
	}

	return core.LinearToDB(math.Sqrt(sum / float64(len(bands))))
}

type audioSummary struct {
	frames        int
	seconds       float64
	avgPartials   float64
	maxPartials   int
	strongestFreq float64
	peakDB        float64
	noiseDB       float64
}

// summarize reports the frame with the strongest partial and averages over
// all frames.
func summarize(a *wavset.Audio) audioSummary {
	s := audioSummary{
		frames:  len(a.Blocks),
		seconds: float64(len(a.Blocks)) * a.FrameStepMs / 1000,
		peakDB:  math.Inf(-1),
		noiseDB: math.Inf(-1),
	}
	if s.frames == 0 {
		return s
	}

	total := 0
	for i := range a.Blocks {
		b := summarizeBlock(&a.Blocks[i])
		total += b.partials
		s.maxPartials = max(s.maxPartials, b.partials)
		if b.peakDB > s.peakDB {
			s.peakDB, s.strongestFreq = b.peakDB, b.strongestFreq
		}
		s.noiseDB = max(s.noiseDB, b.noiseDB)
	}
	s.avgPartials = float64(total) / float64(s.frames)

	return s
}
