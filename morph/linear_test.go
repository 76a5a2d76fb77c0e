package morph

import (
	"math"
	"testing"

	"github.com/XieJiSS/spectmorph/wavset"
)

func linearBlock(t *testing.T, p LinearParams, left, right *wavset.WavSet, setup func(v *PlanVoice)) *wavset.Block {
	t.Helper()

	p.Left, p.Right = "a", "b"
	s := newTestSynth(t, 1)
	s.SetWavSet(1, left)
	s.SetWavSet(2, right)

	plan, _ := NewPlan(NewSource("a", 1), NewSource("b", 2), NewLinear("mix", p))
	if err := s.UpdatePlan(plan); err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}

	v := s.Voices()[0]
	if setup != nil {
		setup(v)
	}

	src := v.Module("mix").(SourceModule).Source()
	src.Retrigger(0, 440, 100, testMixFreq)

	if a := src.Audio(); a == nil || a.FundamentalFreq != 1 {
		t.Fatalf("blended audio header = %+v", a)
	}

	b := src.Block(0)
	if b == nil {
		t.Fatal("Block(0) = nil")
	}

	return b
}

func requirePartials(t *testing.T, b *wavset.Block, freqs, mags []float64) {
	t.Helper()

	if len(b.Freqs) != len(freqs) {
		t.Fatalf("freqs = %v, want %v", b.Freqs, freqs)
	}

	for i := range freqs {
		if math.Abs(b.Freqs[i]-freqs[i]) > 1e-12 || math.Abs(b.Magnitude(i)-mags[i]) > 1e-12 {
			t.Fatalf("partial %d = (%v, %v), want (%v, %v)", i, b.Freqs[i], b.Magnitude(i), freqs[i], mags[i])
		}
	}
}

func TestLinearMorphEndpoints(t *testing.T) {
	t.Parallel()

	left := harmonicSet(440, 0.5)
	right := harmonicSet(440, 0.1, 0.2)

	b := linearBlock(t, LinearParams{Morphing: -1}, left, right, nil)
	requirePartials(t, b, []float64{1, 2}, []float64{0.5, 0})

	b = linearBlock(t, LinearParams{Morphing: 1}, left, right, nil)
	requirePartials(t, b, []float64{1, 2}, []float64{0.1, 0.2})
}

func TestLinearMorphInterpolation(t *testing.T) {
	t.Parallel()

	left := harmonicSet(440, 0.5)
	right := harmonicSet(440, 0.1, 0.2)

	b := linearBlock(t, LinearParams{Morphing: 0}, left, right, nil)
	requirePartials(t, b, []float64{1, 2}, []float64{0.3, 0.1})

	b = linearBlock(t, LinearParams{Morphing: 0, DBLinear: true}, left, right, nil)
	requirePartials(t, b, []float64{1, 2}, []float64{math.Sqrt(0.5 * 0.1), 0.1})
}

func TestLinearNormalisesFundamentals(t *testing.T) {
	t.Parallel()

	// The 220 Hz partials normalise to 1 and 2. The left fundamental
	// matches the silent first one.
	left := harmonicSet(440, 0.5)
	right := harmonicSet(220, 0, 0.4)

	b := linearBlock(t, LinearParams{Morphing: 0}, left, right, nil)
	requirePartials(t, b, []float64{1, 2}, []float64{0.25, 0.2})
}

func TestLinearControlInputs(t *testing.T) {
	t.Parallel()

	left := harmonicSet(440, 0.5)
	right := harmonicSet(440, 0.1)

	b := linearBlock(t, LinearParams{ControlType: ControlInput2, Morphing: -1}, left, right, func(v *PlanVoice) {
		v.SetControlInput(1, 1)
	})
	requirePartials(t, b, []float64{1}, []float64{0.1})

	b = linearBlock(t, LinearParams{ControlType: ControlInput1}, left, right, func(v *PlanVoice) {
		v.SetControlInput(0, -1)
	})
	requirePartials(t, b, []float64{1}, []float64{0.5})
}

func TestLinearNoiseBlend(t *testing.T) {
	t.Parallel()

	left := harmonicSet(440, 0.5)
	right := harmonicSet(440, 0.5)
	left.Waves[0].Audio.Blocks[0].Noise = []float64{0.1, 0.2}
	right.Waves[0].Audio.Blocks[0].Noise = []float64{0.3}

	b := linearBlock(t, LinearParams{Morphing: 0}, left, right, nil)
	if len(b.Noise) != 2 || math.Abs(b.Noise[0]-0.2) > 1e-12 || math.Abs(b.Noise[1]-0.1) > 1e-12 {
		t.Fatalf("noise = %v, want [0.2 0.1]", b.Noise)
	}
}

func TestLinearSingleInputFades(t *testing.T) {
	t.Parallel()

	b := linearBlock(t, LinearParams{Morphing: 0}, harmonicSet(440, 0.8), nil, nil)
	requirePartials(t, b, []float64{1}, []float64{0.4})
}
