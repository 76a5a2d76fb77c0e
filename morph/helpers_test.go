package morph

import (
	"testing"

	"github.com/XieJiSS/spectmorph/internal/testutil"
	"github.com/XieJiSS/spectmorph/wavset"
)

const testMixFreq = 44100.0

func newTestSynth(t *testing.T, voices int, ops ...*Operator) *PlanSynth {
	t.Helper()

	s, err := NewPlanSynth(testMixFreq, voices)
	if err != nil {
		t.Fatalf("NewPlanSynth: %v", err)
	}

	if len(ops) == 0 {
		return s
	}

	p, err := NewPlan(ops...)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	if err := s.UpdatePlan(p); err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}

	return s
}

func harmonicSet(fundamental float64, mags ...float64) *wavset.WavSet {
	return wavset.Single("test", testutil.SineAudio(testutil.AudioSpec{
		Fundamental: fundamental,
		MixFreq:     testMixFreq,
		Frames:      8,
		FrameStep:   256,
		FrameSize:   512,
		Harmonics:   mags,
	}))
}
