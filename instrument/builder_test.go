package instrument

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/XieJiSS/spectmorph/internal/testutil"
)

func sineSample(note int, seconds float64) *Sample {
	freq := 440 * math.Exp2(float64(note-69)/12)

	return &Sample{
		MidiNote: note,
		Signal:   testutil.DeterministicSine(freq, testMixFreq, 0.5, int(seconds*testMixFreq)),
		MixFreq:  testMixFreq,
	}
}

func TestNewBuilderValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Option
	}{
		{"zero frame size", WithFrameSizeMs(0)},
		{"step longer than frame", WithFrameStepMs(50)},
		{"no partials", WithMaxPartials(0)},
		{"no noise bands", WithNoiseBands(0)},
		{"no workers", WithWorkers(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewBuilder(tt.opt); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuildWavSet(t *testing.T) {
	t.Parallel()

	inst := New("sines")
	inst.AddSample(sineSample(57, 0.3))
	inst.AddSample(sineSample(69, 0.3))
	inst.AddSample(sineSample(81, 0.3))

	ws, err := newTestBuilder(t, WithWorkers(2)).Build(context.Background(), inst.Clone())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if ws.Name != "sines" || len(ws.Waves) != 3 {
		t.Fatalf("wavset %q with %d waves", ws.Name, len(ws.Waves))
	}

	for i, note := range []int{57, 69, 81} {
		if ws.Waves[i].MidiNote != note {
			t.Fatalf("wave %d note = %d, want %d", i, ws.Waves[i].MidiNote, note)
		}
	}

	a, err := ws.BestAudio(0, 450, 100)
	if err != nil {
		t.Fatalf("BestAudio: %v", err)
	}
	if a != ws.Waves[1].Audio {
		t.Fatal("450 Hz did not select the A4 wave")
	}
}

func TestBuildEmptyInstrument(t *testing.T) {
	t.Parallel()

	if _, err := newTestBuilder(t).Build(context.Background(), New("empty")); !errors.Is(err, ErrNoSamples) {
		t.Fatalf("err = %v, want ErrNoSamples", err)
	}
}

func TestBuildCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inst := New("x")
	inst.AddSample(sineSample(69, 0.1))

	if _, err := newTestBuilder(t).Build(ctx, inst); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestBuildReportsBadSample(t *testing.T) {
	t.Parallel()

	inst := New("x")
	inst.AddSample(sineSample(69, 0.1))
	inst.AddSample(&Sample{MidiNote: 60})

	if _, err := newTestBuilder(t).Build(context.Background(), inst); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("err = %v, want ErrInvalidSample", err)
	}
}

func TestAnalyzeSampleMarkers(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t)

	s := sineSample(69, 1)
	s.ClipStartMs = 100
	s.ClipEndMs = 600
	s.Loop = LoopFrame
	s.LoopMs = 350

	a, err := b.AnalyzeSample(s)
	if err != nil {
		t.Fatalf("AnalyzeSample: %v", err)
	}

	// 500 ms clip: (882 + 22050) / 441 frames.
	if len(a.Blocks) != 52 {
		t.Fatalf("frames = %d, want 52", len(a.Blocks))
	}
	if a.LoopPoint != 25 {
		t.Fatalf("loop point = %d, want 25", a.LoopPoint)
	}

	s.LoopMs = 599
	a, err = b.AnalyzeSample(s)
	if err != nil {
		t.Fatalf("AnalyzeSample: %v", err)
	}
	if a.LoopPoint != len(a.Blocks)-2 {
		t.Fatalf("loop point = %d, want clamp to %d", a.LoopPoint, len(a.Blocks)-2)
	}
}

func TestSampleValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    Sample
		ok   bool
	}{
		{"plain", Sample{MidiNote: 60}, true},
		{"note too high", Sample{MidiNote: 128}, false},
		{"clip reversed", Sample{MidiNote: 60, ClipStartMs: 200, ClipEndMs: 100}, false},
		{"loop before clip", Sample{MidiNote: 60, ClipStartMs: 200, Loop: LoopFrame, LoopMs: 100}, false},
		{"loop inside clip", Sample{MidiNote: 60, ClipStartMs: 100, ClipEndMs: 500, Loop: LoopFrame, LoopMs: 200}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.s.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, ErrInvalidSample) {
				t.Fatalf("err = %v, want ErrInvalidSample", err)
			}
		})
	}
}
