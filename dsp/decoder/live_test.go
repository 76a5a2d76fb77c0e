package decoder

import (
	"errors"
	"math"
	"testing"

	"github.com/XieJiSS/spectmorph/internal/testutil"
	"github.com/XieJiSS/spectmorph/wavset"
)

func TestLiveDecoderSilentWithoutAudio(t *testing.T) {
	for _, ws := range []*wavset.WavSet{nil, {Name: "empty"}} {
		dec := NewLiveDecoder(NewWavSetSource(ws))
		dec.Retrigger(0, 440, 100, 44100)

		if !errors.Is(dec.Err(), wavset.ErrNoMatchingAudio) {
			t.Fatalf("Err = %v, want ErrNoMatchingAudio", dec.Err())
		}

		out := make([]float64, 777)
		for i := range out {
			out[i] = 1
		}
		dec.Process(out, nil)
		testutil.RequireSilent(t, out)
	}
}

func TestLiveDecoderSilentBeforeRetrigger(t *testing.T) {
	dec := NewLiveDecoder(NewWavSetSource(wavset.Single("a", testutil.A440(0))))

	out := []float64{1, 2, 3}
	dec.Process(out, nil)
	testutil.RequireSilent(t, out)
}

func TestLiveDecoderSelectsExactAudio(t *testing.T) {
	a := testutil.A440(0)
	dec := NewLiveDecoder(NewWavSetSource(wavset.Single("a", a)))

	dec.Retrigger(0, 440, 100, 44100)
	if dec.Audio() != a || dec.Err() != nil {
		t.Fatalf("Audio = %p, Err = %v", dec.Audio(), dec.Err())
	}
	if dec.FrameSize() != 512 || dec.FrameStep() != 256 {
		t.Fatalf("frame geometry = %d/%d, want 512/256", dec.FrameSize(), dec.FrameStep())
	}
}

func TestLiveDecoderEndToEnd(t *testing.T) {
	const zeroValues = 256

	dec := NewLiveDecoder(NewWavSetSource(wavset.Single("a", testutil.A440(zeroValues))))
	dec.Retrigger(0, 440, 100, 44100)

	out := make([]float64, 1024)
	dec.Process(out, nil)

	testutil.RequireFinite(t, out)
	testutil.RequireSilent(t, out[:zeroValues])
	testutil.RequireAudible(t, out[zeroValues:], 0.1)

	// Frames 0..2 overlap with unity gain: the middle is the plain sine.
	for n := 256; n < 768; n++ {
		want := 0.5 * math.Sin(2*math.Pi*440*float64(n)/44100)
		if math.Abs(out[n]-want) > 1e-9 {
			t.Fatalf("out[%d] = %v, want %v", n, out[n], want)
		}
	}
}

func TestLiveDecoderOutputLengthAcrossCalls(t *testing.T) {
	whole := NewLiveDecoder(NewWavSetSource(wavset.Single("a", testutil.A440(100))))
	split := NewLiveDecoder(NewWavSetSource(wavset.Single("a", testutil.A440(100))))
	whole.Retrigger(0, 440, 100, 44100)
	split.Retrigger(0, 440, 100, 44100)

	want := make([]float64, 1000)
	whole.Process(want, nil)

	got := make([]float64, 0, 1000)
	for _, n := range []int{1, 99, 256, 300, 344} {
		buf := make([]float64, n)
		split.Process(buf, nil)
		got = append(got, buf...)
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

func TestLiveDecoderEndsWithoutLoop(t *testing.T) {
	dec := NewLiveDecoder(NewWavSetSource(wavset.Single("a", testutil.A440(0))))
	dec.Retrigger(0, 440, 100, 44100)

	out := make([]float64, 4096)
	dec.Process(out, nil)

	testutil.RequireSilent(t, out[1024:])
}

func TestLiveDecoderHoldsLoopPoint(t *testing.T) {
	a := testutil.SineAudio(testutil.AudioSpec{
		Fundamental: 440,
		MixFreq:     44100,
		Frames:      4,
		FrameStep:   256,
		FrameSize:   512,
		Loop:        true,
		LoopPoint:   1,
	})

	dec := NewLiveDecoder(NewWavSetSource(wavset.Single("a", a)))
	dec.Retrigger(0, 440, 100, 44100)

	out := make([]float64, 44100)
	dec.Process(out, nil)

	testutil.RequireFinite(t, out)
	testutil.RequireAudible(t, out[len(out)-4096:], 0.3)
}

func TestLiveDecoderAttackEnvelope(t *testing.T) {
	a := testutil.A440(0)
	a.AttackStartMs = 2
	a.AttackEndMs = 12

	dec := NewLiveDecoder(NewWavSetSource(wavset.Single("a", a)))
	dec.Retrigger(0, 440, 100, 44100)

	out := make([]float64, 1024)
	dec.Process(out, nil)

	start := int(math.Ceil(0.002 * 44100))
	testutil.RequireSilent(t, out[:start])

	for _, n := range []int{300, 400, 500} {
		gain := (float64(n)*1000/44100 - 2) / 10
		want := 0.5 * math.Sin(2*math.Pi*440*float64(n)/44100) * gain
		if math.Abs(out[n]-want) > 1e-9 {
			t.Fatalf("out[%d] = %v, want %v", n, out[n], want)
		}
	}

	want := 0.5 * math.Sin(2*math.Pi*440*600/44100)
	if math.Abs(out[600]-want) > 1e-9 {
		t.Fatalf("out[600] = %v, want full gain %v", out[600], want)
	}
}

func TestLiveDecoderRetargetsPitch(t *testing.T) {
	dec := NewLiveDecoder(NewWavSetSource(wavset.Single("a", testutil.A440(0))))
	dec.Retrigger(0, 440, 100, 44100)

	freq := make([]float64, 300)
	for i := range freq {
		freq[i] = 880
	}

	dec.Process(make([]float64, 300), freq)

	if got := dec.frame.Freqs[0]; got != 880 {
		t.Fatalf("decoded partial at %v Hz, want 880", got)
	}
}

func TestLiveDecoderHoldsOverMalformedFrame(t *testing.T) {
	a := testutil.A440(0)
	a.Blocks[1].Phases = a.Blocks[1].Phases[:1]

	dec := NewLiveDecoder(NewWavSetSource(wavset.Single("a", a)))
	dec.Retrigger(0, 440, 100, 44100)

	out := make([]float64, 768)
	dec.Process(out, nil)

	if !errors.Is(dec.Err(), wavset.ErrInvalidFrameData) {
		t.Fatalf("Err = %v, want ErrInvalidFrameData", dec.Err())
	}

	testutil.RequireFinite(t, out)
	testutil.RequireAudible(t, out[256:512], 0.2)
}

func TestLiveDecoderKeepsSnapshotForNoteInFlight(t *testing.T) {
	old := testutil.A440(0)
	src := NewWavSetSource(wavset.Single("old", old))
	dec := NewLiveDecoder(src)

	ref := NewLiveDecoder(NewWavSetSource(wavset.Single("old", testutil.A440(0))))

	dec.Retrigger(0, 440, 100, 44100)
	ref.Retrigger(0, 440, 100, 44100)

	got := make([]float64, 1024)
	want := make([]float64, 1024)
	dec.Process(got[:300], nil)
	ref.Process(want[:300], nil)

	replacement := testutil.SineAudio(testutil.AudioSpec{
		Fundamental: 440, MixFreq: 44100, Frames: 2, FrameStep: 128, FrameSize: 256,
		Harmonics: []float64{0.1, 0.1},
	})
	src.SetWavSet(wavset.Single("new", replacement))

	dec.Process(got[300:], nil)
	ref.Process(want[300:], nil)

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
	if dec.Audio() != old {
		t.Fatal("decoder switched audio mid-note")
	}

	dec.Retrigger(0, 440, 100, 44100)
	if dec.Audio() != replacement {
		t.Fatal("new snapshot not picked up at retrigger")
	}
	if src.WavSet().Name != "new" {
		t.Fatalf("WavSet = %q, want new", src.WavSet().Name)
	}
}
