package synth

import (
	"errors"
	"math"
	"testing"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/internal/testutil"
	"github.com/XieJiSS/spectmorph/morph"
	"github.com/XieJiSS/spectmorph/wavset"
)

const testMixFreq = 44100.0

func newTestSynth(t *testing.T, opts ...Option) *MidiSynth {
	t.Helper()

	s, err := New([]core.ProcessorOption{core.WithSampleRate(testMixFreq), core.WithBlockSize(256)}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	plan, err := morph.NewPlan(morph.NewSource("src", 1), morph.NewOutput("out", "src"))
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	if err := s.Engine().UpdatePlan(plan); err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}

	s.Engine().SetWavSet(1, wavset.Single("loop", testutil.SineAudio(testutil.AudioSpec{
		Fundamental: 440,
		MixFreq:     testMixFreq,
		Frames:      8,
		FrameStep:   256,
		FrameSize:   512,
		Loop:        true,
		LoopPoint:   4,
	})))

	return s
}

func render(s *MidiSynth, n int) []float64 {
	out := make([]float64, n)
	s.Process(out)

	return out
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Option
	}{
		{"no voices", WithVoices(0)},
		{"negative bend range", WithPitchBendRange(-1)},
		{"zero release", WithReleaseMs(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(nil, tt.opt); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	s, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(s.Voices()) != DefaultVoices || s.MixFreq() != 44100 || s.BlockSize() != 256 {
		t.Fatalf("defaults: voices=%d mix=%v block=%d", len(s.Voices()), s.MixFreq(), s.BlockSize())
	}
}

func TestNoteOnPlays(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(4))
	s.AddNoteOn(0, 0, 69, 100)

	out := render(s, 4096)
	testutil.RequireFinite(t, out)
	testutil.RequireAudible(t, out[1024:], 0.2)

	if s.ActiveVoices() != 1 {
		t.Fatalf("active voices = %d, want 1", s.ActiveVoices())
	}
}

func TestEventOffsetSplitsBlock(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(2))
	s.AddNoteOn(1000, 0, 69, 100)

	out := render(s, 4096)
	testutil.RequireSilent(t, out[:1000])
	testutil.RequireAudible(t, out[2048:], 0.2)
}

func TestReleaseReturnsVoiceToIdle(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(2), WithReleaseMs(10))
	s.AddNoteOn(0, 0, 69, 100)
	render(s, 2048)

	s.AddNoteOff(0, 0, 69)
	render(s, 512)

	if got := s.Voices()[0].State(); got != Release {
		t.Fatalf("state = %v, want release", got)
	}
	if ev := s.DrainOutEvents(nil); len(ev) != 0 {
		t.Fatalf("unexpected out events %v", ev)
	}

	tail := render(s, 8192)
	testutil.RequireSilent(t, tail[len(tail)-1024:])

	events := s.DrainOutEvents(nil)
	if len(events) != 1 || events[0].Kind != VoiceIdle || events[0].Voice != 0 || events[0].Note != 69 {
		t.Fatalf("out events = %+v", events)
	}
	if s.ActiveVoices() != 0 {
		t.Fatalf("active voices = %d, want 0", s.ActiveVoices())
	}
	if len(s.DrainOutEvents(nil)) != 0 {
		t.Fatal("out events not cleared by drain")
	}
}

func TestSustainPedalDefersRelease(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(2))
	s.AddControlChange(0, 0, 64, 127)
	s.AddNoteOn(0, 0, 60, 100)
	s.AddNoteOff(100, 0, 60)
	render(s, 512)

	v := s.Voices()[0]
	if v.State() != On {
		t.Fatalf("state with pedal down = %v, want on", v.State())
	}

	s.AddControlChange(0, 0, 64, 0)
	render(s, 256)

	if v.State() != Release {
		t.Fatalf("state after pedal up = %v, want release", v.State())
	}
}

func TestVoiceAllocation(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(2))
	notes := func() [2]int {
		return [2]int{s.Voices()[0].Note(), s.Voices()[1].Note()}
	}

	s.AddNoteOn(0, 0, 60, 100)
	s.AddNoteOn(0, 0, 62, 100)
	render(s, 256)
	if got := notes(); got != [2]int{60, 62} {
		t.Fatalf("notes = %v, want idle voices used first", got)
	}

	s.AddNoteOn(0, 0, 64, 100)
	render(s, 256)
	if got := notes(); got != [2]int{64, 62} {
		t.Fatalf("notes = %v, want oldest playing voice stolen", got)
	}

	s.AddNoteOff(0, 0, 64)
	render(s, 256)
	s.AddNoteOn(0, 0, 65, 100)
	render(s, 256)
	if got := notes(); got != [2]int{65, 62} {
		t.Fatalf("notes = %v, want released voice stolen before playing one", got)
	}
	if s.Voices()[0].State() != On || s.Voices()[1].State() != On {
		t.Fatal("stolen voices not playing")
	}
}

func TestStealQuietestReleasedVoice(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(2))
	for i, v := range s.Voices() {
		v.state = Release
		v.note = 60 + i
		v.seq = uint64(i + 1)
	}
	s.Voices()[0].level = 0.5
	s.Voices()[1].level = 0.1

	if got := s.allocVoice(); got != s.Voices()[1] {
		t.Fatal("quietest released voice not chosen")
	}

	s.Voices()[1].level = 0.5
	if got := s.allocVoice(); got != s.Voices()[0] {
		t.Fatal("older voice not chosen on equal level")
	}
}

func TestControlChangeRouting(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(1), WithControlCC(1, 74))
	s.AddNoteOn(0, 0, 60, 100)
	s.AddControlChange(0, 0, 1, 127)
	s.AddControlChange(0, 0, 74, 0)
	s.AddPitchBend(0, 0, 8192)
	render(s, 256)

	pv := s.Voices()[0].Plan()
	if pv.ControlInput(0) != 1 || pv.ControlInput(1) != -1 {
		t.Fatalf("control inputs = %v, %v", pv.ControlInput(0), pv.ControlInput(1))
	}
	if s.bend != DefaultPitchBendRange {
		t.Fatalf("bend = %v semitones, want %v", s.bend, DefaultPitchBendRange)
	}
}

func TestAllNotesOff(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(3))
	s.AddNoteOn(0, 0, 60, 100)
	s.AddNoteOn(0, 0, 64, 100)
	s.AddControlChange(10, 0, 123, 0)
	render(s, 256)

	for i, v := range s.Voices()[:2] {
		if v.State() != Release {
			t.Fatalf("voice %d state = %v, want release", i, v.State())
		}
	}
}

func TestAddMidiEvent(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(2))

	if err := s.AddMidiEvent(0, []byte{0x90, 69, 100}); err != nil {
		t.Fatalf("note on: %v", err)
	}
	if err := s.AddMidiEvent(0, []byte{0xF8}); !errors.Is(err, ErrUnsupportedMessage) {
		t.Fatalf("clock: err = %v, want ErrUnsupportedMessage", err)
	}
	render(s, 256)

	if s.Voices()[0].State() != On || s.Voices()[0].Note() != 69 {
		t.Fatal("raw note on not applied")
	}

	// Note on with velocity 0 is a note off.
	if err := s.AddMidiEvent(0, []byte{0x90, 69, 0}); err != nil {
		t.Fatalf("note off: %v", err)
	}
	render(s, 256)

	if s.Voices()[0].State() != Release {
		t.Fatalf("state = %v, want release", s.Voices()[0].State())
	}
}

func TestGainScalesOutput(t *testing.T) {
	t.Parallel()

	ref := newTestSynth(t, WithVoices(1))
	half := newTestSynth(t, WithVoices(1))
	half.SetGain(0.5)

	for _, s := range []*MidiSynth{ref, half} {
		s.AddNoteOn(0, 0, 69, 100)
	}

	a := render(ref, 2048)
	b := render(half, 2048)

	for i := range a {
		a[i] *= 0.5
	}
	testutil.RequireSliceNearlyEqual(t, b, a, 1e-12)
}

func TestTimeAdvance(t *testing.T) {
	t.Parallel()

	s := newTestSynth(t, WithVoices(1))
	s.SetTempo(90)
	render(s, 44100)

	ti := s.TimeInfo()
	if math.Abs(ti.TimeMs-1000) > 1e-6 {
		t.Fatalf("time = %v ms, want 1000", ti.TimeMs)
	}
	if math.Abs(ti.PPQPos-1.5) > 1e-9 {
		t.Fatalf("ppq = %v, want 1.5", ti.PPQPos)
	}
}
