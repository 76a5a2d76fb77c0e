package project

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/instrument"
	"github.com/XieJiSS/spectmorph/internal/testutil"
	"github.com/XieJiSS/spectmorph/morph"
	"github.com/XieJiSS/spectmorph/wavset"
)

const testMixFreq = 44100.0

func newTestProject(t *testing.T, opts ...Option) *Project {
	t.Helper()

	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)

	p, err := New([]core.ProcessorOption{core.WithSampleRate(testMixFreq), core.WithBlockSize(256)}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(func() {
		if err := p.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	return p
}

func sineInstrument(note int) *instrument.Instrument {
	inst := instrument.New("sine")
	inst.AddSample(&instrument.Sample{
		MidiNote: note,
		Signal:   testutil.DeterministicSine(core.NoteToFreq(float64(note)), testMixFreq, 0.5, 8820),
		MixFreq:  testMixFreq,
	})

	return inst
}

// waitFor renders blocks until a notification of kind arrives.
func waitFor(t *testing.T, p *Project, kind NotifyKind) Notification {
	t.Helper()

	buf := make([]float64, 256)
	deadline := time.Now().Add(20 * time.Second)

	for time.Now().Before(deadline) {
		p.Process(buf)

		for _, n := range p.TakeNotifications() {
			if n.Kind == kind {
				return n
			}
		}

		time.Sleep(time.Millisecond)
	}

	t.Fatalf("no %v notification", kind)

	return Notification{}
}

func TestControlEventsRunInOrderOnce(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	var got []string
	p.TakeControlEvent(ControlEventFunc(func(*Project) { got = append(got, "A") }))
	p.TakeControlEvent(ControlEventFunc(func(*Project) { got = append(got, "B") }))

	if !p.TryUpdate() {
		t.Fatal("TryUpdate failed without contention")
	}
	p.TryUpdate()

	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("events ran as %v, want [A B]", got)
	}

	p.TakeControlEvent(ControlEventFunc(func(*Project) { got = append(got, "C") }))
	if n := len(p.events.events); n != 1 {
		t.Fatalf("queue holds %d events after take, want 1", n)
	}

	p.TryUpdate()
	if len(got) != 3 || got[2] != "C" {
		t.Fatalf("events ran as %v", got)
	}
}

func TestTryUpdateDoesNotBlock(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	ran := false
	p.TakeControlEvent(ControlEventFunc(func(*Project) { ran = true }))

	p.synthMu.Lock()
	if p.TryUpdate() {
		p.synthMu.Unlock()
		t.Fatal("TryUpdate succeeded while locked")
	}

	// Rendering goes on with the old state.
	out := make([]float64, 256)
	p.synth.Process(out)
	p.synthMu.Unlock()

	if ran {
		t.Fatal("event ran under contention")
	}
	if p.events.pending() != 1 {
		t.Fatal("event lost under contention")
	}

	p.Process(out)
	if !ran {
		t.Fatal("event did not run on the next block")
	}
}

func TestAddInstrumentUsesFirstFreeID(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	for want := 1; want <= 3; want++ {
		if got := p.AddInstrument(); got != want {
			t.Fatalf("AddInstrument = %d, want %d", got, want)
		}
	}

	if p.Instrument(2) == nil || p.Instrument(4) != nil {
		t.Fatal("unexpected instrument table")
	}
}

func TestSetVolume(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	var seen []float64
	p.OnVolumeChanged(func(db float64) { seen = append(seen, db) })

	p.SetVolume(-6)

	if len(seen) != 1 || seen[0] != -6 || p.Volume() != -6 {
		t.Fatalf("observers saw %v, volume %v", seen, p.Volume())
	}

	if p.synth.Gain() != 1 {
		t.Fatal("gain changed before the audio side ran")
	}

	p.Process(make([]float64, 64))
	if math.Abs(p.synth.Gain()-core.DBToLinear(-6)) > 1e-12 {
		t.Fatalf("gain = %v, want %v", p.synth.Gain(), core.DBToLinear(-6))
	}
}

func TestRebuildPublishesWavSet(t *testing.T) {
	t.Parallel()

	p := newTestProject(t, WithWorkers(2))
	id := p.AddInstrument()
	p.SetInstrument(id, sineInstrument(69))

	ok, err := p.Rebuild(id)
	if err != nil || !ok {
		t.Fatalf("Rebuild = %v, %v", ok, err)
	}

	if ok, _ := p.Rebuild(id); ok {
		t.Fatal("same version rebuilt twice")
	}

	n := waitFor(t, p, RebuildCompleted)
	if n.Instrument != id {
		t.Fatalf("completed instrument %d, want %d", n.Instrument, id)
	}

	ws := p.synth.Engine().WavSet(id)
	if ws == nil || len(ws.Waves) != 1 || ws.Waves[0].MidiNote != 69 {
		t.Fatalf("published wavset = %+v", ws)
	}

	// The default plan plays instrument 1.
	p.synth.AddNoteOn(0, 0, 69, 100)
	out := make([]float64, 4096)
	p.Process(out)
	testutil.RequireAudible(t, out[2048:], 0.1)

	p.Process(make([]float64, 16))
	if !p.VoicesActive() {
		t.Fatal("VoicesActive = false while a note plays")
	}

	p.Instrument(id).Touch()
	if ok, _ := p.Rebuild(id); !ok {
		t.Fatal("edited instrument not rebuilt")
	}
	waitFor(t, p, RebuildCompleted)
}

func TestStaleRebuildDoesNotReplaceNewer(t *testing.T) {
	t.Parallel()

	p := newTestProject(t, WithWorkers(2))
	id := p.AddInstrument()

	p.stateMu.Lock()
	first, second := p.nextSeq(), p.nextSeq()
	p.stateMu.Unlock()

	older := wavset.Single("older", testutil.A440(0))
	newer := wavset.Single("newer", testutil.A440(0))

	// The second build finishes first.
	p.finish(rebuildJob{id: id, version: 2, seq: second}, newer, nil)
	p.finish(rebuildJob{id: id, version: 1, seq: first}, older, nil)

	p.Process(make([]float64, 16))

	completed := 0
	for _, n := range p.TakeNotifications() {
		if n.Kind == RebuildCompleted {
			completed++
		}
	}

	if completed != 1 {
		t.Fatalf("completed = %d, want 1", completed)
	}
	if got := p.synth.Engine().WavSet(id); got != newer {
		t.Fatalf("published wavset = %+v, want %q", got, newer.Name)
	}

	// A rebuild requested before SetWavSet does not replace it.
	p.stateMu.Lock()
	pending := p.nextSeq()
	p.stateMu.Unlock()

	manual := wavset.Single("manual", testutil.A440(0))
	p.SetWavSet(id, manual)
	p.finish(rebuildJob{id: id, version: 3, seq: pending}, older, nil)

	p.Process(make([]float64, 16))
	if got := p.synth.Engine().WavSet(id); got != manual {
		t.Fatalf("published wavset = %+v, want %q", got, manual.Name)
	}
}

func TestRebuildFailure(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	id := p.AddInstrument()
	p.Instrument(id).AddSample(&instrument.Sample{MidiNote: 60})

	if _, err := p.Rebuild(id); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	n := waitFor(t, p, RebuildFailed)
	if n.Instrument != id || !errors.Is(n.Err, instrument.ErrInvalidSample) {
		t.Fatalf("failure = %+v", n)
	}

	// A failed version may be retried.
	if ok, _ := p.Rebuild(id); !ok {
		t.Fatal("failed build not retried")
	}
}

func TestRebuildErrors(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	if _, err := p.Rebuild(7); !errors.Is(err, ErrUnknownInstrument) {
		t.Fatalf("err = %v, want ErrUnknownInstrument", err)
	}

	id := p.AddInstrument()
	p.Instrument(id).AddSample(&instrument.Sample{MidiNote: 60})

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Rebuild(id); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestSetPlanAppliesOnAudioSide(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	p.SetWavSet(2, wavset.Single("a", testutil.A440(0)))

	plan, err := morph.NewPlan(morph.NewSource("src", 2), morph.NewOutput("out", "src"))
	if err != nil {
		t.Fatal(err)
	}

	if err := p.SetPlan(plan); err != nil {
		t.Fatalf("SetPlan: %v", err)
	}

	if p.synth.Engine().Plan().Operator("src") != nil {
		t.Fatal("plan applied before the audio side ran")
	}
	if p.Plan().Operator("src") == nil {
		t.Fatal("Plan does not return the new plan")
	}

	p.Process(make([]float64, 64))

	if p.synth.Engine().Plan().Operator("src") == nil {
		t.Fatal("plan not applied")
	}
	if p.synth.Engine().WavSet(2) == nil {
		t.Fatal("wavset not published")
	}
	if len(p.retired) == 0 {
		t.Fatal("replaced modules not parked")
	}

	p.TakeNotifications()
	if len(p.retired) != 0 {
		t.Fatal("parked objects not dropped off the audio path")
	}
}

func TestEditPlan(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	if err := p.EditPlan(func(plan *morph.Plan) {}); err != nil {
		t.Fatalf("EditPlan: %v", err)
	}
	if n := p.events.pending(); n != 0 {
		t.Fatalf("unchanged plan queued %d events", n)
	}

	err := p.EditPlan(func(plan *morph.Plan) {
		if err := plan.Add(morph.NewLinear("mix", morph.LinearParams{Left: "source"})); err != nil {
			t.Errorf("Add: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("EditPlan: %v", err)
	}

	err = p.EditPlan(func(plan *morph.Plan) {
		prop := plan.Operator("mix").Properties()[0]
		prop.OnChange(plan.Changed)
		prop.SetFloat(0.5)
	})
	if err != nil {
		t.Fatalf("EditPlan: %v", err)
	}

	p.Process(make([]float64, 64))

	op := p.synth.Engine().Plan().Operator("mix")
	if op == nil || op.Linear.Morphing != 0.5 {
		t.Fatalf("applied operator = %+v", op)
	}
	if got := p.Plan().Operator("mix").Linear.Morphing; got != 0.5 {
		t.Fatalf("project plan morphing = %v, want 0.5", got)
	}
}

func TestSetPlanBindError(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	raw := []byte(`{"operators": [
		{"name": "x", "type": "linear", "params": {"left": "y"}},
		{"name": "y", "type": "linear", "params": {"left": "x"}},
		{"name": "out", "type": "output", "params": {"channels": ["x"]}}
	]}`)

	plan, err := morph.ParsePlan(raw)
	if !errors.Is(err, morph.ErrPlanCycle) {
		t.Fatalf("ParsePlan err = %v", err)
	}

	if err := p.SetPlan(plan); !errors.Is(err, morph.ErrPlanCycle) {
		t.Fatalf("SetPlan err = %v, want ErrPlanCycle", err)
	}

	p.Process(make([]float64, 64))
	if p.synth.Engine().Plan().Operator("x") == nil {
		t.Fatal("plan with a rejected edge not applied")
	}
}
