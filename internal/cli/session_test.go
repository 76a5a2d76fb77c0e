package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/instrument"
	"github.com/XieJiSS/spectmorph/internal/testutil"
	"github.com/XieJiSS/spectmorph/morph"
	"github.com/XieJiSS/spectmorph/project"
)

func writeInstrument(t *testing.T, dir string) string {
	t.Helper()

	signal := testutil.DeterministicSine(440, 44100, 0.5, 44100/2)
	if err := instrument.WriteWAV(filepath.Join(dir, "a4.wav"), signal, 44100); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	path := filepath.Join(dir, "sine.json")
	raw := `{"name": "sine", "samples": [{"path": "a4.wav", "midi_note": 69, "loop": "frame", "loop_ms": 250}]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestOpenSessionPlaysInstrument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	instPath := writeInstrument(t, dir)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	s, err := OpenSession(ctx, instPath, "", []core.ProcessorOption{core.WithSampleRate(44100)},
		project.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	defer s.Close()

	if s.ID != 1 || s.Instrument.Name != "sine" {
		t.Fatalf("session = id %d name %q, want 1 sine", s.ID, s.Instrument.Name)
	}

	s.Project.TakeControlEvent(project.ControlEventFunc(func(p *project.Project) {
		p.Synth().AddNoteOn(0, 0, 69, 100)
	}))

	out := make([]float64, 8192)
	s.Project.Process(out)
	testutil.RequireFinite(t, out)
	testutil.RequireAudible(t, out[4096:], 1e-3)
}

func TestOpenSessionErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	instPath := writeInstrument(t, dir)

	badPlan := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPlan, []byte(`{"operators": [{"name": "x", "type": "reverb"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	core44 := []core.ProcessorOption{core.WithSampleRate(44100)}

	if _, err := OpenSession(ctx, filepath.Join(dir, "missing.json"), "", core44); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing instrument err = %v, want os.ErrNotExist", err)
	}

	if _, err := OpenSession(ctx, instPath, badPlan, core44); !errors.Is(err, morph.ErrUnknownType) {
		t.Fatalf("bad plan err = %v, want morph.ErrUnknownType", err)
	}
}

func TestLoadPlanReturnsBindErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plan.json")
	raw := `{"operators": [
		{"name": "src", "type": "source", "params": {"instrument": 1}},
		{"name": "out", "type": "output", "params": {"channels": ["nowhere"]}}
	]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := LoadPlan(path)
	if plan == nil {
		t.Fatalf("LoadPlan returned no plan: %v", err)
	}
	if !errors.Is(err, morph.ErrUnknownOperator) {
		t.Fatalf("err = %v, want morph.ErrUnknownOperator", err)
	}
	if plan.Operator("src") == nil {
		t.Fatal("plan lost operator src")
	}
}
