package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/instrument"
	"github.com/XieJiSS/spectmorph/morph"
	"github.com/XieJiSS/spectmorph/project"
	"github.com/mitchellh/go-homedir"
)

const pollInterval = 5 * time.Millisecond

// Session is a project with one instrument loaded and analysed.
type Session struct {
	Project    *project.Project
	Instrument *instrument.Instrument
	ID         int
}

// OpenSession loads the instrument at instPath into a new project, applies
// the plan at planPath (empty keeps the default plan) and blocks until the
// instrument is analysed.
func OpenSession(ctx context.Context, instPath, planPath string, coreOpts []core.ProcessorOption, opts ...project.Option) (*Session, error) {
	inst, err := instrument.Load(instPath)
	if err != nil {
		return nil, err
	}

	var plan *morph.Plan
	if planPath != "" {
		plan, err = LoadPlan(planPath)
		if plan == nil {
			return nil, err
		}
		if err != nil {
			slog.Warn("plan has unbound edges", "path", planPath, "error", err)
		}
	}

	p, err := project.New(coreOpts, opts...)
	if err != nil {
		return nil, err
	}

	s := &Session{Project: p, Instrument: inst, ID: p.AddInstrument()}
	p.SetInstrument(s.ID, inst)

	if plan != nil {
		// Bind errors were reported when the plan was loaded.
		_ = p.SetPlan(plan)
	}

	if _, err := p.Rebuild(s.ID); err != nil {
		_ = p.Close()
		return nil, err
	}

	if err := s.wait(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}

	return s, nil
}

// wait pumps control events until the rebuild of s.ID is published.
func (s *Session) wait(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		s.Project.TryUpdate()
		for _, n := range s.Project.TakeNotifications() {
			if n.Instrument != s.ID {
				continue
			}
			switch n.Kind {
			case project.RebuildCompleted:
				return nil
			case project.RebuildFailed:
				return fmt.Errorf("analyse %q: %w", s.Instrument.Name, n.Err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the project workers.
func (s *Session) Close() error {
	return s.Project.Close()
}

// LoadPlan reads a morph plan JSON file. A leading ~ is expanded. Like
// morph.ParsePlan it returns the plan together with any bind error.
func LoadPlan(path string) (*morph.Plan, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	return morph.ParsePlan(raw)
}
