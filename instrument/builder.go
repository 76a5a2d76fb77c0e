package instrument

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/wavset"
	"golang.org/x/sync/errgroup"
)

// Builder turns instruments into WavSets. A Builder is immutable and safe
// for concurrent use.
type Builder struct {
	frameSizeMs float64
	frameStepMs float64
	maxPartials int
	noiseBands  int
	workers     int
	logger      *slog.Logger
}

// NewBuilder validates opts and returns a builder.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := defaultBuilder()
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	if b.frameSizeMs <= 0 || math.IsNaN(b.frameSizeMs) {
		return nil, fmt.Errorf("builder frame size must be > 0 ms: %v", b.frameSizeMs)
	}

	if b.frameStepMs <= 0 || b.frameStepMs > b.frameSizeMs {
		return nil, fmt.Errorf("builder frame step must be in (0, frame size]: %v", b.frameStepMs)
	}

	if b.maxPartials < 1 {
		return nil, fmt.Errorf("builder max partials must be >= 1: %d", b.maxPartials)
	}

	if b.noiseBands < 1 {
		return nil, fmt.Errorf("builder noise bands must be >= 1: %d", b.noiseBands)
	}

	if b.workers < 1 {
		return nil, fmt.Errorf("builder workers must be >= 1: %d", b.workers)
	}

	return b, nil
}

// Build analyses every sample of inst and returns the resulting WavSet.
// Samples without a decoded signal are loaded from their path. inst must
// not be edited while Build runs; pass a Clone.
func (b *Builder) Build(ctx context.Context, inst *Instrument) (*wavset.WavSet, error) {
	if len(inst.Samples) == 0 {
		return nil, ErrNoSamples
	}

	start := time.Now()
	waves := make([]wavset.Wave, len(inst.Samples))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, s := range inst.Samples {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			a, err := b.AnalyzeSample(s)
			if err != nil {
				return fmt.Errorf("sample %d (note %d): %w", i, s.MidiNote, err)
			}

			waves[i] = wavset.Wave{
				MidiNote:    s.MidiNote,
				VelocityMin: wavset.VelocityMin,
				VelocityMax: wavset.VelocityMax,
				Audio:       a,
			}

			b.logger.Debug("sample analysed", "instrument", inst.Name, "note", s.MidiNote, "frames", len(a.Blocks))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.logger.Info("instrument built", "instrument", inst.Name, "waves", len(waves), "elapsed", time.Since(start))

	return &wavset.WavSet{Name: inst.Name, Waves: waves}, nil
}

// AnalyzeSample loads s if needed, applies its clip and loop markers and
// analyses it at the pitch of its MIDI note.
func (b *Builder) AnalyzeSample(s *Sample) (*wavset.Audio, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	first := min(len(s.Signal), msToSamples(s.ClipStartMs, s.MixFreq))
	last := len(s.Signal)
	if s.ClipEndMs > 0 {
		last = min(last, msToSamples(s.ClipEndMs, s.MixFreq))
	}

	if last <= first {
		return nil, fmt.Errorf("%w: clip leaves no samples", ErrInvalidSample)
	}

	a, err := b.Analyze(s.Signal[first:last], s.MixFreq, core.NoteToFreq(float64(s.MidiNote)))
	if err != nil {
		return nil, err
	}

	if s.Loop == LoopFrame && len(a.Blocks) >= 2 {
		step := a.FrameStepMs * a.MixFreq / 1000
		// Frame k is centred on clip sample k*step.
		k := int(math.Round(float64(msToSamples(s.LoopMs-s.ClipStartMs, s.MixFreq)) / step))
		a.LoopPoint = max(0, min(k, len(a.Blocks)-2))
	}

	return a, nil
}

func msToSamples(ms, mixFreq float64) int {
	return int(math.Round(ms * mixFreq / 1000))
}
