package instrument

import (
	"log/slog"
	"runtime"
)

// Builder defaults.
const (
	DefaultFrameSizeMs = 40.0
	DefaultFrameStepMs = 10.0
	DefaultMaxPartials = 64
	DefaultNoiseBands  = 32
)

// Option configures a Builder.
type Option func(*Builder)

// WithFrameSizeMs sets the analysis frame length.
func WithFrameSizeMs(ms float64) Option {
	return func(b *Builder) {
		b.frameSizeMs = ms
	}
}

// WithFrameStepMs sets the distance between analysis frames.
func WithFrameStepMs(ms float64) Option {
	return func(b *Builder) {
		b.frameStepMs = ms
	}
}

// WithMaxPartials limits the partials kept per frame.
func WithMaxPartials(n int) Option {
	return func(b *Builder) {
		b.maxPartials = n
	}
}

// WithNoiseBands sets the number of noise envelope bands.
func WithNoiseBands(n int) Option {
	return func(b *Builder) {
		b.noiseBands = n
	}
}

// WithWorkers limits how many samples are analysed concurrently.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithLogger sets the logger for build progress.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func defaultBuilder() *Builder {
	return &Builder{
		frameSizeMs: DefaultFrameSizeMs,
		frameStepMs: DefaultFrameStepMs,
		maxPartials: DefaultMaxPartials,
		noiseBands:  DefaultNoiseBands,
		workers:     runtime.GOMAXPROCS(0),
		logger:      slog.Default(),
	}
}
