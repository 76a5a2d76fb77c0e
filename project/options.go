package project

import (
	"log/slog"

	"github.com/XieJiSS/spectmorph/instrument"
	"github.com/XieJiSS/spectmorph/synth"
)

// DefaultWorkers is the default size of the rebuild pool.
const DefaultWorkers = 1

type config struct {
	workers     int
	logger      *slog.Logger
	synthOpts   []synth.Option
	builderOpts []instrument.Option
	warmUp      bool
	jobQueue    int
}

func defaultConfig() config {
	return config{
		workers:  DefaultWorkers,
		logger:   slog.Default(),
		warmUp:   true,
		jobQueue: 64,
	}
}

// Option configures a Project.
type Option func(*config)

// WithWorkers sets the number of background rebuild workers.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithLogger sets the logger for non-realtime operations.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSynthOptions passes options to the voice scheduler.
func WithSynthOptions(opts ...synth.Option) Option {
	return func(c *config) {
		c.synthOpts = append(c.synthOpts, opts...)
	}
}

// WithBuilderOptions passes options to the instrument builder.
func WithBuilderOptions(opts ...instrument.Option) Option {
	return func(c *config) {
		c.builderOpts = append(c.builderOpts, opts...)
	}
}

// WithoutWarmUp skips rendering a throwaway voice when the plan changes.
func WithoutWarmUp() Option {
	return func(c *config) {
		c.warmUp = false
	}
}
