package synth

import "github.com/XieJiSS/spectmorph/morph"

// Defaults.
const (
	DefaultVoices         = 64
	DefaultPitchBendRange = 2.0
	DefaultReleaseMs      = 150.0
)

type config struct {
	voices     int
	bendRange  float64
	releaseMs  float64
	controlCC  [2]uint8
	engineOpts []morph.SynthOption
}

func defaultConfig() config {
	return config{
		voices:    DefaultVoices,
		bendRange: DefaultPitchBendRange,
		releaseMs: DefaultReleaseMs,
		controlCC: [2]uint8{1, 2},
	}
}

// Option configures a MidiSynth.
type Option func(*config)

// WithVoices sets the size of the voice pool.
func WithVoices(n int) Option {
	return func(c *config) {
		c.voices = n
	}
}

// WithPitchBendRange sets the pitch bend range in semitones.
func WithPitchBendRange(semitones float64) Option {
	return func(c *config) {
		c.bendRange = semitones
	}
}

// WithReleaseMs sets the time the release envelope takes to fall by 60 dB.
func WithReleaseMs(ms float64) Option {
	return func(c *config) {
		c.releaseMs = ms
	}
}

// WithControlCC maps MIDI controller cc to control input (0 or 1).
func WithControlCC(input int, cc uint8) Option {
	return func(c *config) {
		if input >= 0 && input < len(c.controlCC) {
			c.controlCC[input] = cc
		}
	}
}

// WithEngineOptions passes options to the underlying morph.PlanSynth.
func WithEngineOptions(opts ...morph.SynthOption) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}
