package decoder

import (
	"fmt"
	"math"

	"github.com/XieJiSS/spectmorph/dsp/buffer"
	"github.com/XieJiSS/spectmorph/dsp/partial"
	"github.com/XieJiSS/spectmorph/dsp/window"
	"github.com/XieJiSS/spectmorph/wavset"
)

// Option configures a LiveDecoder.
type Option func(*LiveDecoder)

// WithNoiseSeed seeds the noise generator.
func WithNoiseSeed(seed uint64) Option {
	return func(d *LiveDecoder) {
		d.seed = seed
	}
}

// LiveDecoder is the per-voice decoding state machine.
type LiveDecoder struct {
	source Source
	seed   uint64

	audio *wavset.Audio
	err   error

	sine    *SineDecoder
	noise   *NoiseDecoder
	tracker *partial.Tracker

	window  []float64
	samples *buffer.Buffer
	decoded []float64
	frame   partial.Frame

	frameSize  int
	frameStep  int
	zeroValues int
	loopPoint  int

	haveSamples int
	pos         int
	frameIdx    int
	envPos      int

	freq    float64
	mixFreq float64
}

// NewLiveDecoder returns a decoder reading from src. It stays silent until
// the first Retrigger.
func NewLiveDecoder(src Source, opts ...Option) *LiveDecoder {
	d := &LiveDecoder{
		source:  src,
		seed:    DefaultNoiseSeed,
		samples: buffer.New(0),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

// Source returns the frame source.
func (d *LiveDecoder) Source() Source {
	return d.source
}

// Audio returns the model selected by the last retrigger, or nil.
func (d *LiveDecoder) Audio() *wavset.Audio {
	return d.audio
}

// Err returns the last non-fatal condition: wavset.ErrNoMatchingAudio
// after a retrigger that found nothing to play, or a wrapped
// wavset.ErrInvalidFrameData after a malformed frame was held over.
func (d *LiveDecoder) Err() error {
	return d.err
}

// FrameStep returns the frame step in samples at the playback rate.
func (d *LiveDecoder) FrameStep() int {
	return d.frameStep
}

// FrameSize returns the frame size in samples at the playback rate.
func (d *LiveDecoder) FrameSize() int {
	return d.frameSize
}

// Retrigger starts a new note. Decoder state is reset; the source selects
// the model nearest to freq.
func (d *LiveDecoder) Retrigger(channel int, freq float64, velocity int, mixFreq float64) {
	d.freq = freq
	d.mixFreq = mixFreq
	d.err = nil
	d.audio = nil

	if d.source == nil {
		d.err = wavset.ErrNoMatchingAudio
		return
	}

	d.source.Retrigger(channel, freq, velocity, mixFreq)

	audio := d.source.Audio()
	if audio == nil {
		d.err = wavset.ErrNoMatchingAudio
		return
	}

	if err := d.setup(audio, mixFreq); err != nil {
		d.err = fmt.Errorf("%w: %w", wavset.ErrInvalidFrameData, err)
		return
	}

	d.audio = audio
	d.samples.Resize(d.frameSize)
	d.tracker.Reset(d.frameStep, mixFreq)
	d.frame.Reset()

	d.haveSamples = 0
	d.pos = 0
	d.frameIdx = 0
	d.envPos = 0
}

func (d *LiveDecoder) setup(audio *wavset.Audio, mixFreq float64) error {
	if err := audio.Validate(); err != nil {
		return err
	}

	if mixFreq <= 0 || math.IsNaN(mixFreq) || math.IsInf(mixFreq, 0) {
		return fmt.Errorf("live decoder mix freq must be > 0 and finite: %v", mixFreq)
	}

	frameSize := int(math.Round(audio.FrameSizeMs * mixFreq / 1000))
	frameStep := int(math.Round(audio.FrameStepMs * mixFreq / 1000))

	if frameStep < 1 || frameSize < frameStep {
		return fmt.Errorf("live decoder frame geometry invalid: size %d, step %d", frameSize, frameStep)
	}

	d.zeroValues = int(math.Round(float64(audio.ZeroValuesAtStart) * mixFreq / audio.MixFreq))
	d.loopPoint = audio.LoopPoint

	if frameSize != d.frameSize || frameStep != d.frameStep || d.window == nil {
		w, err := window.Synthesis(window.TypeHann, frameSize)
		if err != nil {
			return err
		}

		// Overlapping windows at frameStep sum to one.
		scale := float64(frameStep) / window.Sum(w)
		for i := range w {
			w[i] *= scale
		}

		d.window = w
		d.decoded = make([]float64, frameSize)
		d.frameSize = frameSize
		d.frameStep = frameStep
		d.noise = nil
	}

	if d.sine == nil || d.sine.mixFreq != mixFreq {
		sine, err := NewSineDecoder(mixFreq)
		if err != nil {
			return err
		}
		d.sine = sine
		d.noise = nil
	}

	// The noise generator keeps running across notes.
	if d.noise == nil || d.noise.audioMixFreq != audio.MixFreq {
		noise, err := NewNoiseDecoder(audio.MixFreq, mixFreq, len(d.window), d.seed)
		if err != nil {
			return err
		}
		d.noise = noise
	}

	if d.tracker == nil {
		tracker, err := partial.NewTracker(frameStep, mixFreq)
		if err != nil {
			return err
		}
		d.tracker = tracker
	}

	return nil
}

// Process writes len(out) samples. freqIn, when not nil, holds the wanted
// playback frequency in Hz per sample; it is read at frame boundaries.
// Without a selected model out is all zeros.
func (d *LiveDecoder) Process(out, freqIn []float64) {
	if d.audio == nil {
		clear(out)
		return
	}

	for i := range out {
		if d.haveSamples == 0 {
			want := d.freq
			if i < len(freqIn) && freqIn[i] > 0 {
				want = freqIn[i]
			}

			d.samples.Shift(d.frameStep)

			if d.source.Block(d.frameIdx+1) != nil {
				d.decodeFrame(want)

				if d.frameIdx != d.loopPoint {
					d.frameIdx++
				}
			}

			d.pos = 0
			d.haveSamples = d.frameStep
		}

		v := 0.0
		if d.envPos >= d.zeroValues {
			v = d.samples.At(d.pos) * d.attackGain()
		}

		out[i] = v

		d.pos++
		d.envPos++
		d.haveSamples--
	}
}

func (d *LiveDecoder) decodeFrame(wantFreq float64) {
	blk := d.source.Block(d.frameIdx)

	if err := blk.Validate(); err != nil {
		d.err = err
		d.tracker.Continue(&d.frame)
	} else {
		d.frame.CopyFrom(blk)
		d.tracker.Track(&d.frame, wantFreq/d.audio.FundamentalFreq)
	}

	d.sine.Process(&d.frame, d.window, d.decoded)
	d.samples.Accumulate(d.decoded)

	d.noise.Process(d.frame.Noise, d.window, d.decoded)
	d.samples.Accumulate(d.decoded)
}

func (d *LiveDecoder) attackGain() float64 {
	ms := float64(d.envPos) * 1000 / d.mixFreq

	switch {
	case ms < d.audio.AttackStartMs:
		return 0
	case ms < d.audio.AttackEndMs:
		return (ms - d.audio.AttackStartMs) / (d.audio.AttackEndMs - d.audio.AttackStartMs)
	default:
		return 1
	}
}
