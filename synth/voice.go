package synth

import (
	"math"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/morph"
	approx "github.com/meko-christian/algo-approx"
)

// VoiceState is the scheduling state of a voice.
type VoiceState int

const (
	Idle VoiceState = iota
	On
	Release
)

func (s VoiceState) String() string {
	switch s {
	case Idle:
		return "idle"
	case On:
		return "on"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

const (
	// Release envelope level, in nepers, below which a voice is cut.
	releaseCutoff = 20.0

	// Samples below this absolute level count as silence.
	silenceThreshold = 1e-5

	silenceWindowMs = 50.0
)

// Voice is one slot of the pool.
type Voice struct {
	plan *morph.PlanVoice

	state    VoiceState
	channel  int
	note     int
	velocity int
	freq     float64

	// seq orders voices by note-on time.
	seq uint64
	// sustained marks an On voice whose note-off arrived while the
	// sustain pedal was down.
	sustained bool

	releasePos int
	silent     int
	level      float64
}

// State returns the scheduling state.
func (v *Voice) State() VoiceState {
	return v.state
}

// Note returns the MIDI note the voice plays.
func (v *Voice) Note() int {
	return v.note
}

// Plan returns the morph plan voice driven by v.
func (v *Voice) Plan() *morph.PlanVoice {
	return v.plan
}

func (v *Voice) start(channel, note, velocity int, seq uint64) {
	v.state = On
	v.channel = channel
	v.note = note
	v.velocity = velocity
	v.seq = seq
	v.sustained = false
	v.releasePos = 0
	v.silent = 0
	v.level = 0
	v.freq = core.NoteToFreq(float64(note))

	v.plan.Retrigger(channel, v.freq, velocity)
}

func (v *Voice) release() {
	v.state = Release
	v.sustained = false
	v.releasePos = 0
	v.silent = 0
}

// applyRelease scales buf by the release envelope exp(-rate*pos).
func (v *Voice) applyRelease(buf []float64, rate float64) {
	for i := range buf {
		x := rate * float64(v.releasePos)
		if x >= releaseCutoff {
			buf[i] = 0
		} else {
			buf[i] *= approx.FastExp(-x)
		}
		v.releasePos++
	}
}

// track updates the level and silence counters after rendering buf.
func (v *Voice) track(buf []float64) {
	peak := 0.0
	for _, x := range buf {
		a := math.Abs(x)
		peak = max(peak, a)

		if a > silenceThreshold {
			v.silent = 0
		} else {
			v.silent++
		}
	}
	v.level = peak
}
