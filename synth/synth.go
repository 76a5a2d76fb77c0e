package synth

import (
	"fmt"
	"math"
	"slices"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/morph"
	"github.com/cwbudde/algo-vecmath"
)

const (
	ccSustain     = 64
	ccAllNotesOff = 123

	defaultTempo = 120.0
	maxEvents    = 1024
)

// MidiSynth is a polyphonic voice scheduler driving a morph.PlanSynth.
type MidiSynth struct {
	cfg    core.ProcessorConfig
	engine *morph.PlanSynth

	voices []*Voice
	seq    uint64

	events    []Event
	outEvents []OutEvent

	gain      float64
	sustain   bool
	bend      float64
	bendRange float64
	control   [2]float64
	controlCC [2]uint8

	releaseRate   float64
	silenceWindow int

	timeMs float64
	ppqPos float64
	tempo  float64

	voiceBuf []float64
	freqBuf  []float64
}

// New creates a synth. coreOpts set the mix rate and the largest block
// rendered in one piece.
func New(coreOpts []core.ProcessorOption, opts ...Option) (*MidiSynth, error) {
	pc := core.ApplyProcessorOptions(coreOpts...)

	c := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	if c.voices < 1 {
		return nil, fmt.Errorf("midi synth voices must be >= 1: %d", c.voices)
	}

	if c.bendRange < 0 || math.IsNaN(c.bendRange) {
		return nil, fmt.Errorf("midi synth pitch bend range must be >= 0: %v", c.bendRange)
	}

	if c.releaseMs <= 0 || math.IsNaN(c.releaseMs) {
		return nil, fmt.Errorf("midi synth release must be > 0 ms: %v", c.releaseMs)
	}

	engine, err := morph.NewPlanSynth(pc.SampleRate, c.voices, c.engineOpts...)
	if err != nil {
		return nil, err
	}

	s := &MidiSynth{
		cfg:           pc,
		engine:        engine,
		voices:        make([]*Voice, c.voices),
		events:        make([]Event, 0, maxEvents),
		outEvents:     make([]OutEvent, 0, c.voices),
		gain:          1,
		bendRange:     c.bendRange,
		controlCC:     c.controlCC,
		releaseRate:   math.Log(1000) / (c.releaseMs / 1000 * pc.SampleRate),
		silenceWindow: int(math.Ceil(silenceWindowMs / 1000 * pc.SampleRate)),
		tempo:         defaultTempo,
		voiceBuf:      make([]float64, pc.BlockSize),
		freqBuf:       make([]float64, pc.BlockSize),
	}

	for i, pv := range engine.Voices() {
		s.voices[i] = &Voice{plan: pv}
	}

	return s, nil
}

// Engine returns the morph engine the voices run on.
func (s *MidiSynth) Engine() *morph.PlanSynth {
	return s.engine
}

// MixFreq returns the output sample rate.
func (s *MidiSynth) MixFreq() float64 {
	return s.cfg.SampleRate
}

// BlockSize returns the largest block rendered in one piece.
func (s *MidiSynth) BlockSize() int {
	return s.cfg.BlockSize
}

// Voices returns the voice pool.
func (s *MidiSynth) Voices() []*Voice {
	return s.voices
}

// ActiveVoices returns the number of voices that are not idle.
func (s *MidiSynth) ActiveVoices() int {
	n := 0
	for _, v := range s.voices {
		if v.state != Idle {
			n++
		}
	}

	return n
}

// SetGain sets the linear output gain.
func (s *MidiSynth) SetGain(gain float64) {
	s.gain = gain
}

// Gain returns the linear output gain.
func (s *MidiSynth) Gain() float64 {
	return s.gain
}

// SetTempo sets the tempo used to advance the beat position.
func (s *MidiSynth) SetTempo(bpm float64) {
	if bpm > 0 {
		s.tempo = bpm
	}
}

// SetPPQPos moves the beat position, for example after a transport jump.
func (s *MidiSynth) SetPPQPos(pos float64) {
	s.ppqPos = pos
}

// TimeInfo returns the position of the next block.
func (s *MidiSynth) TimeInfo() morph.TimeInfo {
	return morph.TimeInfo{TimeMs: s.timeMs, PPQPos: s.ppqPos}
}

// AddEvent queues ev for the next Process call. Events beyond the queue
// capacity are dropped.
func (s *MidiSynth) AddEvent(ev Event) {
	if len(s.events) < cap(s.events) {
		s.events = append(s.events, ev)
	}
}

// AddMidiEvent parses one raw MIDI channel message and queues it at offset.
func (s *MidiSynth) AddMidiEvent(offset int, raw []byte) error {
	ev, ok := parseMidi(offset, raw)
	if !ok {
		return ErrUnsupportedMessage
	}

	s.AddEvent(ev)

	return nil
}

// AddNoteOn queues a note-on.
func (s *MidiSynth) AddNoteOn(offset, channel, note, velocity int) {
	s.AddEvent(Event{Offset: offset, Kind: NoteOn, Channel: channel, Key: note, Value: velocity})
}

// AddNoteOff queues a note-off.
func (s *MidiSynth) AddNoteOff(offset, channel, note int) {
	s.AddEvent(Event{Offset: offset, Kind: NoteOff, Channel: channel, Key: note})
}

// AddControlChange queues a controller change.
func (s *MidiSynth) AddControlChange(offset, channel, cc, value int) {
	s.AddEvent(Event{Offset: offset, Kind: ControlChange, Channel: channel, Key: cc, Value: value})
}

// AddPitchBend queues a pitch bend in [-8192, 8191].
func (s *MidiSynth) AddPitchBend(offset, channel, bend int) {
	s.AddEvent(Event{Offset: offset, Kind: PitchBend, Channel: channel, Bend: bend})
}

// DrainOutEvents appends the pending outbound events to dst and clears them.
func (s *MidiSynth) DrainOutEvents(dst []OutEvent) []OutEvent {
	dst = append(dst, s.outEvents...)
	s.outEvents = s.outEvents[:0]

	return dst
}

// Process renders len(out) samples, applying queued events at their
// offsets. Events at or beyond len(out) apply after the last sample.
func (s *MidiSynth) Process(out []float64) {
	slices.SortStableFunc(s.events, compareOffset)

	ei := 0
	for start := 0; start < len(out); start += s.cfg.BlockSize {
		end := min(start+s.cfg.BlockSize, len(out))
		ei = s.processBlock(out[start:end], start, ei)
	}

	for ; ei < len(s.events); ei++ {
		s.handle(s.events[ei])
	}

	s.events = s.events[:0]
}

func (s *MidiSynth) processBlock(out []float64, base, ei int) int {
	clear(out)
	s.engine.UpdateSharedState(s.TimeInfo())

	pos := 0
	for pos < len(out) {
		for ei < len(s.events) && s.events[ei].Offset-base <= pos {
			s.handle(s.events[ei])
			ei++
		}

		end := len(out)
		if ei < len(s.events) {
			end = min(end, s.events[ei].Offset-base)
		}

		s.render(out[pos:end])
		pos = end
	}

	if s.gain != 1 {
		vecmath.ScaleBlockInPlace(out, s.gain)
	}

	s.timeMs += float64(len(out)) * 1000 / s.cfg.SampleRate
	s.ppqPos += float64(len(out)) / s.cfg.SampleRate * s.tempo / 60

	return ei
}

// render mixes every active voice into out.
func (s *MidiSynth) render(out []float64) {
	n := len(out)
	buf := s.voiceBuf[:n]
	freq := s.freqBuf[:n]
	ratio := core.SemitonesToRatio(s.bend)

	for i, v := range s.voices {
		if v.state == Idle {
			continue
		}

		f := v.freq * ratio
		for j := range freq {
			freq[j] = f
		}

		v.plan.SetControlInput(0, s.control[0])
		v.plan.SetControlInput(1, s.control[1])
		v.plan.Process(buf, freq)

		if v.state == Release {
			v.applyRelease(buf, s.releaseRate)
		}

		v.track(buf)
		vecmath.AddBlockInPlace(out, buf)

		if v.state == Release && v.silent >= s.silenceWindow {
			v.state = Idle
			s.outEvents = append(s.outEvents, OutEvent{Kind: VoiceIdle, Voice: i, Note: v.note})
		}
	}
}

func (s *MidiSynth) handle(ev Event) {
	switch ev.Kind {
	case NoteOn:
		if ev.Value == 0 {
			s.noteOff(ev.Channel, ev.Key)
			return
		}
		s.noteOn(ev.Channel, ev.Key, ev.Value)

	case NoteOff:
		s.noteOff(ev.Channel, ev.Key)

	case ControlChange:
		s.controlChange(ev.Key, ev.Value)

	case PitchBend:
		s.bend = float64(ev.Bend) / 8192 * s.bendRange
	}
}

func (s *MidiSynth) noteOn(channel, note, velocity int) {
	v := s.allocVoice()
	s.seq++
	v.start(channel, note, velocity, s.seq)
}

// allocVoice picks an idle voice, else the quietest released voice, else
// the oldest playing one. Ties go to the older voice.
func (s *MidiSynth) allocVoice() *Voice {
	var best *Voice

	for _, v := range s.voices {
		if v.state == Idle {
			return v
		}

		if v.state == Release && (best == nil || v.level < best.level || (v.level == best.level && v.seq < best.seq)) {
			best = v
		}
	}

	if best != nil {
		return best
	}

	for _, v := range s.voices {
		if best == nil || v.seq < best.seq {
			best = v
		}
	}

	return best
}

func (s *MidiSynth) noteOff(channel, note int) {
	for _, v := range s.voices {
		if v.state != On || v.channel != channel || v.note != note {
			continue
		}

		if s.sustain {
			v.sustained = true
		} else {
			v.release()
		}
	}
}

func (s *MidiSynth) controlChange(cc, value int) {
	switch cc {
	case ccSustain:
		s.sustain = value >= 64
		if !s.sustain {
			for _, v := range s.voices {
				if v.state == On && v.sustained {
					v.release()
				}
			}
		}

	case ccAllNotesOff:
		for _, v := range s.voices {
			if v.state == On {
				v.release()
			}
		}
	}

	for i, mapped := range s.controlCC {
		if int(mapped) == cc {
			s.control[i] = core.Clamp(float64(value)/127*2-1, -1, 1)
		}
	}
}
