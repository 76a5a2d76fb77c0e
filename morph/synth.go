package morph

import (
	"fmt"

	"github.com/XieJiSS/spectmorph/dsp/signal"
	"github.com/XieJiSS/spectmorph/wavset"
)

// TimeInfo is the engine position at the start of a block.
type TimeInfo struct {
	// TimeMs is the wall-clock time since the engine started.
	TimeMs float64
	// PPQPos is the host transport position in quarter notes.
	PPQPos float64
}

// SynthOption configures a PlanSynth.
type SynthOption func(*PlanSynth)

// WithRegistry sets the module registry. The default is DefaultRegistry.
func WithRegistry(r *Registry) SynthOption {
	return func(s *PlanSynth) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithSeed seeds the engine random generator used by LFOs.
func WithSeed(seed uint64) SynthOption {
	return func(s *PlanSynth) {
		s.rng.SetSeed(seed)
	}
}

// PlanSynth evaluates one morph plan for a fixed set of voices and owns the
// engine-wide state those voices share: LFO states of synced operators,
// the WavSet snapshot of every instrument and the current time.
type PlanSynth struct {
	mixFreq  float64
	registry *Registry

	plan   *Plan
	voices []*PlanVoice

	shared  map[string]*LFOState
	wavsets map[int]*wavset.WavSet
	time    TimeInfo
	rng     *signal.Random
}

// NewPlanSynth returns an engine with the given number of voices. It plays
// silence until a plan is applied.
func NewPlanSynth(mixFreq float64, voices int, opts ...SynthOption) (*PlanSynth, error) {
	if mixFreq <= 0 {
		return nil, fmt.Errorf("plan synth mix freq must be > 0: %v", mixFreq)
	}

	if voices < 1 {
		return nil, fmt.Errorf("plan synth voices must be >= 1: %d", voices)
	}

	s := &PlanSynth{
		mixFreq:  mixFreq,
		registry: DefaultRegistry(),
		shared:   make(map[string]*LFOState),
		wavsets:  make(map[int]*wavset.WavSet),
		rng:      signal.NewRandom(1),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.voices = make([]*PlanVoice, voices)
	for i := range s.voices {
		s.voices[i] = &PlanVoice{synth: s, index: i}
	}

	return s, nil
}

// MixFreq returns the output sample rate.
func (s *PlanSynth) MixFreq() float64 {
	return s.mixFreq
}

// Voices returns all voices.
func (s *PlanSynth) Voices() []*PlanVoice {
	return s.voices
}

// Plan returns the applied plan, or nil.
func (s *PlanSynth) Plan() *Plan {
	return s.plan
}

// TimeInfo returns the position of the current block.
func (s *PlanSynth) TimeInfo() TimeInfo {
	return s.time
}

// Random returns the engine random generator.
func (s *PlanSynth) Random() *signal.Random {
	return s.rng
}

// SharedState returns the synced LFO state of operator name, or nil.
func (s *PlanSynth) SharedState(name string) *LFOState {
	return s.shared[name]
}

// WavSet returns the snapshot registered for instrument id, or nil.
func (s *PlanSynth) WavSet(id int) *wavset.WavSet {
	return s.wavsets[id]
}

// SetWavSet registers ws for instrument id. Source modules of every voice
// stage it; notes already playing keep their old snapshot.
func (s *PlanSynth) SetWavSet(id int, ws *wavset.WavSet) (previous *wavset.WavSet) {
	previous = s.wavsets[id]
	s.wavsets[id] = ws

	for _, v := range s.voices {
		for _, m := range v.order {
			if sm, ok := m.(*sourceModule); ok && sm.id == id {
				sm.src.SetWavSet(ws)
			}
		}
	}

	return previous
}

// UpdateSharedState sets the block position and advances synced LFOs.
// Call it once per block before any voice is processed.
func (s *PlanSynth) UpdateSharedState(ti TimeInfo) {
	s.time = ti

	if len(s.voices) == 0 {
		return
	}

	for _, m := range s.voices[0].order {
		if u, ok := m.(sharedUpdater); ok {
			u.updateSharedState(ti)
		}
	}
}

// PlanUpdate carries modules prepared for a plan. After Apply it holds the
// modules that were replaced; drop it off the audio path.
type PlanUpdate struct {
	plan   *Plan
	order  []string
	voices []voiceModules
}

type voiceModules struct {
	byName map[string]Module
	order  []Module
}

// Plan returns the plan of the update.
func (u *PlanUpdate) Plan() *Plan {
	return u.plan
}

// Prepare clones and binds plan and instantiates its modules for every
// voice. It does not touch engine state and may run concurrently with the
// audio goroutine. Binding failures are returned together with a usable
// update whose failing edges are unbound.
func (s *PlanSynth) Prepare(plan *Plan) (*PlanUpdate, error) {
	p := plan.Clone()
	bindErr := p.Bind()

	u := &PlanUpdate{plan: p, order: p.Order(), voices: make([]voiceModules, len(s.voices))}

	for i, v := range s.voices {
		vm := voiceModules{byName: make(map[string]Module, len(p.ops))}

		for _, op := range p.ops {
			factory := s.registry.Lookup(op.Type)
			if factory == nil {
				return nil, fmt.Errorf("%w: %s", ErrUnknownType, op.Type)
			}

			m := factory(v)
			vm.byName[op.Name] = m
			vm.order = append(vm.order, m)
		}

		u.voices[i] = vm
	}

	return u, bindErr
}

// Apply installs a prepared update. When the plan has the same structure as
// the applied one, existing modules are reconfigured in place and keep
// their state; otherwise the prepared modules replace them. Either way u
// afterwards holds the unused modules.
func (s *PlanSynth) Apply(u *PlanUpdate) {
	if u == nil {
		return
	}

	if s.plan != nil && s.plan.SameStructure(u.plan) {
		s.plan = u.plan
		for _, v := range s.voices {
			v.configure(u.plan, u.order)
		}
		return
	}

	old := s.plan
	s.plan = u.plan

	for i, v := range s.voices {
		prev := voiceModules{byName: v.modules, order: v.order}
		v.install(u.plan, u.order, u.voices[i])
		u.voices[i] = prev
	}

	for name := range s.shared {
		if op := u.plan.Operator(name); op == nil || op.Type != TypeLFO {
			delete(s.shared, name)
		}
	}

	u.plan = old
}

// UpdatePlan prepares and applies plan in one step.
func (s *PlanSynth) UpdatePlan(plan *Plan) error {
	u, err := s.Prepare(plan)
	if u == nil {
		return err
	}

	s.Apply(u)

	return err
}
