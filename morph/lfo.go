package morph

import (
	"math"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/dsp/signal"
)

// LFOState is the running state of one LFO.
type LFOState struct {
	Phase      float64 // cycles in [0, 1)
	LastRandom float64
	Random     float64
	LastTimeMs float64
	LastPPQPos float64
	Value      float64
}

// Restart puts s at the start phase of p and draws a fresh random pair.
// A restart is never treated as a transport rewind, whatever the previous
// beat position was.
func (s *LFOState) Restart(p *LFOParams, rng *signal.Random, ti TimeInfo) {
	s.Phase = core.NormalizePhase(p.StartPhase / 360)
	s.LastRandom = rng.Float64Range(-1, 1)
	s.Random = rng.Float64Range(-1, 1)
	s.LastPPQPos = 0
	s.Advance(p, rng, 0, 0)
	s.LastPPQPos = ti.PPQPos
}

// Advance moves s forward by elapsedMs (wall-clock mode) or to ppqPos
// (beat sync) and recomputes Value.
func (s *LFOState) Advance(p *LFOParams, rng *signal.Random, elapsedMs, ppqPos float64) {
	if p.BeatSync == BeatSyncOff {
		s.Phase += elapsedMs / 1000 * p.Frequency
	} else {
		cycles := p.BeatSync.cycles()

		if s.LastPPQPos > ppqPos {
			// Transport rewind: realign and force a new random pair.
			s.Phase = ppqPos/cycles + 1
		} else {
			s.Phase += (ppqPos - s.LastPPQPos) / cycles
		}

		s.LastPPQPos = ppqPos
	}

	if s.Phase > 1 {
		s.LastRandom = s.Random
		s.Random = rng.Float64Range(-1, 1)
	}

	s.Phase = core.NormalizePhase(s.Phase)
	s.Value = core.Clamp(s.wave(p.Wave)*p.Depth+p.Center, -1, 1)
}

func (s *LFOState) wave(w Wave) float64 {
	ph := s.Phase

	switch w {
	case WaveSine:
		return math.Sin(ph * 2 * math.Pi)
	case WaveTriangle:
		switch {
		case ph < 0.25:
			return 4 * ph
		case ph < 0.75:
			return (ph - 0.5) * -4
		default:
			return 4 * (ph - 1)
		}
	case WaveSawUp:
		return -1 + 2*ph
	case WaveSawDown:
		return 1 - 2*ph
	case WaveSquare:
		if ph < 0.5 {
			return -1
		}
		return 1
	case WaveRandomSH:
		return s.Random
	case WaveRandomLinear:
		return s.LastRandom*(1-ph) + s.Random*ph
	default:
		return 0
	}
}

type lfoModule struct {
	voice  *PlanVoice
	name   string
	p      LFOParams
	local  LFOState
	shared *LFOState
}

func newLFOModule(voice *PlanVoice) Module {
	return &lfoModule{voice: voice}
}

func (m *lfoModule) SetConfig(op *Operator, _ *Binding) {
	m.name = op.Name
	m.p = *op.LFO

	synth := m.voice.synth

	m.shared = synth.shared[op.Name]
	if m.shared == nil {
		m.shared = &LFOState{}
		m.shared.Restart(&m.p, synth.rng, TimeInfo{})
		synth.shared[op.Name] = m.shared
	}
}

// Value returns the current LFO output. Synced LFOs report the engine-wide
// state advanced by UpdateSharedState; others advance their own state to
// the current block time.
func (m *lfoModule) Value() float64 {
	if m.p.SyncVoices {
		return m.shared.Value
	}

	ti := m.voice.synth.time
	if ti.TimeMs > m.local.LastTimeMs {
		m.local.Advance(&m.p, m.voice.synth.rng, ti.TimeMs-m.local.LastTimeMs, ti.PPQPos)
		m.local.LastTimeMs = ti.TimeMs
	}

	return m.local.Value
}

func (m *lfoModule) resetValue(ti TimeInfo) {
	m.local.Restart(&m.p, m.voice.synth.rng, ti)
	m.local.LastTimeMs = ti.TimeMs
}

func (m *lfoModule) updateSharedState(ti TimeInfo) {
	if ti.TimeMs > m.shared.LastTimeMs {
		m.shared.Advance(&m.p, m.voice.synth.rng, ti.TimeMs-m.shared.LastTimeMs, ti.PPQPos)
		m.shared.LastTimeMs = ti.TimeMs
	}
}
