package morph

import (
	"math"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/dsp/decoder"
	"github.com/XieJiSS/spectmorph/dsp/partial"
	"github.com/XieJiSS/spectmorph/wavset"
)

type linearModule struct {
	voice *PlanVoice
	p     LinearParams

	left, right decoder.Source
	control     ValueModule

	src linearSource
}

func newLinearModule(voice *PlanVoice) Module {
	m := &linearModule{voice: voice}
	m.src.m = m

	return m
}

func (m *linearModule) SetConfig(op *Operator, b *Binding) {
	m.p = *op.Linear
	m.left = b.SourceInput(RoleLeft)
	m.right = b.SourceInput(RoleRight)
	m.control = b.ValueInput(RoleControl)
}

func (m *linearModule) Source() decoder.Source {
	return &m.src
}

// morph returns the blend position in [0, 1]; 0 is the left source.
func (m *linearModule) morph() float64 {
	var c float64

	switch m.p.ControlType {
	case ControlGUI:
		c = m.p.Morphing
	case ControlInput1:
		c = m.voice.ControlInput(0)
	case ControlInput2:
		c = m.voice.ControlInput(1)
	case ControlOperator:
		if m.control != nil {
			c = m.control.Value()
		}
	}

	return core.Clamp((c+1)/2, 0, 1)
}

// linearSource blends the frames of both inputs. Its frequencies are
// normalised to a fundamental of 1 Hz.
type linearSource struct {
	m *linearModule

	la, ra *wavset.Audio
	audio  wavset.Audio
	active bool

	block     wavset.Block
	usedRight []bool
}

func (s *linearSource) Retrigger(channel int, freq float64, velocity int, mixFreq float64) {
	s.la, s.ra = nil, nil

	if s.m.left != nil {
		s.m.left.Retrigger(channel, freq, velocity, mixFreq)
		s.la = s.m.left.Audio()
	}

	if s.m.right != nil {
		s.m.right.Retrigger(channel, freq, velocity, mixFreq)
		s.ra = s.m.right.Audio()
	}

	base := s.la
	if base == nil {
		base = s.ra
	}

	s.active = base != nil
	if !s.active {
		return
	}

	mix := s.m.morph()

	s.audio = wavset.Audio{
		MixFreq:         base.MixFreq,
		FrameSizeMs:     base.FrameSizeMs,
		FrameStepMs:     base.FrameStepMs,
		FundamentalFreq: 1,
		LoopPoint:       wavset.NoLoop,
		AttackStartMs:   base.AttackStartMs,
		AttackEndMs:     base.AttackEndMs,
	}

	zeroMs := float64(base.ZeroValuesAtStart) * 1000 / base.MixFreq

	if s.la != nil && s.ra != nil {
		s.audio.AttackStartMs = lerp(s.la.AttackStartMs, s.ra.AttackStartMs, mix)
		s.audio.AttackEndMs = lerp(s.la.AttackEndMs, s.ra.AttackEndMs, mix)
		zeroMs = lerp(
			float64(s.la.ZeroValuesAtStart)*1000/s.la.MixFreq,
			float64(s.ra.ZeroValuesAtStart)*1000/s.ra.MixFreq,
			mix)
	}

	s.audio.ZeroValuesAtStart = int(math.Round(zeroMs * base.MixFreq / 1000))

	switch {
	case s.la != nil && s.la.Looping():
		s.audio.LoopPoint = s.la.LoopPoint
	case s.ra != nil && s.ra.Looping():
		s.audio.LoopPoint = s.ra.LoopPoint
	}
}

func (s *linearSource) Audio() *wavset.Audio {
	if !s.active {
		return nil
	}

	return &s.audio
}

func (s *linearSource) Block(i int) *wavset.Block {
	if !s.active {
		return nil
	}

	lb := sideBlock(s.m.left, s.la, i)
	rb := sideBlock(s.m.right, s.ra, i)

	if lb == nil && rb == nil {
		return nil
	}

	s.blend(lb, rb, s.m.morph())

	return &s.block
}

// sideBlock returns frame i of one input. Inputs that loop repeat their
// loop frame past their end.
func sideBlock(src decoder.Source, a *wavset.Audio, i int) *wavset.Block {
	if src == nil || a == nil {
		return nil
	}

	if b := src.Block(i); b != nil {
		return b
	}

	if a.Looping() && i > a.LoopPoint {
		return src.Block(a.LoopPoint)
	}

	return nil
}

func (s *linearSource) blend(lb, rb *wavset.Block, mix float64) {
	out := &s.block
	out.Freqs = out.Freqs[:0]
	out.Phases = out.Phases[:0]
	out.Noise = out.Noise[:0]

	if lb != nil && lb.Validate() != nil {
		lb = nil
	}

	if rb != nil && rb.Validate() != nil {
		rb = nil
	}

	var rFreqs int
	if rb != nil {
		rFreqs = len(rb.Freqs)
	}

	if cap(s.usedRight) < rFreqs {
		s.usedRight = make([]bool, rFreqs)
	}
	s.usedRight = s.usedRight[:rFreqs]
	clear(s.usedRight)

	if lb != nil {
		for i, f := range lb.Freqs {
			lf := f / s.la.FundamentalFreq
			lmag := lb.Magnitude(i)

			best := -1
			bestDiff := math.Inf(1)

			for j := range rFreqs {
				if s.usedRight[j] {
					continue
				}

				rf := rb.Freqs[j] / s.ra.FundamentalFreq
				if !partial.Match(lf, rf) {
					continue
				}

				if d := math.Abs(lf - rf); d < bestDiff {
					best = j
					bestDiff = d
				}
			}

			if best < 0 {
				s.appendPartial(lf, lmag*(1-mix), lb.Phase(i))
				continue
			}

			s.usedRight[best] = true
			rf := rb.Freqs[best] / s.ra.FundamentalFreq
			rmag := rb.Magnitude(best)

			s.appendPartial(lerp(lf, rf, mix), s.blendMag(lmag, rmag, mix), lb.Phase(i))
		}
	}

	for j := range rFreqs {
		if s.usedRight[j] {
			continue
		}

		s.appendPartial(rb.Freqs[j]/s.ra.FundamentalFreq, rb.Magnitude(j)*mix, rb.Phase(j))
	}

	var ln, rn []float64
	if lb != nil {
		ln = lb.Noise
	}
	if rb != nil {
		rn = rb.Noise
	}

	for k := range max(len(ln), len(rn)) {
		out.Noise = append(out.Noise, lerp(at(ln, k), at(rn, k), mix))
	}
}

func (s *linearSource) blendMag(l, r, mix float64) float64 {
	if !s.m.p.DBLinear || l <= 0 || r <= 0 {
		return lerp(l, r, mix)
	}

	return core.DBToLinear(lerp(core.LinearToDB(l), core.LinearToDB(r), mix))
}

func (s *linearSource) appendPartial(freq, mag, phase float64) {
	sin, cos := math.Sincos(phase)
	s.block.Freqs = append(s.block.Freqs, freq)
	s.block.Phases = append(s.block.Phases, sin*mag, cos*mag)
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}

	return 0
}
