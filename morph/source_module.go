package morph

import "github.com/XieJiSS/spectmorph/dsp/decoder"

type sourceModule struct {
	voice      *PlanVoice
	src        *decoder.WavSetSource
	id         int
	configured bool
}

func newSourceModule(voice *PlanVoice) Module {
	return &sourceModule{voice: voice, src: decoder.NewWavSetSource(nil)}
}

func (m *sourceModule) SetConfig(op *Operator, _ *Binding) {
	id := op.Source.InstrumentID
	if m.configured && id == m.id {
		return
	}

	m.id = id
	m.configured = true
	m.src.SetWavSet(m.voice.synth.WavSet(id))
}

func (m *sourceModule) Source() decoder.Source {
	return m.src
}
