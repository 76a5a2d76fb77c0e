package morph

import (
	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/dsp/decoder"
	"github.com/cwbudde/algo-vecmath"
)

type outputModule struct {
	voice    *PlanVoice
	decoders [MaxOutputChannels]*decoder.LiveDecoder
	scratch  []float64
}

func newOutputModule(voice *PlanVoice) Module {
	return &outputModule{voice: voice}
}

func (m *outputModule) SetConfig(op *Operator, b *Binding) {
	for i := range m.decoders {
		var src decoder.Source
		if i < len(op.Output.Channels) {
			src = b.SourceInput(ChannelRole(i))
		}

		switch {
		case src == nil:
			m.decoders[i] = nil
		case m.decoders[i] == nil || m.decoders[i].Source() != src:
			seed := decoder.DefaultNoiseSeed + uint64(m.voice.index*MaxOutputChannels+i)
			m.decoders[i] = decoder.NewLiveDecoder(src, decoder.WithNoiseSeed(seed))
		}
	}
}

func (m *outputModule) retrigger(channel int, freq float64, velocity int, mixFreq float64) {
	for _, d := range m.decoders {
		if d != nil {
			d.Retrigger(channel, freq, velocity, mixFreq)
		}
	}
}

func (m *outputModule) process(out, freqIn []float64) {
	clear(out)

	m.scratch = core.EnsureLen(m.scratch, len(out))
	buf := m.scratch[:len(out)]

	for _, d := range m.decoders {
		if d == nil {
			continue
		}

		d.Process(buf, freqIn)
		vecmath.AddBlockInPlace(out, buf)
	}
}

func (m *outputModule) err() error {
	for _, d := range m.decoders {
		if d != nil && d.Err() != nil {
			return d.Err()
		}
	}

	return nil
}
