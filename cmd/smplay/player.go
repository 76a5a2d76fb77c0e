package main

import (
	"encoding/binary"
	"math"

	"github.com/XieJiSS/spectmorph/dsp/dynamics"
	"github.com/XieJiSS/spectmorph/project"
	"github.com/ebitengine/oto/v3"
)

// projectReader streams project output as mono float32 little endian
// frames. oto pulls it from its own goroutine, which makes that goroutine
// the audio goroutine of the project.
type projectReader struct {
	p       *project.Project
	limiter *dynamics.Limiter
	buf     []float64
}

func (r *projectReader) Read(b []byte) (int, error) {
	n := len(b) / 4
	if cap(r.buf) < n {
		r.buf = make([]float64, n)
	}
	buf := r.buf[:n]

	r.p.Process(buf)
	r.limiter.ProcessInPlace(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(float32(v)))
	}

	return 4 * n, nil
}

func newPlayer(p *project.Project, sampleRate int) (*oto.Player, error) {
	l, err := dynamics.NewLimiter(float64(sampleRate))
	if err != nil {
		return nil, err
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	return ctx.NewPlayer(&projectReader{p: p, limiter: l}), nil
}
