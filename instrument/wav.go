package instrument

import (
	"fmt"
	"os"

	"github.com/XieJiSS/spectmorph/dsp/dither"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mitchellh/go-homedir"
)

// ReadWAV decodes a PCM WAV file into mono samples in [-1, 1]. Multichannel
// files are averaged.
func ReadWAV(path string) ([]float64, float64, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: invalid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}

	return toMono(buf), float64(dec.SampleRate), nil
}

func toMono(buf *audio.IntBuffer) []float64 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 1 {
		channels = buf.Format.NumChannels
	}

	bits := buf.SourceBitDepth
	if bits <= 0 {
		bits = 16
	}
	scale := 1 / float64(int64(1)<<(bits-1))

	out := make([]float64, len(buf.Data)/channels)
	for i := range out {
		sum := 0
		for c := range channels {
			sum += buf.Data[i*channels+c]
		}
		out[i] = float64(sum) * scale / float64(channels)
	}

	return out
}

// load fills Signal and MixFreq from Path when the sample has no signal.
func (s *Sample) load() error {
	if len(s.Signal) > 0 {
		return nil
	}

	if s.Path == "" {
		return fmt.Errorf("%w: no signal and no path", ErrInvalidSample)
	}

	signal, mixFreq, err := ReadWAV(s.Path)
	if err != nil {
		return err
	}

	s.Signal, s.MixFreq = signal, mixFreq

	return nil
}

// WriteWAV encodes mono samples in [-1, 1] as a PCM WAV file. The bit
// depth and dither come from opts; the default is 16 bit with triangular
// dither. Samples outside the range are clipped.
func WriteWAV(path string, samples []float64, mixFreq int, opts ...dither.Option) error {
	q, err := dither.NewQuantizer(opts...)
	if err != nil {
		return err
	}

	bits := q.BitDepth()
	if bits != 16 && bits != 24 && bits != 32 {
		return fmt.Errorf("wav bit depth must be 16, 24 or 32: %d", bits)
	}

	path, err = homedir.Expand(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	data := make([]int, len(samples))
	q.ProcessInto(data, samples)

	enc := wav.NewEncoder(f, mixFreq, bits, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: mixFreq},
		Data:           data,
		SourceBitDepth: bits,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return f.Close()
}
