package cli

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/XieJiSS/spectmorph/dsp/dynamics"
	"github.com/XieJiSS/spectmorph/project"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TimedEvent is a raw MIDI channel message at an absolute sample position.
type TimedEvent struct {
	Sample int
	Raw    []byte
}

// NoteEvents returns a note-on at 0 and the matching note-off after
// length samples.
func NoteEvents(note, velocity, length int) []TimedEvent {
	return []TimedEvent{
		{Sample: 0, Raw: []byte{0x90, byte(note), byte(velocity)}},
		{Sample: length, Raw: []byte{0x80, byte(note), 0}},
	}
}

// ReadMidiFile reads the playable events of all tracks of a standard MIDI
// file. Channel messages are moved to channel 0, which is the channel
// instruments are analysed for.
func ReadMidiFile(path string, mixFreq float64) ([]TimedEvent, error) {
	var events []TimedEvent

	rd := smf.ReadTracks(path).Do(func(ev smf.TrackEvent) {
		if !ev.Message.IsPlayable() {
			return
		}

		raw := slices.Clone([]byte(ev.Message))
		if len(raw) == 0 || raw[0] >= 0xF0 {
			return
		}
		raw[0] &= 0xF0

		events = append(events, TimedEvent{
			Sample: int(math.Round(float64(ev.AbsMicroSeconds) * mixFreq / 1e6)),
			Raw:    raw,
		})
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("read midi %s: %w", path, err)
	}

	slices.SortStableFunc(events, func(a, b TimedEvent) int {
		return cmp.Compare(a.Sample, b.Sample)
	})

	return events, nil
}

// Render plays events through p in chunks of chunk samples and returns the
// output. Rendering continues past the last event until every voice is
// idle or maxTail samples have been added.
func Render(p *project.Project, events []TimedEvent, chunk, maxTail int) []float64 {
	end := 0
	if len(events) > 0 {
		end = events[len(events)-1].Sample
	}

	var out []float64
	buf := make([]float64, chunk)

	for pos, ei := 0, 0; ; pos += chunk {
		first := ei
		for ei < len(events) && events[ei].Sample < pos+chunk {
			ei++
		}

		if batch := events[first:ei]; len(batch) > 0 {
			base := pos
			p.TakeControlEvent(project.ControlEventFunc(func(p *project.Project) {
				for _, ev := range batch {
					// Unsupported messages are skipped.
					_ = p.Synth().AddMidiEvent(ev.Sample-base, ev.Raw)
				}
			}))
		}

		p.Process(buf)
		out = append(out, buf...)

		if pos+chunk <= end {
			continue
		}
		if !p.VoicesActive() || pos+chunk >= end+maxTail {
			return out
		}
	}
}

// Limit runs out through l and compensates the limiter latency, so the
// result is aligned with out and has the same length.
func Limit(l *dynamics.Limiter, out []float64) []float64 {
	d := l.Latency()
	buf := make([]float64, len(out)+d)
	copy(buf, out)
	l.ProcessInPlace(buf)

	return buf[d:]
}
