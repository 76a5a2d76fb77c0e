package instrument

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// LoopMode selects how playback continues after the attack.
type LoopMode int

const (
	// LoopNone plays the sample once.
	LoopNone LoopMode = iota
	// LoopFrame holds the frame at the loop marker.
	LoopFrame
)

var loopModeNames = map[LoopMode]string{
	LoopNone:  "none",
	LoopFrame: "frame",
}

func (m LoopMode) String() string {
	if name, ok := loopModeNames[m]; ok {
		return name
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (m LoopMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *LoopMode) UnmarshalText(b []byte) error {
	for mode, name := range loopModeNames {
		if string(b) == name {
			*m = mode
			return nil
		}
	}

	return fmt.Errorf("unknown loop mode %q", b)
}

// Sample is one recording of an instrument.
type Sample struct {
	Path     string `json:"path"`
	MidiNote int    `json:"midi_note"`

	// ClipStartMs and ClipEndMs trim the recording. A zero ClipEndMs keeps
	// everything after ClipStartMs.
	ClipStartMs float64 `json:"clip_start_ms,omitempty"`
	ClipEndMs   float64 `json:"clip_end_ms,omitempty"`

	Loop LoopMode `json:"loop,omitempty"`
	// LoopMs is the loop marker, relative to the start of the recording.
	LoopMs float64 `json:"loop_ms,omitempty"`

	// Signal and MixFreq hold the decoded recording. Builders load Path
	// when Signal is empty.
	Signal  []float64 `json:"-"`
	MixFreq float64   `json:"-"`
}

// Validate checks note and markers.
func (s *Sample) Validate() error {
	if s.MidiNote < 0 || s.MidiNote > 127 {
		return fmt.Errorf("%w: midi note %d out of range", ErrInvalidSample, s.MidiNote)
	}

	if s.ClipStartMs < 0 || (s.ClipEndMs != 0 && s.ClipEndMs <= s.ClipStartMs) {
		return fmt.Errorf("%w: clip [%v, %v] ms", ErrInvalidSample, s.ClipStartMs, s.ClipEndMs)
	}

	if s.Loop == LoopFrame && (s.LoopMs < s.ClipStartMs || (s.ClipEndMs != 0 && s.LoopMs >= s.ClipEndMs)) {
		return fmt.Errorf("%w: loop marker %v ms outside clip", ErrInvalidSample, s.LoopMs)
	}

	return nil
}

// Instrument is an editable set of samples. It is not safe for concurrent
// use; hand a Clone to background work.
type Instrument struct {
	Name    string    `json:"name"`
	Samples []*Sample `json:"samples"`

	version uint64
}

// New returns an empty instrument.
func New(name string) *Instrument {
	return &Instrument{Name: name}
}

// AddSample appends s and returns its index.
func (inst *Instrument) AddSample(s *Sample) int {
	inst.Samples = append(inst.Samples, s)
	inst.version++

	return len(inst.Samples) - 1
}

// RemoveSample deletes the sample at index i.
func (inst *Instrument) RemoveSample(i int) {
	if i < 0 || i >= len(inst.Samples) {
		return
	}

	inst.Samples = append(inst.Samples[:i], inst.Samples[i+1:]...)
	inst.version++
}

// Touch marks the instrument as edited after fields were changed in place.
func (inst *Instrument) Touch() {
	inst.version++
}

// Version increases with every edit.
func (inst *Instrument) Version() uint64 {
	return inst.version
}

// Clone returns a copy whose samples can be read while inst is edited.
// Decoded signals are shared; they are never modified.
func (inst *Instrument) Clone() *Instrument {
	c := &Instrument{Name: inst.Name, version: inst.version}
	for _, s := range inst.Samples {
		sc := *s
		c.Samples = append(c.Samples, &sc)
	}

	return c
}

// Parse decodes a JSON instrument description. Relative sample paths are
// resolved against dir; a leading ~ expands to the home directory.
func Parse(raw []byte, dir string) (*Instrument, error) {
	inst := &Instrument{}
	if err := json.Unmarshal(raw, inst); err != nil {
		return nil, fmt.Errorf("invalid instrument json: %w", err)
	}

	for i, s := range inst.Samples {
		if s == nil {
			return nil, fmt.Errorf("%w: sample %d is null", ErrInvalidSample, i)
		}

		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		if s.Path == "" {
			continue
		}

		p, err := homedir.Expand(s.Path)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		if !filepath.IsAbs(p) && dir != "" {
			p = filepath.Join(dir, p)
		}
		s.Path = p
	}

	return inst, nil
}

// Load reads a JSON instrument description from path.
func Load(path string) (*Instrument, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(raw, filepath.Dir(path))
}
