package morph

import (
	"fmt"
	"strings"
)

// Type tags an operator variant.
type Type string

// Operator types.
const (
	TypeSource Type = "source"
	TypeLinear Type = "linear"
	TypeLFO    Type = "lfo"
	TypeOutput Type = "output"
)

// Edge roles.
const (
	RoleLeft    = "left"
	RoleRight   = "right"
	RoleControl = "control"
)

// MaxOutputChannels limits the channels of an output operator.
const MaxOutputChannels = 4

// ChannelRole returns the edge role of output channel i.
func ChannelRole(i int) string {
	return fmt.Sprintf("channel %d", i)
}

// ControlType selects where a linear operator reads its morph control.
type ControlType int

const (
	ControlGUI ControlType = iota
	ControlInput1
	ControlInput2
	ControlOperator
)

var controlTypeNames = map[ControlType]string{
	ControlGUI:      "gui",
	ControlInput1:   "control1",
	ControlInput2:   "control2",
	ControlOperator: "operator",
}

func (c ControlType) String() string {
	if name, ok := controlTypeNames[c]; ok {
		return name
	}

	return "unknown"
}

// ParseControlType parses the names returned by ControlType.String.
func ParseControlType(s string) (ControlType, error) {
	for c, name := range controlTypeNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}

	return ControlGUI, fmt.Errorf("unknown control type %q", s)
}

// Wave is an LFO waveform.
type Wave int

const (
	WaveSine Wave = iota
	WaveTriangle
	WaveSawUp
	WaveSawDown
	WaveSquare
	WaveRandomSH
	WaveRandomLinear
)

var waveNames = map[Wave]string{
	WaveSine:         "sine",
	WaveTriangle:     "triangle",
	WaveSawUp:        "saw-up",
	WaveSawDown:      "saw-down",
	WaveSquare:       "square",
	WaveRandomSH:     "random-sh",
	WaveRandomLinear: "random-linear",
}

func (w Wave) String() string {
	if name, ok := waveNames[w]; ok {
		return name
	}

	return "unknown"
}

// ParseWave parses the names returned by Wave.String.
func ParseWave(s string) (Wave, error) {
	for w, name := range waveNames {
		if strings.EqualFold(s, name) {
			return w, nil
		}
	}

	return WaveSine, fmt.Errorf("unknown lfo wave %q", s)
}

// BeatSync selects tempo synchronisation of an LFO.
type BeatSync int

const (
	BeatSyncOff BeatSync = iota
	BeatSync1_1
	BeatSync1_2
	BeatSync1_4
)

var beatSyncNames = map[BeatSync]string{
	BeatSyncOff: "off",
	BeatSync1_1: "1/1",
	BeatSync1_2: "1/2",
	BeatSync1_4: "1/4",
}

func (b BeatSync) String() string {
	if name, ok := beatSyncNames[b]; ok {
		return name
	}

	return "unknown"
}

// ParseBeatSync parses the names returned by BeatSync.String.
func ParseBeatSync(s string) (BeatSync, error) {
	for b, name := range beatSyncNames {
		if strings.EqualFold(s, name) {
			return b, nil
		}
	}

	return BeatSyncOff, fmt.Errorf("unknown beat sync %q", s)
}

// cycles returns the length of one LFO period in quarter notes.
func (b BeatSync) cycles() float64 {
	switch b {
	case BeatSync1_2:
		return 4 * 0.5
	case BeatSync1_4:
		return 4 * 0.25
	default:
		return 4
	}
}

// SourceParams configures a source operator.
type SourceParams struct {
	InstrumentID int
}

// LinearParams configures a linear morph operator.
type LinearParams struct {
	Left        string
	Right       string
	Control     string
	ControlType ControlType
	// Morphing is the static control value in [-1, 1] used with
	// ControlGUI.
	Morphing float64
	DBLinear bool
}

// LFOParams configures an LFO operator.
type LFOParams struct {
	Wave       Wave
	Frequency  float64 // Hz, used without beat sync
	Depth      float64
	Center     float64
	StartPhase float64 // degrees
	SyncVoices bool
	BeatSync   BeatSync
}

// OutputParams configures the output operator.
type OutputParams struct {
	Channels []string
}

// Operator is one node of a morph plan. Exactly the params field matching
// Type is set.
type Operator struct {
	Name string
	Type Type

	Source *SourceParams
	Linear *LinearParams
	LFO    *LFOParams
	Output *OutputParams
}

// NewSource returns a source operator reading instrument id.
func NewSource(name string, id int) *Operator {
	return &Operator{Name: name, Type: TypeSource, Source: &SourceParams{InstrumentID: id}}
}

// NewLinear returns a linear operator with the given params.
func NewLinear(name string, p LinearParams) *Operator {
	return &Operator{Name: name, Type: TypeLinear, Linear: &p}
}

// NewLFO returns an LFO operator with the given params.
func NewLFO(name string, p LFOParams) *Operator {
	return &Operator{Name: name, Type: TypeLFO, LFO: &p}
}

// NewOutput returns an output operator playing the named channels.
func NewOutput(name string, channels ...string) *Operator {
	return &Operator{Name: name, Type: TypeOutput, Output: &OutputParams{Channels: channels}}
}

// DefaultLFOParams returns the parameters of a freshly added LFO.
func DefaultLFOParams() LFOParams {
	return LFOParams{Wave: WaveSine, Frequency: 1, Depth: 1}
}

// Validate checks that the params match the type and are in range.
func (op *Operator) Validate() error {
	if op.Name == "" {
		return fmt.Errorf("%w: empty operator name", ErrInvalidOperator)
	}

	set := 0
	for _, p := range []bool{op.Source != nil, op.Linear != nil, op.LFO != nil, op.Output != nil} {
		if p {
			set++
		}
	}

	if set != 1 {
		return fmt.Errorf("%w: %s has %d param sets", ErrInvalidOperator, op.Name, set)
	}

	switch op.Type {
	case TypeSource:
		if op.Source == nil {
			break
		}
		return nil
	case TypeLinear:
		if op.Linear == nil {
			break
		}
		if op.Linear.Morphing < -1 || op.Linear.Morphing > 1 {
			return fmt.Errorf("%w: %s morphing must be in [-1, 1]: %v", ErrInvalidOperator, op.Name, op.Linear.Morphing)
		}
		return nil
	case TypeLFO:
		if op.LFO == nil {
			break
		}
		if op.LFO.Frequency < 0 {
			return fmt.Errorf("%w: %s frequency must be >= 0: %v", ErrInvalidOperator, op.Name, op.LFO.Frequency)
		}
		return nil
	case TypeOutput:
		if op.Output == nil {
			break
		}
		if len(op.Output.Channels) > MaxOutputChannels {
			return fmt.Errorf("%w: %s has %d channels, max %d", ErrInvalidOperator, op.Name, len(op.Output.Channels), MaxOutputChannels)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidOperator, op.Name, op.Type)
	}

	return fmt.Errorf("%w: %s params do not match type %q", ErrInvalidOperator, op.Name, op.Type)
}

// refs lists the (role, target) edges of op in a stable order.
func (op *Operator) refs() [][2]string {
	var out [][2]string

	switch {
	case op.Linear != nil:
		out = append(out,
			[2]string{RoleLeft, op.Linear.Left},
			[2]string{RoleRight, op.Linear.Right},
			[2]string{RoleControl, op.Linear.Control})
	case op.Output != nil:
		for i, ch := range op.Output.Channels {
			out = append(out, [2]string{ChannelRole(i), ch})
		}
	}

	return out
}

// clear drops every reference of op to target.
func (op *Operator) clear(target string) {
	switch {
	case op.Linear != nil:
		if op.Linear.Left == target {
			op.Linear.Left = ""
		}
		if op.Linear.Right == target {
			op.Linear.Right = ""
		}
		if op.Linear.Control == target {
			op.Linear.Control = ""
		}
	case op.Output != nil:
		for i, ch := range op.Output.Channels {
			if ch == target {
				op.Output.Channels[i] = ""
			}
		}
	}
}

// Clone returns a deep copy of op.
func (op *Operator) Clone() *Operator {
	c := &Operator{Name: op.Name, Type: op.Type}

	if op.Source != nil {
		p := *op.Source
		c.Source = &p
	}

	if op.Linear != nil {
		p := *op.Linear
		c.Linear = &p
	}

	if op.LFO != nil {
		p := *op.LFO
		c.LFO = &p
	}

	if op.Output != nil {
		c.Output = &OutputParams{Channels: append([]string(nil), op.Output.Channels...)}
	}

	return c
}
