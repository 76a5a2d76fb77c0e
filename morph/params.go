package morph

import (
	"encoding/json"
	"fmt"
	"math"
)

// Params holds the loosely typed parameters of one operator description.
type Params struct {
	Num  map[string]float64
	Str  map[string]string
	List map[string][]string
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetStr returns a string parameter, or def if missing.
func (p Params) GetStr(key, def string) string {
	if v, ok := p.Str[key]; ok {
		return v
	}

	return def
}

// GetBool returns a boolean parameter (JSON booleans are stored as 0/1).
func (p Params) GetBool(key string) bool {
	return p.GetNum(key, 0) != 0
}

type planOperator struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Params any    `json:"params"`
}

type planState struct {
	Operators []planOperator `json:"operators"`
}

// ParsePlan decodes a JSON plan description of the form
//
//	{"operators": [{"name": "a", "type": "source", "params": {"instrument": 1}}, ...]}
//
// and binds it. Bind failures are returned together with the plan.
func ParsePlan(raw []byte) (*Plan, error) {
	var state planState

	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("invalid plan json: %w", err)
	}

	plan, err := NewPlan()
	if err != nil {
		return nil, err
	}

	for _, po := range state.Operators {
		op, err := operatorFromParams(po.Name, Type(po.Type), parseParams(po.Params))
		if err != nil {
			return nil, err
		}

		if err := plan.add(op); err != nil {
			return nil, err
		}
	}

	return plan, plan.Bind()
}

func operatorFromParams(name string, t Type, p Params) (*Operator, error) {
	switch t {
	case TypeSource:
		return NewSource(name, int(p.GetNum("instrument", 0))), nil

	case TypeLinear:
		ct, err := ParseControlType(p.GetStr("control_type", ControlGUI.String()))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOperator, name, err)
		}

		return NewLinear(name, LinearParams{
			Left:        p.GetStr("left", ""),
			Right:       p.GetStr("right", ""),
			Control:     p.GetStr("control", ""),
			ControlType: ct,
			Morphing:    p.GetNum("morphing", 0),
			DBLinear:    p.GetBool("db_linear"),
		}), nil

	case TypeLFO:
		def := DefaultLFOParams()

		wave, err := ParseWave(p.GetStr("wave", def.Wave.String()))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOperator, name, err)
		}

		beat, err := ParseBeatSync(p.GetStr("beat_sync", def.BeatSync.String()))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOperator, name, err)
		}

		return NewLFO(name, LFOParams{
			Wave:       wave,
			Frequency:  p.GetNum("frequency", def.Frequency),
			Depth:      p.GetNum("depth", def.Depth),
			Center:     p.GetNum("center", def.Center),
			StartPhase: p.GetNum("start_phase", def.StartPhase),
			SyncVoices: p.GetBool("sync_voices"),
			BeatSync:   beat,
		}), nil

	case TypeOutput:
		return NewOutput(name, p.List["channels"]...), nil

	default:
		return nil, fmt.Errorf("%w: %s: %q", ErrUnknownType, name, t)
	}
}

// parseParams extracts numeric, string and string list parameters from a
// raw JSON params value.
func parseParams(raw any) Params {
	p := Params{
		Num:  map[string]float64{},
		Str:  map[string]string{},
		List: map[string][]string{},
	}

	params, ok := raw.(map[string]any)
	if !ok || params == nil {
		return p
	}

	for k, v := range params {
		switch t := v.(type) {
		case float64:
			p.Num[k] = t
		case string:
			p.Str[k] = t
		case bool:
			if t {
				p.Num[k] = 1
			} else {
				p.Num[k] = 0
			}
		case []any:
			list := make([]string, 0, len(t))
			for _, item := range t {
				if s, ok := item.(string); ok {
					list = append(list, s)
				}
			}
			p.List[k] = list
		}
	}

	return p
}
