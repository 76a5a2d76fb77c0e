package morph

import (
	"fmt"
	"math"
)

// PropertyScale maps parameter values to the 0..1 UI range and back.
type PropertyScale interface {
	ToUI(value float64) float64
	FromUI(ui float64) float64
}

// LinearScale maps [Min, Max] linearly.
type LinearScale struct {
	Min, Max float64
}

func (s LinearScale) ToUI(v float64) float64 {
	return (v - s.Min) / (s.Max - s.Min)
}

func (s LinearScale) FromUI(ui float64) float64 {
	return ui*(s.Max-s.Min) + s.Min
}

// LogScale maps [Min, Max] logarithmically. Both bounds must be > 0.
type LogScale struct {
	Min, Max float64
}

func (s LogScale) ToUI(v float64) float64 {
	return (math.Log(v) - math.Log(s.Min)) / (math.Log(s.Max) - math.Log(s.Min))
}

func (s LogScale) FromUI(ui float64) float64 {
	return math.Exp(ui*(math.Log(s.Max)-math.Log(s.Min)) + math.Log(s.Min))
}

// XParamScale maps [Min, Max] through the power curve ui^Slope.
type XParamScale struct {
	Min, Max, Slope float64
}

func (s XParamScale) ToUI(v float64) float64 {
	return math.Pow((v-s.Min)/(s.Max-s.Min), 1/s.Slope)
}

func (s XParamScale) FromUI(ui float64) float64 {
	return math.Pow(ui, s.Slope)*(s.Max-s.Min) + s.Min
}

// Property exposes one float parameter as an integer in [0, 1000].
type Property struct {
	value  *float64
	scale  PropertyScale
	label  string
	format string

	observers []func()
}

// Property integer range.
const (
	PropertyMin = 0
	PropertyMax = 1000
)

// NewProperty binds a property to value and resets value to def.
func NewProperty(value *float64, scale PropertyScale, label, format string, def float64) *Property {
	*value = def

	return &Property{value: value, scale: scale, label: label, format: format}
}

// LinearProperty returns a property with a linear scale.
func LinearProperty(value *float64, label, format string, def, minValue, maxValue float64) *Property {
	return NewProperty(value, LinearScale{Min: minValue, Max: maxValue}, label, format, def)
}

// LogProperty returns a property with a logarithmic scale.
func LogProperty(value *float64, label, format string, def, minValue, maxValue float64) *Property {
	return NewProperty(value, LogScale{Min: minValue, Max: maxValue}, label, format, def)
}

// Get returns the UI position of the value.
func (p *Property) Get() int {
	return int(math.RoundToEven(p.scale.ToUI(*p.value) * PropertyMax))
}

// Set moves the value to UI position v, clamped to the property range.
func (p *Property) Set(v int) {
	v = max(PropertyMin, min(PropertyMax, v))
	*p.value = p.scale.FromUI(float64(v) / PropertyMax)
	p.notify()
}

// Float returns the parameter value.
func (p *Property) Float() float64 {
	return *p.value
}

// SetFloat sets the parameter value directly.
func (p *Property) SetFloat(f float64) {
	*p.value = f
	p.notify()
}

// Label returns the display name.
func (p *Property) Label() string {
	return p.label
}

// ValueLabel formats the value for display.
func (p *Property) ValueLabel() string {
	return fmt.Sprintf(p.format, *p.value)
}

// OnChange registers fn to run after every Set or SetFloat.
func (p *Property) OnChange(fn func()) {
	p.observers = append(p.observers, fn)
}

func (p *Property) notify() {
	for _, fn := range p.observers {
		fn()
	}
}

// Properties returns the editable properties of op, bound to its params.
// Values are reset to their current contents.
func (op *Operator) Properties() []*Property {
	switch {
	case op.Linear != nil:
		return []*Property{
			LinearProperty(&op.Linear.Morphing, "Morphing", "%.2f", op.Linear.Morphing, -1, 1),
		}
	case op.LFO != nil:
		return []*Property{
			LogProperty(&op.LFO.Frequency, "Frequency", "%.3f Hz", math.Max(op.LFO.Frequency, 0.01), 0.01, 25),
			LinearProperty(&op.LFO.Depth, "Depth", "%.2f", op.LFO.Depth, 0, 1),
			LinearProperty(&op.LFO.Center, "Center", "%.2f", op.LFO.Center, -1, 1),
			LinearProperty(&op.LFO.StartPhase, "Start Phase", "%.1f", op.LFO.StartPhase, -180, 180),
		}
	default:
		return nil
	}
}
