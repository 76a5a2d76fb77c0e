package morph

import "github.com/XieJiSS/spectmorph/dsp/decoder"

// Module is the per-voice runtime of one operator.
type Module interface {
	// SetConfig applies op. Inputs are resolved through b.
	SetConfig(op *Operator, b *Binding)
}

// ValueModule produces a control value in [-1, 1].
type ValueModule interface {
	Module
	Value() float64
}

// SourceModule produces spectral frames.
type SourceModule interface {
	Module
	Source() decoder.Source
}

// resetter is implemented by modules with state restarted on note-on.
type resetter interface {
	resetValue(ti TimeInfo)
}

// sharedUpdater is implemented by modules that advance engine-wide state
// once per block.
type sharedUpdater interface {
	updateSharedState(ti TimeInfo)
}

// Binding gives a module access to its voice and bound inputs while it is
// being configured.
type Binding struct {
	voice *PlanVoice
	plan  *Plan
	name  string
}

// Voice returns the voice the module belongs to.
func (b *Binding) Voice() *PlanVoice {
	return b.voice
}

// Input returns the module bound to role, or nil.
func (b *Binding) Input(role string) Module {
	op := b.plan.Input(b.name, role)
	if op == nil {
		return nil
	}

	return b.voice.modules[op.Name]
}

// SourceInput returns the source bound to role, or nil.
func (b *Binding) SourceInput(role string) decoder.Source {
	if m, ok := b.Input(role).(SourceModule); ok {
		return m.Source()
	}

	return nil
}

// ValueInput returns the value module bound to role, or nil.
func (b *Binding) ValueInput(role string) ValueModule {
	if m, ok := b.Input(role).(ValueModule); ok {
		return m
	}

	return nil
}
