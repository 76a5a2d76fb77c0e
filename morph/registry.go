package morph

import (
	"errors"
	"fmt"
)

// Factory builds the module of one operator for voice.
type Factory func(voice *PlanVoice) Module

// Registry maps operator types to module factories.
type Registry struct {
	factories map[Type]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Type]Factory)}
}

// DefaultRegistry returns a registry with the built-in operator modules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(TypeSource, newSourceModule)
	r.MustRegister(TypeLinear, newLinearModule)
	r.MustRegister(TypeLFO, newLFOModule)
	r.MustRegister(TypeOutput, newOutputModule)

	return r
}

// Register adds a factory for the given operator type.
func (r *Registry) Register(t Type, factory Factory) error {
	if t == "" {
		return errors.New("empty operator type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[t]; exists {
		return fmt.Errorf("%w: %s", errDuplicateType, t)
	}

	r.factories[t] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t Type, factory Factory) {
	if err := r.Register(t, factory); err != nil {
		panic("morph registry: " + err.Error())
	}
}

// Lookup returns the factory for the given operator type, or nil.
func (r *Registry) Lookup(t Type) Factory {
	return r.factories[t]
}
