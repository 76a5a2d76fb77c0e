// Package morph evaluates morph plans: small acyclic graphs of operators
// that select, blend and modulate spectral sources before they reach the
// live decoders.
//
// A Plan is a description: an ordered list of tagged Operators whose edges
// are operator names. Plan.Bind resolves the names and rejects edges that
// would close a cycle. A PlanSynth owns one PlanVoice per polyphonic voice;
// each voice instantiates one Module per operator through a Registry and
// binds the modules along the plan's edges.
//
// Plan descriptions and the Registry may be used from any goroutine.
// PlanSynth and PlanVoice belong to the audio goroutine, except for
// PlanSynth.Prepare, which only builds fresh modules and is meant to run
// off the audio path.
package morph
