package morph

// PlanVoice is the module instance set of one polyphonic voice.
type PlanVoice struct {
	synth *PlanSynth
	index int

	modules map[string]Module
	order   []Module
	output  *outputModule

	control [2]float64
}

// Synth returns the owning engine.
func (v *PlanVoice) Synth() *PlanSynth {
	return v.synth
}

// Index returns the voice number.
func (v *PlanVoice) Index() int {
	return v.index
}

// Module returns the module of operator name, or nil.
func (v *PlanVoice) Module(name string) Module {
	return v.modules[name]
}

// SetControlInput sets control input i (0 or 1) to value in [-1, 1].
func (v *PlanVoice) SetControlInput(i int, value float64) {
	if i >= 0 && i < len(v.control) {
		v.control[i] = value
	}
}

// ControlInput returns control input i, or 0 for other indices.
func (v *PlanVoice) ControlInput(i int) float64 {
	if i >= 0 && i < len(v.control) {
		return v.control[i]
	}

	return 0
}

// HasOutput reports whether the plan has a bound output operator.
func (v *PlanVoice) HasOutput() bool {
	return v.output != nil
}

// Retrigger starts a note on every output channel and restarts per-voice
// modulation.
func (v *PlanVoice) Retrigger(channel int, freq float64, velocity int) {
	for _, m := range v.order {
		if r, ok := m.(resetter); ok {
			r.resetValue(v.synth.time)
		}
	}

	if v.output != nil {
		v.output.retrigger(channel, freq, velocity, v.synth.mixFreq)
	}
}

// Process writes len(out) samples. freqIn optionally holds the playback
// frequency per sample. Without an output operator out is silent.
func (v *PlanVoice) Process(out, freqIn []float64) {
	if v.output == nil {
		clear(out)
		return
	}

	v.output.process(out, freqIn)
}

// Err returns the first non-fatal decoder condition of the output channels.
func (v *PlanVoice) Err() error {
	if v.output == nil {
		return nil
	}

	return v.output.err()
}

func (v *PlanVoice) install(plan *Plan, order []string, vm voiceModules) {
	v.modules = vm.byName
	v.order = vm.order
	v.configure(plan, order)
}

// configure sets up the modules in dependency order, so every module is
// configured after the modules bound to its inputs.
func (v *PlanVoice) configure(plan *Plan, order []string) {
	for _, name := range order {
		v.modules[name].SetConfig(plan.Operator(name), &Binding{voice: v, plan: plan, name: name})
	}

	v.output = nil
	if op := plan.Output(); op != nil {
		v.output, _ = v.modules[op.Name].(*outputModule)
	}
}
