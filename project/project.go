package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/instrument"
	"github.com/XieJiSS/spectmorph/morph"
	"github.com/XieJiSS/spectmorph/synth"
	"github.com/XieJiSS/spectmorph/wavset"
	"golang.org/x/sync/errgroup"
)

type rebuildJob struct {
	id      int
	version uint64
	seq     uint64
	inst    *instrument.Instrument
}

// Project owns the editable state of one synthesizer instance and hands
// changes to the audio goroutine.
type Project struct {
	logger  *slog.Logger
	builder *instrument.Builder
	warmUp  bool
	mixFreq float64

	// Non-realtime state.
	stateMu         sync.Mutex
	instruments     map[int]*instrument.Instrument
	requested       map[int]uint64
	seq             uint64
	published       map[int]uint64
	wavsets         map[int]*wavset.WavSet
	plan            *morph.Plan
	volume          float64
	volumeObservers []func(db float64)

	editMu sync.Mutex

	jobMu  sync.Mutex
	closed bool
	jobs   chan rebuildJob
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	// Shared with the audio goroutine.
	synthMu      sync.Mutex
	events       controlEventVector
	notes        []Notification
	voicesActive bool
	retired      []any

	// Audio goroutine only.
	synth  *synth.MidiSynth
	outBuf []synth.OutEvent
}

// New creates a project with the default plan: instrument 1 played
// through one output channel. coreOpts set the mix rate and block size.
func New(coreOpts []core.ProcessorOption, opts ...Option) (*Project, error) {
	c := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	if c.workers < 1 {
		return nil, fmt.Errorf("project workers must be >= 1: %d", c.workers)
	}

	s, err := synth.New(coreOpts, c.synthOpts...)
	if err != nil {
		return nil, err
	}

	b, err := instrument.NewBuilder(append([]instrument.Option{instrument.WithLogger(c.logger)}, c.builderOpts...)...)
	if err != nil {
		return nil, err
	}

	plan, err := DefaultPlan()
	if err != nil {
		return nil, err
	}

	if err := s.Engine().UpdatePlan(plan); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Project{
		logger:      c.logger,
		builder:     b,
		warmUp:      c.warmUp,
		mixFreq:     s.MixFreq(),
		instruments: make(map[int]*instrument.Instrument),
		requested:   make(map[int]uint64),
		published:   make(map[int]uint64),
		wavsets:     make(map[int]*wavset.WavSet),
		plan:        plan,
		jobs:        make(chan rebuildJob, c.jobQueue),
		ctx:         ctx,
		cancel:      cancel,
		synth:       s,
		outBuf:      make([]synth.OutEvent, 0, len(s.Voices())),
	}

	for range c.workers {
		p.group.Go(p.worker)
	}

	return p, nil
}

// DefaultPlan returns the plan of a new project.
func DefaultPlan() (*morph.Plan, error) {
	return morph.NewPlan(morph.NewSource("source", 1), morph.NewOutput("output", "source"))
}

// Close stops the rebuild workers. Pending rebuilds are cancelled.
func (p *Project) Close() error {
	p.cancel()

	p.jobMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.jobMu.Unlock()

	return p.group.Wait()
}

// Synth returns the voice scheduler. Use it from the audio goroutine only,
// for example to queue MIDI events before Process.
func (p *Project) Synth() *synth.MidiSynth {
	return p.synth
}

// MixFreq returns the output sample rate.
func (p *Project) MixFreq() float64 {
	return p.mixFreq
}

// TakeControlEvent queues ev for the audio goroutine. Events that already
// ran are released here.
func (p *Project) TakeControlEvent(ev ControlEvent) {
	p.synthMu.Lock()
	defer p.synthMu.Unlock()

	p.events.take(ev)
	p.dropRetired()
}

// TryUpdate runs the queued control events if the lock is free and
// collects outbound events. It never blocks and reports whether it ran.
func (p *Project) TryUpdate() bool {
	if !p.synthMu.TryLock() {
		return false
	}
	defer p.synthMu.Unlock()

	p.events.runRT(p)

	p.outBuf = p.synth.DrainOutEvents(p.outBuf[:0])
	for _, ev := range p.outBuf {
		p.notes = append(p.notes, Notification{Kind: VoiceIdle, Voice: ev.Voice, Note: ev.Note})
	}

	p.voicesActive = p.synth.ActiveVoices() > 0

	return true
}

// Process renders one block. Call it from the audio goroutine.
func (p *Project) Process(out []float64) {
	p.TryUpdate()
	p.synth.Process(out)
}

// TakeNotifications returns and clears the outbound events.
func (p *Project) TakeNotifications() []Notification {
	p.synthMu.Lock()
	defer p.synthMu.Unlock()

	notes := p.notes
	p.notes = nil
	p.dropRetired()

	return notes
}

// VoicesActive reports whether any voice was playing at the last update.
func (p *Project) VoicesActive() bool {
	p.synthMu.Lock()
	defer p.synthMu.Unlock()

	return p.voicesActive
}

// park keeps v alive until the next non-realtime call. Audio goroutine
// only, lock held.
func (p *Project) park(v any) {
	p.retired = append(p.retired, v)
}

func (p *Project) dropRetired() {
	clear(p.retired)
	p.retired = p.retired[:0]
}

// notify appends an outbound event. Audio goroutine only, lock held.
func (p *Project) notify(n Notification) {
	p.notes = append(p.notes, n)
}

// Volume returns the output volume in dB.
func (p *Project) Volume() float64 {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	return p.volume
}

// SetVolume sets the output volume in dB and notifies volume observers.
func (p *Project) SetVolume(db float64) {
	p.stateMu.Lock()
	p.volume = db
	observers := slices.Clone(p.volumeObservers)
	p.stateMu.Unlock()

	gain := core.DBToLinear(db)
	p.TakeControlEvent(ControlEventFunc(func(p *Project) {
		p.synth.SetGain(gain)
	}))

	for _, fn := range observers {
		fn(db)
	}
}

// OnVolumeChanged registers fn to run after every SetVolume.
func (p *Project) OnVolumeChanged(fn func(db float64)) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	p.volumeObservers = append(p.volumeObservers, fn)
}

// AddInstrument creates an empty instrument in the first free slot,
// starting at 1, and returns its id.
func (p *Project) AddInstrument() int {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	id := 1
	for p.instruments[id] != nil {
		id++
	}

	p.instruments[id] = instrument.New(fmt.Sprintf("instrument %d", id))

	return id
}

// Instrument returns instrument id, or nil. Edits must not race with
// Rebuild; call Touch after editing samples in place.
func (p *Project) Instrument(id int) *instrument.Instrument {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	return p.instruments[id]
}

// SetInstrument replaces instrument id.
func (p *Project) SetInstrument(id int, inst *instrument.Instrument) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	p.instruments[id] = inst
	delete(p.requested, id)
}

// Rebuild analyses instrument id in the background and publishes the
// result. It returns false when the current version was already built or
// is being built.
func (p *Project) Rebuild(id int) (bool, error) {
	p.stateMu.Lock()
	inst := p.instruments[id]
	if inst == nil {
		p.stateMu.Unlock()
		return false, fmt.Errorf("%w: %d", ErrUnknownInstrument, id)
	}

	version := inst.Version()
	if v, ok := p.requested[id]; ok && v == version {
		p.stateMu.Unlock()
		return false, nil
	}

	p.requested[id] = version
	job := rebuildJob{id: id, version: version, seq: p.nextSeq(), inst: inst.Clone()}
	p.stateMu.Unlock()

	p.jobMu.Lock()
	defer p.jobMu.Unlock()

	if p.closed {
		return false, ErrClosed
	}

	p.jobs <- job
	p.logger.Debug("rebuild queued", "instrument", id, "version", version)

	return true, nil
}

func (p *Project) worker() error {
	for job := range p.jobs {
		ws, err := p.builder.Build(p.ctx, job.inst)
		p.finish(job, ws, err)
	}

	return nil
}

// finish publishes the result of job unless a later rebuild or SetWavSet
// of the same instrument was published first.
func (p *Project) finish(job rebuildJob, ws *wavset.WavSet, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	if err == nil {
		if !p.publish(job.id, ws, job.seq, true) {
			p.logger.Debug("stale rebuild dropped", "instrument", job.id, "version", job.version)
		}

		return
	}

	p.logger.Warn("rebuild failed", "instrument", job.id, "err", err)

	p.stateMu.Lock()
	if p.requested[job.id] == job.version {
		delete(p.requested, job.id)
	}
	p.stateMu.Unlock()

	p.synthMu.Lock()
	p.notes = append(p.notes, Notification{Kind: RebuildFailed, Instrument: job.id, Err: err})
	p.synthMu.Unlock()
}

// SetWavSet publishes a prebuilt WavSet for instrument id. Rebuilds
// requested earlier no longer replace it.
func (p *Project) SetWavSet(id int, ws *wavset.WavSet) {
	p.stateMu.Lock()
	seq := p.nextSeq()
	p.stateMu.Unlock()

	p.publish(id, ws, seq, false)
}

// nextSeq orders publications. stateMu held.
func (p *Project) nextSeq() uint64 {
	p.seq++
	return p.seq
}

// publish hands ws to the audio goroutine and reports false when a result
// with a higher sequence number is already published for id. The control
// event is queued under stateMu so events reach the engine in sequence
// order.
func (p *Project) publish(id int, ws *wavset.WavSet, seq uint64, rebuilt bool) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if seq < p.published[id] {
		return false
	}

	p.published[id] = seq
	p.wavsets[id] = ws

	p.TakeControlEvent(ControlEventFunc(func(p *Project) {
		if old := p.synth.Engine().SetWavSet(id, ws); old != nil {
			p.park(old)
		}

		if rebuilt {
			p.notify(Notification{Kind: RebuildCompleted, Instrument: id})
		}
	}))

	return true
}

// Plan returns a copy of the current plan.
func (p *Project) Plan() *morph.Plan {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	return p.plan.Clone()
}

// SetPlan replaces the morph plan. Modules are built here; the audio
// goroutine only swaps them in. Bind errors are returned, the plan is
// applied with the failing edges unbound.
func (p *Project) SetPlan(plan *morph.Plan) error {
	plan = plan.Clone()

	if p.warmUp {
		p.warm(plan)
	}

	u, err := p.synth.Engine().Prepare(plan)
	if u == nil {
		return err
	}

	if err != nil {
		p.logger.Warn("plan bound with errors", "err", err)
	}

	p.stateMu.Lock()
	p.plan = plan
	p.stateMu.Unlock()

	p.TakeControlEvent(ControlEventFunc(func(p *Project) {
		p.synth.Engine().Apply(u)
		p.park(u)
	}))

	return err
}

// EditPlan runs edit on a copy of the current plan and applies the copy
// when edit reported a change through the plan's events (Add, Remove or
// Changed). Property edits report themselves once Changed is registered
// with Property.OnChange. Calls are serialised.
func (p *Project) EditPlan(edit func(plan *morph.Plan)) error {
	p.editMu.Lock()
	defer p.editMu.Unlock()

	plan := p.Plan()

	changed := false
	unsubscribe := plan.Subscribe(func(morph.PlanEvent) { changed = true })
	edit(plan)
	unsubscribe()

	if !changed {
		return nil
	}

	return p.SetPlan(plan)
}

// warm renders one sample of plan on a throwaway engine so that lazily
// built state is in place before the audio goroutine sees the plan.
func (p *Project) warm(plan *morph.Plan) {
	s, err := morph.NewPlanSynth(p.mixFreq, 1)
	if err != nil {
		return
	}

	p.stateMu.Lock()
	for id, ws := range p.wavsets {
		s.SetWavSet(id, ws)
	}
	p.stateMu.Unlock()

	if err := s.UpdatePlan(plan); err != nil && s.Plan() == nil {
		return
	}

	v := s.Voices()[0]
	if !v.HasOutput() {
		return
	}

	v.Retrigger(0, 440, 1)

	var sample [1]float64
	v.Process(sample[:], nil)
}
