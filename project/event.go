package project

// ControlEvent is a mutation prepared off the audio path. RunRT executes on
// the audio goroutine with the synth lock held and must not block.
type ControlEvent interface {
	RunRT(p *Project)
}

// ControlEventFunc adapts a function to ControlEvent.
type ControlEventFunc func(p *Project)

// RunRT calls f(p).
func (f ControlEventFunc) RunRT(p *Project) {
	f(p)
}

// controlEventVector queues events between the two sides. Events that ran
// stay referenced until the next take so that dropping them happens off
// the audio path.
type controlEventVector struct {
	events []ControlEvent
	ran    bool
}

// take appends ev, first dropping the events that already ran.
func (v *controlEventVector) take(ev ControlEvent) {
	if v.ran {
		clear(v.events)
		v.events = v.events[:0]
		v.ran = false
	}

	v.events = append(v.events, ev)
}

// runRT runs every queued event once.
func (v *controlEventVector) runRT(p *Project) {
	if v.ran {
		return
	}

	for _, ev := range v.events {
		ev.RunRT(p)
	}

	v.ran = true
}

// pending returns the number of events that did not run yet.
func (v *controlEventVector) pending() int {
	if v.ran {
		return 0
	}

	return len(v.events)
}

// NotifyKind identifies an outbound notification.
type NotifyKind int

const (
	VoiceIdle NotifyKind = iota
	RebuildCompleted
	RebuildFailed
)

var notifyNames = map[NotifyKind]string{
	VoiceIdle:        "voice-idle",
	RebuildCompleted: "rebuild-completed",
	RebuildFailed:    "rebuild-failed",
}

func (k NotifyKind) String() string {
	if name, ok := notifyNames[k]; ok {
		return name
	}

	return "unknown"
}

// Notification is one outbound event.
type Notification struct {
	Kind NotifyKind

	// Voice and Note describe VoiceIdle.
	Voice int
	Note  int

	// Instrument names the instrument of rebuild notifications.
	Instrument int
	// Err is the cause of RebuildFailed.
	Err error
}
