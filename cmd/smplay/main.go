// Command smplay plays an instrument live from the computer keyboard.
//
// Usage:
//
//	smplay [flags] -instrument inst.json
//
// The rows a w s e d f t g y h u j k play one octave starting at C; the
// same keys shifted play the octave above. z and x shift the octave, - and
// + change the volume, tab selects the next plan property and [ and ]
// change it. Space releases all notes and q quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/XieJiSS/spectmorph/dsp/core"
	"github.com/XieJiSS/spectmorph/internal/cli"
	"github.com/XieJiSS/spectmorph/morph"
	"github.com/XieJiSS/spectmorph/project"
	"golang.org/x/term"
)

func main() {
	instPath := flag.String("instrument", "", "instrument JSON file (required)")
	planPath := flag.String("plan", "", "morph plan JSON file")
	rate := flag.Int("rate", 48000, "output sample rate")
	hold := flag.Duration("hold", 600*time.Millisecond, "note length per key press")
	velocity := flag.Int("velocity", 100, "note velocity")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: smplay [flags] -instrument inst.json\n\n")
		fmt.Fprintf(os.Stderr, "Plays an analysed instrument from the keyboard.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, err := cli.InitLogger(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if *instPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(logger, *instPath, *planPath, *rate, *hold, *velocity); err != nil {
		logger.Error("smplay failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, instPath, planPath string, rate int, hold time.Duration, velocity int) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("stdin is not a terminal")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(os.Stderr, "analysing %s ...\n", instPath)

	s, err := cli.OpenSession(ctx, instPath, planPath,
		[]core.ProcessorOption{core.WithSampleRate(float64(rate))},
		project.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	player, err := newPlayer(s.Project, rate)
	if err != nil {
		return err
	}
	defer player.Close()
	player.Play()

	go drainNotifications(ctx, logger, s.Project)

	old, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer func() { _ = term.Restore(fd, old) }()

	k := &keyboard{s: s, hold: hold, velocity: velocity, base: 60}
	k.props = planProperties(s.Project.Plan())
	k.status("ready")

	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		if !k.handle(keyAction(buf[0])) {
			return nil
		}
	}
}

// drainNotifications collects outbound project events until ctx ends.
func drainNotifications(ctx context.Context, logger *slog.Logger, p *project.Project) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, n := range p.TakeNotifications() {
				logger.Debug("notification", "kind", n.Kind, "voice", n.Voice, "note", n.Note)
			}
		}
	}
}

type propRef struct {
	op    string
	index int
	label string
}

// planProperties lists the editable properties of all plan operators.
func planProperties(plan *morph.Plan) []propRef {
	var refs []propRef
	for _, op := range plan.Operators() {
		for i, prop := range op.Properties() {
			refs = append(refs, propRef{op: op.Name, index: i, label: op.Name + "." + prop.Label()})
		}
	}

	return refs
}

type keyboard struct {
	s        *cli.Session
	hold     time.Duration
	velocity int
	base     int
	volume   float64
	props    []propRef
	selected int
}

func (k *keyboard) handle(a action) bool {
	p := k.s.Project

	switch a.kind {
	case actNote:
		note := k.base + a.value
		if note > 127 {
			return true
		}
		vel := k.velocity
		p.TakeControlEvent(project.ControlEventFunc(func(p *project.Project) {
			p.Synth().AddNoteOn(0, 0, note, vel)
		}))
		time.AfterFunc(k.hold, func() {
			p.TakeControlEvent(project.ControlEventFunc(func(p *project.Project) {
				p.Synth().AddNoteOff(0, 0, note)
			}))
		})
	case actOctave:
		k.base = max(0, min(108, k.base+12*a.value))
		k.status(fmt.Sprintf("octave base %d", k.base))
	case actVolume:
		k.volume = max(-60, min(12, k.volume+float64(a.value)))
		p.SetVolume(k.volume)
		k.status(fmt.Sprintf("volume %.0f dB", k.volume))
	case actNextProperty:
		if len(k.props) > 0 {
			k.selected = (k.selected + 1) % len(k.props)
			k.status("selected " + k.props[k.selected].label)
		}
	case actProperty:
		k.adjust(a.value)
	case actPanic:
		p.TakeControlEvent(project.ControlEventFunc(func(p *project.Project) {
			p.Synth().AddControlChange(0, 0, 123, 0)
		}))
	case actQuit:
		return false
	}

	return true
}

func (k *keyboard) adjust(delta int) {
	if len(k.props) == 0 {
		return
	}
	ref := k.props[k.selected]

	var value string
	err := k.s.Project.EditPlan(func(plan *morph.Plan) {
		op := plan.Operator(ref.op)
		if op == nil {
			return
		}

		prop := op.Properties()[ref.index]
		prop.OnChange(plan.Changed)
		prop.Set(prop.Get() + delta)
		value = prop.ValueLabel()
	})
	if err != nil {
		slog.Warn("plan bind", "error", err)
	}

	if value != "" {
		k.status(fmt.Sprintf("%s = %s", ref.label, value))
	}
}

// status prints one line; the terminal is in raw mode.
func (k *keyboard) status(msg string) {
	fmt.Fprintf(os.Stderr, "%s\r\n", msg)
}
