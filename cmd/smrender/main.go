// Command smrender renders an instrument to a WAV file.
//
// Usage:
//
//	smrender [flags] -instrument inst.json -out out.wav
//
// The instrument is analysed, then either a single note (-note, -len) or
// the events of a standard MIDI file (-midi) are played through the morph
// plan given by -plan, or through the default plan when -plan is empty.
//
// Examples:
//
//	smrender -instrument ~/sm/piano.json -note 60 -len 2 -out c4.wav
//	smrender -instrument piano.json -plan morph.json -midi song.mid -out song.wav
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
	"github.com/XieJiSS/spectmorph/dsp/dither"
	"github.com/XieJiSS/spectmorph/dsp/dynamics"
	dspsignal "github.com/XieJiSS/spectmorph/dsp/signal"
	"github.com/XieJiSS/spectmorph/instrument"
	"github.com/XieJiSS/spectmorph/internal/cli"
	"github.com/XieJiSS/spectmorph/project"
)

const chunkSize = 1024

func main() {
	instPath := flag.String("instrument", "", "instrument JSON file (required)")
	planPath := flag.String("plan", "", "morph plan JSON file")
	midiPath := flag.String("midi", "", "standard MIDI file to render")
	outPath := flag.String("out", "out.wav", "output WAV file")
	note := flag.Int("note", 69, "MIDI note to render without -midi")
	velocity := flag.Int("velocity", 100, "note velocity without -midi")
	length := flag.Float64("len", 1, "note length in seconds without -midi")
	rate := flag.Int("rate", 44100, "output sample rate")
	volume := flag.Float64("volume", 0, "output volume in dB")
	tail := flag.Float64("tail", 10, "maximum release tail in seconds")
	bits := flag.Int("bits", 16, "output bit depth (16, 24 or 32)")
	ditherName := flag.String("dither", "triangular", "output dither (none, rectangular, triangular)")
	shaping := flag.Bool("shape", false, "noise shape the output dither")
	normalize := flag.Float64("normalize", 0, "normalize the peak to this level in dB; 0 disables")
	ceiling := flag.Float64("ceiling", 0, "limiter ceiling in dB; 0 disables the limiter")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: smrender [flags] -instrument inst.json\n\n")
		fmt.Fprintf(os.Stderr, "Analyses an instrument and renders notes through a morph plan to WAV.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  smrender -instrument piano.json -note 60 -len 2 -out c4.wav\n")
		fmt.Fprintf(os.Stderr, "  smrender -instrument piano.json -plan morph.json -midi song.mid\n")
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

	if *note < 0 || *note > 127 || *velocity < 1 || *velocity > 127 || *length <= 0 {
		fmt.Fprintf(os.Stderr, "error: note, velocity or length out of range\n")
		os.Exit(2)
	}

	ditherType, err := dither.ParseType(*ditherName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, renderArgs{
		instPath: *instPath,
		planPath: *planPath,
		midiPath: *midiPath,
		outPath:  *outPath,
		note:     *note,
		velocity: *velocity,
		length:   *length,
		rate:     *rate,
		volume:   *volume,
		tail:     *tail,
		ceiling:  *ceiling,
		normDB:   *normalize,
		output: []dither.Option{
			dither.WithBitDepth(*bits),
			dither.WithType(ditherType),
			dither.WithNoiseShaping(*shaping),
		},
	}); err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

type renderArgs struct {
	instPath, planPath, midiPath, outPath string

	note, velocity, rate int
	length, volume, tail float64
	ceiling, normDB      float64

	output []dither.Option
}

func run(ctx context.Context, logger *slog.Logger, a renderArgs) error {
	start := time.Now()

	s, err := cli.OpenSession(ctx, a.instPath, a.planPath,
		[]core.ProcessorOption{core.WithSampleRate(float64(a.rate))},
		project.WithLogger(logger),
		project.WithoutWarmUp())
	if err != nil {
		return err
	}
	defer s.Close()

	logger.Info("instrument ready", "name", s.Instrument.Name, "samples", len(s.Instrument.Samples), "elapsed", time.Since(start))

	mixFreq := s.Project.MixFreq()

	var events []cli.TimedEvent
	if a.midiPath != "" {
		if events, err = cli.ReadMidiFile(a.midiPath, mixFreq); err != nil {
			return err
		}
		logger.Info("midi loaded", "path", a.midiPath, "events", len(events))
	} else {
		events = cli.NoteEvents(a.note, a.velocity, int(a.length*mixFreq))
	}

	s.Project.SetVolume(a.volume)

	out := cli.Render(s.Project, events, chunkSize, int(a.tail*mixFreq))

	if a.ceiling < 0 {
		l, err := dynamics.NewLimiter(mixFreq)
		if err != nil {
			return err
		}
		if err := l.SetThreshold(a.ceiling); err != nil {
			return err
		}
		out = cli.Limit(l, out)
	}

	if a.normDB < 0 {
		gain, err := dspsignal.Normalize(out, core.DBToLinear(a.normDB))
		if err != nil {
			return err
		}
		logger.Info("normalized", "gain_db", core.LinearToDB(gain))
	}

	if peak := core.MaxAbs(out); peak > 1 {
		logger.Warn("output clipped", "peak_db", core.LinearToDB(peak))
	}

	if err := instrument.WriteWAV(a.outPath, out, a.rate, a.output...); err != nil {
		return err
	}

	logger.Info("rendered", "out", a.outPath, "seconds", float64(len(out))/mixFreq, "elapsed", time.Since(start))

	return nil
}
