// Command sminfo analyses an instrument and prints a summary of the
// spectral model of each sample.
//
// Usage:
//
//	sminfo [flags] inst.json [inst.json ...]
//
// Examples:
//
//	sminfo piano.json
//	sminfo -partials 32 -frame-ms 60 piano.json
//	sminfo -frames 0 piano.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/XieJiSS/spectmorph/instrument"
	"github.com/XieJiSS/spectmorph/internal/cli"
	"github.com/XieJiSS/spectmorph/wavset"
)

func main() {
	frameMs := flag.Float64("frame-ms", instrument.DefaultFrameSizeMs, "analysis frame size in ms")
	stepMs := flag.Float64("step-ms", instrument.DefaultFrameStepMs, "analysis frame step in ms")
	partials := flag.Int("partials", instrument.DefaultMaxPartials, "maximum partials per frame")
	bands := flag.Int("bands", instrument.DefaultNoiseBands, "noise bands per frame")
	workers := flag.Int("workers", 0, "parallel sample analyses (0 uses all CPUs)")
	frames := flag.Int("frames", -1, "also print every frame of this sample index")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sminfo [flags] inst.json [inst.json ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the spectral model built for each instrument sample.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sminfo piano.json\n")
		fmt.Fprintf(os.Stderr, "  sminfo -partials 32 -frame-ms 60 piano.json\n")
		fmt.Fprintf(os.Stderr, "  sminfo -frames 0 piano.json\n")
	}
	flag.Parse()

	logger, err := cli.InitLogger(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	opts := []instrument.Option{
		instrument.WithFrameSizeMs(*frameMs),
		instrument.WithFrameStepMs(*stepMs),
		instrument.WithMaxPartials(*partials),
		instrument.WithNoiseBands(*bands),
		instrument.WithLogger(logger),
	}
	if *workers > 0 {
		opts = append(opts, instrument.WithWorkers(*workers))
	}

	b, err := instrument.NewBuilder(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := false
	for _, path := range flag.Args() {
		inst, err := instrument.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", path, err)
			failed = true
			continue
		}

		ws, err := b.Build(ctx, inst)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", path, err)
			failed = true
			continue
		}

		fmt.Printf("%s (%s)\n\n", inst.Name, path)
		if err := printWaves(os.Stdout, ws); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		if *frames >= 0 && *frames < len(ws.Waves) {
			fmt.Println()
			if err := printFrames(os.Stdout, ws.Waves[*frames].Audio); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		}
		fmt.Println()
	}

	if failed {
		os.Exit(1)
	}
}

func printWaves(w io.Writer, ws *wavset.WavSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Note\tFund [Hz]\tFrames\tLoop\tLength [s]\tPartials (avg)\tPartials (max)\tStrongest [Hz]\tPeak [dB]\tNoise [dB]\n")
	fmt.Fprintf(tw, "----\t---------\t------\t----\t----------\t--------------\t--------------\t--------------\t---------\t----------\n")

	for _, wave := range ws.Waves {
		s := summarize(wave.Audio)

		loop := "-"
		if wave.Audio.Looping() {
			loop = fmt.Sprint(wave.Audio.LoopPoint)
		}

		fmt.Fprintf(tw, "%d\t%.2f\t%d\t%s\t%.3f\t%.1f\t%d\t%.2f\t%.1f\t%.1f\n",
			wave.MidiNote,
			wave.Audio.FundamentalFreq,
			s.frames,
			loop,
			s.seconds,
			s.avgPartials,
			s.maxPartials,
			s.strongestFreq,
			s.peakDB,
			s.noiseDB,
		)
	}

	return tw.Flush()
}

func printFrames(w io.Writer, a *wavset.Audio) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Frame\tTime [ms]\tPartials\tStrongest [Hz]\tPeak [dB]\tNoise [dB]\n")
	fmt.Fprintf(tw, "-----\t---------\t--------\t--------------\t---------\t----------\n")

	for i := range a.Blocks {
		f := summarizeBlock(&a.Blocks[i])
		fmt.Fprintf(tw, "%d\t%.1f\t%d\t%.2f\t%.1f\t%.1f\n",
			i, float64(i)*a.FrameStepMs, f.partials, f.strongestFreq, f.peakDB, f.noiseDB)
	}

	return tw.Flush()
}
