// Command fourkeq-render runs a WAV file through the console equalizer.
//
// Usage:
//
//	fourkeq-render [flags] input.wav output.wav
//
// Every engine parameter has a flag named after its identifier; -state
// loads a JSON parameter document first.
//
// Examples:
//
//	fourkeq-render -lf_gain 4 -hf_gain 3 -saturation 40 in.wav out.wav
//	fourkeq-render -eq_type black -lm_gain -6 -lm_q 2 in.wav out.wav
//	fourkeq-render -state preset.json -oversampling 4x -compensate in.wav out.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-fourkeq/dsp/core"
	"github.com/cwbudde/algo-fourkeq/dsp/eq"
	"github.com/cwbudde/algo-fourkeq/dsp/oversample"
	"github.com/cwbudde/algo-fourkeq/internal/cli"
	"github.com/cwbudde/algo-fourkeq/internal/wavio"
	"github.com/cwbudde/algo-fourkeq/measure/level"
)

const (
	defaultBlockSize = 512
	minRequiredArgs  = 2
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	store, err := eq.NewStore()
	if err != nil {
		return err
	}

	blockSize := flag.Int("block", defaultBlockSize, "processing block size in samples")
	bitDepth := flag.Int("bits", 0, "output bit depth 16|24|32 (default: same as input)")
	compensate := flag.Bool("compensate", false, "remove the oversampling latency from the output")
	standard := flag.Bool("standard-quality", false, "use the lighter oversampling filters")
	verbose := flag.Bool("v", false, "print the parameter set")
	params := cli.RegisterParams(flag.CommandLine, store)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fourkeq-render [flags] input.wav output.wav\n\n")
		fmt.Fprintf(os.Stderr, "Processes a mono or stereo WAV file with the console equalizer.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		flag.Usage()
		return errors.New("insufficient arguments")
	}

	if err := params.Apply(); err != nil {
		return err
	}

	in, err := wavio.ReadFile(args[0])
	if err != nil {
		return err
	}

	if len(in.Channels) > eq.MaxChannels {
		return fmt.Errorf("%s: %d channels, at most %d supported", args[0], len(in.Channels), eq.MaxChannels)
	}

	quality := oversample.QualityMax
	if *standard {
		quality = oversample.QualityStandard
	}

	p := eq.ParamsFrom(store)

	engine, err := eq.New(
		eq.WithChannels(len(in.Channels)),
		eq.WithInitialParams(p),
		eq.WithOversamplingQuality(quality),
	)
	if err != nil {
		return err
	}

	if err := engine.Prepare(float64(in.SampleRate), *blockSize); err != nil {
		return err
	}

	if *verbose {
		log.Printf("parameters:")
		cli.PrintParams(os.Stderr, store)
	}

	latency := 0
	if *compensate {
		latency = int(math.Round(engine.Latency()))
	}

	frames := in.Frames()
	buf := core.NewPlanar(len(in.Channels), frames+latency)
	for ch, x := range in.Channels {
		copy(buf[ch], x)
	}

	start := time.Now()
	engine.Process(buf, p)
	elapsed := time.Since(start)

	out := &wavio.Audio{
		SampleRate: in.SampleRate,
		BitDepth:   in.BitDepth,
		Channels:   make([][]float64, len(buf)),
	}
	if *bitDepth != 0 {
		out.BitDepth = *bitDepth
	}

	for ch, x := range buf {
		out.Channels[ch] = x[latency:]
	}

	if err := wavio.WriteFile(args[1], out); err != nil {
		return err
	}

	fmt.Printf("Rendered %s -> %s\n", filepath.Base(args[0]), filepath.Base(args[1]))
	fmt.Printf("  %d Hz, %d channels, %d frames, latency %.2f samples", in.SampleRate, len(in.Channels), frames, engine.Latency())
	if *compensate {
		fmt.Printf(" (removed %d)", latency)
	}
	fmt.Println()

	if elapsed > 0 && in.SampleRate > 0 {
		fmt.Printf("  Speed: %.1fx realtime\n", float64(frames)/float64(in.SampleRate)/elapsed.Seconds())
	}

	return printLevels(in.Channels, out.Channels)
}

func printLevels(in, out [][]float64) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Channel\tIn Peak [dB]\tOut Peak [dB]\tIn RMS [dB]\tOut RMS [dB]\tGain [dB]\tCrest [dB]\tClipped\n")
	fmt.Fprintf(tw, "-------\t------------\t-------------\t-----------\t------------\t---------\t----------\t-------\n")

	for ch := range in {
		a, b := level.Calculate(in[ch]), level.Calculate(out[ch])
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%+.2f\t%.2f\t%d\n", ch,
			a.Peak_dB, b.Peak_dB, a.RMS_dB, b.RMS_dB, level.Gain(a, b), b.CrestFactor_dB, b.Clipped)
	}

	return tw.Flush()
}
