// Command fourkeq-response prints the frequency response of an equalizer
// setting, measured from the impulse response and computed from the filter
// coefficients, plus the harmonic distortion of a test tone.
//
// The impulse measurement runs with saturation off so the path is linear;
// the distortion measurement uses the full parameter set.
//
// Examples:
//
//	fourkeq-response -lf_gain 6 -lf_freq 100
//	fourkeq-response -eq_type black -lm_gain 10 -points 48
//	fourkeq-response -saturation 100 -thd-freq 100 -oversampling 4x
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-fourkeq/dsp/eq"
	"github.com/cwbudde/algo-fourkeq/internal/cli"
	"github.com/cwbudde/algo-fourkeq/measure/response"
	"github.com/cwbudde/algo-fourkeq/measure/thd"
)

const (
	defaultSampleRate = 48000
	defaultFFTSize    = 1 << 16
	defaultPoints     = 31
	minFrequency      = 20
	maxFrequency      = 20000
	thdSeconds        = 1
	thdSettleSamples  = 4096
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

	var (
		sampleRate = flag.Float64("rate", defaultSampleRate, "sample rate in Hz")
		size       = flag.Int("size", defaultFFTSize, "impulse response length (power of two)")
		points     = flag.Int("points", defaultPoints, "number of log-spaced frequencies")
		thdFreq    = flag.Float64("thd-freq", 1000, "THD test tone frequency in Hz (0 disables)")
		thdLevel   = flag.Float64("thd-level", 0.5, "THD test tone peak amplitude")
	)
	params := cli.RegisterParams(flag.CommandLine, store)
	flag.Parse()

	if err := params.Apply(); err != nil {
		return err
	}

	p := eq.ParamsFrom(store)

	if err := printResponse(p, *sampleRate, *size, *points); err != nil {
		return err
	}

	if *thdFreq > 0 {
		return printTHD(p, *sampleRate, *thdFreq, *thdLevel)
	}

	return nil
}

func newEngine(p eq.Params, sampleRate float64, blockSize int) (*eq.Engine, error) {
	engine, err := eq.New(eq.WithChannels(1), eq.WithInitialParams(p))
	if err != nil {
		return nil, err
	}

	if err := engine.Prepare(sampleRate, blockSize); err != nil {
		return nil, err
	}

	return engine, nil
}

func printResponse(p eq.Params, sampleRate float64, size, points int) error {
	linear := p
	linear.Saturation = 0

	engine, err := newEngine(linear, sampleRate, size)
	if err != nil {
		return err
	}

	resp, err := response.Measure(func(buf []float64) {
		engine.Process([][]float64{buf}, linear)
	}, size, sampleRate)
	if err != nil {
		return err
	}

	freqs := response.LogFrequencies(minFrequency, min(maxFrequency, 0.45*sampleRate), points)
	if len(freqs) == 0 {
		return errors.New("no frequencies to report")
	}

	fmt.Printf("%s, %.0f Hz, latency %.2f samples\n\n", p.Type, sampleRate, engine.Latency())

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Frequency [Hz]\tMeasured [dB]\tAnalytic [dB]\tDiff [dB]\n")
	fmt.Fprintf(tw, "--------------\t-------------\t-------------\t---------\n")

	for _, pt := range resp.Table(freqs) {
		analytic := engine.MagnitudeDB(pt.Frequency)
		fmt.Fprintf(tw, "%.1f\t%.2f\t%.2f\t%+.3f\n", pt.Frequency, pt.LevelDB, analytic, pt.LevelDB-analytic)
	}

	return tw.Flush()
}

func printTHD(p eq.Params, sampleRate, freq, level float64) error {
	n := int(sampleRate) * thdSeconds

	engine, err := newEngine(p, sampleRate, n+thdSettleSamples)
	if err != nil {
		return err
	}

	x := make([]float64, n+thdSettleSamples)
	for i := range x {
		x[i] = level * sine(freq, sampleRate, i)
	}

	engine.Process([][]float64{x}, p)

	res, err := thd.Analyze(x[thdSettleSamples:], thd.Config{SampleRate: sampleRate, FundamentalFreq: freq})
	if err != nil {
		return err
	}

	fmt.Printf("\nTHD at %.1f Hz, amplitude %.3f, saturation %.0f%%\n", freq, level, p.Saturation)
	fmt.Printf("  THD   %.4f%% (%.1f dB)\n", 100*res.THD, res.THD_dB)
	fmt.Printf("  THD+N %.4f%% (%.1f dB)\n", 100*res.THDN, res.THDN_dB)
	fmt.Printf("  odd %.2e, even %.2e\n", res.OddHD, res.EvenHD)

	for i, h := range res.Harmonics {
		if h > 0 {
			fmt.Printf("  H%d %.2e\n", i+2, h)
		}
	}

	return nil
}

func sine(freq, sampleRate float64, i int) float64 {
	return math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
}
