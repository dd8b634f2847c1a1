// Command fourkeq-play plays audio through the console equalizer on the
// default output device.
//
// Parameters can be changed while playing by typing "<id> <value>" lines
// on stdin, for example "lf_gain 6" or "eq_type black". "params" prints
// the current set, "state" prints it as JSON and "quit" stops playback.
//
// Examples:
//
//	fourkeq-play -in drums.wav -loops 0
//	fourkeq-play -tone 1000 -saturation 80 -oversampling 4x
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cwbudde/algo-fourkeq/dsp/core"
	"github.com/cwbudde/algo-fourkeq/internal/cli"
	"github.com/cwbudde/algo-fourkeq/internal/wavio"
	"github.com/cwbudde/algo-fourkeq/plugin"
)

const (
	defaultSampleRate = 48000
	defaultBlockSize  = 256
	toneSeconds       = 2
	meterInterval     = 250 * time.Millisecond
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	processor, err := plugin.New(plugin.WithChannels(2))
	if err != nil {
		return err
	}

	var (
		inPath    = flag.String("in", "", "WAV file to play (mono or stereo)")
		tone      = flag.Float64("tone", 440, "test tone frequency in Hz when -in is not given")
		level     = flag.Float64("level", -12, "test tone level in dBFS")
		loops     = flag.Int("loops", 1, "number of repetitions (0 = forever)")
		blockSize = flag.Int("block", defaultBlockSize, "processing block size in samples")
		meter     = flag.Bool("meter", true, "print output peak levels while playing")
	)
	params := cli.RegisterParams(flag.CommandLine, processor.Params())
	flag.Parse()

	if err := params.Apply(); err != nil {
		return err
	}

	data, sampleRate, err := loadSource(*inPath, *tone, *level)
	if err != nil {
		return err
	}

	if err := processor.Prepare(float64(sampleRate), *blockSize); err != nil {
		return err
	}
	defer processor.Release()

	player, err := plugin.NewPlayer(sampleRate, *blockSize, plugin.NewLoopSource(data, *loops), processor, processor.Channels())
	if err != nil {
		return err
	}
	defer func() { _ = player.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	commands := make(chan string)
	go readCommands(commands)

	log.Printf("playing at %d Hz, latency %d samples", sampleRate, processor.LatencySamples())
	player.Play()

	ticker := time.NewTicker(meterInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}

			if quit := handleCommand(processor, line); quit {
				return nil
			}
		case <-ticker.C:
			if !player.IsPlaying() {
				log.Printf("playback finished at %s", player.Position().Round(time.Millisecond))
				return nil
			}

			if *meter {
				printMeter(processor.Meter())
			}
		}
	}
}

func loadSource(path string, tone, levelDB float64) ([][]float32, int, error) {
	if path == "" {
		n := defaultSampleRate * toneSeconds
		amp := core.DBToLinear(levelDB)
		x := make([]float32, n)
		for i := range x {
			x[i] = float32(amp * math.Sin(2*math.Pi*tone*float64(i)/defaultSampleRate))
		}

		return [][]float32{x}, defaultSampleRate, nil
	}

	in, err := wavio.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	if len(in.Channels) == 0 || len(in.Channels) > 2 {
		return nil, 0, fmt.Errorf("%s: %d channels, expected 1 or 2", path, len(in.Channels))
	}

	data := make([][]float32, len(in.Channels))
	for ch, src := range in.Channels {
		data[ch] = make([]float32, len(src))
		for i, v := range src {
			data[ch][i] = float32(v)
		}
	}

	return data, in.SampleRate, nil
}

func readCommands(out chan<- string) {
	defer close(out)

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out <- line
		}
	}
}

func handleCommand(processor *plugin.FourK, line string) bool {
	fields := strings.Fields(line)

	switch fields[0] {
	case "quit", "exit":
		return true
	case "params":
		cli.PrintParams(os.Stdout, processor.Params())
		return false
	case "state":
		data, err := processor.State()
		if err != nil {
			log.Print(err)
			return false
		}

		fmt.Println(string(data))

		return false
	}

	if len(fields) != 2 {
		log.Printf("expected \"<id> <value>\", got %q", line)
		return false
	}

	if err := processor.Params().SetString(fields[0], fields[1]); err != nil {
		log.Print(err)

		return false
	}

	log.Printf("%s = %s", fields[0], formatParam(processor, fields[0]))

	return false
}

func formatParam(processor *plugin.FourK, id string) string {
	p, ok := processor.Params().Lookup(id)
	if !ok {
		return "?"
	}

	return p.Format(p.Load())
}

func printMeter(m *plugin.PeakMeter) {
	var sb strings.Builder
	for ch := range m.Channels() {
		fmt.Fprintf(&sb, " ch%d %6.1f dB", ch, core.FastLinearToDB(m.Take(ch), plugin.MeterFloorDB))
	}

	log.Print("peak" + sb.String())
}
