package eq_test

import (
	"fmt"

	"github.com/cwbudde/algo-fourkeq/dsp/eq"
)

func ExampleEngine_MagnitudeDB() {
	p := eq.FlatParams()
	p.LFGain = 12
	p.LFFreq = 100

	e, err := eq.New(eq.WithInitialParams(p))
	if err != nil {
		panic(err)
	}

	if err := e.Prepare(48000, 512); err != nil {
		panic(err)
	}

	fmt.Printf("%.2f dB at 100 Hz\n", e.MagnitudeDB(100))
	// Output: 6.00 dB at 100 Hz
}

func ExampleEngine_Process() {
	e, err := eq.New(eq.WithChannels(1))
	if err != nil {
		panic(err)
	}

	if err := e.Prepare(48000, 256); err != nil {
		panic(err)
	}

	p := eq.DefaultParams()
	p.Bypass = true

	buf := [][]float64{{0.25, -0.5, 1}}
	e.Process(buf, p)

	fmt.Println(buf[0])
	// Output: [0.25 -0.5 1]
}
