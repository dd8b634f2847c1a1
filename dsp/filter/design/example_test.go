package design_test

import (
	"fmt"

	"github.com/cwbudde/algo-fourkeq/dsp/filter/design"
)

func ExampleLowShelf() {
	c := design.LowShelf(100, 12, design.BandQ, 96000)
	fmt.Printf("%.2f dB at 100 Hz\n", c.MagnitudeDB(100, 96000))
	// Output:
	// 6.00 dB at 100 Hz
}

func ExampleDynamicQ() {
	for _, gain := range []float64{0, 10, 20} {
		fmt.Printf("gain=%2.0f q=%.3f\n", gain, design.DynamicQ(gain, 2))
	}
	// Output:
	// gain= 0 q=2.000
	// gain=10 q=1.750
	// gain=20 q=1.500
}
