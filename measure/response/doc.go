// Package response measures the frequency response of linear block
// processors from their impulse response.
//
// # Usage
//
//	r, err := response.Measure(func(buf []float64) { eng.Process([][]float64{buf}, p) }, 16384, 48000)
//	fmt.Printf("%.2f dB at 1 kHz\n", r.At(1000))
package response
