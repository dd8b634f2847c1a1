package response

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrInvalidSize indicates an FFT size that is not a power of two >= 2.
	ErrInvalidSize = errors.New("response: size must be a power of two >= 2")
	// ErrInvalidSampleRate indicates a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("response: invalid sample rate")
)

// floorDB is reported for bins with zero magnitude.
const floorDB = -300.0

// Response is a magnitude and phase response on the bins k = 0..Size/2.
type Response struct {
	SampleRate float64
	Size       int
	Magnitude  []float64 // linear |H|
	Phase      []float64 // radians
}

// Bins returns the number of non-negative frequency bins.
func (r Response) Bins() int { return len(r.Magnitude) }

// Frequency returns the center frequency of bin k in Hz.
func (r Response) Frequency(k int) float64 {
	return float64(k) * r.SampleRate / float64(r.Size)
}

// MagnitudeDB returns the level of bin k in dB.
func (r Response) MagnitudeDB(k int) float64 {
	return toDB(r.Magnitude[k])
}

// At returns the level at freq in dB, interpolated linearly between the
// two neighbouring bins. Frequencies outside [0, fs/2] return the edge bins.
func (r Response) At(freq float64) float64 {
	if len(r.Magnitude) == 0 {
		return floorDB
	}

	pos := freq * float64(r.Size) / r.SampleRate
	last := len(r.Magnitude) - 1

	switch {
	case !(pos > 0):
		return r.MagnitudeDB(0)
	case pos >= float64(last):
		return r.MagnitudeDB(last)
	}

	k := int(pos)
	frac := pos - float64(k)

	return (1-frac)*r.MagnitudeDB(k) + frac*r.MagnitudeDB(k+1)
}

func toDB(mag float64) float64 {
	if mag <= 0 {
		return floorDB
	}

	return 20 * math.Log10(mag)
}

// FromImpulse returns the response of the impulse response ir, truncated
// or zero-padded to size samples.
func FromImpulse(ir []float64, size int, sampleRate float64) (Response, error) {
	if size < 2 || bits.OnesCount(uint(size)) != 1 {
		return Response{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return Response{}, fmt.Errorf("response: fft plan: %w", err)
	}

	in := make([]complex128, size)
	for i, v := range ir[:min(len(ir), size)] {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return Response{}, fmt.Errorf("response: fft: %w", err)
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	phase := make([]float64, bins)

	for k := range bins {
		re[k] = real(out[k])
		im[k] = imag(out[k])
		phase[k] = math.Atan2(im[k], re[k])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	return Response{
		SampleRate: sampleRate,
		Size:       size,
		Magnitude:  mag,
		Phase:      phase,
	}, nil
}

// Measure feeds a unit impulse of size samples through process, which
// filters its argument in place, and returns the resulting response.
// process must be linear and start from a cleared state.
func Measure(process func(buf []float64), size int, sampleRate float64) (Response, error) {
	if size < 2 || bits.OnesCount(uint(size)) != 1 {
		return Response{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	ir := make([]float64, size)
	ir[0] = 1
	process(ir)

	return FromImpulse(ir, size, sampleRate)
}

// Point is one row of a response table.
type Point struct {
	Frequency float64
	LevelDB   float64
}

// Table samples r at the given frequencies.
func (r Response) Table(freqs []float64) []Point {
	out := make([]Point, len(freqs))
	for i, f := range freqs {
		out[i] = Point{Frequency: f, LevelDB: r.At(f)}
	}

	return out
}

// LogFrequencies returns n frequencies spaced logarithmically from lo to hi
// inclusive.
func LogFrequencies(lo, hi float64, n int) []float64 {
	if n <= 0 || !(lo > 0) || !(hi > lo) {
		return nil
	}

	if n == 1 {
		return []float64{lo}
	}

	out := make([]float64, n)
	ratio := math.Log(hi / lo)
	for i := range out {
		out[i] = lo * math.Exp(ratio*float64(i)/float64(n-1))
	}

	return out
}
