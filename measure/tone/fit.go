package tone

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShortInput indicates fewer samples than unknowns.
	ErrShortInput = errors.New("tone: input too short for fit")
	// ErrInvalidFrequency indicates a frequency outside (0, sampleRate/2).
	ErrInvalidFrequency = errors.New("tone: invalid frequency")
)

// Fit is the fitted sinusoid A*sin(2*pi*f*n/fs + Phase), n counted from the
// first sample of the analyzed window.
type Fit struct {
	Frequency float64
	Amplitude float64
	Phase     float64
}

// Result holds the fitted tones and the leftover signal.
type Result struct {
	Tones       []Fit
	DC          float64
	ResidualRMS float64
	SignalRMS   float64
}

// ResidualDB returns the residual level relative to the analyzed signal.
func (r Result) ResidualDB() float64 {
	if r.SignalRMS == 0 {
		return math.Inf(-1)
	}

	if r.ResidualRMS == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(r.ResidualRMS/r.SignalRMS)
}

// GainDB returns the level of tone i relative to amplitude ref in dB.
func (r Result) GainDB(i int, ref float64) float64 {
	return 20 * math.Log10(r.Tones[i].Amplitude/ref)
}

// FitTones fits sines at the given frequencies plus a DC offset to x in the
// least-squares sense.
func FitTones(x []float64, freqs []float64, sampleRate float64) (Result, error) {
	cols := 2*len(freqs) + 1
	if len(x) < cols {
		return Result{}, fmt.Errorf("%w: %d samples, %d unknowns", ErrShortInput, len(x), cols)
	}

	for _, f := range freqs {
		if !(f > 0 && f < sampleRate/2) {
			return Result{}, fmt.Errorf("%w: %g Hz at %g Hz", ErrInvalidFrequency, f, sampleRate)
		}
	}

	n := len(x)
	design := mat.NewDense(n, cols, nil)
	for i := range n {
		for k, f := range freqs {
			w := 2 * math.Pi * f * float64(i) / sampleRate
			design.Set(i, 2*k, math.Sin(w))
			design.Set(i, 2*k+1, math.Cos(w))
		}

		design.Set(i, cols-1, 1)
	}

	y := mat.NewVecDense(n, append([]float64(nil), x...))

	var coef mat.VecDense
	if err := coef.SolveVec(design, y); err != nil {
		return Result{}, fmt.Errorf("tone: least-squares fit: %w", err)
	}

	var model mat.VecDense
	model.MulVec(design, &coef)

	res := Result{
		Tones: make([]Fit, len(freqs)),
		DC:    coef.AtVec(cols - 1),
	}

	for k, f := range freqs {
		s, c := coef.AtVec(2*k), coef.AtVec(2*k+1)
		res.Tones[k] = Fit{Frequency: f, Amplitude: math.Hypot(s, c), Phase: math.Atan2(c, s)}
	}

	var sumRes, sumSig float64
	for i, v := range x {
		d := v - model.AtVec(i)
		sumRes += d * d
		sumSig += v * v
	}

	res.ResidualRMS = math.Sqrt(sumRes / float64(n))
	res.SignalRMS = math.Sqrt(sumSig / float64(n))

	return res, nil
}

// FitTone fits a single sine at freq. See FitTones.
func FitTone(x []float64, freq, sampleRate float64) (Result, error) {
	return FitTones(x, []float64{freq}, sampleRate)
}

// PhaseDelay converts the phase difference between two fits of the same
// frequency into a delay in samples, wrapping the difference to (-pi, pi].
func PhaseDelay(ref, got Fit, sampleRate float64) float64 {
	d := ref.Phase - got.Phase
	for d > math.Pi {
		d -= 2 * math.Pi
	}

	for d <= -math.Pi {
		d += 2 * math.Pi
	}

	return d / (2 * math.Pi * got.Frequency / sampleRate)
}
