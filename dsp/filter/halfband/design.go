package halfband

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidTransition is returned for transition widths outside (0, 0.5).
	ErrInvalidTransition = errors.New("halfband: transition width must be in (0, 0.5)")
	// ErrInvalidAttenuation is returned for non-positive stopband attenuation.
	ErrInvalidAttenuation = errors.New("halfband: attenuation must be > 0 dB")
)

const (
	seriesEpsilon = 1e-100
	seriesMaxIter = 1000
)

// Design computes the allpass coefficients of an elliptic half-band
// lowpass. transition is the width of the transition band relative to the
// oversampled rate, centered on a quarter of that rate. attenuationDB is the
// minimum stopband attenuation.
//
// Even-indexed coefficients belong to the first polyphase path, odd-indexed
// ones to the second.
func Design(attenuationDB, transition float64) ([]float64, error) {
	if !(transition > 0 && transition < 0.5) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidTransition, transition)
	}

	if !(attenuationDB > 0) || math.IsInf(attenuationDB, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidAttenuation, attenuationDB)
	}

	k, q := transitionParams(transition)
	order := filterOrder(attenuationDB, q)
	coefs := make([]float64, (order-1)/2)

	for i := range coefs {
		coefs[i] = allpassCoef(i+1, k, q, order)
	}

	return coefs, nil
}

// transitionParams returns the elliptic selectivity k and nome q for the
// given transition width.
func transitionParams(transition float64) (k, q float64) {
	k = math.Tan((1 - 2*transition) * math.Pi / 4)
	k *= k

	kk := math.Pow(1-k*k, 0.25)
	e := 0.5 * (1 - kk) / (1 + kk)
	e4 := e * e * e * e
	q = e * (1 + e4*(2+e4*(15+150*e4)))

	return k, q
}

// filterOrder returns the odd filter order needed to reach attenuationDB.
func filterOrder(attenuationDB, q float64) int {
	p := math.Pow(10, -attenuationDB/10)
	a := p / (1 - p)

	order := int(math.Ceil(math.Log(a*a/16) / math.Log(q)))
	if order%2 == 0 {
		order++
	}

	if order < 3 {
		order = 3
	}

	return order
}

func allpassCoef(c int, k, q float64, order int) float64 {
	num := seriesNum(q, order, c) * math.Pow(q, 0.25)
	den := seriesDen(q, order, c) + 0.5
	ww := num / den
	wwsq := ww * ww

	x := math.Sqrt((1-wwsq*k)*(1-wwsq/k)) / (1 + wwsq)

	return (1 - x) / (1 + x)
}

func seriesNum(q float64, order, c int) float64 {
	var sum float64

	sign := 1.0
	for i := range seriesMaxIter {
		fi := float64(i)
		term := math.Pow(q, fi*(fi+1)) * math.Sin((2*fi+1)*float64(c)*math.Pi/float64(order)) * sign
		sum += term

		if math.Abs(term) <= seriesEpsilon || math.Pow(q, fi*(fi+1)) <= seriesEpsilon {
			break
		}

		sign = -sign
	}

	return sum
}

func seriesDen(q float64, order, c int) float64 {
	var sum float64

	sign := -1.0
	for i := 1; i <= seriesMaxIter; i++ {
		fi := float64(i)
		term := math.Pow(q, fi*fi) * math.Cos(2*fi*float64(c)*math.Pi/float64(order)) * sign
		sum += term

		if math.Abs(term) <= seriesEpsilon || math.Pow(q, fi*fi) <= seriesEpsilon {
			break
		}

		sign = -sign
	}

	return sum
}

// GroupDelay returns the DC group delay, in oversampled-rate samples, of the
// half-band lowpass defined by coefs.
func GroupDelay(coefs []float64) float64 {
	var path0, path1 float64

	for i, c := range coefs {
		// first-order allpass in z^2: twice its low-rate DC group delay
		d := 2 * (1 - c) / (1 + c)
		if i%2 == 0 {
			path0 += d
		} else {
			path1 += d
		}
	}

	// the second path is offset by one oversampled sample
	return (path0 + path1 + 1) / 2
}
