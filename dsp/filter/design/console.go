package design

import (
	"math"

	"github.com/cwbudde/algo-fourkeq/dsp/filter/biquad"
)

// Fixed Q values of the console stages.
const (
	// HighpassStage1Q and HighpassStage2Q are the two cascaded highpass
	// sections forming the steep high-pass filter.
	HighpassStage1Q = 0.54
	HighpassStage2Q = 1.31

	// LowpassQ is the Butterworth Q of the 12 dB/oct low-pass filter.
	LowpassQ = 0.707

	// BandQ is used by the shelves and by the outer bands in bell mode.
	BandQ = 0.7

	MinQ = 0.5
	MaxQ = 5.0
)

// MaxFrequencyRatio bounds design frequencies relative to the sample rate.
const MaxFrequencyRatio = 0.49

// DynamicQ derives the gain-dependent Q of the Black-mode mid bands:
//
//	scale = 1 - 0.5*|gain|/20
//	q     = clamp(baseQ*(0.5+0.5*scale), 0.5, 5)
//
// The result is always within [MinQ, MaxQ], also for out-of-range inputs.
func DynamicQ(gainDB, baseQ float64) float64 {
	if !finite(gainDB) {
		gainDB = 0
	}
	if !finite(baseQ) || baseQ <= 0 {
		baseQ = MinQ
	}

	scale := 1 - 0.5*(math.Abs(gainDB)/20)
	q := baseQ * (0.5 + 0.5*scale)

	return math.Min(math.Max(q, MinQ), MaxQ)
}

// HighpassCascadeQ returns the Q of each cascaded high-pass section in
// processing order.
func HighpassCascadeQ() [2]float64 {
	return [2]float64{HighpassStage1Q, HighpassStage2Q}
}

// HighpassCascade returns the two sections of the cascaded high-pass filter.
func HighpassCascade(freq, sampleRate float64) [2]biquad.Coefficients {
	var out [2]biquad.Coefficients
	for i, q := range HighpassCascadeQ() {
		out[i] = Highpass(freq, q, sampleRate)
	}

	return out
}

// ClampFrequency limits freq to MaxFrequencyRatio times the sample rate so
// the design stays below Nyquist.
func ClampFrequency(freq, sampleRate float64) float64 {
	limit := sampleRate * MaxFrequencyRatio
	if freq > limit {
		return limit
	}

	return freq
}
