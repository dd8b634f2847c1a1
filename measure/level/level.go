// Package level summarizes the amplitude of a block of samples.
package level

import (
	"math"

	"github.com/cwbudde/algo-fourkeq/dsp/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats holds amplitude statistics of one channel. Levels in dB are
// relative to full scale 1.0; an empty or silent block reads -Inf.
//
//nolint:revive
type Stats struct {
	Length         int
	DC             float64
	RMS            float64
	RMS_dB         float64
	Peak           float64 // max(|max|, |min|)
	Peak_dB        float64
	PeakPos        int
	CrestFactor    float64 // peak / RMS
	CrestFactor_dB float64
	Clipped        int // samples with |x| >= 1
}

func empty() Stats {
	return Stats{
		RMS_dB:         math.Inf(-1),
		Peak_dB:        math.Inf(-1),
		CrestFactor_dB: math.Inf(-1),
	}
}

// Calculate returns the statistics of x.
func Calculate(x []float64) Stats {
	if len(x) == 0 {
		return empty()
	}

	s := empty()
	s.Length = len(x)
	s.DC = stat.Mean(x, nil)
	s.RMS = floats.Norm(x, 2) / math.Sqrt(float64(len(x)))

	hi, lo := floats.MaxIdx(x), floats.MinIdx(x)
	if x[hi] >= -x[lo] {
		s.Peak, s.PeakPos = x[hi], hi
	} else {
		s.Peak, s.PeakPos = -x[lo], lo
	}

	for _, v := range x {
		if math.Abs(v) >= 1 {
			s.Clipped++
		}
	}

	if s.Peak > 0 {
		s.Peak_dB = core.LinearToDB(s.Peak)
	}

	if s.RMS > 0 {
		s.RMS_dB = core.LinearToDB(s.RMS)
		s.CrestFactor = s.Peak / s.RMS
		s.CrestFactor_dB = core.LinearToDB(s.CrestFactor)
	}

	return s
}

// Gain returns the change of RMS level from in to out in dB.
func Gain(in, out Stats) float64 {
	return out.RMS_dB - in.RMS_dB
}
