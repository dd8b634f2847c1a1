// Package testutil provides deterministic test signals and tolerance
// helpers shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates amplitude*sin(2*pi*freq*n/sampleRate).
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// MultiTone sums equal-amplitude sines at freqs.
func MultiTone(freqs []float64, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	for _, f := range freqs {
		step := 2 * math.Pi * f / sampleRate
		for i := range out {
			out[i] += amplitude * math.Sin(step*float64(i))
		}
	}

	return out
}

// LogSweep generates an exponential sine sweep from f0 to f1 Hz.
func LogSweep(f0, f1, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	if length == 0 {
		return out
	}

	duration := float64(length) / sampleRate
	k := math.Log(f1 / f0)
	for i := range out {
		t := float64(i) / sampleRate
		phase := 2 * math.Pi * f0 * duration / k * (math.Exp(t/duration*k) - 1)
		out[i] = amplitude * math.Sin(phase)
	}

	return out
}

// DeterministicNoise generates uniform white noise with a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse generates a unit impulse at pos.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	return DC(1.0, n)
}

// Planar copies each channel into a freshly allocated planar buffer.
func Planar(channels ...[]float64) [][]float64 {
	out := make([][]float64, len(channels))
	for ch, data := range channels {
		out[ch] = append([]float64(nil), data...)
	}

	return out
}
