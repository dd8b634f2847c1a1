package thd

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	defaultMaxHarmonics = 9
	defaultCaptureBins  = 4
)

var (
	// ErrInvalidConfig indicates a missing sample rate or fundamental.
	ErrInvalidConfig = errors.New("thd: invalid config")
	// ErrShortSignal indicates too few samples to resolve the fundamental.
	ErrShortSignal = errors.New("thd: signal too short")
)

// Config holds THD analysis parameters.
type Config struct {
	SampleRate      float64
	FundamentalFreq float64
	// MaxHarmonics is the highest harmonic order analyzed (default 9).
	// Harmonics above Nyquist are skipped.
	MaxHarmonics int
	// CaptureBins is the half width of the bin cluster summed per tone
	// (default 4).
	CaptureBins int
}

// Result holds THD measurement results. Levels are linear amplitudes.
//
//nolint:revive
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	// Harmonics[i] is the amplitude of harmonic order i+2.
	Harmonics []float64
	THD       float64
	THD_dB    float64
	THDN      float64
	THDN_dB   float64
	OddHD     float64
	EvenHD    float64
}

func normalizeConfig(cfg Config) (Config, error) {
	if !(cfg.SampleRate > 0) || !(cfg.FundamentalFreq > 0) || cfg.FundamentalFreq >= cfg.SampleRate/2 {
		return cfg, fmt.Errorf("%w: sample rate %v, fundamental %v", ErrInvalidConfig, cfg.SampleRate, cfg.FundamentalFreq)
	}

	if cfg.MaxHarmonics <= 0 {
		cfg.MaxHarmonics = defaultMaxHarmonics
	}

	if cfg.CaptureBins <= 0 {
		cfg.CaptureBins = defaultCaptureBins
	}

	return cfg, nil
}

// Analyze windows signal with a Hann window and measures the fundamental
// and its harmonics. Tone amplitudes are estimated from the energy of the
// bin cluster around each nominal harmonic frequency.
func Analyze(signal []float64, cfg Config) (Result, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return Result{}, err
	}

	n := len(signal)
	binHz := cfg.SampleRate / float64(n)

	if n < 16 || cfg.FundamentalFreq/binHz < float64(2*cfg.CaptureBins) {
		return Result{}, fmt.Errorf("%w: %d samples", ErrShortSignal, n)
	}

	seq := window.Hann(append([]float64(nil), signal...))

	var windowPower float64
	for _, w := range window.Hann(ones(n)) {
		windowPower += w * w
	}

	coeffs := fourier.NewFFT(n).Coefficients(nil, seq)

	power := make([]float64, len(coeffs))
	for k, c := range coeffs {
		power[k] = real(c)*real(c) + imag(c)*imag(c)
	}

	// one-sided cluster energy S of a sine with amplitude A:
	// S = n * A^2/4 * sum(w^2)
	toAmplitude := func(s float64) float64 {
		return math.Sqrt(4 * s / (float64(n) * windowPower))
	}

	cluster := func(freq float64) float64 {
		center := int(math.Round(freq / binHz))
		lo := max(center-cfg.CaptureBins, 1)
		hi := min(center+cfg.CaptureBins, len(power)-1)

		var s float64
		for k := lo; k <= hi; k++ {
			s += power[k]
		}

		return s
	}

	res := Result{FundamentalFreq: cfg.FundamentalFreq}

	fundPower := cluster(cfg.FundamentalFreq)
	res.FundamentalLevel = toAmplitude(fundPower)

	nyquist := cfg.SampleRate / 2
	var odd, even float64

	for order := 2; order <= cfg.MaxHarmonics; order++ {
		f := float64(order) * cfg.FundamentalFreq
		if f+float64(cfg.CaptureBins)*binHz >= nyquist {
			break
		}

		a := toAmplitude(cluster(f))
		res.Harmonics = append(res.Harmonics, a)

		if order%2 == 0 {
			even += a * a
		} else {
			odd += a * a
		}
	}

	// everything except DC and the fundamental cluster
	var total float64
	for k := 1 + cfg.CaptureBins; k < len(power); k++ {
		total += power[k]
	}

	restPower := math.Max(total-fundPower, 0)

	if res.FundamentalLevel > 0 {
		res.THD = math.Sqrt(odd+even) / res.FundamentalLevel
		res.OddHD = math.Sqrt(odd) / res.FundamentalLevel
		res.EvenHD = math.Sqrt(even) / res.FundamentalLevel
		res.THDN = toAmplitude(restPower) / res.FundamentalLevel
	}

	res.THD_dB = ratioDB(res.THD)
	res.THDN_dB = ratioDB(res.THDN)

	return res, nil
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}

	return out
}

func ratioDB(r float64) float64 {
	if r <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(r)
}
