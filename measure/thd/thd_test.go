package thd

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fourkeq/dsp/effects"
	"github.com/cwbudde/algo-fourkeq/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sr = 48000.0

func TestPureSine(t *testing.T) {
	x := testutil.DeterministicSine(1000, sr, 0.5, 8192)

	res, err := Analyze(x, Config{SampleRate: sr, FundamentalFreq: 1000})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, res.FundamentalLevel, 1e-3)
	assert.Less(t, res.THD_dB, -100.0)
	assert.Len(t, res.Harmonics, 8)
}

func TestKnownHarmonics(t *testing.T) {
	const n = 16384

	x := make([]float64, n)
	for i := range x {
		ph := 2 * math.Pi * 1000 * float64(i) / sr
		x[i] = 0.5*math.Sin(ph) + 0.05*math.Sin(2*ph) + 0.025*math.Sin(3*ph+0.3)
	}

	res, err := Analyze(x, Config{SampleRate: sr, FundamentalFreq: 1000, MaxHarmonics: 5})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, res.FundamentalLevel, 1e-3)
	require.Len(t, res.Harmonics, 4)
	assert.InDelta(t, 0.05, res.Harmonics[0], 1e-3)
	assert.InDelta(t, 0.025, res.Harmonics[1], 1e-3)
	assert.InDelta(t, math.Hypot(0.1, 0.05), res.THD, 1e-3)
	assert.InDelta(t, 0.1, res.EvenHD, 1e-3)
	assert.InDelta(t, 0.05, res.OddHD, 1e-3)
	assert.InDelta(t, res.THD, res.THDN, 1e-3)
}

func TestSaturatorProducesOddHarmonics(t *testing.T) {
	x := testutil.DeterministicSine(500, sr, 0.8, 16384)

	var last float64
	for _, amount := range []float64{0.25, 0.5, 1} {
		y := make([]float64, len(x))
		for i, v := range x {
			y[i] = effects.Saturate(v, amount)
		}

		res, err := Analyze(y, Config{SampleRate: sr, FundamentalFreq: 500})
		require.NoError(t, err)

		assert.Greater(t, res.OddHD, 100*res.EvenHD, "tanh is odd-symmetric")
		assert.Greater(t, res.THD, last)
		last = res.THD
	}
}

func TestHarmonicsStopAtNyquist(t *testing.T) {
	x := testutil.DeterministicSine(9000, sr, 0.5, 4096)

	res, err := Analyze(x, Config{SampleRate: sr, FundamentalFreq: 9000})
	require.NoError(t, err)
	assert.Len(t, res.Harmonics, 1)
}

func TestErrors(t *testing.T) {
	_, err := Analyze(make([]float64, 4096), Config{SampleRate: 0, FundamentalFreq: 1000})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Analyze(make([]float64, 4096), Config{SampleRate: sr, FundamentalFreq: 30000})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Analyze(make([]float64, 64), Config{SampleRate: sr, FundamentalFreq: 1000})
	require.ErrorIs(t, err, ErrShortSignal)
}
