package response

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fourkeq/dsp/eq"
	"github.com/cwbudde/algo-fourkeq/dsp/filter/biquad"
	"github.com/cwbudde/algo-fourkeq/dsp/filter/design"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityIsFlat(t *testing.T) {
	r, err := Measure(func([]float64) {}, 1024, 48000)
	require.NoError(t, err)

	assert.Equal(t, 513, r.Bins())
	for k := range r.Bins() {
		require.InDelta(t, 0, r.MagnitudeDB(k), 1e-9)
		require.InDelta(t, 0, r.Phase[k], 1e-9)
	}

	assert.Equal(t, 24000.0, r.Frequency(512))
}

func TestDelayGivesLinearPhase(t *testing.T) {
	const size, delay = 256, 3

	ir := make([]float64, size)
	ir[delay] = 1

	r, err := FromImpulse(ir, size, 48000)
	require.NoError(t, err)

	for k := 1; k < 20; k++ {
		want := math.Remainder(-2*math.Pi*float64(k*delay)/size, 2*math.Pi)
		assert.InDelta(t, want, r.Phase[k], 1e-9)
		assert.InDelta(t, 1, r.Magnitude[k], 1e-12)
	}
}

func TestMatchesBiquadResponse(t *testing.T) {
	const sr = 48000

	c := design.Peak(1000, 9, 2, sr)
	s := biquad.NewSection(c)

	r, err := Measure(s.ProcessBlock, 8192, sr)
	require.NoError(t, err)

	for _, k := range []int{10, 100, 171, 500, 2000, 4000} {
		f := r.Frequency(k)
		assert.InDelta(t, c.MagnitudeDB(f, sr), r.MagnitudeDB(k), 1e-6, "%v Hz", f)
	}

	assert.InDelta(t, 9, r.At(1000), 0.05)
}

func TestEngineResponseMatchesAnalytic(t *testing.T) {
	p := eq.FlatParams()
	p.LFGain = 12
	p.LFFreq = 100
	p.HMGain = -6
	p.HMFreq = 3000
	p.HMQ = 1.5

	e, err := eq.New(eq.WithChannels(1), eq.WithInitialParams(p))
	require.NoError(t, err)
	require.NoError(t, e.Prepare(48000, 512))

	r, err := Measure(func(buf []float64) { e.Process([][]float64{buf}, p) }, 16384, 48000)
	require.NoError(t, err)

	for _, f := range []float64{50, 100, 400, 1000, 3000, 10000} {
		assert.InDelta(t, e.MagnitudeDB(f), r.At(f), 0.05, "%v Hz", f)
	}
}

func TestErrors(t *testing.T) {
	for _, size := range []int{0, 1, 3, 1000} {
		_, err := FromImpulse(nil, size, 48000)
		require.ErrorIs(t, err, ErrInvalidSize)

		_, err = Measure(func([]float64) {}, size, 48000)
		require.ErrorIs(t, err, ErrInvalidSize)
	}

	_, err := FromImpulse(nil, 64, 0)
	require.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestAtAndTable(t *testing.T) {
	r := Response{SampleRate: 8, Size: 8, Magnitude: []float64{1, 10, 100, 1000, 0}}

	assert.Equal(t, 0.0, r.At(-5))
	assert.Equal(t, floorDB, r.At(100))
	assert.InDelta(t, 30, r.At(1.5), 1e-12)

	tab := r.Table([]float64{1, 2})
	require.Len(t, tab, 2)
	assert.Equal(t, 2.0, tab[1].Frequency)
	assert.InDelta(t, 20, tab[0].LevelDB, 1e-9)
	assert.InDelta(t, 40, tab[1].LevelDB, 1e-9)

	assert.Equal(t, floorDB, Response{}.At(1))
}

func TestLogFrequencies(t *testing.T) {
	f := LogFrequencies(20, 20000, 4)
	require.Len(t, f, 4)
	assert.InDelta(t, 20, f[0], 1e-9)
	assert.InDelta(t, 200, f[1], 1e-9)
	assert.InDelta(t, 20000, f[3], 1e-9)

	assert.Nil(t, LogFrequencies(0, 10, 3))
	assert.Equal(t, []float64{5}, LogFrequencies(5, 10, 1))
}
