package eq

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fourkeq/dsp/effects"
	"github.com/cwbudde/algo-fourkeq/dsp/oversample"
	"github.com/cwbudde/algo-fourkeq/internal/testutil"
	"github.com/cwbudde/algo-fourkeq/measure/tone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRate  = 48000.0
	testBlock = 512

	settleSamples = 24000
	fitSamples    = 9600
)

func newPreparedEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	e, err := New(opts...)
	require.NoError(t, err)
	require.NoError(t, e.Prepare(testRate, testBlock))

	return e
}

// render processes buf in place in blocks of the given size.
func render(e *Engine, buf [][]float64, p Params, block int) {
	n := len(buf[0])
	views := make([][]float64, len(buf))

	for start := 0; start < n; start += block {
		end := min(start+block, n)
		for ch := range buf {
			views[ch] = buf[ch][start:end]
		}

		e.Process(views, p)
	}
}

// measureTones runs a stereo multitone through a fresh engine and fits the
// tones on the left channel after settling.
func measureTones(t *testing.T, p Params, freqs []float64, amplitude float64) tone.Result {
	t.Helper()

	e := newPreparedEngine(t)
	x := testutil.MultiTone(freqs, testRate, amplitude, settleSamples+fitSamples)
	buf := testutil.Planar(x, x)
	render(e, buf, p, testBlock)

	res, err := tone.FitTones(buf[0][settleSamples:], freqs, testRate)
	require.NoError(t, err)

	return res
}

func TestNewValidatesChannels(t *testing.T) {
	for _, ch := range []int{0, -1, 3} {
		_, err := New(WithChannels(ch))
		require.ErrorIs(t, err, ErrInvalidChannels)
	}

	e, err := New(WithChannels(1))
	require.NoError(t, err)
	assert.False(t, e.Prepared())
}

func TestPrepareValidation(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	for _, sr := range []float64{0, -48000, math.NaN(), math.Inf(1)} {
		require.ErrorIs(t, e.Prepare(sr, testBlock), ErrInvalidSampleRate)
	}

	require.ErrorIs(t, e.Prepare(testRate, 0), ErrInvalidBlockSize)
	assert.False(t, e.Prepared())

	require.NoError(t, e.Prepare(44100, 256))
	cfg := e.Config()
	assert.Equal(t, 44100.0, cfg.SampleRate)
	assert.Equal(t, 256, cfg.BlockSize)
	assert.Equal(t, 2, cfg.Channels)
}

func TestUnpreparedEngineLeavesBufferUntouched(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	p := DefaultParams()
	p.LFGain = 12

	x := testutil.DeterministicNoise(1, 0.5, 300)
	buf := testutil.Planar(x, x)
	e.Process(buf, p)

	assert.Equal(t, x, buf[0])
	assert.Equal(t, 0.0, e.Latency())
	assert.Equal(t, 0.0, e.MagnitudeDB(1000))
}

func TestBypassIsTransparent(t *testing.T) {
	e := newPreparedEngine(t)

	p := DefaultParams()
	p.LFGain = 12
	p.HMGain = -9
	p.HPFFreq = 300
	p.LPFFreq = 4000
	p.Saturation = 100
	p.OutputGain = 6
	p.Bypass = true

	x := testutil.DeterministicNoise(2, 0.9, 2000)
	y := testutil.DeterministicNoise(3, 0.9, 2000)
	buf := testutil.Planar(x, y)
	render(e, buf, p, 700)

	assert.Equal(t, x, buf[0])
	assert.Equal(t, y, buf[1])
	assert.Equal(t, 0.0, e.Latency())
	assert.Equal(t, 0.0, e.MagnitudeDB(100))
}

func TestFlatSettingIsTransparent(t *testing.T) {
	freqs := []float64{250, 1000, 4000}
	res := measureTones(t, FlatParams(), freqs, 0.2)

	for i := range freqs {
		assert.InDelta(t, 0, res.GainDB(i, 0.2), 0.05, "%v Hz", freqs[i])
	}

	assert.Less(t, res.ResidualDB(), -80.0)
}

func TestFlatSettingPreservesWaveformAfterLatency(t *testing.T) {
	e := newPreparedEngine(t)
	x := testutil.DeterministicSine(1000, testRate, 0.5, settleSamples+fitSamples)
	buf := testutil.Planar(x, x)
	render(e, buf, FlatParams(), testBlock)

	ref, err := tone.FitTone(x[settleSamples:], 1000, testRate)
	require.NoError(t, err)
	got, err := tone.FitTone(buf[1][settleSamples:], 1000, testRate)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, got.Tones[0].Amplitude, 0.005)
	// HPF and LPF shift the phase slightly on top of the oversampler delay
	assert.InDelta(t, e.Latency(), tone.PhaseDelay(ref.Tones[0], got.Tones[0], testRate), 0.5)
}

func TestShelfScenario(t *testing.T) {
	p := FlatParams()
	p.Type = Brown
	p.LFGain = 12
	p.LFFreq = 100

	res := measureTones(t, p, []float64{100}, 0.1)
	assert.InDelta(t, 6, res.GainDB(0, 0.1), 0.3)

	low := measureTones(t, p, []float64{40}, 0.1)
	assert.Greater(t, low.GainDB(0, 0.1), 10.0)

	high := measureTones(t, p, []float64{2000}, 0.1)
	assert.InDelta(t, 0, high.GainDB(0, 0.1), 0.1)

	e := newPreparedEngine(t, WithInitialParams(p))
	assert.InDelta(t, 6, e.MagnitudeDB(100), 0.3)
	assert.InDelta(t, 12, e.MagnitudeDB(30), 1.0)
}

func TestBellScenario(t *testing.T) {
	p := FlatParams()
	p.Type = Black
	p.LFBell = true
	p.LFGain = 6
	p.LFFreq = 100

	freqs := []float64{50, 100, 200}
	res := measureTones(t, p, freqs, 0.1)

	below := res.GainDB(0, 0.1)
	center := res.GainDB(1, 0.1)
	above := res.GainDB(2, 0.1)

	assert.InDelta(t, 6, center, 0.1)
	assert.Greater(t, center, below)
	assert.Greater(t, center, above)
	assert.InDelta(t, below, above, 0.1)

	e := newPreparedEngine(t, WithInitialParams(p))
	assert.Greater(t, e.MagnitudeDB(100), e.MagnitudeDB(90))
	assert.Greater(t, e.MagnitudeDB(100), e.MagnitudeDB(111))
}

func TestBellFlagIgnoredInBrownMode(t *testing.T) {
	p := FlatParams()
	p.LFGain = 10
	p.HFGain = -8

	withBell := p
	withBell.LFBell = true
	withBell.HFBell = true

	a := newPreparedEngine(t, WithInitialParams(p))
	b := newPreparedEngine(t, WithInitialParams(withBell))

	for _, f := range []float64{30, 100, 1000, 8000, 16000} {
		assert.Equal(t, a.MagnitudeDB(f), b.MagnitudeDB(f), "%v Hz", f)
	}

	// the shelf keeps boosting far below the corner, a bell does not
	withBell.Type = Black
	c := newPreparedEngine(t, WithInitialParams(withBell))
	assert.Greater(t, a.MagnitudeDB(25), c.MagnitudeDB(25)+3)
	assert.Less(t, a.MagnitudeDB(18000), c.MagnitudeDB(18000)-3)
}

func TestBlackModeWidensMidBands(t *testing.T) {
	p := FlatParams()
	p.LMGain = 12
	p.LMFreq = 1000
	p.LMQ = 2

	brown := newPreparedEngine(t, WithInitialParams(p))

	p.Type = Black
	black := newPreparedEngine(t, WithInitialParams(p))

	assert.InDelta(t, brown.MagnitudeDB(1000), black.MagnitudeDB(1000), 0.01)
	assert.Greater(t, black.MagnitudeDB(1500), brown.MagnitudeDB(1500)+0.1)
	assert.Greater(t, black.MagnitudeDB(666), brown.MagnitudeDB(666)+0.1)
}

func TestOutputGain(t *testing.T) {
	p := FlatParams()
	p.OutputGain = -6

	res := measureTones(t, p, []float64{1000}, 0.5)
	assert.InDelta(t, -6, res.GainDB(0, 0.5), 0.05)

	e := newPreparedEngine(t, WithInitialParams(p))
	assert.InDelta(t, -6, e.MagnitudeDB(1000), 0.05)
}

func TestSaturationIsAliasFree(t *testing.T) {
	const (
		freq  = 15000.0
		alias = 3000.0 // 48 kHz - 3*15 kHz
		n     = 4800
	)

	x := testutil.DeterministicSine(freq, testRate, 0.5, 2*n)

	naive := make([]float64, len(x))
	for i, v := range x {
		naive[i] = effects.Saturate(v, 0.5)
	}

	p := FlatParams()
	p.Saturation = 50

	e := newPreparedEngine(t, WithChannels(1))
	buf := testutil.Planar(x)
	render(e, buf, p, testBlock)

	naiveDB, err := tone.LevelDB(naive[n:], alias, testRate)
	require.NoError(t, err)
	engineDB, err := tone.LevelDB(buf[0][n:], alias, testRate)
	require.NoError(t, err)

	assert.Greater(t, naiveDB, -60.0, "reference must alias")
	assert.GreaterOrEqual(t, naiveDB-engineDB, 40.0)
}

func TestChunkedProcessingMatchesPreparedBlocks(t *testing.T) {
	p := DefaultParams()
	p.LFGain = 5
	p.HMGain = -4
	p.Type = Black

	x := testutil.DeterministicNoise(7, 0.5, 2000)

	long := newPreparedEngine(t)
	a := testutil.Planar(x, x)
	long.Process(a, p)

	short := newPreparedEngine(t)
	b := testutil.Planar(x, x)
	render(short, b, p, testBlock)

	assert.Equal(t, b, a)
	testutil.RequireFinite(t, a[0])
}

func TestExtraChannelsAreUntouched(t *testing.T) {
	p := DefaultParams()
	p.HFGain = 8

	x := testutil.DeterministicNoise(8, 0.5, 600)

	stereo := newPreparedEngine(t)
	buf := testutil.Planar(x, x, x)
	stereo.Process(buf, p)
	assert.Equal(t, x, buf[2])
	assert.NotEqual(t, x, buf[0])

	mono := newPreparedEngine(t, WithChannels(1))
	buf = testutil.Planar(x, x)
	mono.Process(buf, p)
	assert.Equal(t, x, buf[1])
	assert.Equal(t, buf[0], stereoLeft(t, x, p))
}

func stereoLeft(t *testing.T, x []float64, p Params) []float64 {
	t.Helper()

	e := newPreparedEngine(t)
	buf := testutil.Planar(x, x)
	e.Process(buf, p)

	return buf[0]
}

func TestOversamplingSwitch(t *testing.T) {
	e := newPreparedEngine(t)
	p := FlatParams()

	lat2 := e.Latency()
	require.Positive(t, lat2)

	x := testutil.DeterministicSine(1000, testRate, 0.5, 3*settleSamples)
	buf := testutil.Planar(x, x)
	first := [][]float64{buf[0][:settleSamples], buf[1][:settleSamples]}
	render(e, first, p, testBlock)

	p.Oversampling = Oversampling4x
	rest := [][]float64{buf[0][settleSamples:], buf[1][settleSamples:]}
	render(e, rest, p, testBlock)

	assert.Equal(t, Oversampling4x, e.Params().Oversampling)
	assert.Greater(t, e.Latency(), lat2)
	testutil.RequireFinite(t, buf[0])

	res, err := tone.FitTone(buf[0][len(x)-fitSamples:], 1000, testRate)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.GainDB(0, 0.5), 0.05)
	assert.Less(t, res.ResidualDB(), -80.0)
}

func TestStandardQualityHasLowerLatency(t *testing.T) {
	maxQ := newPreparedEngine(t)
	std := newPreparedEngine(t, WithOversamplingQuality(oversample.QualityStandard))

	assert.Less(t, std.Latency(), maxQ.Latency())
}

func TestUpdateRedesignsWithoutAudio(t *testing.T) {
	e := newPreparedEngine(t)
	assert.InDelta(t, 0, e.MagnitudeDB(2000), 0.01)

	p := FlatParams()
	p.HMGain = 9
	p.HMFreq = 2000
	e.Update(p)

	assert.InDelta(t, 9, e.MagnitudeDB(2000), 0.01)
	assert.Equal(t, p, e.Params())
}

func TestReleaseAndReprepare(t *testing.T) {
	e := newPreparedEngine(t)
	p := DefaultParams()
	p.LMGain = 6

	x := testutil.DeterministicNoise(9, 0.5, 256)
	buf := testutil.Planar(x, x)
	e.Process(buf, p)

	e.Release()
	assert.False(t, e.Prepared())
	assert.Equal(t, 0.0, e.Latency())

	buf = testutil.Planar(x, x)
	e.Process(buf, p)
	assert.Equal(t, x, buf[0])

	require.NoError(t, e.Prepare(testRate, testBlock))
	e.Process(buf, p)
	assert.Equal(t, stereoLeftWith(t, x, p), buf[0])
}

func stereoLeftWith(t *testing.T, x []float64, p Params) []float64 {
	t.Helper()

	// a fresh engine that has seen the same parameters at Prepare
	e := newPreparedEngine(t, WithInitialParams(p))
	buf := testutil.Planar(x, x)
	e.Process(buf, p)

	return buf[0]
}

func TestResetRestoresInitialState(t *testing.T) {
	p := DefaultParams()
	p.LFGain = 9

	x := testutil.DeterministicNoise(10, 0.5, 512)

	e := newPreparedEngine(t, WithInitialParams(p))
	first := testutil.Planar(x, x)
	e.Process(first, p)

	e.Reset()
	second := testutil.Planar(x, x)
	e.Process(second, p)

	assert.Equal(t, first, second)
}

func TestImpulseResponseDecays(t *testing.T) {
	e := newPreparedEngine(t, WithChannels(1))
	p := FlatParams()
	p.LFGain = 20
	p.LMGain = -20
	p.LMQ = 5
	p.HMGain = 20
	p.HMQ = 5
	p.HFGain = -20
	p.HPFFreq = 500
	p.LPFFreq = 3000

	buf := testutil.Planar(testutil.Impulse(10000, 0))
	render(e, buf, p, testBlock)

	testutil.RequireFinite(t, buf[0])
	for _, v := range buf[0][9000:] {
		require.Less(t, math.Abs(v), 1e-9)
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	e := newPreparedEngine(t)
	buf := testutil.Planar(testutil.DeterministicNoise(11, 0.5, 1500), testutil.DeterministicNoise(12, 0.5, 1500))

	p := DefaultParams()
	p.OutputGain = 3

	i := 0
	allocs := testing.AllocsPerRun(20, func() {
		i++
		p.LFGain = float64(i % 7)
		p.Oversampling = Oversampling(i % 2)
		e.Process(buf, p)
	})
	assert.Zero(t, allocs)
}

func BenchmarkEngineProcess(b *testing.B) {
	e, err := New()
	if err != nil {
		b.Fatal(err)
	}

	if err := e.Prepare(testRate, testBlock); err != nil {
		b.Fatal(err)
	}

	buf := testutil.Planar(testutil.DeterministicNoise(1, 0.5, testBlock), testutil.DeterministicNoise(2, 0.5, testBlock))
	p := DefaultParams()

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		e.Process(buf, p)
	}
}
