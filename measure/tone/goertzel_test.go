package tone

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoertzelAmplitude(t *testing.T) {
	x := synth(4800, 48000, 0, Fit{Frequency: 3000, Amplitude: 0.5}, Fit{Frequency: 15000, Amplitude: 0.9})

	g, err := NewGoertzel(3000, 48000)
	require.NoError(t, err)
	g.ProcessBlock(x[:2400])
	g.ProcessBlock(x[2400:])
	assert.InDelta(t, 0.5, g.Amplitude(), 1e-9)

	g.Reset()
	assert.Zero(t, g.Amplitude())
}

func TestLevelDB(t *testing.T) {
	x := synth(4800, 48000, 0, Fit{Frequency: 1000, Amplitude: 0.1})

	db, err := LevelDB(x, 1000, 48000)
	require.NoError(t, err)
	assert.InDelta(t, -20, db, 1e-6)

	db, err = LevelDB(x, 3000, 48000)
	require.NoError(t, err)
	assert.Less(t, db, -150.0)

	_, err = LevelDB(x, 30000, 48000)
	require.ErrorIs(t, err, ErrInvalidFrequency)

	_, err = NewGoertzel(100, math.NaN())
	require.Error(t, err)
}
