package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestCenterFrequencies_LogSpacedAscending(t *testing.T) {
	freqs, err := CenterFrequencies(30, 1, 50)
	require.NoError(t, err)
	require.Len(t, freqs, 30)

	assert.InDelta(t, 1.0, freqs[0], 1e-9)
	assert.InDelta(t, 50.0, freqs[29], 1e-9)

	ratio := freqs[1] / freqs[0]
	for i := 1; i < len(freqs); i++ {
		assert.Greater(t, freqs[i], freqs[i-1])
		assert.InDelta(t, ratio, freqs[i]/freqs[i-1], 1e-9)
	}
}

func TestCenterFrequencies_InvalidParameters(t *testing.T) {
	_, err := CenterFrequencies(1, 1, 50)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = CenterFrequencies(10, 0, 50)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = CenterFrequencies(10, 50, 50)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestMorlet_TransformShape(t *testing.T) {
	const frames, channels, bands = 101, 3, 8

	signal := mat.NewDense(frames, channels, nil)
	for i := range frames {
		for c := range channels {
			signal.Set(i, c, math.Sin(float64(i*(c+1))*0.1))
		}
	}

	out, freqs, err := NewMorlet().Transform(signal, bands, 5, 220, 1, 50)
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, frames, r, "frame count must be preserved (odd length included)")
	assert.Equal(t, channels*bands, c)
	assert.Len(t, freqs, bands)

	for _, v := range out.RawMatrix().Data {
		assert.GreaterOrEqual(t, v, 0.0, "amplitudes are magnitudes")
	}
}

func TestMorlet_PeakBandTracksSinusoid(t *testing.T) {
	const sampleRate = 220.0
	const target = 10.0

	frames := 880
	signal := mat.NewDense(frames, 1, nil)
	for i := range frames {
		signal.Set(i, 0, math.Sin(2*math.Pi*target*float64(i)/sampleRate))
	}

	out, freqs, err := NewMorlet().Transform(signal, 30, 5, sampleRate, 1, 50)
	require.NoError(t, err)

	// average over the middle of the recording, away from padding effects
	energy := make([]float64, len(freqs))
	for b := range freqs {
		col := mat.Col(nil, b, out)
		energy[b] = floats.Sum(col[frames/4 : 3*frames/4])
	}

	peak := floats.MaxIdx(energy)
	assert.Less(t, math.Abs(math.Log(freqs[peak]/target)), math.Log(1.2),
		"peak band %.2f Hz should sit near %.1f Hz", freqs[peak], target)
}

func TestMorlet_ZeroSignalHasZeroAmplitude(t *testing.T) {
	out, _, err := NewMorlet().Transform(mat.NewDense(50, 2, nil), 4, 5, 220, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 0.0, floats.Max(out.RawMatrix().Data))
}

func TestMorlet_InvalidParameters(t *testing.T) {
	m := NewMorlet()
	signal := mat.NewDense(10, 1, nil)

	_, _, err := m.Transform(signal, 4, 5, 0, 1, 50)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, _, err = m.Transform(signal, 4, 0, 220, 1, 50)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, _, err = m.Transform(signal, 4, 5, 220, 60, 50)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}
