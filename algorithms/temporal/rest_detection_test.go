package temporal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestDetection_MarksLowAmplitudeRegion(t *testing.T) {
	amps := make([]float64, 1000)
	for i := range amps {
		amps[i] = 1.5 + 0.05*math.Sin(float64(i))
		if i >= 400 && i < 600 {
			amps[i] = -0.5
		}
	}

	res, err := NewRestDetection(0).Detect(amps)
	require.NoError(t, err)

	require.Len(t, res.Mask, 1000)
	for i, rest := range res.Mask {
		assert.Equal(t, i >= 400 && i < 600, rest, "frame %d", i)
	}
	assert.Equal(t, []Segment{{Start: 400, End: 600}}, res.Segments)
}

func TestRestDetection_UniformAmplitudeMarksNothing(t *testing.T) {
	amps := make([]float64, 50)
	for i := range amps {
		amps[i] = 2
	}

	res, err := NewRestDetection(0).Detect(amps)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Threshold)
	assert.NotContains(t, res.Mask, true)
	assert.Empty(t, res.Segments)
}

func TestRestDetection_SilentFramesAreRest(t *testing.T) {
	amps := []float64{math.Inf(-1), 0, 0, 3, 3, 3, math.NaN()}
	res, err := NewRestDetection(4).Detect(amps)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, false, false, false, false}, res.Mask)
}

func TestRestDetection_AllNonFiniteFails(t *testing.T) {
	_, err := NewRestDetection(0).Detect([]float64{math.Inf(-1), math.Inf(-1)})
	assert.Error(t, err)
}

func TestSegments(t *testing.T) {
	assert.Empty(t, Segments(nil))
	assert.Equal(t,
		[]Segment{{0, 2}, {4, 5}, {6, 8}},
		Segments([]bool{true, true, false, false, true, false, true, true}))
	assert.Equal(t, 2, Segment{Start: 3, End: 5}.Len())
}
