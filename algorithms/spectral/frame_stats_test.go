package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestComputeFrameStatistics(t *testing.T) {
	// 3 bands x 3 frames
	spectrum := mat.NewDense(3, 3, []float64{
		1, 5, 0,
		2, 5, 0,
		7, 5, 0,
	})

	stats := ComputeFrameStatistics(spectrum)
	assert.Len(t, stats.LogVariance, 3)
	assert.Len(t, stats.LogAmplitude, 3)

	// frame 0: values {1,2,7}, mean 10/3, population variance 62/9
	assert.InDelta(t, math.Log10(62.0/9.0), stats.LogVariance[0], 1e-12)
	assert.InDelta(t, 1.0, stats.LogAmplitude[0], 1e-12)

	// frame 1: constant column has zero variance
	assert.True(t, math.IsInf(stats.LogVariance[1], -1))
	assert.InDelta(t, math.Log10(15), stats.LogAmplitude[1], 1e-12)

	// frame 2: silent frame, both statistics are -Inf
	assert.True(t, math.IsInf(stats.LogVariance[2], -1))
	assert.True(t, math.IsInf(stats.LogAmplitude[2], -1))
}
