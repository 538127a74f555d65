package filters

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RemoveDC removes the DC component (0 Hz) of a finite recording by
// subtracting its own temporal mean in place. The removed mean is returned.
//
// Unlike a streaming DC blocker this has no transient and no phase
// distortion, but it needs the whole signal up front. A NaN anywhere in the
// signal makes the mean NaN and therefore turns every sample into NaN.
func RemoveDC(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	mean := stat.Mean(signal, nil)
	for i := range signal {
		signal[i] -= mean
	}

	return mean
}

// RemoveDCRows applies RemoveDC to every row (channel) of m in place and
// returns the per-row means. Rows never share statistics.
func RemoveDCRows(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	means := make([]float64, rows)
	for r := range rows {
		means[r] = RemoveDC(m.RawRowView(r))
	}
	return means
}
