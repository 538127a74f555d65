package spectral

import (
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/behav-preprocess/algorithms/common"
)

// FrameStatistics holds per-frame summaries of a band x frame spectral tensor
type FrameStatistics struct {
	LogVariance  []float64 `json:"log_variance"`  // log10 of the population variance across bands
	LogAmplitude []float64 `json:"log_amplitude"` // log10 of the summed amplitude across bands
}

// ComputeFrameStatistics reduces every column (frame) of a band x frame tensor.
// Zero variance or zero total amplitude yields -Inf, which is kept as is.
func ComputeFrameStatistics(spectrum mat.Matrix) *FrameStatistics {
	bands, frames := spectrum.Dims()

	variance := make([]float64, frames)
	amplitude := make([]float64, frames)
	col := make([]float64, bands)
	for j := range frames {
		mat.Col(col, j, spectrum)
		variance[j] = common.PopVariance(col)
		amplitude[j] = common.Sum(col)
	}

	return &FrameStatistics{
		LogVariance:  common.Log10(variance),
		LogAmplitude: common.Log10(amplitude),
	}
}
