package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/behav-preprocess/algorithms/common"
)

// ErrNoFiniteValues is returned when a threshold is requested over data with no finite samples
var ErrNoFiniteValues = errors.New("stats: no finite values to threshold")

// OtsuThreshold computes an automatic two-class threshold with Otsu's method.
//
// References:
//   - N. Otsu, "A Threshold Selection Method from Gray-Level Histograms",
//     IEEE Trans. Systems, Man, and Cybernetics 9(1), 1979
//
// The data is binned into `bins` equal-width bins (bins <= 0 selects
// ceil(sqrt(n))). The returned threshold is the centre of the bin that
// maximises the between-class variance; values strictly below it form the
// lower class. NaN and ±Inf samples are ignored when building the histogram.
//
// Uniform data has no second class: the threshold is the constant itself, so
// a strict "below threshold" test selects nothing.
func OtsuThreshold(data []float64, bins int) (float64, error) {
	finite := common.Finite(data)
	if len(finite) == 0 {
		return math.NaN(), ErrNoFiniteValues
	}

	lo := floats.Min(finite)
	hi := floats.Max(finite)
	if lo == hi {
		return lo, nil
	}

	if bins <= 0 {
		bins = SquareRootBins(len(finite))
	}

	histogram, centers := buildHistogram(finite, bins, lo, hi)

	// class weights and cumulative means from the left and from the right
	weightLow := make([]float64, bins)
	weightHigh := make([]float64, bins)
	floats.CumSum(weightLow, histogram)

	massLow := make([]float64, bins)
	weighted := make([]float64, bins)
	floats.MulTo(weighted, histogram, centers)
	floats.CumSum(massLow, weighted)

	massHigh := make([]float64, bins)
	runningWeight, runningMass := 0.0, 0.0
	for i := bins - 1; i >= 0; i-- {
		runningWeight += histogram[i]
		runningMass += weighted[i]
		weightHigh[i] = runningWeight
		massHigh[i] = runningMass
	}

	best := 0
	bestVariance := math.Inf(-1)
	for i := 0; i < bins-1; i++ {
		if weightLow[i] == 0 || weightHigh[i+1] == 0 {
			continue
		}
		meanLow := massLow[i] / weightLow[i]
		meanHigh := massHigh[i+1] / weightHigh[i+1]
		diff := meanLow - meanHigh
		between := weightLow[i] * weightHigh[i+1] * diff * diff
		if between > bestVariance {
			bestVariance = between
			best = i
		}
	}

	return centers[best], nil
}

// SquareRootBins returns the square-root rule bin count, ceil(sqrt(n)), at least 2
func SquareRootBins(n int) int {
	return max(2, int(math.Ceil(math.Sqrt(float64(n)))))
}

// buildHistogram counts data into equal-width bins over [lo, hi]
func buildHistogram(data []float64, bins int, lo, hi float64) ([]float64, []float64) {
	binWidth := (hi - lo) / float64(bins)

	centers := make([]float64, bins)
	for i := range bins {
		centers[i] = lo + (float64(i)+0.5)*binWidth
	}

	histogram := make([]float64, bins)
	for _, x := range data {
		binIdx := int((x - lo) / binWidth)
		if binIdx >= bins {
			binIdx = bins - 1
		}
		if binIdx < 0 {
			binIdx = 0
		}
		histogram[binIdx]++
	}

	return histogram, centers
}
