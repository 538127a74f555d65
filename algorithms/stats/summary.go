package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/behav-preprocess/algorithms/common"
)

// Summary describes the distribution of one electrode's finite samples
type Summary struct {
	Count    int     `json:"count"`  // all samples
	Finite   int     `json:"finite"` // samples that are neither NaN nor ±Inf
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"` // population
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Q3       float64 `json:"q3"`
	IQR      float64 `json:"iqr"`
	Outliers int     `json:"outliers"` // outside [Q1 - 1.5 IQR, Q3 + 1.5 IQR]
}

// outlierK is Tukey's fence multiplier
const outlierK = 1.5

// Summarize computes a Summary of data. Without finite samples every
// statistic except the counts is NaN.
func Summarize(data []float64) Summary {
	finite := common.Finite(data)
	s := Summary{Count: len(data), Finite: len(finite)}
	if len(finite) == 0 {
		nan := math.NaN()
		s.Min, s.Max, s.Mean, s.StdDev = nan, nan, nan, nan
		s.Q1, s.Median, s.Q3, s.IQR = nan, nan, nan, nan
		return s
	}

	sorted := slices.Clone(finite)
	slices.Sort(sorted)

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Mean = stat.Mean(sorted, nil)
	s.StdDev = math.Sqrt(stat.PopVariance(sorted, nil))
	s.Q1 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q3 = Quantile(sorted, 0.75)
	s.IQR = s.Q3 - s.Q1

	lo, hi := s.Q1-outlierK*s.IQR, s.Q3+outlierK*s.IQR
	s.Outliers = floats.Count(func(v float64) bool { return v < lo || v > hi }, sorted)

	return s
}

// Flat reports whether the electrode carried a constant signal, which
// usually means it lost contact.
func (s Summary) Flat() bool {
	return s.Finite > 0 && s.Max == s.Min
}

// Quantile returns the q-quantile of ascending sorted data using linear
// interpolation between closest ranks (h = (n-1)q). It panics on empty data.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	h := float64(n-1) * q

	if h <= 0 {
		return sorted[0]
	}
	if h >= float64(n-1) {
		return sorted[n-1]
	}

	lower := int(math.Floor(h))
	fraction := h - float64(lower)
	return sorted[lower] + fraction*(sorted[lower+1]-sorted[lower])
}
