package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions shared by the pipeline stages, backed by gonum.
// None of them guard against NaN or Inf: non-finite inputs propagate to the
// output and are scrubbed once, at the end of the pipeline.

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopVariance calculates the population variance (ddof = 0) of a slice
func PopVariance(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.PopVariance(data, nil)
}

// Sum returns the sum of all elements
func Sum(data []float64) float64 {
	return floats.Sum(data)
}

// Log10 applies log10 element-wise, returning a new slice.
// Zero maps to -Inf and negative values to NaN.
func Log10(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = math.Log10(v)
	}
	return out
}

// IsFinite reports whether v is neither NaN nor ±Inf
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CountNonFinite counts NaN and ±Inf values separately
func CountNonFinite(data []float64) (nans, infs int) {
	for _, v := range data {
		switch {
		case math.IsNaN(v):
			nans++
		case math.IsInf(v, 0):
			infs++
		}
	}
	return nans, infs
}

// ScrubNonFinite replaces NaN and ±Inf with zero in place and returns how many were replaced
func ScrubNonFinite(data []float64) int {
	replaced := 0
	for i, v := range data {
		if !IsFinite(v) {
			data[i] = 0
			replaced++
		}
	}
	return replaced
}

// Finite returns a copy of data holding only its finite values
func Finite(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if IsFinite(v) {
			out = append(out, v)
		}
	}
	return out
}
