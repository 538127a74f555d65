package common

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NormalizeColumnsByMax returns a new matrix where every column of m is divided
// by that column's maximum. Each column is treated as one frame, so the result
// is bounded above by 1 per frame.
//
// A column whose maximum is zero produces Inf/NaN entries; they are left in place.
func NormalizeColumnsByMax(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return &mat.Dense{}
	}
	out := mat.DenseCopyOf(m)

	col := make([]float64, rows)
	for j := range cols {
		mat.Col(col, j, out)
		peak := floats.Max(col)
		for i := range col {
			col[i] /= peak
		}
		out.SetCol(j, col)
	}

	return out
}
