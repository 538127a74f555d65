package filters

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidWindow is returned for a window that is not a positive odd length
// strictly greater than the polynomial order.
var ErrInvalidWindow = errors.New("filters: invalid smoothing window")

// SavitzkyGolay implements a polynomial smoothing filter.
//
// Each output sample is the value, at that sample's position, of the
// least-squares polynomial of degree `order` fitted to the `window` samples
// around it. Edges follow the "interp" convention: the polynomial fitted to
// the first (last) full window is evaluated at the leading (trailing)
// half-window positions, so the output has the same length as the input.
//
// References:
//   - A. Savitzky, M. J. E. Golay, "Smoothing and Differentiation of Data by
//     Simplified Least Squares Procedures", Analytical Chemistry 36(8), 1964
//
// With order == window-1 the polynomial interpolates every window exactly and
// the filter reduces to the identity.
type SavitzkyGolay struct {
	window int
	order  int

	// hat is the window x window least-squares projection A·pinv(A), where A
	// is the Vandermonde matrix of offsets -half..half. Row k gives the
	// weights that evaluate the fitted polynomial at offset k-half.
	hat *mat.Dense
}

// NewSavitzkyGolay creates a smoother with the given odd window length and polynomial order
func NewSavitzkyGolay(window, order int) (*SavitzkyGolay, error) {
	if window <= 0 || window%2 == 0 {
		return nil, fmt.Errorf("%w: window length %d must be positive and odd", ErrInvalidWindow, window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("%w: order %d must be in [0, %d)", ErrInvalidWindow, order, window)
	}

	half := window / 2
	vander := mat.NewDense(window, order+1, nil)
	for i := range window {
		x := float64(i - half)
		v := 1.0
		for j := 0; j <= order; j++ {
			vander.Set(i, j, v)
			v *= x
		}
	}

	ones := make([]float64, window)
	for i := range ones {
		ones[i] = 1
	}

	// least-squares solve against the identity yields the pseudo-inverse
	var pinv mat.Dense
	if err := pinv.Solve(vander, mat.NewDiagDense(window, ones)); err != nil {
		return nil, fmt.Errorf("savitzky-golay coefficients: %w", err)
	}

	hat := mat.NewDense(window, window, nil)
	hat.Mul(vander, &pinv)

	return &SavitzkyGolay{
		window: window,
		order:  order,
		hat:    hat,
	}, nil
}

// Window returns the filter window length
func (sg *SavitzkyGolay) Window() int {
	return sg.window
}

// Order returns the polynomial order
func (sg *SavitzkyGolay) Order() int {
	return sg.order
}

// Coefficients returns a copy of the central (steady-state) convolution weights
func (sg *SavitzkyGolay) Coefficients() []float64 {
	return mat.Row(nil, sg.window/2, sg.hat)
}

// Smooth returns a smoothed copy of signal.
// Signals shorter than the window cannot be fitted and are returned as an unchanged copy.
func (sg *SavitzkyGolay) Smooth(signal []float64) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n < sg.window {
		copy(out, signal)
		return out
	}

	half := sg.window / 2
	weights := make([]float64, sg.window)

	// leading edge: evaluate the first window's polynomial
	head := signal[:sg.window]
	for i := range half {
		mat.Row(weights, i, sg.hat)
		out[i] = floats.Dot(weights, head)
	}

	mat.Row(weights, half, sg.hat)
	for i := half; i < n-half; i++ {
		out[i] = floats.Dot(weights, signal[i-half:i+half+1])
	}

	// trailing edge: evaluate the last window's polynomial
	tail := signal[n-sg.window:]
	for i := n - half; i < n; i++ {
		mat.Row(weights, i-(n-sg.window), sg.hat)
		out[i] = floats.Dot(weights, tail)
	}

	return out
}

// SmoothRows smooths every row of m independently and returns a new matrix
func (sg *SavitzkyGolay) SmoothRows(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := range rows {
		out.SetRow(r, sg.Smooth(m.RawRowView(r)))
	}
	return out
}
