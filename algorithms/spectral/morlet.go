package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidParameters is returned when the wavelet transform parameters cannot describe a filter bank
var ErrInvalidParameters = errors.New("spectral: invalid wavelet parameters")

// Morlet computes continuous wavelet transform amplitudes with a Morlet
// mother wavelet, one band per centre frequency, by FFT convolution.
//
// References:
//   - C. Torrence, G. P. Compo, "A Practical Guide to Wavelet Analysis",
//     Bulletin of the American Meteorological Society 79(1), 1998
//   - G. J. Berman et al., "Mapping the stereotyped behaviour of freely moving
//     fruit flies", J. R. Soc. Interface 11, 2014
//
// Centre frequencies are log spaced between fMin and fMax. Each band's
// amplitude is normalised by its scale, so equal-amplitude sinusoids produce
// comparable peaks regardless of which band they fall in.
type Morlet struct {
	fft *FFT
}

// NewMorlet creates a new Morlet wavelet transform
func NewMorlet() *Morlet {
	return &Morlet{
		fft: NewFFT(),
	}
}

// CenterFrequencies returns `bands` log-spaced frequencies from fMin to fMax in ascending order
func CenterFrequencies(bands int, fMin, fMax float64) ([]float64, error) {
	if bands < 2 {
		return nil, fmt.Errorf("%w: need at least 2 bands, got %d", ErrInvalidParameters, bands)
	}
	if fMin <= 0 || fMax <= fMin {
		return nil, fmt.Errorf("%w: frequency range [%g, %g] must satisfy 0 < min < max", ErrInvalidParameters, fMin, fMax)
	}

	minT := 1.0 / fMax
	maxT := 1.0 / fMin
	ratio := maxT / minT

	freqs := make([]float64, bands)
	for i := range bands {
		// periods grow geometrically from minT; reversing gives ascending frequency
		period := minT * math.Pow(ratio, float64(i)/float64(bands-1))
		freqs[bands-1-i] = 1.0 / period
	}

	return freqs, nil
}

// Transform computes wavelet amplitudes for every channel (column) of a
// time x channel signal.
//
// The result is time x (channels*bands); column c*bands+b holds band b of
// channel c. The returned frequencies are the band centres in Hz.
func (m *Morlet) Transform(signal mat.Matrix, bands int, omega0, sampleRate, fMin, fMax float64) (*mat.Dense, []float64, error) {
	frames, channels := signal.Dims()
	if frames == 0 || channels == 0 {
		return nil, nil, fmt.Errorf("%w: empty signal", ErrInvalidParameters)
	}
	if sampleRate <= 0 {
		return nil, nil, fmt.Errorf("%w: sample rate must be positive", ErrInvalidParameters)
	}
	if omega0 <= 0 {
		return nil, nil, fmt.Errorf("%w: omega0 must be positive", ErrInvalidParameters)
	}

	freqs, err := CenterFrequencies(bands, fMin, fMax)
	if err != nil {
		return nil, nil, err
	}

	out := mat.NewDense(frames, channels*bands, nil)
	column := make([]float64, frames)
	for c := range channels {
		mat.Col(column, c, signal)
		amps := m.channelAmplitudes(column, freqs, omega0, 1.0/sampleRate)
		for b, amp := range amps {
			out.SetCol(c*bands+b, amp)
		}
	}

	return out, freqs, nil
}

// channelAmplitudes convolves one channel with every band's wavelet
func (m *Morlet) channelAmplitudes(x []float64, freqs []float64, omega0, dt float64) [][]float64 {
	original := len(x)

	// even length, then zero-pad by half on each side to suppress wrap-around
	n := original
	if n%2 == 1 {
		n++
	}
	padded := make([]float64, 2*n)
	copy(padded[n/2:], x)

	total := len(padded)
	xHat := m.fft.Compute(padded)

	omegas := make([]float64, total)
	for k := range total {
		kk := k
		if k >= total/2 {
			kk = k - total
		}
		omegas[k] = 2 * math.Pi * float64(kk) / (float64(total) * dt)
	}

	norm := math.Pow(math.Pi, -0.25) * math.Exp(0.25*math.Pow(omega0-math.Sqrt(omega0*omega0+2), 2))

	amplitudes := make([][]float64, len(freqs))
	product := make([]complex128, total)
	for b, f := range freqs {
		scale := (omega0 + math.Sqrt(2+omega0*omega0)) / (4 * math.Pi * f)

		for k := range total {
			product[k] = complex(morletConjFT(-omegas[k]*scale, omega0), 0) * xHat[k]
		}
		q := m.fft.ComputeInverse(product)

		amp := make([]float64, original)
		gain := math.Sqrt(scale) * norm / math.Sqrt(2*scale)
		for i := range original {
			amp[i] = cmplx.Abs(q[n/2+i]) * gain
		}
		amplitudes[b] = amp
	}

	return amplitudes
}

// morletConjFT is the Fourier transform of the (conjugated) Morlet wavelet
func morletConjFT(w, omega0 float64) float64 {
	return math.Pow(math.Pi, -0.25) * math.Exp(-0.5*(w-omega0)*(w-omega0))
}
