package preprocess

import (
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/behav-preprocess/algorithms/stats"
	"github.com/RyanBlaney/behav-preprocess/behavior"
	"github.com/RyanBlaney/behav-preprocess/recording"
)

// Experiment is one recording session carried through every stage.
// Matrices are electrode x frame (Raw, Smoothed) or band x frame
// (Spectral, Normalized); per-frame vectors all have Frames() entries.
type Experiment struct {
	Path string `json:"path"`

	Raw        *mat.Dense `json:"-"`
	Smoothed   *mat.Dense `json:"-"` // smoothed then mean-centred; never aliases Raw
	Spectral   *mat.Dense `json:"-"`
	Normalized *mat.Dense `json:"-"` // never aliases Spectral

	ChannelMeans []float64 `json:"channel_means,omitempty"`

	LogVariance  []float64        `json:"log_variance"`
	LogAmplitude []float64        `json:"log_amplitude"`
	RestMask     []bool           `json:"rest_mask"`
	BoundaryMask []bool           `json:"boundary_mask"`
	Labels       []behavior.Label `json:"labels"`

	Threshold float64         `json:"threshold"` // NaN when no threshold could be computed
	NaNCount  int             `json:"nan_count"`
	InfCount  int             `json:"inf_count"`
	Quality   []stats.Summary `json:"quality"` // one per electrode, raw samples

	// scalp sides where every electrode is flat or has no finite sample
	SilentSides []recording.Side `json:"silent_sides,omitempty"`
}

// Frames returns the experiment's frame count after alignment
func (e *Experiment) Frames() int {
	if e.Raw == nil {
		return 0
	}
	_, c := e.Raw.Dims()
	return c
}

// IllegalCount returns the NaN plus Inf count of the raw samples
func (e *Experiment) IllegalCount() int {
	return e.NaNCount + e.InfCount
}

// LabelCounts tallies the experiment's labels
func (e *Experiment) LabelCounts() map[behavior.Label]int {
	counts := make(map[behavior.Label]int)
	for _, l := range e.Labels {
		counts[l]++
	}
	return counts
}
