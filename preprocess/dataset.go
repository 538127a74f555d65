package preprocess

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/behav-preprocess/behavior"
)

// Dataset is the read-only result of one pipeline run.
//
// Features is band x retained-frame. Labels, ExperimentIndex, FrameIndex and
// FrameAmplitudes have exactly one entry per Features column.
type Dataset struct {
	ID          string        `json:"id"`
	Experiments []*Experiment `json:"experiments"`
	Frequencies []float64     `json:"frequencies"`

	Features        *mat.Dense       `json:"-"`
	Mask            []bool           `json:"-"` // over all concatenated frames
	TotalFrames     int              `json:"total_frames"`
	Labels          []behavior.Label `json:"labels"`
	ExperimentIndex []int            `json:"experiment_index"`
	FrameIndex      []int            `json:"frame_index"`
	FrameAmplitudes []float64        `json:"frame_amplitudes"`

	Elapsed time.Duration `json:"elapsed"`
}

// Sample is one retained frame
type Sample struct {
	Features   []float64      `json:"features"`
	Label      behavior.Label `json:"label"`
	Experiment int            `json:"experiment"`
	Frame      int            `json:"frame"`
	Index      int            `json:"index"`
}

// Window is the slice of one experiment between two frame offsets
type Window struct {
	Experiment int        `json:"experiment"`
	Raw        *mat.Dense `json:"-"` // electrode x frame in [start, end)
	Features   *mat.Dense `json:"-"` // retained frames strictly inside (start, end)
	FrameIndex []int      `json:"frame_index"`
}

func (ds *Dataset) checkLengths() error {
	n := ds.Len()
	if len(ds.Labels) != n || len(ds.ExperimentIndex) != n ||
		len(ds.FrameIndex) != n || len(ds.FrameAmplitudes) != n {
		return fmt.Errorf("%w: features=%d labels=%d experiments=%d frames=%d amplitudes=%d",
			ErrLengthMismatch, n, len(ds.Labels), len(ds.ExperimentIndex),
			len(ds.FrameIndex), len(ds.FrameAmplitudes))
	}
	return nil
}

// Len returns the number of retained frames
func (ds *Dataset) Len() int {
	if ds.Features == nil || ds.Features.IsEmpty() {
		return 0
	}
	_, c := ds.Features.Dims()
	return c
}

// Bands returns the feature dimension
func (ds *Dataset) Bands() int {
	if ds.Features == nil || ds.Features.IsEmpty() {
		return 0
	}
	r, _ := ds.Features.Dims()
	return r
}

// Item returns retained frame i
func (ds *Dataset) Item(i int) (Sample, error) {
	if i < 0 || i >= ds.Len() {
		return Sample{}, fmt.Errorf("frame %d out of range [0, %d)", i, ds.Len())
	}
	return Sample{
		Features:   mat.Col(nil, i, ds.Features),
		Label:      ds.Labels[i],
		Experiment: ds.ExperimentIndex[i],
		Frame:      ds.FrameIndex[i],
		Index:      i,
	}, nil
}

// ExperimentByName returns the index of the first experiment whose path is name
func (ds *Dataset) ExperimentByName(name string) (int, error) {
	for i, exp := range ds.Experiments {
		if exp.Path == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("experiment %q not found", name)
}

// Window returns the raw samples of experiment exp in [start, end) and the
// retained feature columns whose frame offset lies strictly between start and end.
func (ds *Dataset) Window(exp, start, end int) (*Window, error) {
	if exp < 0 || exp >= len(ds.Experiments) {
		return nil, fmt.Errorf("experiment %d out of range [0, %d)", exp, len(ds.Experiments))
	}
	e := ds.Experiments[exp]
	start = max(start, 0)
	end = min(end, e.Frames())
	if end <= start {
		return nil, fmt.Errorf("empty frame window [%d, %d)", start, end)
	}

	rows, _ := e.Raw.Dims()
	w := &Window{
		Experiment: exp,
		Raw:        mat.DenseCopyOf(e.Raw.Slice(0, rows, start, end)),
		Features:   &mat.Dense{},
	}

	var cols []int
	for i, id := range ds.ExperimentIndex {
		if id == exp && start < ds.FrameIndex[i] && ds.FrameIndex[i] < end {
			cols = append(cols, i)
			w.FrameIndex = append(w.FrameIndex, ds.FrameIndex[i])
		}
	}

	if len(cols) > 0 {
		bands := ds.Bands()
		w.Features = mat.NewDense(bands, len(cols), nil)
		column := make([]float64, bands)
		for j, c := range cols {
			mat.Col(column, c, ds.Features)
			w.Features.SetCol(j, column)
		}
	}

	return w, nil
}

// MeanStd returns the per-band mean and population standard deviation over
// the retained feature columns. Both are nil for an empty dataset.
func (ds *Dataset) MeanStd() (mean, std []float64) {
	bands := ds.Bands()
	if bands == 0 {
		return nil, nil
	}

	mean = make([]float64, bands)
	std = make([]float64, bands)
	for r := range bands {
		row := ds.Features.RawRowView(r)
		mean[r] = stat.Mean(row, nil)
		std[r] = math.Sqrt(stat.PopVariance(row, nil))
	}
	return mean, std
}

// RetainedCounts tallies the labels of retained frames
func (ds *Dataset) RetainedCounts() map[behavior.Label]int {
	counts := make(map[behavior.Label]int)
	for _, l := range ds.Labels {
		counts[l]++
	}
	return counts
}
