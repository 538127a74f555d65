package temporal

import (
	"fmt"

	"github.com/RyanBlaney/behav-preprocess/algorithms/stats"
)

// Segment is a half-open frame range [Start, End)
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of frames in the segment
func (s Segment) Len() int {
	return s.End - s.Start
}

// RestDetection marks low-activity frames from a per-frame amplitude series
type RestDetection struct {
	bins int
}

// NewRestDetection creates a rest detector whose automatic threshold uses
// the given histogram bin count (<= 0 selects the square-root rule)
func NewRestDetection(bins int) *RestDetection {
	return &RestDetection{bins: bins}
}

// RestResult holds the automatic threshold and the resulting per-frame mask
type RestResult struct {
	Threshold float64   `json:"threshold"`
	Mask      []bool    `json:"mask"`
	Segments  []Segment `json:"segments"`
}

// Detect computes an Otsu threshold over the amplitudes and marks every frame
// strictly below it as rest. -Inf amplitudes (silent frames) are below any
// finite threshold; NaN amplitudes never are.
func (rd *RestDetection) Detect(amplitudes []float64) (*RestResult, error) {
	threshold, err := stats.OtsuThreshold(amplitudes, rd.bins)
	if err != nil {
		return nil, fmt.Errorf("rest threshold: %w", err)
	}

	mask := BelowThreshold(amplitudes, threshold)

	return &RestResult{
		Threshold: threshold,
		Mask:      mask,
		Segments:  Segments(mask),
	}, nil
}

// BelowThreshold returns a mask of values strictly below threshold
func BelowThreshold(values []float64, threshold float64) []bool {
	mask := make([]bool, len(values))
	for i, v := range values {
		mask[i] = v < threshold
	}
	return mask
}

// Segments groups consecutive true frames into segments
func Segments(mask []bool) []Segment {
	var segments []Segment
	currentStart := -1

	for i, set := range mask {
		if set && currentStart == -1 {
			currentStart = i
		} else if !set && currentStart != -1 {
			segments = append(segments, Segment{Start: currentStart, End: i})
			currentStart = -1
		}
	}

	// segment that extends to the end
	if currentStart != -1 {
		segments = append(segments, Segment{Start: currentStart, End: len(mask)})
	}

	return segments
}
