package preprocess

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/behav-preprocess/algorithms/common"
	"github.com/RyanBlaney/behav-preprocess/behavior"
	"github.com/RyanBlaney/behav-preprocess/logging"
	"github.com/RyanBlaney/behav-preprocess/metrics"
)

// retain reports whether a frame with label l survives masking
func (p *Preprocessor) retain(l behavior.Label) bool {
	if p.config.DumpRest && l == behavior.Rest {
		return false
	}
	if p.config.NoBounds && l == behavior.Boundary {
		return false
	}
	return true
}

// concatenate joins the normalized tensors along the frame axis, drops
// masked frames from the matrix and every index array alike, and replaces
// remaining NaN/Inf features with 0.
func (p *Preprocessor) concatenate(ctx context.Context, experiments []*Experiment) (*Dataset, error) {
	ctx, end := p.metrics.StartStage(ctx, "concatenate")
	defer end()

	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "concatenate",
	})

	bands, _ := experiments[0].Normalized.Dims()
	total := 0
	for _, exp := range experiments {
		b, f := exp.Normalized.Dims()
		if b != bands {
			return nil, fmt.Errorf("%w: %s has %d bands, expected %d", ErrShapeMismatch, exp.Path, b, bands)
		}
		total += f
	}

	logger.Info("Data concatenated", logging.Fields{
		"bands":       bands,
		"frames":      total,
		"experiments": len(experiments),
	})

	mask := make([]bool, 0, total)
	retained := 0
	var rest, bounds int
	for _, exp := range experiments {
		for _, l := range exp.Labels {
			keep := p.retain(l)
			mask = append(mask, keep)
			switch {
			case keep:
				retained++
			case l == behavior.Rest:
				rest++
			default:
				bounds++
			}
		}
	}

	ds := &Dataset{
		Experiments:     experiments,
		Mask:            mask,
		TotalFrames:     total,
		Labels:          make([]behavior.Label, 0, retained),
		ExperimentIndex: make([]int, 0, retained),
		FrameIndex:      make([]int, 0, retained),
		FrameAmplitudes: make([]float64, 0, retained),
	}

	features := &mat.Dense{}
	if retained > 0 {
		features = mat.NewDense(bands, retained, nil)
	}

	column := make([]float64, bands)
	offset, out := 0, 0
	for e, exp := range experiments {
		for f, l := range exp.Labels {
			if !mask[offset+f] {
				continue
			}
			mat.Col(column, f, exp.Normalized)
			features.SetCol(out, column)
			out++

			ds.Labels = append(ds.Labels, l)
			ds.ExperimentIndex = append(ds.ExperimentIndex, e)
			ds.FrameIndex = append(ds.FrameIndex, f)
			ds.FrameAmplitudes = append(ds.FrameAmplitudes, exp.LogAmplitude[f])
		}
		offset += len(exp.Labels)
	}

	scrubbed := 0
	if retained > 0 {
		for r := range bands {
			scrubbed += common.ScrubNonFinite(features.RawRowView(r))
		}
	}
	ds.Features = features

	if err := ds.checkLengths(); err != nil {
		return nil, err
	}

	p.metrics.RecordFrames(ctx, metrics.FramesRetained, retained)
	p.metrics.RecordFrames(ctx, metrics.FramesRest, rest)
	p.metrics.RecordFrames(ctx, metrics.FramesBoundary, bounds)

	logger.Info("Masked data", logging.Fields{
		"bands":          bands,
		"frames":         retained,
		"dropped_rest":   rest,
		"dropped_bounds": bounds,
		"scrubbed":       scrubbed,
	})

	return ds, nil
}
