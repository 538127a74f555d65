package preprocess

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/behav-preprocess/algorithms/common"
	"github.com/RyanBlaney/behav-preprocess/algorithms/filters"
	"github.com/RyanBlaney/behav-preprocess/algorithms/spectral"
	"github.com/RyanBlaney/behav-preprocess/algorithms/stats"
	"github.com/RyanBlaney/behav-preprocess/algorithms/temporal"
	"github.com/RyanBlaney/behav-preprocess/behavior"
	"github.com/RyanBlaney/behav-preprocess/logging"
	"github.com/RyanBlaney/behav-preprocess/metrics"
	"github.com/RyanBlaney/behav-preprocess/preprocess/config"
	"github.com/RyanBlaney/behav-preprocess/recording"
)

// stages holds the per-run stage implementations shared by every experiment
type stages struct {
	config    *config.PipelineConfig
	layout    *recording.Layout
	smoother  *filters.SavitzkyGolay
	transform Transform
	rest      *temporal.RestDetection
	labeler   *behavior.Labeler
	metrics   *metrics.Collector
	logger    logging.Logger
}

func (p *Preprocessor) newStages() (*stages, error) {
	smoother, err := filters.NewSavitzkyGolay(p.config.SmoothWindow, p.config.SmoothOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &stages{
		config:    p.config,
		layout:    recording.NewLayout(p.config.Electrodes),
		smoother:  smoother,
		transform: p.transform,
		rest:      temporal.NewRestDetection(p.config.ThresholdBins),
		labeler:   behavior.NewLabeler(p.config.ClipLen, p.config.BoundLen, p.intervals),
		metrics:   p.metrics,
		logger:    p.logger,
	}, nil
}

// run pushes one aligned experiment through every per-experiment stage and
// returns the transform's band centres.
func (s *stages) run(ctx context.Context, exp *Experiment) ([]float64, error) {
	logger := s.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "run",
		"path":     exp.Path,
	})

	s.scan(ctx, exp, logger)
	s.smooth(ctx, exp, logger)
	s.center(ctx, exp)

	freqs, err := s.spectrum(ctx, exp)
	if err != nil {
		return nil, err
	}

	s.frameStatistics(ctx, exp)
	s.normalize(ctx, exp)
	s.label(ctx, exp, logger)

	return freqs, nil
}

// scan counts NaN and Inf samples. It is diagnostic only.
func (s *stages) scan(ctx context.Context, exp *Experiment, logger logging.Logger) {
	_, end := s.metrics.StartStage(ctx, "quality_scan")
	defer end()

	rows, _ := exp.Raw.Dims()
	exp.Quality = make([]stats.Summary, rows)
	for r := range rows {
		row := exp.Raw.RawRowView(r)
		nans, infs := common.CountNonFinite(row)
		exp.NaNCount += nans
		exp.InfCount += infs

		exp.Quality[r] = stats.Summarize(row)
		if exp.Quality[r].Flat() {
			logger.Warn("Flat electrode signal", logging.Fields{
				"electrode": s.config.Electrodes[r],
				"value":     exp.Quality[r].Min,
			})
		}
	}

	exp.SilentSides = s.silentSides(exp.Quality)
	if len(exp.SilentSides) > 0 {
		logger.Warn("No signal on electrode side", logging.Fields{
			"sides": exp.SilentSides,
		})
	}

	s.metrics.RecordIllegalValues(ctx, exp.NaNCount, exp.InfCount)

	if exp.IllegalCount() > 0 {
		logger.Warn("Illegal values in recording", logging.Fields{
			"nan": exp.NaNCount,
			"inf": exp.InfCount,
		})
	}
}

// silentSides returns the sides whose electrodes all lack a usable signal.
// Sides with no electrode in the layout are skipped.
func (s *stages) silentSides(quality []stats.Summary) []recording.Side {
	var silent []recording.Side
	for _, side := range recording.Sides {
		members, dead := 0, 0
		for i, on := range s.layout.Mask(side) {
			if !on {
				continue
			}
			members++
			if quality[i].Finite == 0 || quality[i].Flat() {
				dead++
			}
		}
		if members > 0 && dead == members {
			silent = append(silent, side)
		}
	}
	return silent
}

// smooth fills exp.Smoothed, always with fresh storage
func (s *stages) smooth(ctx context.Context, exp *Experiment, logger logging.Logger) {
	_, end := s.metrics.StartStage(ctx, "smooth")
	defer end()

	if !s.config.Smooth {
		exp.Smoothed = mat.DenseCopyOf(exp.Raw)
		return
	}

	if exp.Frames() < s.smoother.Window() {
		logger.Warn("Recording shorter than smoothing window, left unsmoothed", logging.Fields{
			"frames": exp.Frames(),
			"window": s.smoother.Window(),
		})
	}
	exp.Smoothed = s.smoother.SmoothRows(exp.Raw)
}

// center removes each channel's temporal mean in place
func (s *stages) center(ctx context.Context, exp *Experiment) {
	if !s.config.MeanCenter {
		return
	}

	_, end := s.metrics.StartStage(ctx, "center")
	defer end()

	exp.ChannelMeans = filters.RemoveDCRows(exp.Smoothed)
}

// spectrum runs the transform on the frame x channel orientation and stores
// the band x frame result.
func (s *stages) spectrum(ctx context.Context, exp *Experiment) ([]float64, error) {
	_, end := s.metrics.StartStage(ctx, "transform")
	defer end()

	out, freqs, err := s.transform.Transform(
		exp.Smoothed.T(),
		s.config.NumChannels,
		s.config.Omega0,
		s.config.SampleRate,
		s.config.MinFrequency,
		s.config.MaxFrequency,
	)
	if err != nil {
		return nil, fmt.Errorf("wavelet transform of %s: %w", exp.Path, err)
	}

	frames, _ := out.Dims()
	if frames != exp.Frames() {
		return nil, fmt.Errorf("%w: %s has %d frames, transform returned %d",
			ErrShapeMismatch, exp.Path, exp.Frames(), frames)
	}

	exp.Spectral = mat.DenseCopyOf(out.T())
	return freqs, nil
}

func (s *stages) frameStatistics(ctx context.Context, exp *Experiment) {
	_, end := s.metrics.StartStage(ctx, "frame_statistics")
	defer end()

	fs := spectral.ComputeFrameStatistics(exp.Spectral)
	exp.LogVariance = fs.LogVariance
	exp.LogAmplitude = fs.LogAmplitude
}

// normalize fills exp.Normalized, always with fresh storage
func (s *stages) normalize(ctx context.Context, exp *Experiment) {
	_, end := s.metrics.StartStage(ctx, "normalize")
	defer end()

	if !s.config.Normalize {
		exp.Normalized = mat.DenseCopyOf(exp.Spectral)
		return
	}
	exp.Normalized = common.NormalizeColumnsByMax(exp.Spectral)
}

// label computes the rest and boundary masks and the per-frame labels
func (s *stages) label(ctx context.Context, exp *Experiment, logger logging.Logger) {
	_, end := s.metrics.StartStage(ctx, "label")
	defer end()

	frames := exp.Frames()

	result, err := s.rest.Detect(exp.LogAmplitude)
	switch {
	case err == nil:
		exp.Threshold = result.Threshold
		exp.RestMask = result.Mask
		logger.Debug("Rest threshold", logging.Fields{
			"threshold": result.Threshold,
			"segments":  len(result.Segments),
		})
	case errors.Is(err, stats.ErrNoFiniteValues):
		exp.Threshold = math.NaN()
		exp.RestMask = make([]bool, frames)
		logger.Warn("No finite frame amplitudes, no frame marked as rest")
	default:
		// OtsuThreshold only fails for lack of finite input
		exp.Threshold = math.NaN()
		exp.RestMask = make([]bool, frames)
		logger.Error(err, "Rest detection failed")
	}

	exp.BoundaryMask = s.labeler.BoundaryMask(frames)
	exp.Labels = s.labeler.Label(exp.Path, exp.RestMask)

	counts := exp.LabelCounts()
	fields := make(logging.Fields, len(counts))
	for l, n := range counts {
		fields[l.String()] = n
	}
	logger.Debug("Frames labelled", fields)
}

// checkFrequencies requires identical band centres
func checkFrequencies(want, got []float64) error {
	if !floats.Equal(want, got) {
		return fmt.Errorf("%w: %v != %v", ErrFrequencyMismatch, want, got)
	}
	return nil
}
