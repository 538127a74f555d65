// Package preprocess turns raw headband recordings into a labelled,
// normalized wavelet feature matrix.
//
// Stages run in a fixed order per experiment: align, quality scan, smooth,
// centre, transform, frame statistics, normalize, label. The experiments are
// then concatenated and masked into a Dataset.
package preprocess

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/behav-preprocess/algorithms/spectral"
	"github.com/RyanBlaney/behav-preprocess/behavior"
	"github.com/RyanBlaney/behav-preprocess/logging"
	"github.com/RyanBlaney/behav-preprocess/metrics"
	"github.com/RyanBlaney/behav-preprocess/preprocess/config"
	"github.com/RyanBlaney/behav-preprocess/recording"
)

// Decoder loads one recording file
type Decoder interface {
	DecodeFile(path string) (*recording.Recording, error)
}

// Transform is the time-frequency decomposition. It takes a frame x channel
// signal and returns frame x (channel*bands) amplitudes plus the band centres.
type Transform interface {
	Transform(signal mat.Matrix, bands int, omega0, sampleRate, fMin, fMax float64) (*mat.Dense, []float64, error)
}

// Option customises a Preprocessor
type Option func(*Preprocessor)

// WithDecoder replaces the file decoder
func WithDecoder(d Decoder) Option {
	return func(p *Preprocessor) { p.decoder = d }
}

// WithTransform replaces the Morlet wavelet transform
func WithTransform(t Transform) Option {
	return func(p *Preprocessor) { p.transform = t }
}

// WithGroundTruth sets the annotated behavior intervals
func WithGroundTruth(intervals []behavior.Interval) Option {
	return func(p *Preprocessor) { p.intervals = intervals }
}

// WithMetrics records stage timings and counts into c
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Preprocessor) { p.metrics = c }
}

// WithLogger replaces the component logger
func WithLogger(l logging.Logger) Option {
	return func(p *Preprocessor) {
		if l != nil {
			p.logger = l
		}
	}
}

// Preprocessor runs the pipeline for one configuration
type Preprocessor struct {
	config    *config.PipelineConfig
	decoder   Decoder
	transform Transform
	intervals []behavior.Interval
	metrics   *metrics.Collector
	logger    logging.Logger
}

// NewPreprocessor creates a preprocessor. A nil config selects the defaults.
func NewPreprocessor(cfg *config.PipelineConfig, opts ...Option) *Preprocessor {
	if cfg == nil {
		cfg = config.DefaultPipelineConfig()
	}

	p := &Preprocessor{
		config: cfg,
		decoder: recording.NewDecoder(&recording.DecoderConfig{
			Columns:   cfg.Electrodes,
			Delimiter: ',',
		}),
		transform: spectral.NewMorlet(),
		logger: logging.WithFields(logging.Fields{
			"component": "preprocessor",
		}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Config returns the pipeline configuration
func (p *Preprocessor) Config() *config.PipelineConfig {
	return p.config
}

// Run decodes the recordings at paths and processes them.
// The configuration is validated before any file is opened.
func (p *Preprocessor) Run(ctx context.Context, paths []string) (*Dataset, error) {
	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Run",
	})

	if err := p.config.Validate(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoExperiments
	}

	logger.Info("Loading experiments", logging.Fields{
		"experiments": len(paths),
		"paths":       paths,
	})

	recordings, err := p.load(ctx, paths)
	if err != nil {
		logger.Error(err, "Failed to load experiments")
		return nil, err
	}

	return p.Process(ctx, recordings)
}

// load decodes every path with at most LoadWorkers files in flight.
// Results keep the order of paths.
func (p *Preprocessor) load(ctx context.Context, paths []string) ([]*recording.Recording, error) {
	ctx, end := p.metrics.StartStage(ctx, "load")
	defer end()

	recordings := make([]*recording.Recording, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.LoadWorkers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := p.decoder.DecodeFile(path)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", path, err)
			}
			recordings[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recordings, nil
}

// Process runs every stage over already decoded recordings
func (p *Preprocessor) Process(ctx context.Context, recordings []*recording.Recording) (*Dataset, error) {
	start := time.Now()

	id := uuid.New()
	ctx = logging.ContextWithFields(ctx, logging.Fields{"run_id": id.String()})
	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Process",
	})

	if err := p.config.Validate(); err != nil {
		return nil, err
	}
	if len(recordings) == 0 {
		return nil, ErrNoExperiments
	}

	experiments, err := p.align(recordings)
	if err != nil {
		logger.Error(err, "Failed to align experiments")
		return nil, err
	}

	stages, err := p.newStages()
	if err != nil {
		return nil, err
	}

	var frequencies []float64
	for i, exp := range experiments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		freqs, err := stages.run(ctx, exp)
		if err != nil {
			logger.Error(err, "Failed to process experiment", logging.Fields{
				"path": exp.Path,
			})
			return nil, err
		}

		if i == 0 {
			frequencies = freqs
		} else if err := checkFrequencies(frequencies, freqs); err != nil {
			return nil, fmt.Errorf("%s: %w", exp.Path, err)
		}
		p.metrics.RecordExperiment(ctx)
	}

	logger.Info("Wavelet centre frequencies", logging.Fields{
		"frequencies": frequencies,
	})

	ds, err := p.concatenate(ctx, experiments)
	if err != nil {
		logger.Error(err, "Failed to concatenate experiments")
		return nil, err
	}

	ds.ID = id.String()
	ds.Frequencies = frequencies
	ds.Elapsed = time.Since(start)

	logger.Info("Preprocessing completed", logging.Fields{
		"frames":   ds.Len(),
		"bands":    ds.Bands(),
		"elapsed":  ds.Elapsed.String(),
		"rejected": ds.TotalFrames - ds.Len(),
	})

	return ds, nil
}

// align slices every recording's electrode columns to [ti, tf).
//
// With shared truncation an unset tf resolves to the shortest recording so
// all experiments cover the same window regardless of their order.
func (p *Preprocessor) align(recordings []*recording.Recording) ([]*Experiment, error) {
	logger := p.logger.WithFields(logging.Fields{
		"function": "align",
	})

	shared := recordings[0].Length
	for _, rec := range recordings[1:] {
		shared = min(shared, rec.Length)
	}

	ti := p.config.TI
	experiments := make([]*Experiment, len(recordings))
	for i, rec := range recordings {
		tf := p.config.ResolveEnd(rec.Length, shared)
		if tf <= ti {
			return nil, fmt.Errorf("%w: %s resolves to tf=%d <= ti=%d", ErrInvalidConfig, rec.Path, tf, ti)
		}

		raw := mat.NewDense(len(p.config.Electrodes), tf-ti, nil)
		for r, name := range p.config.Electrodes {
			col, err := rec.Column(name)
			if err != nil {
				return nil, err
			}
			raw.SetRow(r, col[ti:tf])
		}

		experiments[i] = &Experiment{Path: rec.Path, Raw: raw}

		logger.Debug("Experiment aligned", logging.Fields{
			"path":   rec.Path,
			"ti":     ti,
			"tf":     tf,
			"frames": tf - ti,
		})
	}

	return experiments, nil
}
