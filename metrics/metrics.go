// Package metrics records pipeline telemetry: stage durations, illegal value
// counts and frame retention. Instruments are OpenTelemetry meters exported
// through a private Prometheus registry so batch runs can dump a textfile.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MeterName scopes every instrument and span of the pipeline
	MeterName = "github.com/RyanBlaney/behav-preprocess"

	Version = "v0.3.0"
)

// Frame outcomes reported by RecordFrames
const (
	FramesRetained = "retained"
	FramesRest     = "rest"
	FramesBoundary = "boundary"
)

// Collector owns the meter provider and the instruments of one pipeline.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
	tracer   trace.Tracer

	stageDuration metric.Float64Histogram
	illegalValues metric.Int64Counter
	frames        metric.Int64Counter
	experiments   metric.Int64Counter
}

// NewCollector creates a collector backed by its own Prometheus registry.
// Spans go to the globally installed tracer provider.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(MeterName, metric.WithInstrumentationVersion(Version))

	c := &Collector{
		registry: registry,
		provider: provider,
		tracer:   otel.Tracer(MeterName, trace.WithInstrumentationVersion(Version)),
	}

	c.stageDuration, err = meter.Float64Histogram(
		"behav_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	c.illegalValues, err = meter.Int64Counter(
		"behav_illegal_values_total",
		metric.WithDescription("NaN and Inf samples found in raw recordings"),
	)
	if err != nil {
		return nil, err
	}

	c.frames, err = meter.Int64Counter(
		"behav_frames_total",
		metric.WithDescription("Frames by masking outcome"),
	)
	if err != nil {
		return nil, err
	}

	c.experiments, err = meter.Int64Counter(
		"behav_experiments_total",
		metric.WithDescription("Experiments processed"),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Registry exposes the Prometheus registry backing the collector
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// StartStage opens a span for a pipeline stage. The returned function ends
// the span and records the stage duration.
func (c *Collector) StartStage(ctx context.Context, stage string) (context.Context, func()) {
	if c == nil {
		return ctx, func() {}
	}

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, stage, trace.WithAttributes(attribute.String("stage", stage)))

	return ctx, func() {
		c.stageDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("stage", stage)))
		span.End()
	}
}

// RecordIllegalValues adds NaN and Inf counts found in one experiment
func (c *Collector) RecordIllegalValues(ctx context.Context, nans, infs int) {
	if c == nil {
		return
	}
	if nans > 0 {
		c.illegalValues.Add(ctx, int64(nans), metric.WithAttributes(attribute.String("kind", "nan")))
	}
	if infs > 0 {
		c.illegalValues.Add(ctx, int64(infs), metric.WithAttributes(attribute.String("kind", "inf")))
	}
}

// RecordFrames adds n frames with the given outcome
func (c *Collector) RecordFrames(ctx context.Context, outcome string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.frames.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordExperiment counts one processed experiment
func (c *Collector) RecordExperiment(ctx context.Context) {
	if c == nil {
		return
	}
	c.experiments.Add(ctx, 1)
}

// WriteTextfile writes the current metrics in the node_exporter textfile format
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the meter provider
func (c *Collector) Shutdown(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.provider.Shutdown(ctx)
}
