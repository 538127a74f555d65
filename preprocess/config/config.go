// Package config holds the preprocessing pipeline configuration.
//
// Values are resolved in this order: built-in defaults, an optional YAML file,
// BEHAV_* environment variables, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/RyanBlaney/behav-preprocess/logging"
	"github.com/RyanBlaney/behav-preprocess/recording"
)

// EnvPrefix is the prefix of environment overrides, e.g. BEHAV_SAMP_RATE
const EnvPrefix = "BEHAV"

// Truncation modes for resolving the end offset tf
const (
	TruncateShared        = "shared"
	TruncatePerExperiment = "per_experiment"
)

// ErrInvalidConfig wraps every configuration violation
var ErrInvalidConfig = errors.New("preprocess: invalid configuration")

// PipelineConfig holds every tunable of the preprocessing pipeline
type PipelineConfig struct {
	// Alignment window [TI, TF). TF == 0 resolves against recording lengths.
	TI         int    `json:"ti" yaml:"ti" envconfig:"TI" validate:"gte=0"`
	TF         int    `json:"tf" yaml:"tf" envconfig:"TF" validate:"omitempty,gtfield=TI"`
	Truncation string `json:"truncation" yaml:"truncation" envconfig:"TRUNCATION" validate:"oneof=shared per_experiment"`

	// Wavelet transform
	SampleRate   float64 `json:"samp_rate" yaml:"samp_rate" envconfig:"SAMP_RATE" validate:"gt=0"`
	MinFrequency float64 `json:"min_frequency" yaml:"min_frequency" envconfig:"MIN_FREQUENCY" validate:"gt=0"`
	MaxFrequency float64 `json:"max_frequency" yaml:"max_frequency" envconfig:"MAX_FREQUENCY" validate:"gtfield=MinFrequency"`
	NumChannels  int     `json:"num_channels" yaml:"num_channels" envconfig:"NUM_CHANNELS" validate:"min=2"`
	Omega0       float64 `json:"omega0" yaml:"omega0" envconfig:"OMEGA0" validate:"gt=0"`

	// Labeling
	BoundLen      int `json:"bound_len" yaml:"bound_len" envconfig:"BOUND_LEN" validate:"gte=0"`
	ClipLen       int `json:"clip_len" yaml:"clip_len" envconfig:"CLIP_LEN" validate:"gte=0"`
	ThresholdBins int `json:"threshold_bins" yaml:"threshold_bins" envconfig:"THRESHOLD_BINS" validate:"gte=0"`

	// Stage switches
	Smooth     bool `json:"smooth" yaml:"smooth" envconfig:"SMOOTH"`
	MeanCenter bool `json:"mean_center" yaml:"mean_center" envconfig:"MEAN_CENTER"`
	Normalize  bool `json:"normalize" yaml:"normalize" envconfig:"NORMALIZE"`
	NoBounds   bool `json:"no_bounds" yaml:"no_bounds" envconfig:"NO_BOUNDS"`
	DumpRest   bool `json:"dump_rest" yaml:"dump_rest" envconfig:"DUMP_REST"`

	SmoothWindow int `json:"smooth_window" yaml:"smooth_window" envconfig:"SMOOTH_WINDOW" validate:"gt=0"`
	SmoothOrder  int `json:"smooth_order" yaml:"smooth_order" envconfig:"SMOOTH_ORDER" validate:"gte=0,ltfield=SmoothWindow"`

	Electrodes  []string `json:"electrodes" yaml:"electrodes" envconfig:"ELECTRODES" validate:"min=1,dive,required"`
	LoadWorkers int      `json:"load_workers" yaml:"load_workers" envconfig:"LOAD_WORKERS" validate:"min=1"`
	LogLevel    string   `json:"log_level" yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn warning error fatal"`
}

// DefaultPipelineConfig returns the default pipeline configuration
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		TI:            0,
		TF:            0,
		Truncation:    TruncateShared,
		SampleRate:    220,
		MinFrequency:  1,
		MaxFrequency:  50,
		NumChannels:   30,
		Omega0:        5,
		BoundLen:      50,
		ClipLen:       100,
		ThresholdBins: 0,
		Smooth:        true,
		MeanCenter:    true,
		Normalize:     true,
		NoBounds:      false,
		DumpRest:      false,
		SmoothWindow:  5,
		SmoothOrder:   4,
		Electrodes:    recording.DefaultLayout().Electrodes,
		LoadWorkers:   4,
		LogLevel:      "info",
	}
}

// Load resolves a configuration from defaults, the YAML file at path
// (skipped when path is empty) and BEHAV_* environment variables.
func Load(path string) (*PipelineConfig, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "pipeline_config",
		"function":  "Load",
	})

	cfg := DefaultPipelineConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		logger.Debug("Config file applied", logging.Fields{"path": path})
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays YAML values on top of the current configuration.
// Keys absent from the file keep their current values.
func (c *PipelineConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, c)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report YAML key names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks field ranges and cross-field constraints.
// All failures wrap ErrInvalidConfig.
func (c *PipelineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.SmoothWindow%2 == 0 {
		return fmt.Errorf("%w: smooth_window must be odd, got %d", ErrInvalidConfig, c.SmoothWindow)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), yamlName(fe.Param()))
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s", fe.Field(), yamlName(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value())
	}
}

// yamlName maps a Go field name used in a cross-field tag to its YAML key
func yamlName(field string) string {
	f, ok := reflect.TypeOf(PipelineConfig{}).FieldByName(field)
	if !ok {
		return field
	}
	return strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
}

// Level returns the parsed log level
func (c *PipelineConfig) Level() logging.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

// ResolveEnd returns the exclusive end offset for a recording of length n.
// shared is the minimum length over all recordings and is only used in
// shared truncation mode.
func (c *PipelineConfig) ResolveEnd(n, shared int) int {
	limit := n
	if c.Truncation != TruncatePerExperiment {
		limit = shared
	}
	if c.TF > 0 && c.TF < limit {
		return c.TF
	}
	return limit
}
