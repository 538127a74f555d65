// Command behavprep runs the preprocessing pipeline over headband recordings
// and writes the masked feature matrix with its frame index.
//
// Usage:
//
//	behavprep [flags] recording.csv [recording.xlsx ...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/RyanBlaney/behav-preprocess/behavior"
	"github.com/RyanBlaney/behav-preprocess/logging"
	"github.com/RyanBlaney/behav-preprocess/metrics"
	"github.com/RyanBlaney/behav-preprocess/preprocess"
	"github.com/RyanBlaney/behav-preprocess/preprocess/config"
)

type options struct {
	configPath  string
	groundTruth string
	dir         string
	outDir      string
	metricsPath string
	logLevel    string
	trace       bool
	paths       []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("behavprep", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "pipeline config YAML (BEHAV_* env vars override it)")
	fs.StringVar(&opts.groundTruth, "ground-truth", "", "ground-truth intervals YAML")
	fs.StringVar(&opts.dir, "dir", "", "also process every .csv/.xlsx file in this directory")
	fs.StringVar(&opts.outDir, "out", ".", "output directory for features.csv and index.csv")
	fs.StringVar(&opts.metricsPath, "metrics", "", "write Prometheus textfile metrics to this path")
	fs.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	fs.BoolVar(&opts.trace, "trace", false, "print stage spans to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.paths = fs.Args()

	if opts.dir != "" {
		found, err := recordingsIn(opts.dir)
		if err != nil {
			return nil, err
		}
		opts.paths = append(opts.paths, found...)
	}
	if len(opts.paths) == 0 {
		return nil, errors.New("no recordings given")
	}

	return opts, nil
}

// recordingsIn lists decodable recordings in dir in lexical order
func recordingsIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)
	return paths, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := logging.NewDefaultLoggerWithWriters(stdout, stderr)
	logger.SetLevel(cfg.Level())
	logging.SetGlobalLogger(logger)

	if opts.trace {
		shutdown, err := setupTracing(stderr)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error(err, "Failed to flush traces")
			}
		}()
	}

	var intervals []behavior.Interval
	if opts.groundTruth != "" {
		intervals, err = behavior.LoadGroundTruth(opts.groundTruth)
		if err != nil {
			return err
		}
		logger.Info("Ground truth loaded", logging.Fields{
			"intervals": len(intervals),
		})
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		return err
	}
	defer collector.Shutdown(context.Background())

	p := preprocess.NewPreprocessor(cfg,
		preprocess.WithGroundTruth(intervals),
		preprocess.WithMetrics(collector),
	)

	ds, err := p.Run(ctx, opts.paths)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writeFeatures(filepath.Join(opts.outDir, "features.csv"), ds, cfg.Electrodes); err != nil {
		return err
	}
	if err := writeIndex(filepath.Join(opts.outDir, "index.csv"), ds); err != nil {
		return err
	}

	if opts.metricsPath != "" {
		if err := collector.WriteTextfile(opts.metricsPath); err != nil {
			return err
		}
	}

	logger.Info("Outputs written", logging.Fields{
		"dir":    opts.outDir,
		"frames": ds.Len(),
		"bands":  ds.Bands(),
	})

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logging.Error(err, "behavprep failed")
		stop()
		os.Exit(1)
	}
}
