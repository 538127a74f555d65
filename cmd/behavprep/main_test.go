package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/behav-preprocess/behavior"
	"github.com/RyanBlaney/behav-preprocess/logging"
	"github.com/RyanBlaney/behav-preprocess/preprocess"
)

// writeRecording writes a synthetic four-electrode export with n rows
func writeRecording(t *testing.T, path string, n int) {
	t.Helper()

	var b strings.Builder
	b.WriteString("TimeStamp,RAW_TP9,RAW_AF7,RAW_AF8,RAW_TP10\n")
	for i := range n {
		v := 800 + 30*math.Sin(2*math.Pi*8*float64(i)/220)
		if i >= n/3 && i < n/2 {
			v = 800 + math.Sin(2*math.Pi*8*float64(i)/220)
		}
		fmt.Fprintf(&b, "t%d,%.4f,%.4f,%.4f,%.4f\n", i, v, v+1, v+2, v+3)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRun_WritesOutputs(t *testing.T) {
	prev := logging.GetGlobalLogger()
	t.Cleanup(func() { logging.SetGlobalLogger(prev) })

	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.Mkdir(data, 0o755))
	writeRecording(t, filepath.Join(data, "s01.csv"), 400)
	writeRecording(t, filepath.Join(data, "s02.csv"), 300)
	require.NoError(t, os.WriteFile(filepath.Join(data, "notes.txt"), []byte("skip"), 0o644))

	cfgPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("num_channels: 4\nno_bounds: true\nbound_len: 20\n"), 0o644))

	gtPath := filepath.Join(dir, "gt.yaml")
	require.NoError(t, os.WriteFile(gtPath, []byte(
		"intervals:\n  - {start: 180, end: 280, label: upright, selector: s01}\n"), 0o644))

	out := filepath.Join(dir, "out")
	metricsPath := filepath.Join(dir, "behav.prom")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-config", cfgPath,
		"-ground-truth", gtPath,
		"-dir", data,
		"-out", out,
		"-metrics", metricsPath,
	}, &stdout, io.Discard)
	require.NoError(t, err)

	// shared truncation: both experiments cut to 300 frames, 40 boundary frames dropped each
	index := readCSV(t, filepath.Join(out, "index.csv"))
	require.Len(t, index, 1+2*260)
	assert.Equal(t, []string{"index", "experiment", "path", "frame", "label", "log_amplitude"}, index[0])
	assert.Equal(t, "0", index[1][1])
	assert.Equal(t, "20", index[1][3])
	assert.Equal(t, filepath.Join(data, "s02.csv"), index[len(index)-1][2])

	features := readCSV(t, filepath.Join(out, "features.csv"))
	require.Len(t, features, 1+4*4, "header plus electrodes x bands")
	assert.Len(t, features[0], 1+2*260)
	assert.True(t, strings.HasPrefix(features[1][0], "RAW_TP9@1.00Hz"), features[1][0])

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "behav_experiments_total")

	assert.Contains(t, stdout.String(), "Outputs written")
}

func TestRun_Errors(t *testing.T) {
	prev := logging.GetGlobalLogger()
	t.Cleanup(func() { logging.SetGlobalLogger(prev) })

	err := run(context.Background(), nil, io.Discard, io.Discard)
	assert.Error(t, err, "no recordings")

	dir := t.TempDir()
	rec := filepath.Join(dir, "s01.csv")
	writeRecording(t, rec, 100)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("ti: 100\ntf: 50\n"), 0o644))
	err = run(context.Background(), []string{"-config", bad, rec}, io.Discard, io.Discard)
	assert.Error(t, err)

	err = run(context.Background(), []string{"-log-level", "loud", rec}, io.Discard, io.Discard)
	assert.Error(t, err)
}

func TestBandNames(t *testing.T) {
	names := bandNames([]string{"RAW_TP9", "RAW_AF7"}, []float64{1, 50}, 4)
	assert.Equal(t, []string{"RAW_TP9@1.00Hz", "RAW_TP9@50.00Hz", "RAW_AF7@1.00Hz", "RAW_AF7@50.00Hz"}, names)

	assert.Equal(t, []string{"band_0", "band_1"}, bandNames([]string{"RAW_TP9"}, []float64{1, 2, 3}, 2))
}

func TestWriteOutputs(t *testing.T) {
	ds := &preprocess.Dataset{
		Experiments:     []*preprocess.Experiment{{Path: "s01.csv"}},
		Frequencies:     []float64{1, 2},
		Features:        mat.NewDense(2, 3, []float64{0.5, 1, 0, 0.25, 0, 1}),
		Labels:          []behavior.Label{behavior.None, behavior.Rest, behavior.Boundary},
		ExperimentIndex: []int{0, 0, 0},
		FrameIndex:      []int{4, 5, 9},
		FrameAmplitudes: []float64{1.5, -2, 3},
	}
	dir := t.TempDir()

	features := filepath.Join(dir, "features.csv")
	require.NoError(t, writeFeatures(features, ds, []string{"RAW_TP9"}))
	rows := readCSV(t, features)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"band", "0", "1", "2"}, rows[0])
	assert.Equal(t, []string{"RAW_TP9@1.00Hz", "0.5", "1", "0"}, rows[1])

	index := filepath.Join(dir, "index.csv")
	require.NoError(t, writeIndex(index, ds))
	rows = readCSV(t, index)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"1", "0", "s01.csv", "5", behavior.Rest.String(), "-2"}, rows[2])

	// files are closed, so they can be replaced in place
	require.NoError(t, os.Remove(features))
	require.NoError(t, writeFeatures(features, ds, []string{"RAW_TP9"}))

	missing := filepath.Join(dir, "missing", "index.csv")
	assert.Error(t, writeIndex(missing, ds))
	assert.Error(t, writeFeatures(missing, ds, nil))
}
