package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/RyanBlaney/behav-preprocess/preprocess"
)

// bandNames labels feature rows "<electrode>@<freq>Hz" in transform order
func bandNames(electrodes []string, freqs []float64, bands int) []string {
	names := make([]string, bands)
	for i := range names {
		if len(freqs) > 0 && len(electrodes)*len(freqs) == bands {
			names[i] = fmt.Sprintf("%s@%.2fHz", electrodes[i/len(freqs)], freqs[i%len(freqs)])
		} else {
			names[i] = "band_" + strconv.Itoa(i)
		}
	}
	return names
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeFeatures writes one row per band and one column per retained frame
func writeFeatures(path string, ds *preprocess.Dataset, electrodes []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)

	header := make([]string, 0, ds.Len()+1)
	header = append(header, "band")
	for i := range ds.Len() {
		header = append(header, strconv.Itoa(i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	names := bandNames(electrodes, ds.Frequencies, ds.Bands())
	row := make([]string, ds.Len()+1)
	for r := range ds.Bands() {
		row[0] = names[r]
		for j, v := range ds.Features.RawRowView(r) {
			row[j+1] = formatFloat(v)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// writeIndex writes the per-frame metadata aligned with the feature columns
func writeIndex(path string, ds *preprocess.Dataset) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "experiment", "path", "frame", "label", "log_amplitude"}); err != nil {
		return err
	}

	for i := range ds.Len() {
		exp := ds.ExperimentIndex[i]
		record := []string{
			strconv.Itoa(i),
			strconv.Itoa(exp),
			ds.Experiments[exp].Path,
			strconv.Itoa(ds.FrameIndex[i]),
			ds.Labels[i].String(),
			formatFloat(ds.FrameAmplitudes[i]),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
