package recording

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/RyanBlaney/behav-preprocess/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	Columns   []string `json:"columns"`   // keep only these columns; empty keeps all
	Delimiter rune     `json:"delimiter"` // CSV field separator
	Sheet     string   `json:"sheet"`     // XLSX sheet name; empty selects the first sheet
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		Delimiter: ',',
	}
}

// Decoder turns tabular recording files into Recordings.
// Cells that are empty or not numeric decode to NaN and are reported later
// by the quality scan rather than rejected here.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new recording decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "recording_decoder",
		}),
	}
}

// DecodeFile decodes a recording, choosing the format from the file extension
func (d *Decoder) DecodeFile(path string) (*Recording, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"path":     path,
	})

	ext := strings.ToLower(filepath.Ext(path))

	var (
		rec *Recording
		err error
	)
	switch ext {
	case ".csv", ".txt":
		rec, err = d.decodeCSVFile(path)
	case ".xlsx":
		rec, err = d.decodeXLSXFile(path)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		logger.Error(err, "Failed to decode recording")
		return nil, err
	}

	logger.Debug("Recording decoded", logging.Fields{
		"format":  rec.Format,
		"columns": len(rec.Columns),
		"samples": rec.Length,
	})

	return rec, nil
}

func (d *Decoder) decodeCSVFile(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	return d.DecodeCSV(f, path)
}

// DecodeCSV decodes CSV text with a header row. path only labels the result.
func (d *Decoder) DecodeCSV(r io.Reader, path string) (*Recording, error) {
	reader := csv.NewReader(r)
	if d.config.Delimiter != 0 {
		reader.Comma = d.config.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no header", ErrEmptyRecording, path)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header = append([]string(nil), header...)

	builder, err := d.newColumnBuilder(header, path)
	if err != nil {
		return nil, err
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		builder.add(row)
	}

	return builder.build("csv")
}

func (d *Decoder) decodeXLSXFile(path string) (*Recording, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := d.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s has no sheets", ErrEmptyRecording, path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", ErrEmptyRecording, path)
	}

	builder, err := d.newColumnBuilder(rows[0], path)
	if err != nil {
		return nil, err
	}
	for _, row := range rows[1:] {
		builder.add(row)
	}

	return builder.build("xlsx")
}

// columnBuilder accumulates the selected columns row by row
type columnBuilder struct {
	path    string
	index   map[string]int
	columns map[string][]float64
	rows    int
}

func (d *Decoder) newColumnBuilder(header []string, path string) (*columnBuilder, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}

	index := positions
	if len(d.config.Columns) > 0 {
		index = make(map[string]int, len(d.config.Columns))
		for _, name := range d.config.Columns {
			pos, ok := positions[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, name, path)
			}
			index[name] = pos
		}
	}

	columns := make(map[string][]float64, len(index))
	for name := range index {
		columns[name] = nil
	}

	return &columnBuilder{
		path:    path,
		index:   index,
		columns: columns,
	}, nil
}

func (b *columnBuilder) add(row []string) {
	for name, pos := range b.index {
		value := math.NaN()
		if pos < len(row) {
			value = parseCell(row[pos])
		}
		b.columns[name] = append(b.columns[name], value)
	}
	b.rows++
}

func (b *columnBuilder) build(format string) (*Recording, error) {
	if b.rows == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRecording, b.path)
	}
	return &Recording{
		Path:    b.path,
		Format:  format,
		Columns: b.columns,
		Length:  b.rows,
	}, nil
}

// parseCell converts a cell to float64; blanks and text become NaN
func parseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
