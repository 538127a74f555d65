package recording

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrMissingColumn is returned when a requested electrode column is absent
	ErrMissingColumn = errors.New("recording: missing column")

	// ErrUnsupportedFormat is returned for file extensions with no decoder
	ErrUnsupportedFormat = errors.New("recording: unsupported format")

	// ErrEmptyRecording is returned when a source has a header but no samples
	ErrEmptyRecording = errors.New("recording: no samples")
)

// Recording is one decoded session: named columns of equal length
type Recording struct {
	Path    string               `json:"path"`
	Format  string               `json:"format"`
	Columns map[string][]float64 `json:"-"`
	Length  int                  `json:"length"`
}

// NewRecording builds a recording from columns, checking they share one length
func NewRecording(path string, columns map[string][]float64) (*Recording, error) {
	length := -1
	for _, name := range slices.Sorted(maps.Keys(columns)) {
		n := len(columns[name])
		if length == -1 {
			length = n
		} else if n != length {
			return nil, fmt.Errorf("column %q has %d samples, expected %d", name, n, length)
		}
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRecording, path)
	}

	return &Recording{
		Path:    path,
		Format:  "memory",
		Columns: columns,
		Length:  length,
	}, nil
}

// Column returns the samples of a named column
func (r *Recording) Column(name string) ([]float64, error) {
	col, ok := r.Columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, name, r.Path)
	}
	return col, nil
}

// ColumnNames returns the available column names in sorted order
func (r *Recording) ColumnNames() []string {
	return slices.Sorted(maps.Keys(r.Columns))
}
