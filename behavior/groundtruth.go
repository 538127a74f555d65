package behavior

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Interval is one annotated behavior bout: frames in [Start, End) of every
// experiment whose path contains Selector carry Label.
type Interval struct {
	Start    int    `yaml:"start" json:"start"`
	End      int    `yaml:"end" json:"end"`
	Label    Label  `yaml:"label" json:"label"`
	Selector string `yaml:"selector" json:"selector"`
}

// Applies reports whether the interval is selected for the experiment at path
func (iv Interval) Applies(path string) bool {
	return strings.Contains(path, iv.Selector)
}

// Contains reports whether frame lies in [Start, End)
func (iv Interval) Contains(frame int) bool {
	return iv.Start <= frame && frame < iv.End
}

// EdgeDistance returns the distance from frame to the nearer interval edge
func (iv Interval) EdgeDistance(frame int) int {
	return min(abs(frame-iv.Start), abs(frame-iv.End))
}

func (iv Interval) validate() error {
	if iv.End <= iv.Start {
		return fmt.Errorf("interval [%d, %d) is empty", iv.Start, iv.End)
	}
	if !iv.Label.IsGroundTruth() {
		return fmt.Errorf("%w: %q is not a ground-truth class", ErrUnknownLabel, iv.Label)
	}
	return nil
}

type groundTruthFile struct {
	Intervals []Interval `yaml:"intervals"`
}

// ParseGroundTruth decodes a YAML document of the form
//
//	intervals:
//	  - {start: 1200, end: 3400, label: lean_forward, selector: session_03}
func ParseGroundTruth(data []byte) ([]Interval, error) {
	var doc groundTruthFile
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ground truth: %w", err)
	}

	for i, iv := range doc.Intervals {
		if err := iv.validate(); err != nil {
			return nil, fmt.Errorf("ground truth interval %d: %w", i, err)
		}
	}

	return doc.Intervals, nil
}

// LoadGroundTruth reads and parses a ground-truth YAML file
func LoadGroundTruth(path string) ([]Interval, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ground truth: %w", err)
	}
	return ParseGroundTruth(data)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
