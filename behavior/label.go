package behavior

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLabel is returned when a label name does not match any Label
var ErrUnknownLabel = errors.New("behavior: unknown label")

// Label is the categorical behavior assigned to one frame
type Label int

const (
	None     Label = iota // background, nothing else fired
	Rest                  // amplitude below the automatic threshold
	Boundary              // within bound_len of an experiment edge

	// ground-truth posture classes
	Upright
	LeanForward
	LeanBackward
	TiltLeft
	TiltRight
)

var labelNames = map[Label]string{
	None:         "none",
	Rest:         "rest",
	Boundary:     "boundary",
	Upright:      "upright",
	LeanForward:  "lean_forward",
	LeanBackward: "lean_backward",
	TiltLeft:     "tilt_left",
	TiltRight:    "tilt_right",
}

func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("label(%d)", int(l))
}

// IsGroundTruth reports whether l is an annotated behavior class rather than
// one of the labels the pipeline derives itself
func (l Label) IsGroundTruth() bool {
	_, known := labelNames[l]
	return known && l > Boundary
}

// ParseLabel converts a name such as "lean_forward" to a Label
func ParseLabel(name string) (Label, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for label, labelName := range labelNames {
		if labelName == key {
			return label, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownLabel, name)
}

// MarshalText implements encoding.TextMarshaler
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// UnmarshalYAML lets ground-truth files name labels instead of numbering them
func (l *Label) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	return l.UnmarshalText([]byte(name))
}
