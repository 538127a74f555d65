package recording

import "strings"

// Side is a scalp region used to group electrodes
type Side int

const (
	Parietal Side = iota // temporoparietal sites (TP)
	Frontal              // anterior frontal sites (AF)
	Left
	Right
)

// Sides lists every Side in declaration order
var Sides = []Side{Parietal, Frontal, Left, Right}

func (s Side) String() string {
	switch s {
	case Parietal:
		return "parietal"
	case Frontal:
		return "frontal"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Layout is the fixed electrode montage of the headband.
// Electrode order defines row order in every electrode x time matrix.
type Layout struct {
	Electrodes []string
}

// DefaultElectrodes are the raw channels exported by the four-electrode headband
var DefaultElectrodes = []string{"RAW_TP9", "RAW_AF7", "RAW_AF8", "RAW_TP10"}

// NewLayout creates a layout over the given electrode column names
func NewLayout(electrodes []string) *Layout {
	return &Layout{Electrodes: append([]string(nil), electrodes...)}
}

// DefaultLayout returns the headband's default montage
func DefaultLayout() *Layout {
	return NewLayout(DefaultElectrodes)
}

// NumElectrodes returns the electrode count
func (l *Layout) NumElectrodes() int {
	return len(l.Electrodes)
}

// site strips the export prefix: "RAW_TP9" -> "TP9"
func site(name string) string {
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Is reports whether electrode i lies on the given side.
// 10-20 convention: odd site numbers are left, even are right.
func (l *Layout) Is(i int, side Side) bool {
	if i < 0 || i >= len(l.Electrodes) {
		return false
	}
	s := strings.ToUpper(site(l.Electrodes[i]))

	switch side {
	case Parietal:
		return strings.HasPrefix(s, "TP") || strings.HasPrefix(s, "P")
	case Frontal:
		return strings.HasPrefix(s, "AF") || strings.HasPrefix(s, "F")
	case Left, Right:
		last := s[len(s)-1]
		if last < '0' || last > '9' {
			return false
		}
		odd := (last-'0')%2 == 1
		return odd == (side == Left)
	default:
		return false
	}
}

// Mask returns Is(i, side) for every electrode
func (l *Layout) Mask(side Side) []bool {
	mask := make([]bool, len(l.Electrodes))
	for i := range mask {
		mask[i] = l.Is(i, side)
	}
	return mask
}
