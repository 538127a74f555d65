package behavior

// Evidence is everything known about one frame when its label is decided
type Evidence struct {
	GroundTruth Label // None when no interval selected the frame
	Rest        bool
	Boundary    bool
}

// Decide resolves a frame's label with fixed precedence:
// boundary over rest over ground truth over none.
func Decide(ev Evidence) Label {
	switch {
	case ev.Boundary:
		return Boundary
	case ev.Rest:
		return Rest
	case ev.GroundTruth != None:
		return ev.GroundTruth
	default:
		return None
	}
}

// Labeler assigns one behavior label per frame of an experiment
type Labeler struct {
	clipLen   int
	boundLen  int
	intervals []Interval
}

// NewLabeler creates a labeler.
//
// clipLen sets both the experiment-edge margin (clipLen/2) inside which no
// ground truth is assigned and the dead zone (clipLen/3) around interval
// edges. boundLen is the width of the boundary band at each experiment edge.
func NewLabeler(clipLen, boundLen int, intervals []Interval) *Labeler {
	return &Labeler{
		clipLen:   clipLen,
		boundLen:  boundLen,
		intervals: intervals,
	}
}

// GroundTruth returns the annotated label of frame in an experiment of
// `frames` frames at path, or None.
//
// The frame is treated as the midpoint of a clip of clipLen frames: it is
// eligible only when the whole clip fits inside the experiment, it lies in
// [Start, End) of a selected interval, and it is more than clipLen/3 frames
// from both interval edges. When several intervals qualify the last one wins.
func (l *Labeler) GroundTruth(path string, frame, frames int) Label {
	half := l.clipLen / 2
	if frame < half || frame >= frames-half {
		return None
	}

	deadZone := l.clipLen / 3
	label := None
	for _, iv := range l.intervals {
		if !iv.Applies(path) || !iv.Contains(frame) {
			continue
		}
		if iv.EdgeDistance(frame) > deadZone {
			label = iv.Label
		}
	}
	return label
}

// IsBoundary reports whether frame is within boundLen of either end of an
// experiment with `frames` frames. A zero width marks nothing.
func (l *Labeler) IsBoundary(frame, frames int) bool {
	if l.boundLen <= 0 {
		return false
	}
	return frame < l.boundLen || frame >= frames-l.boundLen
}

// BoundaryMask returns IsBoundary for every frame
func (l *Labeler) BoundaryMask(frames int) []bool {
	mask := make([]bool, frames)
	for f := range mask {
		mask[f] = l.IsBoundary(f, frames)
	}
	return mask
}

// Label decides every frame of the experiment at path given its rest mask.
// The result has len(rest) entries.
func (l *Labeler) Label(path string, rest []bool) []Label {
	frames := len(rest)
	labels := make([]Label, frames)
	for f := range frames {
		labels[f] = Decide(Evidence{
			GroundTruth: l.GroundTruth(path, f, frames),
			Rest:        rest[f],
			Boundary:    l.IsBoundary(f, frames),
		})
	}
	return labels
}
