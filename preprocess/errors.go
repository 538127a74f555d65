package preprocess

import (
	"errors"

	"github.com/RyanBlaney/behav-preprocess/preprocess/config"
)

var (
	// ErrInvalidConfig is returned before any decoding when the configuration
	// is invalid, and when the resolved window [ti, tf) is empty.
	ErrInvalidConfig = config.ErrInvalidConfig

	// ErrNoExperiments is returned when no recordings are given
	ErrNoExperiments = errors.New("preprocess: no experiments")

	// ErrFrequencyMismatch is returned when experiments disagree on band centres
	ErrFrequencyMismatch = errors.New("preprocess: centre frequencies differ between experiments")

	// ErrLengthMismatch signals that the feature matrix and its index arrays diverged
	ErrLengthMismatch = errors.New("preprocess: feature and index lengths differ")

	// ErrShapeMismatch is returned when the transform changes the frame count
	ErrShapeMismatch = errors.New("preprocess: transform output shape mismatch")
)
