package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel_RoundTripsNames(t *testing.T) {
	for label, name := range labelNames {
		parsed, err := ParseLabel(name)
		require.NoError(t, err)
		assert.Equal(t, label, parsed)
		assert.Equal(t, name, label.String())
	}

	parsed, err := ParseLabel("  Lean_Forward ")
	require.NoError(t, err)
	assert.Equal(t, LeanForward, parsed)

	_, err = ParseLabel("jumping")
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestLabel_IsGroundTruth(t *testing.T) {
	assert.False(t, None.IsGroundTruth())
	assert.False(t, Rest.IsGroundTruth())
	assert.False(t, Boundary.IsGroundTruth())
	assert.True(t, Upright.IsGroundTruth())
	assert.True(t, TiltRight.IsGroundTruth())
	assert.False(t, Label(99).IsGroundTruth())
	assert.Equal(t, "label(99)", Label(99).String())
}

func TestLabel_TextMarshaling(t *testing.T) {
	text, err := TiltLeft.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "tilt_left", string(text))

	var l Label
	require.NoError(t, l.UnmarshalText([]byte("rest")))
	assert.Equal(t, Rest, l)
	assert.Error(t, l.UnmarshalText([]byte("nope")))
}
