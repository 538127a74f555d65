package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		" error ": ErrorLevel,
		"fatal":   FatalLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDefaultLogger_RoutesByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &errOut)
	logger.SetLevel(DebugLevel)

	logger.Debug("debug line")
	logger.Info("info line", Fields{"frames": 800})
	logger.Warn("warn line")
	logger.Error(errors.New("boom"), "error line")

	assert.Contains(t, out.String(), "[DEBUG] debug line")
	assert.Contains(t, out.String(), "[INFO] info line frames=800")
	assert.NotContains(t, out.String(), "warn line")
	assert.Contains(t, errOut.String(), "[WARN] warn line")
	assert.Contains(t, errOut.String(), "[ERROR] error line: boom")
}

func TestDefaultLogger_LevelFilter(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &errOut)
	logger.SetLevel(WarnLevel)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "shown")
}

func TestDefaultLogger_FieldsAreSortedAndInherited(t *testing.T) {
	var out bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &out).
		WithFields(Fields{"component": "smoother"}).
		WithFields(Fields{"b": 2, "a": 1})

	logger.Info("msg")
	assert.Contains(t, out.String(), "[INFO] msg a=1 b=2 component=smoother")
}

func TestDefaultLogger_WithContext(t *testing.T) {
	var out bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &out)

	ctx := ContextWithFields(context.Background(), Fields{"run_id": "abc"})
	logger.WithContext(ctx).Info("started")
	assert.Contains(t, out.String(), "run_id=abc")

	assert.Same(t, Logger(logger), logger.WithContext(context.Background()))
}

func TestDefaultLogger_FatalExits(t *testing.T) {
	var out bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &out)
	code := -1
	logger.exit = func(c int) { code = c }

	logger.Fatal(errors.New("bad"), "halting")
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "[FATAL] halting: bad")
}

func TestSetGlobalLogger_NilInstallsNoOp(t *testing.T) {
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
