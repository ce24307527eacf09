package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_TypedFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Info("marshalled",
		NewField("fields", 3),
		NewField("source", "people.csv"),
		NewField("quoted", true),
	)

	logs := observed.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "marshalled", logs[0].Message)

	ctx := logs[0].ContextMap()
	assert.Equal(t, int64(3), ctx["fields"])
	assert.Equal(t, "people.csv", ctx["source"])
	assert.Equal(t, true, ctx["quoted"])
}

func TestZapLogger_WithAndWithError(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core)).
		With(NewField("component", "marshaller")).
		WithError(errors.New("missing field"))

	logger.Warn("extraction failed")

	logs := observed.All()
	require.Len(t, logs, 1)
	ctx := logs[0].ContextMap()
	assert.Equal(t, "marshaller", ctx["component"])
	assert.Equal(t, "missing field", ctx["error"])
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("hidden")
	logger.Error("shown")

	assert.Equal(t, 1, observed.Len())
}

func TestFromContext(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello")
	assert.Equal(t, 1, observed.Len())

	// no logger attached falls back to a no-op logger
	assert.NotPanics(t, func() {
		FromContext(context.Background()).With(NewField("k", "v")).Error("dropped")
	})
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	assert.NotNil(t, NewLoggerFromConfig("bogus", "bogus"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}
