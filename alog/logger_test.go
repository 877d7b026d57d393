package alog_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-arrower/factory/alog"
)

var ctx = context.Background()

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("default level is info", func(t *testing.T) {
		t.Parallel()

		logger := alog.New()

		assert.False(t, logger.Enabled(ctx, alog.LevelDebug))
		assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
		assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	})

	t.Run("change level at runtime", func(t *testing.T) {
		t.Parallel()

		logger := alog.New(alog.WithLevel(slog.LevelError))
		assert.False(t, logger.Enabled(ctx, alog.LevelDebug))

		alog.Unwrap(logger).SetLevel(alog.LevelDebug)

		assert.True(t, logger.Enabled(ctx, alog.LevelDebug))
		assert.Equal(t, alog.LevelDebug, alog.Unwrap(logger).Level())
	})

	t.Run("level is shared with groups", func(t *testing.T) {
		t.Parallel()

		logger := alog.New(alog.WithLevel(slog.LevelError))
		group := logger.WithGroup("factory")

		alog.Unwrap(logger).SetLevel(alog.LevelDebug)

		assert.True(t, group.Enabled(ctx, alog.LevelDebug))
	})

	t.Run("development logs debug", func(t *testing.T) {
		t.Parallel()

		logger := alog.NewDevelopment()
		assert.True(t, logger.Enabled(ctx, alog.LevelDebug))
	})
}

func TestNewNoop(t *testing.T) {
	t.Parallel()

	logger := alog.NewNoop()

	assert.False(t, logger.Enabled(ctx, slog.LevelError))
	assert.NotPanics(t, func() {
		logger.LogAttrs(ctx, alog.LevelDebug, "msg", slog.String("some", "attr"))
	})
	assert.Nil(t, alog.Unwrap(logger))
}

func TestNameLogLevels(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		level    slog.Level
		expected string
	}{
		"factory info":  {alog.LevelInfo, "FACTORY:INFO"},
		"factory debug": {alog.LevelDebug, "FACTORY:DEBUG"},
		"slog info":     {slog.LevelInfo, "INFO"},
		"slog error":    {slog.LevelError, "ERROR"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			attr := alog.NameLogLevels(nil, slog.Any(slog.LevelKey, tt.level))
			assert.Equal(t, tt.expected, attr.Value.String())
		})
	}
}

func TestAddAttrs(t *testing.T) {
	t.Parallel()

	t.Run("empty ctx has no attrs", func(t *testing.T) {
		t.Parallel()

		attrs := alog.FromContext(ctx)
		assert.NotNil(t, attrs)
		assert.Empty(t, attrs)
	})

	t.Run("add additional attributes", func(t *testing.T) {
		t.Parallel()

		ctx := alog.AddAttr(ctx, slog.String("initial", "attr"))
		ctx = alog.AddAttrs(ctx, slog.String("some", "attr"), slog.String("other", "attr"))

		assert.Len(t, alog.FromContext(ctx), 3)
	})

	t.Run("attrs are logged", func(t *testing.T) {
		t.Parallel()

		logger := alog.Test(t)

		logger.InfoContext(alog.AddAttr(ctx, slog.String("entity", "user")), "msg")

		logger.Contains("entity=user")
	})
}

func TestTraceIDs(t *testing.T) {
	t.Parallel()

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		TraceState: trace.TraceState{},
		Remote:     false,
	})

	logger := alog.Test(t)
	logger.InfoContext(trace.ContextWithSpanContext(ctx, spanCtx), "traced")

	logger.Contains("traceID=0102030405060708090a0b0c0d0e0f10")
	logger.Contains("spanID=0102030405060708")
}
