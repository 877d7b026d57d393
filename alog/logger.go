// Package alog is the structured logger used by factories.
//
// It is a thin layer on top of log/slog, with the aim to:
//  1. encourage the use of the methods offering context.Context, so that tracing information can be correlated,
//  2. keep the debug output of factories separate from the logs of the code under test,
//     by logging with its own levels LevelInfo and LevelDebug.
package alog

import (
	"context"
	"log/slog"
)

// Logger interface is a subset of slog.Logger.
type Logger interface {
	Log(ctx context.Context, level slog.Level, msg string, args ...any)
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WithGroup(name string) *slog.Logger
}

var _ Logger = (*slog.Logger)(nil)

const (
	// LevelInfo is used to see what a factory is building.
	LevelInfo = slog.Level(-8)

	// LevelDebug is used to see every single step of a factory, e.g. each resolved recipe.
	LevelDebug = slog.Level(-12)
)

// NameLogLevels replaces the default name of a custom log level with a speaking name for the factory levels.
func NameLogLevels(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.LevelKey {
		level, _ := attr.Value.Any().(slog.Level)

		levelLabel, exists := getLevelNames()[level]
		if !exists {
			levelLabel = level.String()
		}

		attr.Value = slog.StringValue(levelLabel)
	}

	return attr
}

// getLevelNames maps the factory log levels to human-readable names.
func getLevelNames() map[slog.Leveler]string {
	return map[slog.Leveler]string{
		LevelInfo:  "FACTORY:INFO",
		LevelDebug: "FACTORY:DEBUG",
	}
}

type ctxKey string

const ctxAttrs ctxKey = "alog.attrs"

// AddAttr adds attr to ctx, it is added to every record logged with ctx.
func AddAttr(ctx context.Context, attr slog.Attr) context.Context {
	return AddAttrs(ctx, attr)
}

// AddAttrs adds attrs to ctx, they are added to every record logged with ctx.
func AddAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing := FromContext(ctx)

	all := make([]slog.Attr, 0, len(existing)+len(attrs))
	all = append(all, existing...)
	all = append(all, attrs...)

	return context.WithValue(ctx, ctxAttrs, all)
}

// FromContext returns all attributes added to ctx.
func FromContext(ctx context.Context) []slog.Attr {
	if attrs, ok := ctx.Value(ctxAttrs).([]slog.Attr); ok {
		return attrs
	}

	return []slog.Attr{}
}
