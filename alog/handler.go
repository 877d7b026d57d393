package alog

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// LoggerOpt allows to initialise a logger with custom options.
type LoggerOpt func(h *handler)

// WithHandler adds a slog.Handler to be logged to.
// You can set as many as you want.
func WithHandler(h slog.Handler) LoggerOpt {
	return func(l *handler) {
		l.handlers = append(l.handlers, h)
	}
}

// WithLevel initialises the logger with a starting level.
// To change the level at runtime use Unwrap(logger).SetLevel(LevelInfo).
func WithLevel(level slog.Level) LoggerOpt {
	return func(l *handler) {
		l.level = &level
	}
}

// New returns a logger.
//
// If no options are given it creates a default handler, logging JSON to Stderr.
// Otherwise, use WithHandler to set your own handlers.
func New(opts ...LoggerOpt) *slog.Logger {
	return slog.New(newHandler(opts...))
}

// NewDevelopment returns a logger printing every factory step as text to Stderr.
func NewDevelopment() *slog.Logger {
	return New(
		WithLevel(LevelDebug),
		WithHandler(slog.NewTextHandler(os.Stderr, getDebugHandlerOptions())),
	)
}

// NewNoop returns a logger that performs no operations.
// It is the default of every factory.
func NewNoop() *slog.Logger {
	return slog.New(noopHandler{})
}

func newHandler(opts ...LoggerOpt) *handler {
	defaultLevel := slog.LevelInfo

	h := &handler{
		handlers: []slog.Handler{},
		level:    &defaultLevel,
	}

	for _, opt := range opts {
		opt(h)
	}

	if len(h.handlers) == 0 {
		h.handlers = []slog.Handler{slog.NewJSONHandler(os.Stderr, getDefaultHandlerOptions())}
	}

	return h
}

// handler logs to multiple handlers with one shared level.
// The level of individual handlers set via WithHandler is ignored.
type handler struct {
	level    *slog.Level
	handlers []slog.Handler
}

var _ slog.Handler = (*handler)(nil)

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= *h.level
}

func (h *handler) Handle(ctx context.Context, record slog.Record) error {
	record = addTraceAndSpanIDsToLogs(trace.SpanFromContext(ctx), record)
	record.AddAttrs(FromContext(ctx)...)

	var retErr error

	for _, sub := range h.handlers {
		err := sub.Handle(ctx, record.Clone())
		retErr = errors.Join(retErr, err)
	}

	return retErr
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))

	for i, sub := range h.handlers {
		handlers[i] = sub.WithAttrs(attrs)
	}

	return &handler{handlers: handlers, level: h.level}
}

func (h *handler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))

	for i, sub := range h.handlers {
		handlers[i] = sub.WithGroup(name)
	}

	return &handler{handlers: handlers, level: h.level}
}

// SetLevel changes the level for all handlers set with WithHandler().
// Even the ones "copied" via any WithX method.
func (h *handler) SetLevel(level slog.Level) {
	*h.level = level
}

// Level returns the log level of the handler.
func (h *handler) Level() slog.Level {
	return *h.level
}

// LevelSetter offers control over the level of a logger at run time.
type LevelSetter interface {
	SetLevel(level slog.Level)
	Level() slog.Level
}

// Unwrap returns the LevelSetter of logger.
// In case the logger was not created by this package, it returns nil.
func Unwrap(logger *slog.Logger) LevelSetter { //nolint:ireturn // hide the handler implementation
	if logger == nil {
		return nil
	}

	if h, ok := logger.Handler().(*handler); ok {
		return h
	}

	return nil
}

func addTraceAndSpanIDsToLogs(span trace.Span, record slog.Record) slog.Record {
	sCtx := span.SpanContext()

	if sCtx.HasTraceID() {
		record.AddAttrs(slog.String("traceID", sCtx.TraceID().String()))
	}

	if sCtx.HasSpanID() {
		record.AddAttrs(slog.String("spanID", sCtx.SpanID().String()))
	}

	return record
}

func getDefaultHandlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource:   true,
		Level:       LevelDebug, // the handler's level decides, every record reaching a handler is logged
		ReplaceAttr: NameLogLevels,
	}
}

// getDebugHandlerOptions is to keep the log output more readable, by removing not essential keys.
func getDebugHandlerOptions() *slog.HandlerOptions {
	opt := getDefaultHandlerOptions()
	opt.AddSource = false

	return opt
}

type noopHandler struct{}

var _ slog.Handler = (*noopHandler)(nil)

func (n noopHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (n noopHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (n noopHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return n
}

func (n noopHandler) WithGroup(_ string) slog.Handler {
	return n
}
