package factory

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Factory. Options overwrite the hooks a Definition implements.
type Option func(*settings)

type settings struct {
	locale         string
	seed           int64
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	fillable    []string
	persister   any
	collector   any
	builder     any
	hasFillable bool
}

// WithLocale sets the locale of the Generator, default is DefaultLocale.
func WithLocale(locale string) Option {
	return func(s *settings) {
		s.locale = locale
	}
}

// WithSeed seeds the Generator of every terminal call with seed,
// so the same factory produces the same fake data on every run.
// A seed of 0, the default, seeds randomly.
func WithSeed(seed int64) Option {
	return func(s *settings) {
		s.seed = seed
	}
}

// WithLogger sets the logger, the factory logs to with alog.LevelDebug.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithTracerProvider traces Store calls and each persisted entity.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) {
		s.tracerProvider = tp
	}
}

// WithMeterProvider counts the entities built by Make and Store, and the entities persisted by Store.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *settings) {
		s.meterProvider = mp
	}
}

// WithFillable restricts the attribute keys any recipe can set.
// The single key "*" allows all attributes.
func WithFillable(keys ...string) Option {
	return func(s *settings) {
		s.fillable = keys
		s.hasFillable = true
	}
}

// WithPersister enables Store, by persisting each entity with p.
// The type parameter has to match the one of the Factory, otherwise Store returns ErrLogic.
func WithPersister[E any](p Persister[E]) Option {
	return func(s *settings) {
		s.persister = p
	}
}

// WithPersistFunc enables Store, by calling persist for each entity.
func WithPersistFunc[E any](persist func(ctx context.Context, entity E) error) Option {
	return WithPersister[E](PersistFunc[E](persist))
}

// WithCollection wraps the entities of a multiplicity other than one into a custom Collection.
func WithCollection[E any](newCollection func(entities []E) Collection[E]) Option {
	return func(s *settings) {
		s.collector = newCollection
	}
}

// WithBuilder replaces the direct field assignment with build.
// Use it for entities that are constructed best via their own constructor.
func WithBuilder[E any](build func(attrs Attributes) (E, error)) Option {
	return func(s *settings) {
		s.builder = build
	}
}

// PersistFunc is an adapter to use an ordinary function as Persister.
type PersistFunc[E any] func(ctx context.Context, entity E) error

func (f PersistFunc[E]) Persist(ctx context.Context, entity E) error {
	return f(ctx, entity)
}
