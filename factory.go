package factory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/go-arrower/factory/alog"
)

// Definition is what a concrete factory supplies: the default attributes of its entity E.
//
// A Definition can implement the following interfaces to change the behaviour of the Factory:
//   - Fillabler to restrict the attributes that can be set,
//   - Persister to enable Store,
//   - Collector to return a custom Collection,
//   - Builder to construct the entity instead of assigning its fields directly.
type Definition[E any] interface {
	Defaults(fake *Generator) Attributes
}

// DefaultsFunc is an adapter to use an ordinary function as Definition.
type DefaultsFunc func(fake *Generator) Attributes

func (f DefaultsFunc) Defaults(fake *Generator) Attributes {
	return f(fake)
}

// Fillabler restricts the attribute keys, a factory can set.
type Fillabler interface {
	Fillable() []string
}

// Persister persists a built entity, it is called by Store.
type Persister[E any] interface {
	Persist(ctx context.Context, entity E) error
}

// Builder constructs an entity from its attributes.
type Builder[E any] interface {
	Build(attrs Attributes) (E, error)
}

// unrestricted is the fillable sentinel, allowing every key.
const unrestricted = "*"

const instrumentationName = "github.com/go-arrower/factory"

// New returns a Factory for entities of type E, based on def.
//
// A Factory is not safe for concurrent use. Create one per test
// and configure it, before calling one of the terminal methods Make, Store, or Attributes.
func New[E any](def Definition[E], opts ...Option) *Factory[E] {
	conf := settings{
		locale:         DefaultLocale,
		seed:           0,
		logger:         alog.NewNoop(),
		tracerProvider: noop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}

	for _, opt := range opts {
		opt(&conf)
	}

	meter := conf.meterProvider.Meter(instrumentationName)
	built, _ := meter.Int64Counter("factory.entities.built", metric.WithDescription("entities built by factories"))
	persisted, _ := meter.Int64Counter("factory.entities.persisted", metric.WithDescription("entities persisted by factories"))

	factory := &Factory[E]{
		def:           def,
		times:         1,
		recipes:       []Recipe{},
		fillableCache: map[string]bool{},
		locale:        conf.locale,
		seed:          conf.seed,
		logger:        conf.logger,
		tracer:        conf.tracerProvider.Tracer(instrumentationName),
		built:         built,
		persisted:     persisted,
		persist:       nil,
		collect:       newSlice[E],
		build:         nil,
		err:           nil,
	}

	if def == nil {
		factory.err = fmt.Errorf("%w: factory has no definition", ErrLogic)

		return factory
	}

	factory.fillable = func() []string { return []string{unrestricted} }
	if f, ok := def.(Fillabler); ok {
		factory.fillable = f.Fillable
	}

	if conf.hasFillable {
		keys := slices.Clone(conf.fillable)
		factory.fillable = func() []string { return keys }
	}

	factory.applyHooks(conf)

	return factory
}

// Start is an alias of New, reading naturally at the beginning of a chain:
//
//	users, err := factory.Start(def).Times(3).Make()
func Start[E any](def Definition[E], opts ...Option) *Factory[E] {
	return New(def, opts...)
}

// Factory builds populated entities of type E for tests.
//
// The attributes of each entity are resolved by merging in order:
// the defaults of the Definition, all recipes in the order they were added,
// and the attributes given to the terminal call. Later values overwrite earlier ones.
type Factory[E any] struct {
	def     Definition[E]
	recipes []Recipe
	times   int

	// fillableCache memorises if a key is fillable, the fillable keys never change.
	fillableCache map[string]bool
	fillable      func() []string

	locale string
	seed   int64
	logger *slog.Logger
	tracer trace.Tracer

	built     metric.Int64Counter
	persisted metric.Int64Counter

	persist func(ctx context.Context, entity E) error
	collect func(entities []E) Collection[E]
	build   func(attrs Attributes) (E, error)

	// err is a configuration error returned by the next terminal call.
	err error
}

func (f *Factory[E]) applyHooks(conf settings) {
	if p, ok := f.def.(Persister[E]); ok {
		f.persist = p.Persist
	}

	if c, ok := f.def.(Collector[E]); ok {
		f.collect = c.NewCollection
	}

	if b, ok := f.def.(Builder[E]); ok {
		f.build = b.Build
	}

	if conf.persister != nil {
		p, ok := conf.persister.(Persister[E])
		if !ok {
			f.err = fmt.Errorf("%w: persister does not persist entities of type %T", ErrLogic, *new(E))
		} else {
			f.persist = p.Persist
		}
	}

	if conf.collector != nil {
		c, ok := conf.collector.(func([]E) Collection[E])
		if !ok {
			f.err = fmt.Errorf("%w: collection does not collect entities of type %T", ErrLogic, *new(E))
		} else {
			f.collect = c
		}
	}

	if conf.builder != nil {
		b, ok := conf.builder.(func(Attributes) (E, error))
		if !ok {
			f.err = fmt.Errorf("%w: builder does not build entities of type %T", ErrLogic, *new(E))
		} else {
			f.build = b
		}
	}
}

// Times sets how many entities the next terminal call builds.
// If n is not positive, the terminal call returns ErrOutOfRange.
func (f *Factory[E]) Times(n int) *Factory[E] {
	if err := f.SetTimes(n); err != nil {
		f.err = err
	}

	return f
}

// SetTimes sets how many entities the next terminal call builds.
func (f *Factory[E]) SetTimes(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: times must be a positive number, but given: %d", ErrOutOfRange, n)
	}

	f.times = n

	return nil
}

// AddRecipe appends a recipe, see NewRecipe for what is accepted.
// Recipes are applied in the order they are added.
func (f *Factory[E]) AddRecipe(recipe any) error {
	r, err := NewRecipe(recipe)
	if err != nil {
		return err
	}

	f.recipes = append(f.recipes, r)

	return nil
}

// MustAddRecipe is like AddRecipe but panics on an invalid recipe.
// Use it in the constructors of your factories, where an invalid recipe is a programming error.
func (f *Factory[E]) MustAddRecipe(recipe any) {
	if err := f.AddRecipe(recipe); err != nil {
		panic(err)
	}
}

// With appends the recipe and returns the factory for chaining.
func (f *Factory[E]) With(recipe Recipe) *Factory[E] {
	f.recipes = append(f.recipes, recipe)

	return f
}

// Make builds the entities without persisting them.
func (f *Factory[E]) Make(attrs ...Attributes) (Result[E], error) {
	entities, err := f.makeEntities(context.Background(), mergeAll(attrs))
	if err != nil {
		return Result[E]{}, err
	}

	return f.result(entities), nil
}

// Store builds the entities and persists each of them, in the order they are built.
// If the factory cannot persist, it returns ErrLogic without building anything.
func (f *Factory[E]) Store(ctx context.Context, attrs ...Attributes) (Result[E], error) {
	ctx, span := f.tracer.Start(ctx, "factory.store", trace.WithAttributes(
		attribute.String("entity", fmt.Sprintf("%T", *new(E))),
		attribute.Int("times", f.times),
	))
	defer span.End()

	if f.err == nil && f.persist == nil {
		err := fmt.Errorf("%w: the factory for %T cannot store, it has no persister", ErrLogic, *new(E))
		span.SetStatus(codes.Error, err.Error())

		return Result[E]{}, err
	}

	entities, err := f.makeEntities(ctx, mergeAll(attrs))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return Result[E]{}, err
	}

	for i, entity := range entities {
		if err := f.persistEntity(ctx, i, entity); err != nil {
			span.SetStatus(codes.Error, err.Error())

			return Result[E]{}, err
		}
	}

	return f.result(entities), nil
}

func (f *Factory[E]) persistEntity(ctx context.Context, i int, entity E) error {
	ctx, span := f.tracer.Start(ctx, "factory.persist", trace.WithAttributes(attribute.Int("index", i)))
	defer span.End()

	f.logger.LogAttrs(ctx, alog.LevelDebug, "persist entity",
		slog.String("entity", fmt.Sprintf("%T", entity)),
		slog.Int("index", i),
	)

	entityType := attribute.String("entity", fmt.Sprintf("%T", entity))

	if err := f.persist(ctx, entity); err != nil {
		span.SetStatus(codes.Error, err.Error())
		f.persisted.Add(ctx, 1, metric.WithAttributes(entityType, attribute.String("status", "failure")))

		return fmt.Errorf("could not persist entity %d: %w", i, err)
	}

	f.persisted.Add(ctx, 1, metric.WithAttributes(entityType, attribute.String("status", "success")))

	return nil
}

// Attributes builds only the attributes, without constructing any entity.
func (f *Factory[E]) Attributes(attrs ...Attributes) (Result[Attributes], error) {
	if f.err != nil {
		return Result[Attributes]{}, f.err
	}

	fake, err := f.generator()
	if err != nil {
		return Result[Attributes]{}, err
	}

	overrides := mergeAll(attrs)
	built := make([]Attributes, 0, f.times)

	for range f.times {
		a, err := f.buildAttributes(context.Background(), fake, overrides)
		if err != nil {
			return Result[Attributes]{}, err
		}

		built = append(built, a)
	}

	if f.times == 1 {
		return single(built[0]), nil
	}

	return multiple[Attributes](Slice[Attributes](built)), nil
}

func (f *Factory[E]) result(entities []E) Result[E] {
	if f.times == 1 {
		return single(entities[0])
	}

	c := f.collect(entities)
	if c == nil {
		c = Slice[E](entities)
	}

	return multiple(c)
}

func (f *Factory[E]) generator() (*Generator, error) {
	return NewGenerator(f.locale, f.seed)
}

// makeEntities builds times entities. All of them share one Generator,
// so their fake data is drawn from the same stream.
func (f *Factory[E]) makeEntities(ctx context.Context, overrides Attributes) ([]E, error) {
	if f.err != nil {
		return nil, f.err
	}

	fake, err := f.generator()
	if err != nil {
		return nil, err
	}

	entities := make([]E, 0, f.times)

	for range f.times {
		attrs, err := f.buildAttributes(ctx, fake, overrides)
		if err != nil {
			return nil, err
		}

		entity, err := f.makeEntity(attrs)
		if err != nil {
			return nil, err
		}

		entities = append(entities, entity)
	}

	f.logger.LogAttrs(ctx, alog.LevelDebug, "make entity",
		slog.String("entity", fmt.Sprintf("%T", *new(E))),
		slog.Int("times", f.times),
	)
	f.built.Add(ctx, int64(len(entities)), metric.WithAttributes(attribute.String("entity", fmt.Sprintf("%T", *new(E)))))

	return entities, nil
}

func (f *Factory[E]) makeEntity(attrs Attributes) (E, error) { //nolint:ireturn // valid use of generics
	if f.build != nil {
		return f.build(attrs)
	}

	entity := newEntity[E]()
	if err := inject(&entity, attrs); err != nil {
		return *new(E), err
	}

	return entity, nil
}

// buildAttributes resolves the recipes in order of precedence.
// Each recipe sees the attributes accumulated by all recipes before it.
func (f *Factory[E]) buildAttributes(ctx context.Context, fake *Generator, overrides Attributes) (Attributes, error) {
	recipes := make([]Recipe, 0, len(f.recipes)+2) //nolint:mnd // defaults and overrides
	recipes = append(recipes, Static(f.def.Defaults(fake)))
	recipes = append(recipes, f.recipes...)
	recipes = append(recipes, Static(overrides))

	current := Attributes{}

	for _, recipe := range recipes {
		cooked := recipe.Resolve(fake, current)

		if f.shouldCheckFillable() {
			if err := f.checkAttributes(cooked); err != nil {
				return nil, err
			}
		}

		current.Merge(cooked)
	}

	f.logger.LogAttrs(ctx, alog.LevelDebug, "build attributes",
		slog.Int("recipes", len(recipes)),
		slog.Any("keys", current.Keys()),
	)

	return current, nil
}

func (f *Factory[E]) checkAttributes(attrs Attributes) error {
	for _, key := range attrs.Keys() {
		if !f.isFillable(key) {
			return fmt.Errorf("%w: %s is not fillable", ErrInvalidAttribute, key)
		}
	}

	return nil
}

func (f *Factory[E]) isFillable(key string) bool {
	if fillable, ok := f.fillableCache[key]; ok {
		return fillable
	}

	fillable := slices.Contains(f.fillable(), key)
	f.fillableCache[key] = fillable

	return fillable
}

// shouldCheckFillable is false for the sentinel "*" and for no fillable keys at all.
func (f *Factory[E]) shouldCheckFillable() bool {
	keys := f.fillable()

	return len(keys) > 0 && keys[0] != unrestricted
}

func mergeAll(attrs []Attributes) Attributes {
	merged := Attributes{}
	for _, a := range attrs {
		merged.Merge(a)
	}

	return merged
}
