package factory

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Blueprint is the untyped definition of a factory, registered under a name.
type Blueprint struct {
	// DefaultAttributes are the static defaults.
	DefaultAttributes Attributes

	// DefaultRule computes defaults, its result overwrites DefaultAttributes.
	DefaultRule Rule

	// Recipes are applied after the defaults, in order.
	Recipes []Recipe

	// Fillable restricts the attribute keys, nil allows all.
	Fillable []string

	// Build constructs the entity from the final attributes.
	// If it is nil, the attributes are assigned onto the entity's fields.
	Build func(attrs Attributes) (any, error)
}

// Defaults makes a Blueprint a Definition for any type.
func (bp Blueprint) Defaults(fake *Generator) Attributes {
	attrs := bp.DefaultAttributes.Clone()

	if bp.DefaultRule != nil {
		attrs.Merge(bp.DefaultRule(fake, attrs.Clone()))
	}

	return attrs
}

// Registry maps names to Blueprints.
// It is meant to be populated once, e.g. in TestMain or an init func, and read by the tests.
type Registry struct {
	mu         sync.RWMutex
	blueprints map[string]Blueprint
}

func NewRegistry() *Registry {
	return &Registry{
		mu:         sync.RWMutex{},
		blueprints: map[string]Blueprint{},
	}
}

// DefaultRegistry is the process wide Registry used by Define and Lookup.
var DefaultRegistry = NewRegistry() //nolint:gochecknoglobals // registry is populated at startup

// Register adds bp under name. Names are unique.
func (r *Registry) Register(name string, bp Blueprint) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.blueprints[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, name)
	}

	r.blueprints[name] = bp

	return nil
}

// MustRegister is like Register but panics on an error.
func (r *Registry) MustRegister(name string, bp Blueprint) {
	if err := r.Register(name, bp); err != nil {
		panic(err)
	}
}

// Lookup returns the Blueprint registered under name.
func (r *Registry) Lookup(name string) (Blueprint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bp, ok := r.blueprints[name]
	if !ok {
		return Blueprint{}, fmt.Errorf("%w: %s", ErrNotDefined, name)
	}

	return bp, nil
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.blueprints))
}

// Define registers bp under name in the DefaultRegistry.
func Define(name string, bp Blueprint) error {
	return DefaultRegistry.Register(name, bp)
}

// Lookup returns the Blueprint registered under name in the DefaultRegistry.
func Lookup(name string) (Blueprint, error) {
	return DefaultRegistry.Lookup(name)
}

// Names returns all names registered in the DefaultRegistry.
func Names() []string {
	return DefaultRegistry.Names()
}

// Named returns a Factory for E, configured by the Blueprint registered as name.
// If reg is nil, the DefaultRegistry is used.
func Named[E any](reg *Registry, name string, opts ...Option) (*Factory[E], error) {
	if reg == nil {
		reg = DefaultRegistry
	}

	bp, err := reg.Lookup(name)
	if err != nil {
		return nil, err
	}

	base := blueprintOptions(bp)

	if bp.Build != nil {
		base = append(base, WithBuilder(func(attrs Attributes) (E, error) {
			v, err := bp.Build(attrs)
			if err != nil {
				return *new(E), err
			}

			entity, ok := v.(E)
			if !ok {
				return *new(E), fmt.Errorf("%w: factory %s built %T, expected %T", ErrBuildType, name, v, *new(E))
			}

			return entity, nil
		}))
	}

	f := New[E](bp, append(base, opts...)...)
	f.recipes = append(f.recipes, bp.Recipes...)

	return f, nil
}

// NewAttributesFactory returns a Factory for the Blueprint, whose entities are the attributes themselves.
func NewAttributesFactory(bp Blueprint, opts ...Option) *Factory[Attributes] {
	base := append(blueprintOptions(bp), WithBuilder(func(attrs Attributes) (Attributes, error) {
		return attrs.Clone(), nil
	}))

	f := New[Attributes](bp, append(base, opts...)...)
	f.recipes = append(f.recipes, bp.Recipes...)

	return f
}

func blueprintOptions(bp Blueprint) []Option {
	if len(bp.Fillable) == 0 {
		return []Option{}
	}

	return []Option{WithFillable(bp.Fillable...)}
}
