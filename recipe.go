package factory

import (
	"fmt"
)

// Rule computes attributes. It receives the Generator of the current terminal call
// and a copy of all attributes accumulated by the recipes applied before it.
type Rule func(fake *Generator, attrs Attributes) Attributes

// Recipe is a single contribution of attributes to an entity.
// It is either static, returning the same mapping on every build,
// or computed, calling a Rule on every build.
//
// A Recipe is immutable. The zero value contributes nothing.
type Recipe struct {
	static Attributes
	rule   Rule
}

// Static returns a Recipe always contributing attrs.
func Static(attrs Attributes) Recipe {
	return Recipe{static: attrs.Clone(), rule: nil}
}

// Computed returns a Recipe calling rule on every build.
func Computed(rule Rule) Recipe {
	return Recipe{static: nil, rule: rule}
}

// NewRecipe creates a Recipe from a static mapping or a rule function.
// Supported are Attributes, map[string]any, Rule and the plain function signatures of Rule.
// Everything else returns ErrInvalidRecipe.
func NewRecipe(recipe any) (Recipe, error) {
	switch r := recipe.(type) {
	case Recipe:
		return r, nil
	case Attributes:
		return Static(r), nil
	case map[string]any:
		return Static(r), nil
	case Rule:
		if r == nil {
			return Recipe{}, fmt.Errorf("%w: rule is nil", ErrInvalidRecipe)
		}

		return Computed(r), nil
	case func(*Generator, Attributes) Attributes:
		if r == nil {
			return Recipe{}, fmt.Errorf("%w: rule is nil", ErrInvalidRecipe)
		}

		return Computed(r), nil
	case func(*Generator, map[string]any) map[string]any:
		if r == nil {
			return Recipe{}, fmt.Errorf("%w: rule is nil", ErrInvalidRecipe)
		}

		return Computed(func(fake *Generator, attrs Attributes) Attributes {
			return r(fake, attrs)
		}), nil
	default:
		return Recipe{}, fmt.Errorf("%w: recipe must be attributes or a rule, got: %T", ErrInvalidRecipe, recipe)
	}
}

// IsComputed reports whether the recipe calls a Rule.
func (r Recipe) IsComputed() bool {
	return r.rule != nil
}

// Resolve returns the attributes this recipe contributes.
// A static recipe ignores its arguments and returns a copy of its mapping,
// a computed one gets a copy of accumulated, so the rule cannot change attributes of earlier recipes in place.
func (r Recipe) Resolve(fake *Generator, accumulated Attributes) Attributes {
	if r.rule == nil {
		return r.static.Clone()
	}

	return r.rule(fake, accumulated.Clone())
}
