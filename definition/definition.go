// Package definition loads factories from YAML, so test data can be declared next to the fixtures it belongs to.
//
// A document lists factories by name:
//
//	factories:
//	  user:
//	    fillable: [name, email, role]
//	    defaults:
//	      name: '{{ fakeName }}'
//	      email: '{{ .name | lower | replace " " "." }}@example.com'
//	    recipes:
//	      - role: admin
//
// String values containing "{{" are text/template templates. They can use all sprig functions
// and fake, fakeName, fakeEmail, and uuid. The data of a template are the attributes
// accumulated before its mapping and the other values of its mapping, so a template can derive its value
// from earlier ones. A template is rendered after the templates of its mapping it reads,
// all others in sorted key order, so seeded factories are reproducible.
//
// Reading a missing key is an error, as is any other template failing to execute.
// Load renders each factory once, so these errors are returned as ErrInvalidDefinition.
package definition

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/go-arrower/factory"
)

var ErrInvalidDefinition = errors.New("invalid definition")

type (
	document struct {
		Factories map[string]blueprint `yaml:"factories" validate:"required,min=1,dive,keys,required,endkeys"`
	}

	blueprint struct {
		Fillable []string         `yaml:"fillable" validate:"dive,required"`
		Defaults map[string]any   `yaml:"defaults"`
		Recipes  []map[string]any `yaml:"recipes"  validate:"dive,required"`
	}
)

// Definitions are the Blueprints of a document by their name.
type Definitions map[string]factory.Blueprint

// Names returns the names of all definitions in sorted order.
func (d Definitions) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Register adds all definitions to reg, in the order of their names.
// If reg is nil, the factory.DefaultRegistry is used.
func (d Definitions) Register(reg *factory.Registry) error {
	if reg == nil {
		reg = factory.DefaultRegistry
	}

	for _, name := range d.Names() {
		if err := reg.Register(name, d[name]); err != nil {
			return fmt.Errorf("could not register %s: %w", name, err)
		}
	}

	return nil
}

// LoadFile loads the definitions of the YAML file at path.
func LoadFile(path string) (Definitions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open file: %w", ErrInvalidDefinition, err)
	}
	defer file.Close()

	return Load(file)
}

// Load loads the definitions of the YAML document in r.
// Unknown keys, templates that do not parse or execute, and attributes outside the fillable keys
// return ErrInvalidDefinition.
func Load(r io.Reader) (Definitions, error) {
	var doc document

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: could not decode yaml: %v", ErrInvalidDefinition, err) //nolint:errorlint // prevent err in api
	}

	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err) //nolint:errorlint // prevent err in api
	}

	defs := make(Definitions, len(doc.Factories))

	for name, bp := range doc.Factories {
		blueprint, err := bp.toBlueprint()
		if err != nil {
			return nil, fmt.Errorf("%w: factory %s: %v", ErrInvalidDefinition, name, err) //nolint:errorlint // prevent err in api
		}

		defs[name] = blueprint
	}

	return defs, nil
}

func (bp blueprint) toBlueprint() (factory.Blueprint, error) {
	if err := bp.checkFillable(); err != nil {
		return factory.Blueprint{}, err
	}

	defaults, err := newStep(bp.Defaults)
	if err != nil {
		return factory.Blueprint{}, fmt.Errorf("defaults: %w", err)
	}

	blueprint := factory.Blueprint{
		DefaultAttributes: defaults.static,
		DefaultRule:       nil,
		Recipes:           make([]factory.Recipe, 0, len(bp.Recipes)),
		Fillable:          bp.Fillable,
		Build:             nil,
	}

	if defaults.isComputed() {
		blueprint.DefaultRule = defaults.mustRender
	}

	recipes := make([]step, 0, len(bp.Recipes))

	for i, r := range bp.Recipes {
		s, err := newStep(r)
		if err != nil {
			return factory.Blueprint{}, fmt.Errorf("recipe %d: %w", i, err)
		}

		recipes = append(recipes, s)
		blueprint.Recipes = append(blueprint.Recipes, s.recipe())
	}

	if err := dryRun(defaults, recipes); err != nil {
		return factory.Blueprint{}, err
	}

	return blueprint, nil
}

// dryRun renders all steps once, the way a factory resolves them, with a seeded Generator.
func dryRun(defaults step, recipes []step) error {
	fake, err := factory.NewGenerator(factory.DefaultLocale, 1)
	if err != nil {
		return fmt.Errorf("could not create generator: %w", err)
	}

	attrs := defaults.static.Clone()

	rendered, err := defaults.render(fake, attrs)
	if err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	attrs.Merge(rendered)

	for i, s := range recipes {
		rendered, err := s.render(fake, attrs)
		if err != nil {
			return fmt.Errorf("recipe %d: %w", i, err)
		}

		attrs.Merge(rendered)
		attrs.Merge(s.static)
	}

	return nil
}

// checkFillable fails early, instead of on the first build.
func (bp blueprint) checkFillable() error {
	if len(bp.Fillable) == 0 || bp.Fillable[0] == "*" {
		return nil
	}

	mappings := append([]map[string]any{bp.Defaults}, bp.Recipes...)

	for _, m := range mappings {
		for key := range m {
			if !slices.Contains(bp.Fillable, key) {
				return fmt.Errorf("%s is not fillable", key)
			}
		}
	}

	return nil
}

func isTemplate(v any) bool {
	s, ok := v.(string)

	return ok && strings.Contains(s, "{{")
}
