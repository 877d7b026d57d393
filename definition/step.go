package definition

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"

	"github.com/go-arrower/factory"
)

// step is one mapping of a document, its static values and its templates.
type step struct {
	static factory.Attributes

	// keys are the templates in render order, a template comes after the siblings it reads.
	keys      []string
	templates map[string]*template.Template
}

func newStep(m map[string]any) (step, error) {
	s := step{
		static:    factory.Attributes{},
		keys:      []string{},
		templates: map[string]*template.Template{},
	}

	for _, key := range slices.Sorted(maps.Keys(m)) {
		val := m[key]

		if !isTemplate(val) {
			s.static[key] = val

			continue
		}

		tmpl, err := template.New(key).
			Option("missingkey=error").
			Funcs(sprig.TxtFuncMap()).
			Funcs(fakeFuncs(nil)).
			Parse(val.(string)) //nolint:forcetypeassert // checked by isTemplate
		if err != nil {
			return step{}, fmt.Errorf("could not parse template of %s: %w", key, err)
		}

		s.templates[key] = tmpl
	}

	keys, err := renderOrder(s.templates)
	if err != nil {
		return step{}, err
	}

	s.keys = keys

	return s, nil
}

func (s step) isComputed() bool {
	return len(s.templates) > 0
}

func (s step) recipe() factory.Recipe {
	if !s.isComputed() {
		return factory.Static(s.static)
	}

	return factory.Computed(func(fake *factory.Generator, attrs factory.Attributes) factory.Attributes {
		rendered := s.mustRender(fake, attrs)
		rendered.Merge(s.static)

		return rendered
	})
}

// render executes all templates. The data of a template are attrs,
// the static values of the step, and the templates of the step rendered before it.
func (s step) render(fake *factory.Generator, attrs factory.Attributes) (factory.Attributes, error) {
	data := attrs.Clone()
	data.Merge(s.static)

	out := factory.Attributes{}
	funcs := fakeFuncs(fake)

	for _, key := range s.keys {
		tmpl, err := s.templates[key].Clone()
		if err != nil {
			return nil, fmt.Errorf("could not render %s: %w", key, err)
		}

		var sb strings.Builder

		if err := tmpl.Funcs(funcs).Execute(&sb, map[string]any(data)); err != nil {
			return nil, fmt.Errorf("could not render %s: %w", key, err)
		}

		out[key] = sb.String()
		data[key] = out[key]
	}

	return out, nil
}

// mustRender is render for a factory.Rule, which cannot return an error.
// Load renders every template once, so a panic means the attributes of a build differ from that run,
// e.g. a recipe overwrote a value with one of another type.
func (s step) mustRender(fake *factory.Generator, attrs factory.Attributes) factory.Attributes {
	out, err := s.render(fake, attrs)
	if err != nil {
		panic(fmt.Errorf("%w: %w", ErrInvalidDefinition, err))
	}

	return out
}

// renderOrder returns the keys of templates, so that each template comes after the sibling templates it reads.
// Independent templates keep their sorted order, so seeded factories stay reproducible.
func renderOrder(templates map[string]*template.Template) ([]string, error) {
	const (
		visiting = 1
		done     = 2
	)

	var (
		order = make([]string, 0, len(templates))
		state = map[string]int{}
		visit func(key string) error
	)

	visit = func(key string) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("templates read each other: %s", key)
		}

		state[key] = visiting

		refs := map[string]bool{}
		collectFields(templates[key].Tree.Root, refs)

		for _, ref := range slices.Sorted(maps.Keys(refs)) {
			// a template reading its own key gets the value of an earlier mapping
			if _, isSibling := templates[ref]; !isSibling || ref == key {
				continue
			}

			if err := visit(ref); err != nil {
				return err
			}
		}

		state[key] = done
		order = append(order, key)

		return nil
	}

	for _, key := range slices.Sorted(maps.Keys(templates)) {
		if err := visit(key); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// collectFields adds the first identifier of each field of the template, e.g. name for .name.first.
func collectFields(node parse.Node, refs map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}

		for _, c := range n.Nodes {
			collectFields(c, refs)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, refs)
	case *parse.PipeNode:
		if n == nil {
			return
		}

		for _, c := range n.Cmds {
			collectFields(c, refs)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collectFields(arg, refs)
		}
	case *parse.ChainNode:
		collectFields(n.Node, refs)
	case *parse.FieldNode:
		refs[n.Ident[0]] = true
	case *parse.IfNode:
		collectBranch(&n.BranchNode, refs)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, refs)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, refs)
	case *parse.TemplateNode:
		collectFields(n.Pipe, refs)
	}
}

func collectBranch(n *parse.BranchNode, refs map[string]bool) {
	collectFields(n.Pipe, refs)
	collectFields(n.List, refs)
	collectFields(n.ElseList, refs)
}

// fakeFuncs returns the template functions generating fake data with fake.
// A nil fake returns the same functions for parsing only.
func fakeFuncs(fake *factory.Generator) template.FuncMap {
	return template.FuncMap{
		"fake": func(pattern string) string {
			return fake.Generate(pattern)
		},
		"fakeName": func() string {
			return fake.Name()
		},
		"fakeEmail": func() string {
			return fake.Email()
		},
		"uuid": func() string {
			return fake.UUID()
		},
	}
}
