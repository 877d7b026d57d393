package definition_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/factory"
	"github.com/go-arrower/factory/definition"
)

type user struct {
	ID    string
	Name  string
	Email string
	Role  string
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("load factories", func(t *testing.T) {
		t.Parallel()

		defs, err := definition.LoadFile("testdata/factories.yaml")
		require.NoError(t, err)

		assert.Equal(t, []string{"product", "user"}, defs.Names())
		assert.Equal(t, []string{"name", "email", "role", "id"}, defs["user"].Fillable)
		assert.Len(t, defs["user"].Recipes, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := definition.LoadFile("testdata/missing.yaml")
		assert.ErrorIs(t, err, definition.ErrInvalidDefinition)
	})
}

func TestDefinitions_Register(t *testing.T) {
	t.Parallel()

	defs, err := definition.LoadFile("testdata/factories.yaml")
	require.NoError(t, err)

	reg := factory.NewRegistry()
	require.NoError(t, defs.Register(reg))

	assert.Equal(t, []string{"product", "user"}, reg.Names())

	t.Run("build entity with templates", func(t *testing.T) {
		t.Parallel()

		f, err := factory.Named[*user](reg, "user")
		require.NoError(t, err)

		res, err := f.Make()
		require.NoError(t, err)

		u := res.One()
		assert.NoError(t, uuid.Validate(u.ID))
		assert.NotEmpty(t, u.Name)
		assert.Equal(t, strings.ReplaceAll(strings.ToLower(u.Name), " ", ".")+"@example.com", u.Email)
		assert.Equal(t, "admin", u.Role, "recipes overwrite defaults")
	})

	t.Run("templates in defaults see static defaults", func(t *testing.T) {
		t.Parallel()

		bp, err := reg.Lookup("product")
		require.NoError(t, err)

		res, err := factory.NewAttributesFactory(bp).Make()
		require.NoError(t, err)

		assert.Equal(t, 42, res.One()["price"])
		assert.Equal(t, "SKU-42", res.One()["sku"])
		assert.NotEmpty(t, res.One()["title"])
	})

	t.Run("seeded factories are reproducible", func(t *testing.T) {
		t.Parallel()

		bp, err := reg.Lookup("product")
		require.NoError(t, err)

		first, err := factory.NewAttributesFactory(bp, factory.WithSeed(3)).Times(3).Attributes()
		require.NoError(t, err)

		second, err := factory.NewAttributesFactory(bp, factory.WithSeed(3)).Times(3).Attributes()
		require.NoError(t, err)

		assert.Equal(t, first.Collection(), second.Collection())
	})

	t.Run("register twice", func(t *testing.T) {
		t.Parallel()

		err := defs.Register(reg)
		assert.ErrorIs(t, err, factory.ErrAlreadyDefined)
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		doc string
		err error
	}{
		"static only": {
			doc: "factories:\n  item:\n    defaults:\n      label: item\n",
		},
		"wildcard fillable": {
			doc: "factories:\n  item:\n    fillable: ['*']\n    defaults:\n      label: item\n",
		},
		"empty document": {
			doc: "",
			err: definition.ErrInvalidDefinition,
		},
		"no factories": {
			doc: "factories: {}\n",
			err: definition.ErrInvalidDefinition,
		},
		"unknown key": {
			doc: "factories:\n  item:\n    default:\n      label: item\n",
			err: definition.ErrInvalidDefinition,
		},
		"invalid template": {
			doc: "factories:\n  item:\n    defaults:\n      label: '{{ .label '\n",
			err: definition.ErrInvalidDefinition,
		},
		"unknown function": {
			doc: "factories:\n  item:\n    defaults:\n      label: '{{ notAFunction }}'\n",
			err: definition.ErrInvalidDefinition,
		},
		"not fillable": {
			doc: "factories:\n  item:\n    fillable: [label]\n    recipes:\n      - id: 1\n",
			err: definition.ErrInvalidDefinition,
		},
		"template reads sibling template": {
			doc: "factories:\n  item:\n    defaults:\n      name: '{{ fakeName }}'\n      email: '{{ .name | lower }}@example.com'\n",
		},
		"template reads missing key": {
			doc: "factories:\n  item:\n    defaults:\n      email: '{{ .name | lower }}@example.com'\n",
			err: definition.ErrInvalidDefinition,
		},
		"template fails to execute": {
			doc: "factories:\n  item:\n    defaults:\n      count: 3\n      label: '{{ .count | lower }}'\n",
			err: definition.ErrInvalidDefinition,
		},
		"templates read each other": {
			doc: "factories:\n  item:\n    defaults:\n      a: '{{ .b }}'\n      b: '{{ .a }}'\n",
			err: definition.ErrInvalidDefinition,
		},
		"recipe reads missing key": {
			doc: "factories:\n  item:\n    recipes:\n      - label: '{{ .name }}'\n",
			err: definition.ErrInvalidDefinition,
		},
		"invalid yaml": {
			doc: "factories: [",
			err: definition.ErrInvalidDefinition,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			defs, err := definition.Load(strings.NewReader(tt.doc))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, defs)
		})
	}
}

func TestLoad_siblingTemplates(t *testing.T) {
	t.Parallel()

	doc := `
factories:
  user:
    defaults:
      email: '{{ .name | lower | replace " " "." }}@{{ .domain }}'
      name: '{{ fakeName }}'
      domain: example.com
    recipes:
      - greeting: 'Hello {{ .nick }}'
        nick: '{{ .name | lower | trunc 3 }}'
`

	defs, err := definition.Load(strings.NewReader(doc))
	require.NoError(t, err)

	res, err := factory.NewAttributesFactory(defs["user"], factory.WithSeed(7)).Times(5).Attributes()
	require.NoError(t, err)

	for _, attrs := range res.Collection().All() {
		name := attrs["name"].(string)
		nick := strings.ToLower(name)[:3]

		assert.Equal(t, strings.ReplaceAll(strings.ToLower(name), " ", ".")+"@example.com", attrs["email"],
			"a template sees the template of its mapping, it reads")
		assert.Equal(t, nick, attrs["nick"])
		assert.Equal(t, "Hello "+nick, attrs["greeting"])
	}
}
