package aassert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/factory/aassert"
)

func TestNumFields(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		entity any
		n      int
		pass   bool
	}{
		"nil":              {nil, 0, false},
		"bool":             {false, 0, false},
		"string":           {"", 0, false},
		"slice":            {[]int{}, 0, false},
		"simple struct":    {address{}, 2, true},
		"simple miscount":  {address{}, 1337, false},
		"ptr to struct":    {&address{}, 2, true},
		"nested structs":   {user{}, 9, true},
		"embedded private": {withEmbedded{}, 3, true},
		"self referencing": {node{}, 2, true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pass := aassert.NumFields(new(testing.T), tt.n, tt.entity)
			// pass = aassert.NumFields(t, tt.n, tt.entity) // uncomment to see t.Log() output from the assertion function.
			assert.Equal(t, tt.pass, pass)
		})
	}
}

type (
	address struct {
		Street string
		City   string
		zip    string //nolint:unused
	}
	user struct {
		ID        int
		Name      string
		Home      address            // 1 + 2
		Tags      []string           // 1
		Addresses map[string]address // 1 + 2
		secret    string             //nolint:unused
	}
	audit struct {
		CreatedBy string
	}
	withEmbedded struct {
		audit
		Name  string
		Title string
	}
	node struct {
		Value string
		Next  *node
	}
)
