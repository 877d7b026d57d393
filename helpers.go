package factory

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Sequence sets key to format with an increasing number, starting at 1,
// e.g. Sequence("email", "user-%d@example.com").
// The counter is part of the returned Recipe, add it to a factory once to count across all its builds.
func Sequence(key string, format string) Recipe {
	var n atomic.Int64

	if !strings.Contains(format, "%") {
		format += "%d"
	}

	return Computed(func(_ *Generator, _ Attributes) Attributes {
		return Attributes{key: fmt.Sprintf(format, n.Add(1))}
	})
}

// UUID sets key to a new random UUID string.
func UUID(key string) Recipe {
	return Computed(func(_ *Generator, _ Attributes) Attributes {
		return Attributes{key: uuid.New().String()}
	})
}

// ULID sets key to a new, monotonically sortable ULID string.
func ULID(key string) Recipe {
	return Computed(func(_ *Generator, _ Attributes) Attributes {
		return Attributes{key: ulid.Make().String()}
	})
}

// Fake sets key to the result of a gofakeit pattern, e.g. Fake("name", "{firstname} {lastname}").
func Fake(key string, pattern string) Recipe {
	return Computed(func(fake *Generator, _ Attributes) Attributes {
		return Attributes{key: fake.Generate(pattern)}
	})
}
