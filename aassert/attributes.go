package aassert

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/factory"
)

// Attributes asserts that every attribute in expected is set on entity.
// The fields are looked up the same way a factory assigns them,
// so unexported fields and snake_case keys are supported.
func Attributes(t *testing.T, expected factory.Attributes, entity any, msgAndArgs ...any) bool {
	t.Helper()

	ok := true

	for _, key := range expected.Keys() {
		actual, err := factory.FieldValue(entity, key)
		if err != nil {
			ok = assert.Fail(t, fmt.Sprintf("entity has no field for attribute %s: %v", key, err), msgAndArgs...)

			continue
		}

		if !assert.ObjectsAreEqualValues(expected[key], actual) {
			ok = assert.Fail(t, fmt.Sprintf("attribute %s is not equal: \n"+
				"expected: %#v\n"+
				"actual  : %#v", key, expected[key], actual), msgAndArgs...)
		}
	}

	return ok
}

// Distinct asserts that all entities are different objects.
// Use it for pointer entities built with a multiplicity above one.
func Distinct[E any](t *testing.T, entities []*E, msgAndArgs ...any) bool {
	t.Helper()

	seen := make(map[*E]int, len(entities))

	for i, e := range entities {
		if j, exists := seen[e]; exists {
			return assert.Fail(t, fmt.Sprintf("entity %d and %d are the same object", j, i), msgAndArgs...)
		}

		seen[e] = i
	}

	return true
}
