package aassert

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// NumFields asserts that the given entity struct
// does have expected number of public fields.
// Public fields of nested and embedded structs are counted as well,
// also if they are behind a pointer, in a slice, array, or a map value.
//
// Pin the field count of an entity next to its factory test,
// so adding a field reminds you to update the factory.
func NumFields(t *testing.T, expected int, entity any, msgAndArgs ...any) bool {
	t.Helper()

	typ := reflect.TypeOf(entity)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ == nil || typ.Kind() != reflect.Struct {
		return assert.Fail(t, "invalid argument, it has to be a struct", msgAndArgs...)
	}

	fields := countFields(typ, map[reflect.Type]bool{})
	if fields != expected {
		t.Log("!!! !!! !!! !!! !!! !!! !!! !!! !!!")
		t.Log("INFO: The number of public fields of the entity: `" + typ.String() + "` changed.")
		t.Log("INFO: The factory of this entity might be outdated:")
		t.Log("      - ensure the defaults set all required fields")
		t.Log("      - ensure the fillable keys include the new fields")
		t.Log("      - ensure recipes do not set fields that got removed")
		t.Log("=> Inspect the factory definition of the entity.")
		t.Log("=> Manually correct the calling test case: `" + t.Name() + "` to the right expected count.")
		t.Log("!!! !!! !!! !!! !!! !!! !!! !!! !!!")

		return assert.Fail(t, fmt.Sprintf("struct changed, it has: %d fields, expected: %d", fields, expected), msgAndArgs...)
	}

	return true
}

// countFields counts the exported fields of typ.
// visiting prevents endless recursion of self referencing types.
func countFields(typ reflect.Type, visiting map[reflect.Type]bool) int {
	for typ.Kind() == reflect.Ptr || typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array || typ.Kind() == reflect.Map {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct || visiting[typ] {
		return 0
	}

	visiting[typ] = true
	defer delete(visiting, typ)

	var fields int

	for i := range typ.NumField() {
		field := typ.Field(i)

		if !field.IsExported() && !field.Anonymous {
			continue
		}

		if field.IsExported() {
			fields++
		}

		fields += countFields(field.Type, visiting)
	}

	return fields
}
