package factory

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"unsafe"

	"github.com/fatih/camelcase"
)

// FieldSetter can be implemented by an entity to control how a factory assigns attributes.
// Implement it on the pointer receiver, it is called on a zero value of the entity,
// so no constructor or other initialisation logic runs before.
//
// Use it to keep validation or derived fields consistent,
// otherwise a factory writes the fields directly, even unexported ones.
type FieldSetter interface {
	SetFactoryField(key string, value any) error
}

// tagName is the struct tag to name the attribute key of a field explicitly.
const tagName = "factory"

// newEntity returns the zero value of E without running any initialisation.
// If E is a pointer type, the element is allocated, so every call returns a distinct object.
func newEntity[E any]() E { //nolint:ireturn // valid use of generics
	var entity E

	typ := reflect.TypeFor[E]()
	if typ.Kind() == reflect.Ptr {
		reflect.ValueOf(&entity).Elem().Set(reflect.New(typ.Elem()))
	}

	return entity
}

// inject assigns all attrs onto entity.
// The entity has to be addressable, so inject works on a pointer to it.
func inject[E any](entity *E, attrs Attributes) error {
	if setter, ok := fieldSetterOf(entity); ok {
		for _, key := range attrs.Keys() {
			if err := setter.SetFactoryField(key, attrs[key]); err != nil {
				return fmt.Errorf("could not set field %s: %w", key, err)
			}
		}

		return nil
	}

	target, err := structValue(reflect.ValueOf(entity).Elem())
	if err != nil {
		return err
	}

	for _, key := range attrs.Keys() {
		field, err := lookupField(target, key)
		if err != nil {
			return err
		}

		if err := assign(field, key, attrs[key]); err != nil {
			return err
		}
	}

	return nil
}

func fieldSetterOf[E any](entity *E) (FieldSetter, bool) { //nolint:ireturn // capability check
	if setter, ok := any(entity).(FieldSetter); ok {
		return setter, true
	}

	// E itself is a pointer implementing the setter
	if setter, ok := any(*entity).(FieldSetter); ok {
		return setter, true
	}

	return nil, false
}

// structValue dereferences val until it reaches a settable struct.
func structValue(val reflect.Value) (reflect.Value, error) {
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: entity is a nil pointer", ErrUnknownField)
		}

		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: entity has to be a struct, got: %s", ErrUnknownField, val.Kind())
	}

	return val, nil
}

// lookupField finds the field for key in the following order:
// the struct tag `factory:"key"`, the exact field name,
// the snake_case form of the field name, and the field name ignoring case.
func lookupField(target reflect.Value, key string) (reflect.Value, error) {
	typ := target.Type()

	matchers := []func(f reflect.StructField) bool{
		func(f reflect.StructField) bool { return f.Tag.Get(tagName) == key },
		func(f reflect.StructField) bool { return f.Name == key },
		func(f reflect.StructField) bool { return SnakeCase(f.Name) == key },
		func(f reflect.StructField) bool { return strings.EqualFold(f.Name, key) },
	}

	for _, match := range matchers {
		for i := range typ.NumField() {
			if f := typ.Field(i); f.Tag.Get(tagName) != "-" && match(f) {
				return accessible(target.Field(i)), nil
			}
		}
	}

	return reflect.Value{}, fmt.Errorf("%w: %s has no field for attribute: %s", ErrUnknownField, typ, key)
}

// accessible returns a settable view of field, also if it is unexported.
func accessible(field reflect.Value) reflect.Value {
	if field.CanSet() {
		return field
	}

	return reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem() //nolint:gosec // writing unexported fields is what factories are for
}

func assign(field reflect.Value, key string, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))

		return nil
	}

	val := reflect.ValueOf(value)

	switch {
	case val.Type().AssignableTo(field.Type()):
		field.Set(val)
	case field.Kind() == reflect.Ptr && val.Type().AssignableTo(field.Type().Elem()):
		ptr := reflect.New(field.Type().Elem())
		ptr.Elem().Set(val)
		field.Set(ptr)
	case isConvertible(val, field.Type()):
		if !isLossless(val, field.Type()) {
			return fmt.Errorf("%w: attribute %s with value %v does not fit into field of type %s",
				ErrFieldType, key, value, field.Type())
		}

		field.Set(val.Convert(field.Type()))
	default:
		return fmt.Errorf("%w: attribute %s of type %s cannot be set to field of type %s",
			ErrFieldType, key, val.Type(), field.Type())
	}

	return nil
}

// isConvertible prevents surprising conversions, e.g. from an int to a string.
func isConvertible(val reflect.Value, to reflect.Type) bool {
	if !val.Type().ConvertibleTo(to) {
		return false
	}

	if to.Kind() == reflect.String && isNumber(val.Kind()) {
		return false
	}

	return true
}

// isLossless reports whether converting the number val to the type to keeps its value,
// e.g. 300 does not fit into an uint8 and 1.5 not into an int.
func isLossless(val reflect.Value, to reflect.Type) bool {
	if !isNumber(val.Kind()) || !isNumber(to.Kind()) {
		return true
	}

	target := reflect.Zero(to)

	switch {
	case isFloat(val.Kind()):
		f := val.Float()

		switch {
		case isFloat(to.Kind()):
			return !target.OverflowFloat(f)
		case f != math.Trunc(f):
			return false
		case isInt(to.Kind()):
			return f >= math.MinInt64 && f < math.MaxInt64 && !target.OverflowInt(int64(f))
		default:
			return f >= 0 && f < math.MaxUint64 && !target.OverflowUint(uint64(f))
		}
	case isInt(val.Kind()):
		i := val.Int()

		switch {
		case isInt(to.Kind()):
			return !target.OverflowInt(i)
		case isFloat(to.Kind()):
			return true
		default:
			return i >= 0 && !target.OverflowUint(uint64(i))
		}
	default:
		u := val.Uint()

		switch {
		case isInt(to.Kind()):
			return u <= math.MaxInt64 && !target.OverflowInt(int64(u))
		case isFloat(to.Kind()):
			return true
		default:
			return !target.OverflowUint(u)
		}
	}
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// FieldValue returns the value of the entity's field for the attribute key.
// The field is looked up the same way a Factory does when it assigns attributes.
func FieldValue(entity any, key string) (any, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: entity is nil", ErrUnknownField)
	}

	val := reflect.ValueOf(entity)

	// reflection can only read unexported fields of an addressable value
	if val.Kind() != reflect.Ptr {
		ptr := reflect.New(val.Type())
		ptr.Elem().Set(val)
		val = ptr
	}

	target, err := structValue(val)
	if err != nil {
		return nil, err
	}

	field, err := lookupField(target, key)
	if err != nil {
		return nil, err
	}

	return field.Interface(), nil
}

// SnakeCase converts a Go identifier into the snake_case attribute key, e.g.
// CreatedAt => created_at and UserID => user_id.
func SnakeCase(name string) string {
	parts := camelcase.Split(name)
	words := make([]string, 0, len(parts))

	for _, p := range parts {
		if p == "_" || strings.TrimSpace(p) == "" {
			continue
		}

		words = append(words, strings.ToLower(p))
	}

	return strings.Join(words, "_")
}
