package factory

import "iter"

// Collection is what a Factory returns for a multiplicity other than one.
// The default is Slice, use WithCollection or implement Collector to return your own type.
type Collection[E any] interface {
	Len() int
	At(i int) E
	All() iter.Seq2[int, E]
}

// Collector can be implemented by a Definition to wrap built entities into a custom Collection.
type Collector[E any] interface {
	NewCollection(entities []E) Collection[E]
}

// Slice is the default Collection, keeping the entities in the order they were built.
type Slice[E any] []E

var _ Collection[int] = (Slice[int])(nil)

func (s Slice[E]) Len() int {
	return len(s)
}

func (s Slice[E]) At(i int) E { //nolint:ireturn // valid use of generics
	return s[i]
}

func (s Slice[E]) All() iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		for i, e := range s {
			if !yield(i, e) {
				return
			}
		}
	}
}

func newSlice[E any](entities []E) Collection[E] { //nolint:ireturn // default of a replaceable hook
	return Slice[E](entities)
}

// Result is the outcome of a terminal call of a Factory.
// For a multiplicity of one it holds a single value, otherwise a Collection.
type Result[T any] struct {
	single     T
	collection Collection[T]
}

func single[T any](v T) Result[T] {
	return Result[T]{single: v, collection: nil}
}

func multiple[T any](c Collection[T]) Result[T] {
	return Result[T]{single: *new(T), collection: c}
}

// IsCollection reports whether the factory built more than one value.
func (r Result[T]) IsCollection() bool {
	return r.collection != nil
}

// One returns the single value. For a collection it returns the first element.
func (r Result[T]) One() T { //nolint:ireturn // valid use of generics
	if r.collection != nil {
		if r.collection.Len() == 0 {
			return *new(T)
		}

		return r.collection.At(0)
	}

	return r.single
}

// Collection returns all values.
// If the Result holds a single value, it is returned as a Slice of length one.
func (r Result[T]) Collection() Collection[T] { //nolint:ireturn // valid use of generics
	if r.collection != nil {
		return r.collection
	}

	return Slice[T]{r.single}
}

// Len returns the number of values.
func (r Result[T]) Len() int {
	if r.collection != nil {
		return r.collection.Len()
	}

	return 1
}
