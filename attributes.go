package factory

import (
	"maps"
	"slices"
)

// Attributes is a mapping of a field name to its value.
// It is what every Recipe contributes and what a Factory assigns onto an entity.
type Attributes map[string]any

// Clone returns a shallow copy. Mutating the copy never affects the original.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}

	return maps.Clone(a)
}

// Merge copies all values of other into a.
// Keys present in both are overwritten by the value of other.
func (a Attributes) Merge(other Attributes) {
	maps.Copy(a, other)
}

// Keys returns all keys in sorted order.
func (a Attributes) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}
