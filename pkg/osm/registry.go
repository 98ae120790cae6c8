package osm

import (
	"iter"
	"maps"
	"slices"
)

// Registry stores entities by id. Duplicate inserts are rejected and the
// first entity wins. A positive limit caps the number of entries.
type Registry[V any] struct {
	items map[ID]V
	limit int
}

// NodeRegistry holds committed nodes.
type NodeRegistry = Registry[Node]

// WayRegistry holds committed ways, classified or not.
type WayRegistry = Registry[Way]

func newRegistry[V any](limit int) *Registry[V] {
	return &Registry[V]{
		items: make(map[ID]V),
		limit: limit,
	}
}

// insert adds v under id. It returns ErrDuplicateID if id is taken and
// ErrCapacity if the registry is full.
func (r *Registry[V]) insert(id ID, v V) error {
	if _, exists := r.items[id]; exists {
		return ErrDuplicateID
	}
	if r.limit > 0 && len(r.items) >= r.limit {
		return ErrCapacity
	}
	r.items[id] = v
	return nil
}

// Get returns the entity stored under id.
func (r *Registry[V]) Get(id ID) (V, bool) {
	v, ok := r.items[id]
	return v, ok
}

// Has reports whether id is present.
func (r *Registry[V]) Has(id ID) bool {
	_, ok := r.items[id]
	return ok
}

// Len returns the number of entities.
func (r *Registry[V]) Len() int {
	return len(r.items)
}

// IDs returns every id in ascending order.
func (r *Registry[V]) IDs() []ID {
	return slices.Sorted(maps.Keys(r.items))
}

// All iterates over entities in ascending id order.
func (r *Registry[V]) All() iter.Seq2[ID, V] {
	return func(yield func(ID, V) bool) {
		for _, id := range r.IDs() {
			if !yield(id, r.items[id]) {
				return
			}
		}
	}
}
