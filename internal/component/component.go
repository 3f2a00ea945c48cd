// Package component holds the name-resolved set of components and their
// dependency order.
package component

import (
	"fmt"
	"strconv"
)

// ID identifies a component once its name has been resolved. IDs are
// assigned once per build, never reused, and ordered.
type ID uint32

// None is the zero ID. No registered component carries it; it stands for the
// kernel where a constructor is expected.
const None ID = 0

// String implements fmt.Stringer.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Registry is the finalized, name-resolved component set. It is built once by
// the ordering pass and read-only afterwards.
type Registry struct {
	order []ID
	names map[ID]string
	ids   map[string]ID
}

// NewRegistry builds a registry from component names listed in forward
// dependency order: every component appears after the components it depends
// on. IDs are assigned 1..N in that order.
func NewRegistry(ordered []string) (*Registry, error) {
	r := &Registry{
		order: make([]ID, 0, len(ordered)),
		names: make(map[ID]string, len(ordered)),
		ids:   make(map[string]ID, len(ordered)),
	}
	for i, name := range ordered {
		if name == "" {
			return nil, fmt.Errorf("component at position %d has no name", i)
		}
		if _, dup := r.ids[name]; dup {
			return nil, fmt.Errorf("component %q registered twice", name)
		}
		id := ID(i + 1)
		r.order = append(r.order, id)
		r.names[id] = name
		r.ids[name] = id
	}
	return r, nil
}

// IDs returns the component IDs in forward dependency order.
func (r *Registry) IDs() []ID {
	out := make([]ID, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	return len(r.order)
}

// Name returns the name registered for id.
func (r *Registry) Name(id ID) (string, bool) {
	name, ok := r.names[id]
	return name, ok
}

// Lookup resolves a component name to its ID.
func (r *Registry) Lookup(name string) (ID, bool) {
	id, ok := r.ids[name]
	return id, ok
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id ID) bool {
	_, ok := r.names[id]
	return ok
}

// Label returns "name(id)" for log and error messages, falling back to the
// bare id for unknown components.
func (r *Registry) Label(id ID) string {
	if name, ok := r.names[id]; ok {
		return fmt.Sprintf("%s(%d)", name, id)
	}
	return "#" + id.String()
}
