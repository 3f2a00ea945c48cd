package system

import (
	"fmt"
	"sort"

	"github.com/gparmer/Composite/internal/component"
	oerrors "github.com/gparmer/Composite/internal/errors"
)

var (
	// ErrAlreadyAttached is returned when a pass output is attached twice.
	ErrAlreadyAttached = fmt.Errorf("%w: already attached", oerrors.ErrInvariant)

	// ErrNotAttached is returned when a pass output is read before it exists.
	ErrNotAttached = fmt.Errorf("%w: not attached", oerrors.ErrInvariant)
)

// Slot holds a single pass output. It can be attached exactly once.
type Slot[T any] struct {
	name  string
	value T
	set   bool
}

// NewSlot returns an empty slot. name is used in error messages.
func NewSlot[T any](name string) Slot[T] {
	return Slot[T]{name: name}
}

// Attach stores v. A second call fails and leaves the first value in place.
func (s *Slot[T]) Attach(v T) error {
	if s.set {
		return fmt.Errorf("%s: %w", s.name, ErrAlreadyAttached)
	}
	s.value = v
	s.set = true
	return nil
}

// Get returns the attached value.
func (s *Slot[T]) Get() (T, error) {
	if !s.set {
		var zero T
		return zero, fmt.Errorf("%s: %w", s.name, ErrNotAttached)
	}
	return s.value, nil
}

// Attached reports whether a value has been attached.
func (s *Slot[T]) Attached() bool {
	return s.set
}

// PerComponent holds one write-once pass output per component.
type PerComponent[T any] struct {
	name   string
	values map[component.ID]T
}

// NewPerComponent returns an empty per-component store.
func NewPerComponent[T any](name string) PerComponent[T] {
	return PerComponent[T]{name: name, values: make(map[component.ID]T)}
}

// Attach stores v for id.
func (p *PerComponent[T]) Attach(id component.ID, v T) error {
	if p.values == nil {
		p.values = make(map[component.ID]T)
	}
	if _, ok := p.values[id]; ok {
		return fmt.Errorf("%s of component %d: %w", p.name, id, ErrAlreadyAttached)
	}
	p.values[id] = v
	return nil
}

// Get returns the value attached for id.
func (p *PerComponent[T]) Get(id component.ID) (T, error) {
	v, ok := p.values[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s of component %d: %w", p.name, id, ErrNotAttached)
	}
	return v, nil
}

// Has reports whether id has a value.
func (p *PerComponent[T]) Has(id component.ID) bool {
	_, ok := p.values[id]
	return ok
}

// Len returns the number of components with a value.
func (p *PerComponent[T]) Len() int {
	return len(p.values)
}

// IDs returns the components with a value, ascending.
func (p *PerComponent[T]) IDs() []component.ID {
	ids := make([]component.ID, 0, len(p.values))
	for id := range p.values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
