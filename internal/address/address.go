// Package address assigns a base virtual address to every component.
//
// Components that share an address space are packed one slot apart, in the
// order their group lists them, and a group with a parent continues where the
// parent left off. Every other component gets an address space of its own and
// starts at BaseOffset, unless the spec overrides its base address.
package address

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gparmer/Composite/internal/component"
	oerrors "github.com/gparmer/Composite/internal/errors"
)

// Exclusive is the Space reported for components with a private address space.
const Exclusive = ""

// Group is a named set of components sharing one virtual address space.
type Group struct {
	Name       string
	Parent     string
	Components []string
}

// Components is the read-only view of the component registry the pass needs.
type Components interface {
	IDs() []component.ID
	Lookup(name string) (component.ID, bool)
	Name(id component.ID) (string, bool)
}

// Warning is a non-fatal problem found while assigning addresses.
type Warning struct {
	Component string
	Value     string
	Message   string
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	return fmt.Sprintf("component %q: %s", w.Component, w.Message)
}

// Assignment maps every component to its base virtual address.
type Assignment struct {
	bases  map[component.ID]uint64
	spaces map[component.ID]string

	// Warnings collects recoverable problems, e.g. malformed overrides.
	Warnings []Warning
}

// BaseAddr returns the base virtual address of id.
func (a *Assignment) BaseAddr(id component.ID) (uint64, bool) {
	addr, ok := a.bases[id]
	return addr, ok
}

// Space returns the shared group name of id, or Exclusive.
func (a *Assignment) Space(id component.ID) string {
	return a.spaces[id]
}

// Len returns the number of assigned components.
func (a *Assignment) Len() int {
	return len(a.bases)
}

// Bases returns a copy of the full mapping.
func (a *Assignment) Bases() map[component.ID]uint64 {
	out := make(map[component.ID]uint64, len(a.bases))
	for id, addr := range a.bases {
		out[id] = addr
	}
	return out
}

// Assign computes base addresses for every component in comps.
//
// overrides maps component names to the base address string declared in the
// spec; only exclusive components honor it. A malformed override produces a
// Warning and the default address. Inconsistent input (unknown names, a group
// whose parent is never assigned, a component placed twice) is reported as
// errors.ErrInvariant, since the registry is validated before this pass runs.
func Assign(comps Components, groups []Group, overrides map[string]string) (*Assignment, error) {
	if err := X86_64.Check(); err != nil {
		return nil, err
	}

	a := &Assignment{
		bases:  make(map[component.ID]uint64),
		spaces: make(map[component.ID]string),
	}

	ordered, err := parentsFirst(groups)
	if err != nil {
		return nil, err
	}

	// next free offset after each group's last component
	nextFree := make(map[string]uint64, len(ordered))
	grouped := make(map[string]string)
	limit := X86_64.AddressSpaceSize()

	for _, g := range ordered {
		offset := BaseOffset
		if g.Parent != "" {
			next, ok := nextFree[g.Parent]
			if !ok {
				return nil, oerrors.Invariantf("parent %q of address space %q was not assigned first", g.Parent, g.Name)
			}
			offset = next
		}

		for _, name := range g.Components {
			id, ok := comps.Lookup(name)
			if !ok {
				return nil, oerrors.Invariantf("address space %q lists unregistered component %q", g.Name, name)
			}
			if prev, dup := grouped[name]; dup {
				return nil, oerrors.Invariantf("component %q is in address spaces %q and %q", name, prev, g.Name)
			}
			if offset > limit-SlotSize {
				return nil, fmt.Errorf("%w: address space %q has no slot left for component %q",
					oerrors.ErrValidation, g.Name, name)
			}
			grouped[name] = g.Name
			a.bases[id] = offset
			a.spaces[id] = g.Name
			offset += SlotSize
		}

		nextFree[g.Name] = offset
	}

	for _, id := range comps.IDs() {
		name, ok := comps.Name(id)
		if !ok {
			return nil, oerrors.Invariantf("component id %d has no name", id)
		}
		if _, shared := grouped[name]; shared {
			continue
		}

		addr := BaseOffset
		if raw := strings.TrimSpace(overrides[name]); raw != "" {
			parsed, err := ParseBaseAddr(raw)
			if err != nil {
				a.Warnings = append(a.Warnings, Warning{
					Component: name,
					Value:     raw,
					Message: fmt.Sprintf("cannot parse base address %q as hexadecimal, using default %#x",
						raw, BaseOffset),
				})
			} else {
				addr = parsed
			}
		}
		a.bases[id] = addr
		a.spaces[id] = Exclusive
	}

	a.Warnings = append(a.Warnings, ignoredOverrides(comps, grouped, overrides)...)

	if err := a.checkTotal(comps); err != nil {
		return nil, err
	}
	return a, nil
}

// ParseBaseAddr parses a hexadecimal base address with an optional 0x prefix.
func ParseBaseAddr(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if s == "" {
		return 0, fmt.Errorf("empty base address %q", raw)
	}
	return strconv.ParseUint(s, 16, 64)
}

// parentsFirst orders groups so every parent precedes its children, keeping
// declaration order otherwise.
func parentsFirst(groups []Group) ([]Group, error) {
	byName := make(map[string]int, len(groups))
	for i, g := range groups {
		if _, dup := byName[g.Name]; dup {
			return nil, oerrors.Invariantf("address space %q declared twice", g.Name)
		}
		byName[g.Name] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(groups))
	out := make([]Group, 0, len(groups))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return oerrors.Invariantf("address space %q is its own ancestor", groups[i].Name)
		}
		state[i] = visiting
		if p := groups[i].Parent; p != "" {
			pi, ok := byName[p]
			if !ok {
				return oerrors.Invariantf("parent %q of address space %q was never assigned", p, groups[i].Name)
			}
			if err := visit(pi); err != nil {
				return err
			}
		}
		state[i] = done
		out = append(out, groups[i])
		return nil
	}

	for i := range groups {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func ignoredOverrides(comps Components, grouped, overrides map[string]string) []Warning {
	names := make([]string, 0, len(overrides))
	for name, raw := range overrides {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var warnings []Warning
	for _, name := range names {
		if space, shared := grouped[name]; shared {
			warnings = append(warnings, Warning{
				Component: name,
				Value:     overrides[name],
				Message:   fmt.Sprintf("base address ignored, component shares address space %q", space),
			})
			continue
		}
		if _, ok := comps.Lookup(name); !ok {
			warnings = append(warnings, Warning{
				Component: name,
				Value:     overrides[name],
				Message:   "base address given for an unregistered component",
			})
		}
	}
	return warnings
}

func (a *Assignment) checkTotal(comps Components) error {
	ids := comps.IDs()
	if len(a.bases) != len(ids) {
		return oerrors.Invariantf("assigned %d addresses for %d components", len(a.bases), len(ids))
	}
	for _, id := range ids {
		if _, ok := a.bases[id]; !ok {
			return oerrors.Invariantf("component id %d has no base address", id)
		}
	}
	return nil
}
