package passes

import (
	"github.com/gparmer/Composite/internal/component"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/sysspec"
	"github.com/gparmer/Composite/internal/system"
)

// Properties derives the per-component facts later passes look up.
func Properties(st *system.State, _ system.BuildState) (*system.Properties, error) {
	spec, err := st.Spec()
	if err != nil {
		return nil, err
	}
	named, err := st.Named()
	if err != nil {
		return nil, err
	}
	addrs, err := st.Addresses()
	if err != nil {
		return nil, err
	}

	props := make([]*system.ComponentProperties, 0, named.Len())
	byID := make(map[component.ID]*system.ComponentProperties, named.Len())

	for _, id := range named.IDs() {
		c, err := specComponent(spec, named, id)
		if err != nil {
			return nil, err
		}
		base, ok := addrs.BaseAddr(id)
		if !ok {
			return nil, oerrors.Invariantf("component %s has no base address", named.Label(id))
		}

		cp := &system.ComponentProperties{
			ID:       id,
			Name:     c.Name,
			Exports:  c.Implements,
			Booter:   c.Root(),
			BaseAddr: base,
			Space:    addrs.Space(id),
		}

		if !c.Root() {
			ctor, ok := named.Lookup(c.Constructor)
			if !ok {
				return nil, oerrors.Invariantf("constructor %q of %s is not named", c.Constructor, named.Label(id))
			}
			cp.Constructor = ctor
		}

		seen := make(map[component.ID]bool)
		for _, d := range c.Deps {
			srv, ok := named.Lookup(d.Srv)
			if !ok {
				return nil, oerrors.Invariantf("server %q of %s is not named", d.Srv, named.Label(id))
			}
			if !seen[srv] {
				seen[srv] = true
				cp.Servers = append(cp.Servers, srv)
			}
		}

		props = append(props, cp)
		byID[id] = cp
	}

	// ids ascend, so children come out sorted
	for _, cp := range props {
		if cp.Constructor == component.None {
			continue
		}
		parent := byID[cp.Constructor]
		parent.Children = append(parent.Children, cp.ID)
	}

	return system.NewProperties(props), nil
}

func specComponent(spec *sysspec.SystemSpec, named *component.Registry, id component.ID) (*sysspec.Component, error) {
	name, ok := named.Name(id)
	if !ok {
		return nil, oerrors.Invariantf("component id %d is not named", id)
	}
	c, ok := spec.Component(name)
	if !ok {
		return nil, oerrors.Invariantf("component %q is not in the spec", name)
	}
	return c, nil
}
