package passes

import (
	"fmt"

	"github.com/gparmer/Composite/internal/component"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/system"
)

const (
	clientStubPrefix  = "__cosrt_c_"
	serverEntryPrefix = "__cosrt_s_"
)

// Invocations derives the invocation descriptors of one component: one per
// distinct (server, interface) dependency.
func Invocations(id component.ID, st *system.State, _ system.BuildState) (*system.InvocationTable, error) {
	spec, err := st.Spec()
	if err != nil {
		return nil, err
	}
	named, err := st.Named()
	if err != nil {
		return nil, err
	}
	tables, err := st.ResourceTables()
	if err != nil {
		return nil, err
	}

	c, err := specComponent(spec, named, id)
	if err != nil {
		return nil, err
	}
	rt, ok := tables.Of(id)
	if !ok {
		return nil, oerrors.Invariantf("no resource table for %s", named.Label(id))
	}

	table := &system.InvocationTable{Component: id}
	seen := make(map[string]bool)
	for _, d := range c.Deps {
		key := d.Srv + "\x00" + d.Interface
		if seen[key] {
			continue
		}
		seen[key] = true

		srv, ok := named.Lookup(d.Srv)
		if !ok {
			return nil, fmt.Errorf("%w: component %q depends on unknown server %q",
				oerrors.ErrValidation, c.Name, d.Srv)
		}
		server, err := specComponent(spec, named, srv)
		if err != nil {
			return nil, err
		}
		if !server.Exports(d.Interface) {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("component %q depends on interface %q, which %q does not implement",
					c.Name, d.Interface, d.Srv),
				spec.Path, "deps",
				fmt.Sprintf("add { interface = %q } to the implements of %q", d.Interface, d.Srv))
		}
		slot, ok := rt.SlotFor(srv, d.Interface)
		if !ok {
			return nil, oerrors.Invariantf("no capability slot for %s -> %s:%s",
				named.Label(id), named.Label(srv), d.Interface)
		}

		table.Invocations = append(table.Invocations, system.Invocation{
			Server:      srv,
			ServerName:  d.Srv,
			Interface:   d.Interface,
			Variant:     d.Variant,
			CapSlot:     slot,
			ClientStub:  clientStubPrefix + d.Interface,
			ServerEntry: serverEntryPrefix + d.Interface,
		})
	}
	return table, nil
}
