package passes

import (
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/system"
)

const (
	// FirstFreeCapSlot is the first capability slot not reserved by the
	// kernel in every component's table.
	FirstFreeCapSlot uint32 = 8

	// CapSlotStride is the number of slots an invocation capability takes.
	CapSlotStride uint32 = 4
)

// ResourceTables lays out each component's capability table: one
// invocation capability per dependency, in declaration order.
func ResourceTables(st *system.State, _ system.BuildState) (*system.ResourceTables, error) {
	spec, err := st.Spec()
	if err != nil {
		return nil, err
	}
	named, err := st.Named()
	if err != nil {
		return nil, err
	}

	tables := make([]*system.ResourceTable, 0, named.Len())
	for _, id := range named.IDs() {
		c, err := specComponent(spec, named, id)
		if err != nil {
			return nil, err
		}

		rt := &system.ResourceTable{Component: id, NextFree: FirstFreeCapSlot}
		for _, d := range c.Deps {
			srv, ok := named.Lookup(d.Srv)
			if !ok {
				return nil, oerrors.Invariantf("server %q of %s is not named", d.Srv, named.Label(id))
			}
			if _, dup := rt.SlotFor(srv, d.Interface); dup {
				continue
			}
			rt.Slots = append(rt.Slots, system.CapSlot{
				Server:    srv,
				Interface: d.Interface,
				Slot:      rt.NextFree,
			})
			rt.NextFree += CapSlotStride
		}
		tables = append(tables, rt)
	}

	return system.NewResourceTables(tables), nil
}
