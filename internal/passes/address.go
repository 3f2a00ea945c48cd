package passes

import (
	"github.com/gparmer/Composite/internal/address"
	"github.com/gparmer/Composite/internal/system"
)

// AssignAddresses places every component in virtual memory. Address
// warnings are returned on the assignment for the caller to report.
func AssignAddresses(st *system.State, _ system.BuildState) (*address.Assignment, error) {
	spec, err := st.Spec()
	if err != nil {
		return nil, err
	}
	named, err := st.Named()
	if err != nil {
		return nil, err
	}

	groups := make([]address.Group, 0, len(spec.AddressSpaces))
	for _, as := range spec.AddressSpaces {
		groups = append(groups, address.Group{
			Name:       as.Name,
			Parent:     as.Parent,
			Components: as.Components,
		})
	}

	return address.Assign(named, groups, spec.Overrides())
}
