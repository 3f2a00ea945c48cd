package address

import (
	"fmt"

	oerrors "github.com/gparmer/Composite/internal/errors"
)

// BaseOffset is where every address space starts placing components unless
// overridden. It sits well above the null page.
const BaseOffset uint64 = 0x400000

// Geometry describes the page-table shape of a target architecture.
type Geometry struct {
	// Name identifies the target.
	Name string

	// EntriesPerTable is the number of entries in one page-table node.
	EntriesPerTable uint64

	// SlotLevels is the number of page-table levels spanned by one slot,
	// i.e. all levels below the top-level table.
	SlotLevels int

	// PageSize is the size of a leaf page in bytes.
	PageSize uint64

	// VirtualBits is the width of the canonical virtual address range.
	VirtualBits uint
}

// X86_64 is the 4-level, 48-bit x86-64 paging geometry.
var X86_64 = Geometry{
	Name:            "x86_64",
	EntriesPerTable: 1 << 9,
	SlotLevels:      3,
	PageSize:        1 << 12,
	VirtualBits:     48,
}

// SlotSize is the virtual range covered by one top-level page-table entry:
// (entries per table)^levels * page size.
func (g Geometry) SlotSize() uint64 {
	size := g.PageSize
	for i := 0; i < g.SlotLevels; i++ {
		size *= g.EntriesPerTable
	}
	return size
}

// AddressSpaceSize is the full canonical virtual range.
func (g Geometry) AddressSpaceSize() uint64 {
	return uint64(1) << g.VirtualBits
}

// Check verifies that one slot is exactly the address space divided by the
// number of top-level entries.
func (g Geometry) Check() error {
	want := g.AddressSpaceSize() / g.EntriesPerTable
	if got := g.SlotSize(); got != want {
		return fmt.Errorf("%w: %s slot size %#x != 2^%d / %d (%#x)",
			oerrors.ErrArchitecture, g.Name, got, g.VirtualBits, g.EntriesPerTable, want)
	}
	return nil
}

// SlotSize is the x86-64 slot size, 2^39 bytes.
var SlotSize = X86_64.SlotSize()
