package system

import (
	"github.com/gparmer/Composite/internal/component"
	"github.com/gparmer/Composite/internal/sysspec"
)

// ComponentProperties are the derived facts about one component.
type ComponentProperties struct {
	ID   component.ID
	Name string

	// Constructor is component.None when the kernel constructs it.
	Constructor component.ID

	// Children are the components this one constructs, ascending.
	Children []component.ID

	// Servers are the components this one invokes, in dependency order
	// without duplicates.
	Servers []component.ID

	Exports []sysspec.Export

	// Booter is set for components the kernel constructs.
	Booter bool

	BaseAddr uint64
	Space    string
}

// Properties holds ComponentProperties for every component.
type Properties struct {
	byID map[component.ID]*ComponentProperties
}

// NewProperties builds a Properties from a list.
func NewProperties(props []*ComponentProperties) *Properties {
	p := &Properties{byID: make(map[component.ID]*ComponentProperties, len(props))}
	for _, cp := range props {
		p.byID[cp.ID] = cp
	}
	return p
}

// Of returns the properties of id.
func (p *Properties) Of(id component.ID) (*ComponentProperties, bool) {
	cp, ok := p.byID[id]
	return cp, ok
}

// Len returns the number of components.
func (p *Properties) Len() int {
	return len(p.byID)
}

// CapSlot is a capability table entry reserved for one dependency.
type CapSlot struct {
	Server    component.ID
	Interface string
	Slot      uint32
}

// ResourceTable is the capability table layout of one component.
type ResourceTable struct {
	Component component.ID
	Slots     []CapSlot

	// NextFree is the first slot not reserved at build time.
	NextFree uint32
}

// SlotFor returns the slot reserved for iface on server.
func (t *ResourceTable) SlotFor(server component.ID, iface string) (uint32, bool) {
	for _, s := range t.Slots {
		if s.Server == server && s.Interface == iface {
			return s.Slot, true
		}
	}
	return 0, false
}

// ResourceTables holds the ResourceTable of every component.
type ResourceTables struct {
	byID map[component.ID]*ResourceTable
}

// NewResourceTables builds a ResourceTables from a list.
func NewResourceTables(tables []*ResourceTable) *ResourceTables {
	r := &ResourceTables{byID: make(map[component.ID]*ResourceTable, len(tables))}
	for _, t := range tables {
		r.byID[t.Component] = t
	}
	return r
}

// Of returns the table of id.
func (r *ResourceTables) Of(id component.ID) (*ResourceTable, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Arg is one initialization argument.
type Arg struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Parameters are the ordered initialization arguments of one component.
type Parameters struct {
	Component component.ID
	Args      []Arg
}

// Get returns the value of key.
func (p *Parameters) Get(key string) (string, bool) {
	for _, a := range p.Args {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Object is the built object artifact of one component.
type Object struct {
	Component component.ID
	Name      string
	Path      string
	ArgsPath  string
	Size      int64

	// ELF is set when the image is an ELF file; Entry is then its entry point.
	ELF   bool
	Entry uint64
}

// Invocation describes one client-to-server call path.
type Invocation struct {
	Server      component.ID
	ServerName  string
	Interface   string
	Variant     string
	CapSlot     uint32
	ClientStub  string
	ServerEntry string
}

// InvocationTable lists every invocation a component makes.
type InvocationTable struct {
	Component   component.ID
	Invocations []Invocation
}

// Image is the assembled system image.
type Image struct {
	Path    string
	Size    int64
	Members []string
}

// Graph is the exported dependency graph.
type Graph struct {
	Path  string
	Nodes int
	Edges int
}
