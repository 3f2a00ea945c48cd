// Package system holds the build-wide aggregate of pass outputs and the
// mutable build context passes run against.
package system

import (
	"github.com/spf13/afero"

	"github.com/gparmer/Composite/internal/address"
	"github.com/gparmer/Composite/internal/component"
	"github.com/gparmer/Composite/internal/sysspec"
)

// State is the append-only record of every pass output for one build.
//
// Each field is attached once by the pipeline and never changes afterwards.
// Passes read earlier outputs through the getters; reading an output that has
// not been attached yet returns ErrNotAttached.
type State struct {
	spec        Slot[*sysspec.SystemSpec]
	named       Slot[*component.Registry]
	addresses   Slot[*address.Assignment]
	properties  Slot[*Properties]
	resources   Slot[*ResourceTables]
	params      PerComponent[*Parameters]
	objects     PerComponent[*Object]
	invocations PerComponent[*InvocationTable]
	constructor Slot[*Image]
	graph       Slot[*Graph]
}

// NewState returns an empty aggregate.
func NewState() *State {
	return &State{
		spec:        NewSlot[*sysspec.SystemSpec]("spec"),
		named:       NewSlot[*component.Registry]("named"),
		addresses:   NewSlot[*address.Assignment]("address assignment"),
		properties:  NewSlot[*Properties]("properties"),
		resources:   NewSlot[*ResourceTables]("resource tables"),
		params:      NewPerComponent[*Parameters]("parameters"),
		objects:     NewPerComponent[*Object]("object"),
		invocations: NewPerComponent[*InvocationTable]("invocations"),
		constructor: NewSlot[*Image]("constructor"),
		graph:       NewSlot[*Graph]("graph"),
	}
}

func (s *State) Spec() (*sysspec.SystemSpec, error)  { return s.spec.Get() }
func (s *State) Named() (*component.Registry, error) { return s.named.Get() }
func (s *State) Addresses() (*address.Assignment, error) {
	return s.addresses.Get()
}
func (s *State) Properties() (*Properties, error)         { return s.properties.Get() }
func (s *State) ResourceTables() (*ResourceTables, error) { return s.resources.Get() }
func (s *State) Constructor() (*Image, error)             { return s.constructor.Get() }
func (s *State) Graph() (*Graph, error)                   { return s.graph.Get() }

func (s *State) Params(id component.ID) (*Parameters, error) { return s.params.Get(id) }
func (s *State) Object(id component.ID) (*Object, error)     { return s.objects.Get(id) }
func (s *State) Invocations(id component.ID) (*InvocationTable, error) {
	return s.invocations.Get(id)
}

func (s *State) AttachSpec(v *sysspec.SystemSpec) error  { return s.spec.Attach(v) }
func (s *State) AttachNamed(v *component.Registry) error { return s.named.Attach(v) }
func (s *State) AttachAddresses(v *address.Assignment) error {
	return s.addresses.Attach(v)
}
func (s *State) AttachProperties(v *Properties) error         { return s.properties.Attach(v) }
func (s *State) AttachResourceTables(v *ResourceTables) error { return s.resources.Attach(v) }
func (s *State) AttachConstructor(v *Image) error             { return s.constructor.Attach(v) }
func (s *State) AttachGraph(v *Graph) error                   { return s.graph.Attach(v) }

func (s *State) AttachParams(id component.ID, v *Parameters) error {
	return s.params.Attach(id, v)
}
func (s *State) AttachObject(id component.ID, v *Object) error {
	return s.objects.Attach(id, v)
}
func (s *State) AttachInvocations(id component.ID, v *InvocationTable) error {
	return s.invocations.Attach(id, v)
}

// BuildState is the mutable build context. The pipeline owns it for the whole
// run and hands it to one pass at a time.
type BuildState interface {
	// BuildName is the name given on the command line.
	BuildName() string

	// SpecPath is the system specification being built.
	SpecPath() string

	// BuildDir is the directory all artifacts are written to.
	BuildDir() string

	// Fs is the filesystem artifacts are read from and written to.
	Fs() afero.Fs

	// ResolveImage returns the path of a component image in the components
	// directory.
	ResolveImage(img string) (string, error)

	// ArtifactPath returns the path of file inside the build directory.
	ArtifactPath(file string) string

	// Record remembers a written artifact.
	Record(kind, path string)

	// Artifacts returns every recorded artifact in write order.
	Artifacts() []Artifact
}

// Artifact is a file written during the build.
type Artifact struct {
	Kind string
	Path string
}

// Transition is a whole-system pass.
type Transition[T any] func(*State, BuildState) (T, error)

// TransitionIter is a per-component pass.
type TransitionIter[T any] func(component.ID, *State, BuildState) (T, error)
