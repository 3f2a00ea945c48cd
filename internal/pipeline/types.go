package pipeline

import (
	"context"
	"fmt"

	"github.com/gparmer/Composite/internal/address"
	"github.com/gparmer/Composite/internal/analyzer"
	"github.com/gparmer/Composite/internal/component"
	"github.com/gparmer/Composite/internal/passes"
	"github.com/gparmer/Composite/internal/sysspec"
	"github.com/gparmer/Composite/internal/system"
)

// Pass names, as reported in PassError and logs.
const (
	PassInit        = "init"
	PassSpec        = "spec"
	PassOrder       = "order"
	PassAddresses   = "address-assign"
	PassProperties  = "properties"
	PassResources   = "resource-tables"
	PassParams      = "params"
	PassObject      = "object"
	PassInvocations = "invocations"
	PassAnalyze     = "analyze"
	PassConstructor = "constructor"
	PassGraph       = "graph"
)

// Pipeline builds a system image.
type Pipeline interface {
	// Build runs every pass against bs. On failure the returned Result holds
	// the stages reached and the error is a *PassError.
	Build(ctx context.Context, bs system.BuildState) (*Result, error)
}

// Analyzer inspects built objects. *analyzer.Runner implements it.
type Analyzer interface {
	Enabled() bool
	Run(ctx context.Context, object string) *analyzer.Report
}

// Passes is the set of transitions the pipeline runs.
type Passes struct {
	Spec        system.Transition[*sysspec.SystemSpec]
	Order       system.Transition[*component.Registry]
	Addresses   system.Transition[*address.Assignment]
	Properties  system.Transition[*system.Properties]
	Resources   system.Transition[*system.ResourceTables]
	Params      system.TransitionIter[*system.Parameters]
	Object      system.TransitionIter[*system.Object]
	Invocations system.TransitionIter[*system.InvocationTable]
	Constructor system.Transition[*system.Image]
	Graph       system.Transition[*system.Graph]
}

// DefaultPasses returns the standard passes.
func DefaultPasses() Passes {
	return Passes{
		Spec:        passes.ParseSpec,
		Order:       passes.Order,
		Addresses:   passes.AssignAddresses,
		Properties:  passes.Properties,
		Resources:   passes.ResourceTables,
		Params:      passes.Params,
		Object:      passes.Object,
		Invocations: passes.Invocations,
		Constructor: passes.Constructor,
		Graph:       passes.Graph,
	}
}

// withDefaults fills unset passes from DefaultPasses.
func (p Passes) withDefaults() Passes {
	d := DefaultPasses()
	if p.Spec == nil {
		p.Spec = d.Spec
	}
	if p.Order == nil {
		p.Order = d.Order
	}
	if p.Addresses == nil {
		p.Addresses = d.Addresses
	}
	if p.Properties == nil {
		p.Properties = d.Properties
	}
	if p.Resources == nil {
		p.Resources = d.Resources
	}
	if p.Params == nil {
		p.Params = d.Params
	}
	if p.Object == nil {
		p.Object = d.Object
	}
	if p.Invocations == nil {
		p.Invocations = d.Invocations
	}
	if p.Constructor == nil {
		p.Constructor = d.Constructor
	}
	if p.Graph == nil {
		p.Graph = d.Graph
	}
	return p
}

// Options configures a Pipeline.
type Options struct {
	// Passes overrides individual passes. Unset fields use DefaultPasses.
	Passes Passes

	// Analyzer runs over every built object. Nil disables analysis.
	Analyzer Analyzer

	// Policy decides whether analyzer failures abort the build.
	// Empty means analyzer.BestEffort.
	Policy analyzer.Policy
}

// Warning is a non-fatal problem reported by a pass.
type Warning struct {
	Pass      string
	Component string
	Message   string
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	if w.Component != "" {
		return fmt.Sprintf("%s: component %q: %s", w.Pass, w.Component, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Pass, w.Message)
}

// Diagnostic is the analyzer report for one component.
type Diagnostic struct {
	Component string
	Report    *analyzer.Report
}

// Result is the outcome of a build.
type Result struct {
	ImagePath string
	GraphPath string

	// State is the aggregate of every attached pass output.
	State *system.State

	Warnings    []Warning
	Diagnostics []Diagnostic

	// Stages lists every stage reached, in order.
	Stages []Stage

	// Generated lists components in the order the generation loop visited
	// them.
	Generated []component.ID
}
