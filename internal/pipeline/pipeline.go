// Package pipeline sequences the composer passes into a build.
package pipeline

import (
	"context"
	"fmt"

	"github.com/gparmer/Composite/internal/address"
	"github.com/gparmer/Composite/internal/analyzer"
	"github.com/gparmer/Composite/internal/component"
	"github.com/gparmer/Composite/internal/output"
	"github.com/gparmer/Composite/internal/system"
)

// pipeline implements the Pipeline interface.
type pipeline struct {
	passes   Passes
	analyzer Analyzer
	policy   analyzer.Policy
}

// NewPipeline creates a new Pipeline implementation.
func NewPipeline(opts Options) Pipeline {
	policy := opts.Policy
	if policy == "" {
		policy = analyzer.BestEffort
	}
	return &pipeline{
		passes:   opts.Passes.withDefaults(),
		analyzer: opts.Analyzer,
		policy:   policy,
	}
}

// GenerationOrder returns the order the per-component passes visit
// components: the reverse of the forward build order. Components nothing
// else depends on come first; the components everything is built on, the
// booter among them, come last.
func GenerationOrder(forward []component.ID) []component.ID {
	out := make([]component.ID, len(forward))
	for i, id := range forward {
		out[len(forward)-1-i] = id
	}
	return out
}

// run is the state of one Build call. The build context is only reachable
// through it and is dropped when Build returns.
type run struct {
	ctx    context.Context
	bs     system.BuildState
	state  *system.State
	stages *tracker
	result *Result
	named  *component.Registry
}

// Build executes the pipeline.
//
// Phase sequence:
//  1. INIT:        architecture self-check
//  2. SPEC:        passes.Spec → *sysspec.SystemSpec
//  3. ORDER:       passes.Order → *component.Registry
//  4. ADDRESSES:   passes.Addresses → *address.Assignment
//  5. PROPERTIES:  passes.Properties → *system.Properties
//  6. RESOURCES:   passes.Resources → *system.ResourceTables
//  7. GENERATE:    for each component in GenerationOrder:
//     Params → Object → (analyzer) → Invocations
//  8. CONSTRUCT:   passes.Constructor → *system.Image
//  9. GRAPH:       passes.Graph → *system.Graph
//
// The first failing pass aborts the build. Analyzer failures only abort it
// under analyzer.Strict.
func (p *pipeline) Build(ctx context.Context, bs system.BuildState) (*Result, error) {
	r := &run{
		ctx:    ctx,
		bs:     bs,
		state:  system.NewState(),
		stages: newTracker(),
	}
	r.result = &Result{State: r.state}

	err := p.build(r)
	r.result.Stages = r.stages.history()
	if err != nil {
		return r.result, err
	}
	return r.result, nil
}

func (p *pipeline) build(r *run) error {
	if err := address.X86_64.Check(); err != nil {
		return r.fail(PassInit, "", err)
	}

	spec, err := whole(r, PassSpec, p.passes.Spec, r.state.AttachSpec, StageSpecParsed)
	if err != nil {
		return err
	}
	for _, w := range spec.Warnings {
		r.warn(PassSpec, "", w)
	}

	r.named, err = whole(r, PassOrder, p.passes.Order, r.state.AttachNamed, StageOrdered)
	if err != nil {
		return err
	}

	addrs, err := whole(r, PassAddresses, p.passes.Addresses, r.state.AttachAddresses, StageAddressAssigned)
	if err != nil {
		return err
	}
	for _, w := range addrs.Warnings {
		r.warn(PassAddresses, w.Component, w.Message)
	}

	if _, err := whole(r, PassProperties, p.passes.Properties, r.state.AttachProperties, StagePropertiesComputed); err != nil {
		return err
	}
	if _, err := whole(r, PassResources, p.passes.Resources, r.state.AttachResourceTables, StageResourcesAssigned); err != nil {
		return err
	}

	for _, id := range GenerationOrder(r.named.IDs()) {
		if err := p.generate(r, id); err != nil {
			return err
		}
	}
	if err := r.advance(StageComponentsGenerated); err != nil {
		return r.fail(PassInvocations, "", err)
	}

	img, err := whole(r, PassConstructor, p.passes.Constructor, r.state.AttachConstructor, StageConstructed)
	if err != nil {
		return err
	}
	r.result.ImagePath = img.Path

	g, err := whole(r, PassGraph, p.passes.Graph, r.state.AttachGraph, StageGraphExported)
	if err != nil {
		return err
	}
	r.result.GraphPath = g.Path

	if err := r.advance(StageDone); err != nil {
		return r.fail(PassGraph, "", err)
	}
	return nil
}

// generate runs the per-component passes for id.
func (p *pipeline) generate(r *run, id component.ID) error {
	name, ok := r.named.Name(id)
	if !ok {
		return r.fail(PassParams, r.named.Label(id), fmt.Errorf("component id %d is not named", id))
	}
	if err := r.ctx.Err(); err != nil {
		return r.fail(PassParams, name, err)
	}
	log := output.ComponentLogger(name)

	if _, err := each(r, PassParams, id, name, p.passes.Params, r.state.AttachParams); err != nil {
		return err
	}
	obj, err := each(r, PassObject, id, name, p.passes.Object, r.state.AttachObject)
	if err != nil {
		return err
	}
	log.Debug("object built", "path", obj.Path, "size", obj.Size)

	if err := p.analyze(r, name, obj.Path); err != nil {
		return err
	}

	inv, err := each(r, PassInvocations, id, name, p.passes.Invocations, r.state.AttachInvocations)
	if err != nil {
		return err
	}
	log.Debug("invocations derived", "count", len(inv.Invocations))

	r.result.Generated = append(r.result.Generated, id)
	return nil
}

// analyze runs the external analyzer over one object. Failures are reported
// and, unless the policy is strict, do not stop the build.
func (p *pipeline) analyze(r *run, name, object string) error {
	if p.analyzer == nil || !p.analyzer.Enabled() {
		return nil
	}

	report := p.analyzer.Run(r.ctx, object)
	r.result.Diagnostics = append(r.result.Diagnostics, Diagnostic{Component: name, Report: report})
	log := output.ComponentLogger(name)

	if !report.Failed() {
		if out := report.Output(); out != "" {
			log.Info("analysis", "output", out)
		}
		return nil
	}

	if p.policy == analyzer.Strict {
		err := report.Err
		if err == nil {
			err = fmt.Errorf("analyzer exited with status %d: %s", report.ExitCode, report.Output())
		}
		return r.fail(PassAnalyze, name, err)
	}

	keyvals := []any{"object", object, "exit", report.ExitCode}
	if report.Err != nil {
		keyvals = append(keyvals, "err", report.Err)
	}
	if out := report.Output(); out != "" {
		keyvals = append(keyvals, "output", out)
	}
	log.Warn("analysis failed", keyvals...)
	return nil
}

// whole runs a whole-system pass, attaches its output and advances to stage.
func whole[T any](r *run, pass string, fn system.Transition[T], attach func(T) error, stage Stage) (T, error) {
	var zero T
	out, err := fn(r.state, r.bs)
	if err != nil {
		return zero, r.fail(pass, "", err)
	}
	if err := attach(out); err != nil {
		return zero, r.fail(pass, "", err)
	}
	if err := r.advance(stage); err != nil {
		return zero, r.fail(pass, "", err)
	}
	output.Debug("pass complete", "pass", pass, "stage", stage)
	return out, nil
}

// each runs a per-component pass and attaches its output under id.
func each[T any](r *run, pass string, id component.ID, name string, fn system.TransitionIter[T], attach func(component.ID, T) error) (T, error) {
	var zero T
	out, err := fn(id, r.state, r.bs)
	if err != nil {
		return zero, r.fail(pass, name, err)
	}
	if err := attach(id, out); err != nil {
		return zero, r.fail(pass, name, err)
	}
	return out, nil
}

func (r *run) advance(to Stage) error {
	return r.stages.advance(to)
}

func (r *run) fail(pass, comp string, err error) error {
	pe := &PassError{Pass: pass, ComponentName: comp, Stage: r.stages.current(), Err: err}
	r.stages.fail()
	return pe
}

func (r *run) warn(pass, comp, msg string) {
	w := Warning{Pass: pass, Component: comp, Message: msg}
	r.result.Warnings = append(r.result.Warnings, w)
	output.Warn(w.String())
}
