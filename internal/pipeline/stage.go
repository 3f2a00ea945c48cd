package pipeline

import (
	"fmt"

	oerrors "github.com/gparmer/Composite/internal/errors"
)

// Stage is a point in the build state machine.
type Stage int

const (
	StageInit Stage = iota
	StageSpecParsed
	StageOrdered
	StageAddressAssigned
	StagePropertiesComputed
	StageResourcesAssigned
	StageComponentsGenerated
	StageConstructed
	StageGraphExported
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StageInit:                "init",
	StageSpecParsed:          "spec-parsed",
	StageOrdered:             "ordered",
	StageAddressAssigned:     "address-assigned",
	StagePropertiesComputed:  "properties-computed",
	StageResourcesAssigned:   "resources-assigned",
	StageComponentsGenerated: "components-generated",
	StageConstructed:         "constructed",
	StageGraphExported:       "graph-exported",
	StageDone:                "done",
	StageFailed:              "failed",
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// tracker records the stages a build has passed through and rejects
// anything but the fixed forward sequence.
type tracker struct {
	stages []Stage
}

func newTracker() *tracker {
	return &tracker{stages: []Stage{StageInit}}
}

func (t *tracker) current() Stage {
	return t.stages[len(t.stages)-1]
}

// advance moves to the next stage, which must directly follow the current one.
func (t *tracker) advance(to Stage) error {
	from := t.current()
	if from.Terminal() || to == StageFailed || to != from+1 {
		return oerrors.Invariantf("illegal build transition %s -> %s", from, to)
	}
	t.stages = append(t.stages, to)
	return nil
}

// fail moves to StageFailed from any non-terminal stage.
func (t *tracker) fail() {
	if !t.current().Terminal() {
		t.stages = append(t.stages, StageFailed)
	}
}

func (t *tracker) history() []Stage {
	out := make([]Stage, len(t.stages))
	copy(out, t.stages)
	return out
}
