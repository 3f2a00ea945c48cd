package pipeline

import (
	"fmt"
)

// PassError reports which pass failed, and for which component.
type PassError struct {
	// Pass is the failing pass.
	Pass string

	// ComponentName is empty for whole-system passes.
	ComponentName string

	// Stage is the last stage reached before the failure.
	Stage Stage

	Err error
}

func (e *PassError) Error() string {
	if e.ComponentName != "" {
		return fmt.Sprintf("pass %s failed for component %q: %v", e.Pass, e.ComponentName, e.Err)
	}
	return fmt.Sprintf("pass %s failed: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}

// Component returns the name of the component being built, if any.
func (e *PassError) Component() string {
	return e.ComponentName
}
