// Package passes implements the whole-system and per-component transitions
// the pipeline runs.
//
// Every pass reads earlier outputs from the *system.State and returns its own
// output; the pipeline attaches it. Passes never attach to the state
// themselves and never keep the system.BuildState after returning.
package passes
