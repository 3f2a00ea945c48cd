// Package version provides version information for the composer.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
var (
	// Version is the composer version (set via ldflags).
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Target is the architecture backend compiled into this composer.
const Target = "x86_64"

// Info contains version information.
type Info struct {
	// Version is the composer version (set via ldflags).
	Version string `json:"version"`

	// GitCommit is the git commit hash.
	GitCommit string `json:"gitCommit"`

	// BuildDate is the build timestamp.
	BuildDate string `json:"buildDate"`

	// GoVersion is the Go version used to build.
	GoVersion string `json:"goVersion"`

	// Target is the address-layout backend.
	Target string `json:"target"`
}

// GetInfo returns the current version information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Target:    Target,
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("composer version %s\n  Commit:  %s\n  Built:   %s\n  Go:      %s\n  Target:  %s",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Target)
}
