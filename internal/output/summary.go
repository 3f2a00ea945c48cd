package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// BuildSummary is the structured report of a finished build.
type BuildSummary struct {
	Build       string       `json:"build" yaml:"build"`
	Image       string       `json:"image" yaml:"image"`
	Graph       string       `json:"graph" yaml:"graph"`
	Layout      []LayoutRow  `json:"layout" yaml:"layout"`
	Warnings    []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Diagnostic is one analyzer report in a build summary.
type Diagnostic struct {
	Component string `json:"component" yaml:"component"`
	Object    string `json:"object" yaml:"object"`
	ExitCode  int    `json:"exitCode" yaml:"exitCode"`
	Output    string `json:"output,omitempty" yaml:"output,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// WriteSummary writes the summary in the given structured format.
func WriteSummary(w io.Writer, s *BuildSummary, format Format) error {
	for i := range s.Layout {
		s.Layout[i].Address = FormatAddress(s.Layout[i].BaseAddr)
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, FormatTable:
		return fmt.Errorf("format %s is not a structured summary format", format)
	}
	return fmt.Errorf("unknown format %q", format)
}

func formatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
