package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gparmer/Composite/internal/address"
	"github.com/gparmer/Composite/internal/analyzer"
	"github.com/gparmer/Composite/internal/builder"
	"github.com/gparmer/Composite/internal/cmdtypes"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/output"
	"github.com/gparmer/Composite/internal/pipeline"
	"github.com/gparmer/Composite/internal/system"
)

// buildFs is the filesystem builds run against. Tests swap it for a MemMapFs.
var buildFs = afero.NewOsFs()

func runBuild(cmd *cobra.Command, args []string, g *cmdtypes.GlobalConfig, outputFlag string) error {
	specPath, buildName := args[0], args[1]

	format, ok := output.ParseFormat(outputFlag)
	if !ok {
		return &oerrors.ExitError{
			Err: oerrors.NewValidationError(
				fmt.Sprintf("unknown output format %q", outputFlag), "", "--output",
				fmt.Sprintf("use one of %v", output.ValidFormats())),
			Code: oerrors.ExitUsageError,
		}
	}

	resolved := g.Resolved
	if resolved == nil {
		return &oerrors.ExitError{
			Err:  oerrors.Invariantf("configuration was not resolved before the build"),
			Code: oerrors.ExitInternalError,
		}
	}

	policy, err := analyzer.ParsePolicy(resolved.AnalyzerPolicy)
	if err != nil {
		return &oerrors.ExitError{Err: err, Code: oerrors.ExitCodeFromError(err)}
	}

	b := builder.New(buildFs, builder.Options{
		Root:          resolved.BuildRoot,
		ComponentsDir: resolved.ComponentsDir,
	})
	if err := b.Initialize(buildName, specPath); err != nil {
		return &oerrors.ExitError{Err: err, Code: oerrors.ExitCodeFromError(err)}
	}
	output.Debug("build directory ready", "dir", b.BuildDir())

	p := pipeline.NewPipeline(pipeline.Options{
		Analyzer: analyzer.New(analyzer.Options{
			Path:        resolved.AnalyzerPath,
			Interpreter: resolved.AnalyzerInterpreter,
			Timeout:     resolved.AnalyzerTimeout,
		}),
		Policy: policy,
	})

	var result *pipeline.Result
	err = output.RunWithSpinner(cmd.Context(), func() error {
		var buildErr error
		result, buildErr = p.Build(cmd.Context(), b)
		return buildErr
	}, output.WithTitle("Composing "+buildName), output.WithEnabled(!g.Verbose))
	if err != nil {
		return &oerrors.ExitError{Err: err, Code: oerrors.ExitCodeFromError(err)}
	}

	return writeResult(cmd.OutOrStdout(), b, result, format)
}

// writeResult reports a finished build on w.
func writeResult(w io.Writer, bs system.BuildState, result *pipeline.Result, format output.Format) error {
	switch format {
	case output.FormatYAML, output.FormatJSON:
		return output.WriteSummary(w, buildSummary(bs.BuildName(), result), format)
	}

	fmt.Fprintf(w, "System object generated:\n\t%s\n", result.ImagePath)
	if format == output.FormatTable {
		fmt.Fprintln(w, output.RenderLayoutTable(layoutRows(result)))
		fmt.Fprint(w, output.RenderArtifactTree(filepath.Base(bs.BuildDir()), artifactFiles(bs)))
	}
	return nil
}

// artifactFiles maps each recorded artifact, relative to the build
// directory, to its kind.
func artifactFiles(bs system.BuildState) map[string]string {
	files := make(map[string]string)
	for _, a := range bs.Artifacts() {
		rel, err := filepath.Rel(bs.BuildDir(), a.Path)
		if err != nil {
			rel = a.Path
		}
		files[rel] = a.Kind
	}
	return files
}

// layoutRows lists every component's placement in forward build order.
func layoutRows(result *pipeline.Result) []output.LayoutRow {
	if result == nil || result.State == nil {
		return nil
	}
	named, err := result.State.Named()
	if err != nil {
		return nil
	}
	props, err := result.State.Properties()
	if err != nil {
		return nil
	}

	rows := make([]output.LayoutRow, 0, named.Len())
	for _, id := range named.IDs() {
		p, ok := props.Of(id)
		if !ok {
			continue
		}
		space := p.Space
		if space == address.Exclusive {
			space = "-"
		}
		rows = append(rows, output.LayoutRow{
			ID:        uint32(id),
			Component: p.Name,
			Space:     space,
			BaseAddr:  p.BaseAddr,
		})
	}
	return rows
}

func buildSummary(buildName string, result *pipeline.Result) *output.BuildSummary {
	s := &output.BuildSummary{
		Build:  buildName,
		Image:  result.ImagePath,
		Graph:  result.GraphPath,
		Layout: layoutRows(result),
	}
	for _, w := range result.Warnings {
		s.Warnings = append(s.Warnings, w.String())
	}
	for _, d := range result.Diagnostics {
		diag := output.Diagnostic{
			Component: d.Component,
			Object:    d.Report.Object,
			ExitCode:  d.Report.ExitCode,
			Output:    d.Report.Output(),
		}
		if d.Report.Err != nil {
			diag.Error = d.Report.Err.Error()
		}
		s.Diagnostics = append(s.Diagnostics, diag)
	}
	return s
}
