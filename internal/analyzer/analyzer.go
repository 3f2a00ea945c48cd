// Package analyzer runs the external static-analysis tool over each built
// component object.
package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	oerrors "github.com/gparmer/Composite/internal/errors"
)

// Policy decides what an analyzer failure does to the build.
type Policy string

const (
	// BestEffort reports failures and keeps building.
	BestEffort Policy = "best-effort"

	// Strict aborts the build on the first failure.
	Strict Policy = "strict"
)

// ParsePolicy converts a config or flag value into a Policy. Empty means
// BestEffort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", BestEffort:
		return BestEffort, nil
	case Strict:
		return Strict, nil
	default:
		return "", fmt.Errorf("%w: unknown analyzer policy %q (want %q or %q)",
			oerrors.ErrValidation, s, BestEffort, Strict)
	}
}

// DefaultTimeout bounds a single analyzer run.
const DefaultTimeout = 2 * time.Minute

// Options configures the analyzer.
type Options struct {
	// Path is the analyzer program. Empty disables analysis.
	Path string

	// Interpreter, when set, runs Path as a script (e.g. "python3").
	Interpreter string

	// Timeout bounds each run. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Report is the outcome of analyzing one object.
type Report struct {
	Object   string
	Tool     string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration

	// Err is set when the tool could not be run to completion.
	Err error
}

// Failed reports whether the tool errored or exited non-zero.
func (r *Report) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Output returns stdout and stderr joined, trimmed.
func (r *Report) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Runner invokes the analyzer.
type Runner struct {
	opts Options
}

// New returns a Runner for opts.
func New(opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Runner{opts: opts}
}

// Enabled reports whether an analyzer path is configured.
func (r *Runner) Enabled() bool {
	return r.opts.Path != ""
}

// Locate resolves the configured tool. Bare names are looked up in PATH.
func (r *Runner) Locate() (string, error) {
	tool := r.opts.Path
	if tool == "" {
		return "", oerrors.NewNotFoundError("no analyzer configured", "", "set --analyzer or COMPOSER_ANALYZER")
	}

	if !strings.ContainsRune(tool, filepath.Separator) && r.opts.Interpreter == "" {
		found, err := exec.LookPath(tool)
		if err != nil {
			return "", oerrors.NewNotFoundError(fmt.Sprintf("analyzer %q not found in PATH", tool), "", "")
		}
		return found, nil
	}

	if _, err := os.Stat(tool); err != nil {
		if os.IsNotExist(err) {
			return "", oerrors.NewNotFoundError("analyzer does not exist", tool,
				"set --analyzer to the analysis program")
		}
		return "", fmt.Errorf("checking analyzer %s: %w", tool, err)
	}
	return tool, nil
}

// Run analyzes object. The returned report is never nil.
func (r *Runner) Run(ctx context.Context, object string) *Report {
	report := &Report{Object: object, Tool: r.opts.Path}

	tool, err := r.Locate()
	if err != nil {
		report.Err = err
		return report
	}
	report.Tool = tool

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	var cmd *exec.Cmd
	if r.opts.Interpreter != "" {
		cmd = exec.CommandContext(ctx, r.opts.Interpreter, tool, object)
	} else {
		cmd = exec.CommandContext(ctx, tool, object)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err = cmd.Run()
	report.Duration = time.Since(start)
	report.Stdout = stdout.String()
	report.Stderr = stderr.String()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		report.ExitCode = -1
		report.Err = fmt.Errorf("analyzer timed out after %s", r.opts.Timeout)
		return report
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		report.ExitCode = exitErr.ExitCode()
	default:
		report.ExitCode = -1
		report.Err = fmt.Errorf("running analyzer %s: %w", tool, err)
	}
	return report
}
