package output

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh/spinner"
)

// SpinnerOption configures a spinner.
type SpinnerOption func(*spinnerConfig)

type spinnerConfig struct {
	title   string
	enabled bool
}

// WithTitle sets the spinner title.
func WithTitle(title string) SpinnerOption {
	return func(c *spinnerConfig) {
		c.title = title
	}
}

// WithEnabled turns the spinner off when false, e.g. in verbose mode where
// log lines would tear through it.
func WithEnabled(enabled bool) SpinnerOption {
	return func(c *spinnerConfig) {
		c.enabled = enabled
	}
}

// RunWithSpinner executes an action with a spinner.
// Returns the action's error if any.
func RunWithSpinner(ctx context.Context, action func() error, opts ...SpinnerOption) error {
	cfg := &spinnerConfig{
		title:   "Working...",
		enabled: true,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.enabled || !IsTTY() {
		return action()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- action()
	}()

	resultCh := make(chan error, 1)
	spinnerErr := spinner.New().
		Title(cfg.title).
		Context(ctx).
		Action(func() {
			resultCh <- <-errCh
		}).
		Run()

	// The spinner may return without ever starting the action.
	var actionErr error
	select {
	case actionErr = <-resultCh:
	case actionErr = <-errCh:
	}
	if spinnerErr != nil && actionErr == nil {
		return fmt.Errorf("spinner error: %w", spinnerErr)
	}
	return actionErr
}
