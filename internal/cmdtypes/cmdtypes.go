// Package cmdtypes provides shared types for the cmd package.
// It is separate from internal/cmd so that command constructors and the
// build runner can share the resolved configuration without package-level
// mutable globals.
package cmdtypes

import (
	"github.com/gparmer/Composite/internal/config"
	oerrors "github.com/gparmer/Composite/internal/errors"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every sub-command
// constructor.
type GlobalConfig struct {
	// Config is the loaded configuration file, with defaults applied.
	Config *config.Config

	// ConfigPath is the resolved --config path.
	ConfigPath string

	// Resolved holds the effective values after flag/env/config precedence.
	Resolved *config.Resolved

	Verbose bool
}

// Exit codes, aliased from internal/errors.
const (
	ExitSuccess         = oerrors.ExitSuccess
	ExitGeneralError    = oerrors.ExitGeneralError
	ExitUsageError      = oerrors.ExitUsageError
	ExitValidationError = oerrors.ExitValidationError
	ExitNotFound        = oerrors.ExitNotFound
	ExitInternalError   = oerrors.ExitInternalError
)

// ExitError is a type alias to internal/errors.ExitError.
type ExitError = oerrors.ExitError
