package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gparmer/Composite/internal/cmdtypes"
	"github.com/gparmer/Composite/internal/config"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate configuration",
		Long: `Validate the composer configuration file.

Checks performed:
  1. Config file exists at resolved path
  2. Config file parses as YAML (or TOML for .toml files)
  3. Field values are valid (analyzer timeout, analyzer policy, paths)

The config path is resolved using precedence:
  --config flag > COMPOSER_CONFIG env > ~/.composer/config.yaml

Examples:
  # Validate default configuration
  composer config vet

  # Validate custom config path
  composer config vet --config /path/to/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigVet(cmd, g)
		},
	}
}

func runConfigVet(cmd *cobra.Command, g *cmdtypes.GlobalConfig) error {
	path, err := configPath(g)
	if err != nil {
		return oerrors.Wrap(oerrors.ErrNotFound, "could not resolve config path")
	}
	if path, err = config.ExpandPath(path); err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}

	output.Debug("validating config", "path", path)

	// Check 1: Config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &oerrors.DetailError{
			Type:     "not found",
			Message:  "configuration file not found",
			Location: path,
			Hint:     "Run 'composer config init' to create default configuration",
			Cause:    oerrors.ErrNotFound,
		}
	}

	// Check 2: Config file parses
	cfg, err := config.NewLoader().Load(path)
	if err != nil {
		return &oerrors.DetailError{
			Type:     "validation failed",
			Message:  fmt.Sprintf("configuration file does not parse: %v", err),
			Location: path,
			Cause:    oerrors.ErrValidation,
		}
	}

	// Check 3: Field values
	if err := cfg.Validate(); err != nil {
		return &oerrors.DetailError{
			Type:     "validation failed",
			Message:  err.Error(),
			Location: path,
			Cause:    oerrors.ErrValidation,
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid: "+path)
	return nil
}
