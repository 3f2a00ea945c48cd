package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gparmer/Composite/internal/cmdtypes"
	"github.com/gparmer/Composite/internal/config"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/output"
)

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration",
		Long: `Initialize the composer configuration.

Writes a config file holding the default analyzer and build settings to
~/.composer/config.yaml, or to the path given by --config or
COMPOSER_CONFIG. A path ending in .toml is written as TOML.

Examples:
  # Initialize configuration
  composer config init

  # Overwrite existing configuration
  composer config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, g, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false,
		"Overwrite existing configuration")

	return cmd
}

func runConfigInit(cmd *cobra.Command, g *cmdtypes.GlobalConfig, force bool) error {
	path, err := configPath(g)
	if err != nil {
		return oerrors.Wrap(oerrors.ErrNotFound, "could not determine home directory")
	}
	if path, err = config.ExpandPath(path); err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}

	exists, err := config.ConfigFileExists(path)
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if exists && !force {
		return &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: path,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		}
	}

	var buf bytes.Buffer
	if err := config.Encode(&buf, config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("encoding default configuration: %w", err)
	}

	// Create directories with secure permissions (0700)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, output.FormatCheckmark("Configuration initialized at "+path))
	fmt.Fprintln(out, "Validate with: composer config vet")

	return nil
}
