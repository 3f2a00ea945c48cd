package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gparmer/Composite/internal/cmdtypes"
	"github.com/gparmer/Composite/internal/config"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(g *cmdtypes.GlobalConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  `Configuration management for the composer.`,
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(NewConfigInitCmd(g))
	cmd.AddCommand(NewConfigVetCmd(g))

	return cmd
}

// configPath returns the config path resolved by the root command, falling
// back to the default location when the command runs on its own.
func configPath(g *cmdtypes.GlobalConfig) (string, error) {
	if g != nil && g.ConfigPath != "" {
		return g.ConfigPath, nil
	}
	return config.GetConfigFile()
}
