// Package cmd provides CLI command implementations.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gparmer/Composite/internal/cmdtypes"
	"github.com/gparmer/Composite/internal/config"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/output"
	"github.com/gparmer/Composite/internal/version"
)

// rootFlags holds the flags shared by the root command and its children.
type rootFlags struct {
	config       string
	outputFormat string
	verbose      bool
	timestamps   bool
	resolve      config.Flags
}

// NewRootCmd creates the root command for the composer.
func NewRootCmd() *cobra.Command {
	g := &cmdtypes.GlobalConfig{}
	f := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "composer <system-spec-file> <build-name>",
		Short: "Compose a component-based system into a bootable image",
		Long: `composer links the components named in a system specification into one
system image.

Components are ordered so that every server precedes its clients and every
constructor precedes its children, then assigned virtual address ranges,
capability tables, and initialization parameters. Each component object is
generated in reverse order, optionally checked by an external analyzer, and
finally packed together with a manifest into <build-name>.img.tar. A DOT
graph of the system is written next to it.

Build artifacts are placed in <build-root>/cos_build-<build-name>/, which
is recreated on every run.

Examples:
  # Build the ping-pong system
  composer systems/pingpong.toml pingpong

  # Build and show the address layout
  composer systems/pingpong.toml pingpong -o table

  # Run an analyzer on every generated object, failing on its errors
  composer systems/pingpong.toml pingpong --analyzer ./tools/check.py \
    --analyzer-interpreter python3 --analyzer-policy strict`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				fmt.Fprintln(cmd.OutOrStdout(), "Usage: "+cmd.UseLine())
				return &oerrors.ExitError{
					Err:     oerrors.Wrap(oerrors.ErrUsage, fmt.Sprintf("expected 2 arguments, got %d", len(args))),
					Code:    oerrors.ExitUsageError,
					Printed: true,
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd, g, f)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, g, f.outputFormat)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "Path to config file (env: COMPOSER_CONFIG)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVar(&f.timestamps, "timestamps", true, "Show timestamps in log output")

	fl := rootCmd.Flags()
	fl.StringVarP(&f.outputFormat, "output", "o", "text", "Output format: text, table, yaml, json")
	fl.StringVar(&f.resolve.Analyzer, "analyzer", "", "Program run on every generated object (env: COMPOSER_ANALYZER)")
	fl.StringVar(&f.resolve.AnalyzerInterpreter, "analyzer-interpreter", "",
		"Interpreter used to run the analyzer (env: COMPOSER_ANALYZER_INTERPRETER)")
	fl.StringVar(&f.resolve.AnalyzerTimeout, "analyzer-timeout", "",
		"Per-object analyzer timeout (env: COMPOSER_ANALYZER_TIMEOUT)")
	fl.StringVar(&f.resolve.AnalyzerPolicy, "analyzer-policy", "",
		"Analyzer failure policy: best-effort or strict (env: COMPOSER_ANALYZER_POLICY)")
	fl.StringVar(&f.resolve.BuildRoot, "build-root", "",
		"Directory holding cos_build-<name> directories (env: COMPOSER_BUILD_ROOT)")
	fl.StringVar(&f.resolve.ComponentsDir, "components-dir", "",
		"Directory component images are resolved against (env: COMPOSER_COMPONENTS_DIR)")

	rootCmd.AddCommand(NewConfigCmd(g))
	rootCmd.AddCommand(NewVersionCmd(g))

	return rootCmd
}

// initializeGlobals loads configuration and sets up logging.
func initializeGlobals(cmd *cobra.Command, g *cmdtypes.GlobalConfig, f *rootFlags) error {
	pathResult, err := config.ResolveConfigPath(config.ResolveConfigPathOptions{
		FlagValue: f.config,
	})
	if err != nil {
		return oerrors.Wrap(oerrors.ErrNotFound, "could not resolve config path")
	}
	g.ConfigPath = pathResult.ConfigPath
	g.Verbose = f.verbose

	building := cmd == cmd.Root()

	cfg, err := config.NewLoader().Load(g.ConfigPath)
	if err != nil {
		if building {
			return &oerrors.ExitError{Err: err, Code: oerrors.ExitValidationError}
		}
		// Don't fail here - config subcommands report the problem themselves
		output.Debug("config load error", "error", err)
		cfg = &config.Config{}
	}
	g.Config = cfg

	// Build LogConfig with precedence: flag > config > default(true)
	logCfg := output.LogConfig{Verbose: f.verbose}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(f.timestamps)
	} else if cfg.Log.Timestamps != nil {
		logCfg.Timestamps = cfg.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if f.verbose {
		info := version.GetInfo()
		output.Debug("composer started",
			"version", info.Version,
			"target", info.Target,
			"config", g.ConfigPath,
			"config_source", pathResult.Source,
		)
	}

	if !building {
		return nil
	}

	resolved, err := config.Resolve(cfg, f.resolve)
	if err != nil {
		return &oerrors.ExitError{Err: err, Code: oerrors.ExitCodeFromError(err)}
	}
	g.Resolved = resolved
	config.LogResolvedValues(resolved.Values)

	return nil
}
