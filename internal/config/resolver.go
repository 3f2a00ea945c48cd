package config

import (
	"fmt"
	"os"
	"time"

	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// Environment variables read by Resolve.
const (
	EnvAnalyzer            = "COMPOSER_ANALYZER"
	EnvAnalyzerInterpreter = "COMPOSER_ANALYZER_INTERPRETER"
	EnvAnalyzerTimeout     = "COMPOSER_ANALYZER_TIMEOUT"
	EnvAnalyzerPolicy      = "COMPOSER_ANALYZER_POLICY"
	EnvBuildRoot           = "COMPOSER_BUILD_ROOT"
	EnvComponentsDir       = "COMPOSER_COMPONENTS_DIR"
)

// Flags holds command-line values; empty means not set.
type Flags struct {
	Analyzer            string
	AnalyzerInterpreter string
	AnalyzerTimeout     string
	AnalyzerPolicy      string
	BuildRoot           string
	ComponentsDir       string
}

// Resolved is the effective configuration of one run.
type Resolved struct {
	AnalyzerPath        string
	AnalyzerInterpreter string
	AnalyzerTimeout     time.Duration
	AnalyzerPolicy      string
	BuildRoot           string
	ComponentsDir       string

	// Values records how each setting was resolved.
	Values []ResolvedValue
}

// Resolve applies flag > env > config > default precedence to every setting.
func Resolve(cfg *Config, flags Flags) (*Resolved, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	d := DefaultConfig()

	values := []ResolvedValue{
		resolveValue("analyzer.path", flags.Analyzer, EnvAnalyzer, cfg.Analyzer.Path, ""),
		resolveValue("analyzer.interpreter", flags.AnalyzerInterpreter, EnvAnalyzerInterpreter, cfg.Analyzer.Interpreter, ""),
		resolveValue("analyzer.timeout", flags.AnalyzerTimeout, EnvAnalyzerTimeout, cfg.Analyzer.Timeout, d.Analyzer.Timeout),
		resolveValue("analyzer.policy", flags.AnalyzerPolicy, EnvAnalyzerPolicy, cfg.Analyzer.Policy, d.Analyzer.Policy),
		resolveValue("build.root", flags.BuildRoot, EnvBuildRoot, cfg.Build.Root, d.Build.Root),
		resolveValue("build.componentsDir", flags.ComponentsDir, EnvComponentsDir, cfg.Build.ComponentsDir, d.Build.ComponentsDir),
	}

	r := &Resolved{
		AnalyzerPath:        values[0].Value,
		AnalyzerInterpreter: values[1].Value,
		AnalyzerPolicy:      values[3].Value,
		BuildRoot:           values[4].Value,
		ComponentsDir:       values[5].Value,
		Values:              values,
	}

	timeout, err := time.ParseDuration(values[2].Value)
	if err != nil || timeout <= 0 {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid analyzer timeout %q", values[2].Value),
			string(values[2].Source), "analyzer.timeout",
			"use a positive Go duration such as 90s or 2m")
	}
	r.AnalyzerTimeout = timeout

	for _, p := range []*string{&r.AnalyzerPath, &r.BuildRoot, &r.ComponentsDir} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", *p, err)
		}
		*p = expanded
	}

	return r, nil
}

// resolveValue picks the highest-precedence non-empty value.
func resolveValue(key, flagValue, envVar, configValue, defaultValue string) ResolvedValue {
	rv := ResolvedValue{Key: key, Shadowed: make(map[ConfigSource]string)}
	candidates := []struct {
		source ConfigSource
		value  string
	}{
		{SourceFlag, flagValue},
		{SourceEnv, os.Getenv(envVar)},
		{SourceConfig, configValue},
		{SourceDefault, defaultValue},
	}

	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		if rv.Source == "" {
			rv.Value = c.value
			rv.Source = c.source
			continue
		}
		rv.Shadowed[c.source] = c.value
	}
	return rv
}

// ResolveConfigPathOptions contains options for config path resolution.
type ResolveConfigPathOptions struct {
	// FlagValue is the --config flag value (empty if not set).
	FlagValue string
}

// ResolveConfigPathResult contains the resolved config path and its source.
type ResolveConfigPathResult struct {
	// ConfigPath is the resolved config file path.
	ConfigPath string
	// Source indicates where the config path came from.
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) COMPOSER_CONFIG env, (3) ~/.composer/config.yaml
func ResolveConfigPath(opts ResolveConfigPathOptions) (ResolveConfigPathResult, error) {
	result := ResolveConfigPathResult{
		Shadowed: make(map[ConfigSource]string),
	}

	envValue := os.Getenv(EnvConfig)

	paths, err := DefaultPaths()
	if err != nil {
		return result, err
	}
	defaultPath := paths.ConfigFile

	// Resolve using precedence: flag > env > default
	if opts.FlagValue != "" {
		result.ConfigPath = opts.FlagValue
		result.Source = SourceFlag
		if envValue != "" {
			result.Shadowed[SourceEnv] = envValue
		}
		result.Shadowed[SourceDefault] = defaultPath
	} else if envValue != "" {
		result.ConfigPath = envValue
		result.Source = SourceEnv
		result.Shadowed[SourceDefault] = defaultPath
	} else {
		result.ConfigPath = defaultPath
		result.Source = SourceDefault
	}

	return result, nil
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
