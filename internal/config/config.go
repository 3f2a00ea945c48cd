// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"strings"
	"time"
)

// AnalyzerConfig configures the external static-analysis tool.
type AnalyzerConfig struct {
	// Path is the analyzer program. Empty disables analysis.
	// Env: COMPOSER_ANALYZER
	Path string `mapstructure:"path" yaml:"path,omitempty" toml:"path,omitempty"`

	// Interpreter runs Path as a script, e.g. "python3".
	// Env: COMPOSER_ANALYZER_INTERPRETER
	Interpreter string `mapstructure:"interpreter" yaml:"interpreter,omitempty" toml:"interpreter,omitempty"`

	// Timeout bounds one analyzer run, as a Go duration ("90s", "2m").
	// Env: COMPOSER_ANALYZER_TIMEOUT, Default: 2m
	Timeout string `mapstructure:"timeout" yaml:"timeout,omitempty" toml:"timeout,omitempty"`

	// Policy is "best-effort" (default) or "strict".
	// Env: COMPOSER_ANALYZER_POLICY
	Policy string `mapstructure:"policy" yaml:"policy,omitempty" toml:"policy,omitempty"`
}

// BuildConfig configures where builds read and write.
type BuildConfig struct {
	// Root is the directory cos_build-<name> directories are created in.
	// Env: COMPOSER_BUILD_ROOT, Default: "."
	Root string `mapstructure:"root" yaml:"root,omitempty" toml:"root,omitempty"`

	// ComponentsDir holds the component images named by system specs.
	// Env: COMPOSER_COMPONENTS_DIR, Default: "."
	ComponentsDir string `mapstructure:"componentsDir" yaml:"componentsDir,omitempty" toml:"componentsDir,omitempty"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `mapstructure:"timestamps" yaml:"timestamps,omitempty" toml:"timestamps,omitempty"`
}

// Config represents the composer configuration, loaded from
// ~/.composer/config.yaml.
type Config struct {
	Analyzer AnalyzerConfig `mapstructure:"analyzer" yaml:"analyzer" toml:"analyzer"`
	Build    BuildConfig    `mapstructure:"build" yaml:"build" toml:"build"`
	Log      LogConfig      `mapstructure:"log" yaml:"log,omitempty" toml:"log,omitempty"`
}

const (
	defaultAnalyzerTimeout = "2m"
	defaultAnalyzerPolicy  = "best-effort"
	defaultDir             = "."
)

// DefaultConfig returns a Config with all default values populated.
// Used by `composer config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Timeout: defaultAnalyzerTimeout,
			Policy:  defaultAnalyzerPolicy,
		},
		Build: BuildConfig{
			Root:          defaultDir,
			ComponentsDir: defaultDir,
		},
	}
}

// WithDefaults returns a copy of c with empty fields set to their defaults.
func (c *Config) WithDefaults() *Config {
	out := *c
	d := DefaultConfig()
	if out.Analyzer.Timeout == "" {
		out.Analyzer.Timeout = d.Analyzer.Timeout
	}
	if out.Analyzer.Policy == "" {
		out.Analyzer.Policy = d.Analyzer.Policy
	}
	if out.Build.Root == "" {
		out.Build.Root = d.Build.Root
	}
	if out.Build.ComponentsDir == "" {
		out.Build.ComponentsDir = d.Build.ComponentsDir
	}
	return &out
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Validate checks field values. Empty fields are valid.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Analyzer.Timeout != "" {
		d, err := time.ParseDuration(c.Analyzer.Timeout)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{
				Field:   "analyzer.timeout",
				Message: fmt.Sprintf("must be a duration such as 90s or 2m, got %q", c.Analyzer.Timeout),
			})
		case d <= 0:
			errs = append(errs, ValidationError{
				Field:   "analyzer.timeout",
				Message: "must be positive",
			})
		}
	}

	switch c.Analyzer.Policy {
	case "", "best-effort", "strict":
	default:
		errs = append(errs, ValidationError{
			Field:   "analyzer.policy",
			Message: fmt.Sprintf(`must be "best-effort" or "strict", got %q`, c.Analyzer.Policy),
		})
	}

	for field, value := range map[string]string{
		"analyzer.path":       c.Analyzer.Path,
		"build.root":          c.Build.Root,
		"build.componentsDir": c.Build.ComponentsDir,
	} {
		if value != "" && strings.TrimSpace(value) == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "must not be empty or whitespace only",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ResolvedValue is one configuration value after precedence resolution.
type ResolvedValue struct {
	// Key is the config key, e.g. "analyzer.path".
	Key string

	// Value is the winning value.
	Value string

	// Source is where Value came from.
	Source ConfigSource

	// Shadowed holds lower-precedence values that lost.
	Shadowed map[ConfigSource]string
}
