package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "2m", cfg.Analyzer.Timeout)
	assert.Equal(t, "best-effort", cfg.Analyzer.Policy)
	assert.Empty(t, cfg.Analyzer.Path)
	assert.Equal(t, ".", cfg.Build.Root)
	assert.Equal(t, ".", cfg.Build.ComponentsDir)
	assert.Nil(t, cfg.Log.Timestamps)
	assert.NoError(t, cfg.Validate())
}

func TestWithDefaults_KeepsSetValues(t *testing.T) {
	cfg := &Config{
		Analyzer: AnalyzerConfig{Path: "/opt/analyze", Timeout: "30s"},
		Build:    BuildConfig{Root: "/build"},
	}

	got := cfg.WithDefaults()
	assert.Equal(t, "/opt/analyze", got.Analyzer.Path)
	assert.Equal(t, "30s", got.Analyzer.Timeout)
	assert.Equal(t, "best-effort", got.Analyzer.Policy)
	assert.Equal(t, "/build", got.Build.Root)
	assert.Equal(t, ".", got.Build.ComponentsDir)

	assert.Empty(t, cfg.Analyzer.Policy, "original is not modified")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		fields []string
	}{
		{name: "empty", cfg: Config{}},
		{
			name:   "bad timeout",
			cfg:    Config{Analyzer: AnalyzerConfig{Timeout: "soon"}},
			fields: []string{"analyzer.timeout"},
		},
		{
			name:   "negative timeout",
			cfg:    Config{Analyzer: AnalyzerConfig{Timeout: "-1s"}},
			fields: []string{"analyzer.timeout"},
		},
		{
			name:   "bad policy",
			cfg:    Config{Analyzer: AnalyzerConfig{Policy: "lenient"}},
			fields: []string{"analyzer.policy"},
		},
		{
			name:   "whitespace root",
			cfg:    Config{Build: BuildConfig{Root: "   "}},
			fields: []string{"build.root"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			var fields []string
			for _, e := range verrs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestValidationErrors_Empty(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
}
