package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gparmer/Composite/internal/cmdtypes"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/testutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	return testutil.WriteFile(t, t.TempDir(), "config.yaml", content)
}

func vet(t *testing.T, path string) (string, error) {
	t.Helper()
	cmd := NewConfigVetCmd(&cmdtypes.GlobalConfig{ConfigPath: path})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	return out.String(), err
}

func TestNewConfigVetCmd(t *testing.T) {
	cmd := NewConfigVetCmd(&cmdtypes.GlobalConfig{})

	assert.Equal(t, "vet", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}

func TestConfigVet_MissingConfigFile(t *testing.T) {
	isolateHome(t)

	_, err := vet(t, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrNotFound)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestConfigVet_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
analyzer:
  path: /opt/analyze
  timeout: 30s
  policy: strict
build:
  root: /tmp/builds
`)

	out, err := vet(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid: "+path)
}

func TestConfigVet_Malformed(t *testing.T) {
	path := writeConfig(t, "analyzer: [unterminated\n")

	_, err := vet(t, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.Contains(t, err.Error(), "does not parse")
}

func TestConfigVet_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad timeout", "analyzer:\n  timeout: soon\n", "analyzer.timeout"},
		{"negative timeout", "analyzer:\n  timeout: -5s\n", "analyzer.timeout"},
		{"bad policy", "analyzer:\n  policy: lenient\n", "analyzer.policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := vet(t, writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, oerrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfigVet_EnvConfigPath(t *testing.T) {
	isolateHome(t)
	path := writeConfig(t, "build:\n  root: /tmp\n")
	t.Setenv("COMPOSER_CONFIG", path)

	out, err := vet(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, path)
}
