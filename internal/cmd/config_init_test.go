package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gparmer/Composite/internal/cmdtypes"
	"github.com/gparmer/Composite/internal/config"
	oerrors "github.com/gparmer/Composite/internal/errors"
)

// isolateHome points HOME at a fresh directory and clears COMPOSER_CONFIG.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvConfig, "")
	return home
}

func TestNewConfigInitCmd(t *testing.T) {
	cmd := NewConfigInitCmd(&cmdtypes.GlobalConfig{})

	assert.Equal(t, "init", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.Flags().Lookup("force"))
}

func TestConfigInit_CreatesFile(t *testing.T) {
	home := isolateHome(t)

	cmd := NewConfigInitCmd(&cmdtypes.GlobalConfig{})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	path := filepath.Join(home, ".composer", "config.yaml")
	assert.FileExists(t, path)
	assert.Contains(t, out.String(), "Configuration initialized at "+path)
}

func TestConfigInit_SecurePermissions(t *testing.T) {
	home := isolateHome(t)

	cmd := NewConfigInitCmd(&cmdtypes.GlobalConfig{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	dirInfo, err := os.Stat(filepath.Join(home, ".composer"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	fileInfo, err := os.Stat(filepath.Join(home, ".composer", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fileInfo.Mode().Perm())
}

func TestConfigInit_ExistingConfig(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, ".composer", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("build:\n  root: /keep\n"), 0o600))

	cmd := NewConfigInitCmd(&cmdtypes.GlobalConfig{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/keep")
}

func TestConfigInit_ForceOverwrite(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, ".composer", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("build:\n  root: /old\n"), 0o600))

	cmd := NewConfigInitCmd(&cmdtypes.GlobalConfig{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--force"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "/old")
}

func TestConfigInit_ConfigContent(t *testing.T) {
	home := isolateHome(t)

	cmd := NewConfigInitCmd(&cmdtypes.GlobalConfig{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	cfg, err := config.NewLoader().Load(filepath.Join(home, ".composer", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestConfigInit_TOMLPath(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "nested", "composer.toml")

	cmd := NewConfigInitCmd(&cmdtypes.GlobalConfig{ConfigPath: path})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[analyzer]")

	cfg, err := config.NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "best-effort", cfg.Analyzer.Policy)
}
