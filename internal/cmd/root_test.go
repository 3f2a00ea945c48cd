package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gparmer/Composite/internal/config"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/output"
	"github.com/gparmer/Composite/internal/testutil"
)

const pingPongSystem = `
[[components]]
name = "booter"
img = "booter.img"
baseaddr = "0x1600000"
implements = [{ interface = "init" }]

[[components]]
name = "ping"
img = "ping.img"
constructor = "booter"
deps = [{ srv = "pong", interface = "pong" }, { srv = "booter", interface = "init" }]

[[components]]
name = "pong"
img = "pong.img"
constructor = "booter"
implements = [{ interface = "pong" }]
deps = [{ srv = "booter", interface = "init" }]

[[address_spaces]]
name = "shared"
components = ["ping", "pong"]
`

// useMemFs swaps the build filesystem for an in-memory one holding the
// ping-pong system and its images.
func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := testutil.MemFs(t, map[string]string{
		"/sys.toml":         pingPongSystem,
		"/comps/booter.img": "booter",
		"/comps/ping.img":   "ping",
		"/comps/pong.img":   "pong",
	})

	orig := buildFs
	buildFs = fs
	t.Cleanup(func() { buildFs = orig })
	return fs
}

// execute runs the root command with a private config and the in-memory
// build layout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	isolateHome(t)
	for _, env := range []string{
		config.EnvAnalyzer, config.EnvAnalyzerInterpreter, config.EnvAnalyzerTimeout,
		config.EnvAnalyzerPolicy, config.EnvBuildRoot, config.EnvComponentsDir,
	} {
		t.Setenv(env, "")
	}

	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{
		"--config", filepath.Join(t.TempDir(), "absent.yaml"),
		"--timestamps=false",
	}, args...))
	err := root.Execute()
	output.SetupLogging(output.LogConfig{})
	return out.String(), err
}

func TestRoot_MissingArguments(t *testing.T) {
	useMemFs(t)

	for _, args := range [][]string{{}, {"/sys.toml"}, {"/sys.toml", "demo", "extra"}} {
		out, err := execute(t, args...)
		require.Error(t, err)

		var exitErr *oerrors.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, oerrors.ExitUsageError, exitErr.Code)
		assert.True(t, exitErr.Printed)
		assert.ErrorIs(t, err, oerrors.ErrUsage)
		assert.Contains(t, out, "Usage: composer <system-spec-file> <build-name>")
	}
}

func TestRoot_BuildText(t *testing.T) {
	fs := useMemFs(t)

	out, err := execute(t, "/sys.toml", "demo", "--build-root", "/out", "--components-dir", "/comps")
	require.NoError(t, err)

	image := "/out/cos_build-demo/demo.img.tar"
	assert.Equal(t, "System object generated:\n\t"+image+"\n", out)

	exists, err := afero.Exists(fs, image)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = afero.Exists(fs, "/out/cos_build-demo/demo.dot")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRoot_BuildTable(t *testing.T) {
	useMemFs(t)

	out, err := execute(t, "/sys.toml", "demo", "-o", "table", "--build-root", "/out", "--components-dir", "/comps")
	require.NoError(t, err)

	assert.Contains(t, out, "System object generated:")
	assert.Contains(t, out, "BASE ADDRESS")
	assert.Contains(t, out, "booter")
	assert.Contains(t, out, output.FormatAddress(0x1600000))
	assert.Contains(t, out, "shared")
	assert.Contains(t, out, "cos_build-demo/")
	assert.Contains(t, out, "booter.1.args")
	assert.Contains(t, out, "demo.img.tar")
}

func TestRoot_BuildJSON(t *testing.T) {
	useMemFs(t)

	out, err := execute(t, "/sys.toml", "demo", "-o", "json", "--build-root", "/out", "--components-dir", "/comps")
	require.NoError(t, err)

	var summary output.BuildSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "demo", summary.Build)
	assert.Equal(t, "/out/cos_build-demo/demo.img.tar", summary.Image)
	assert.Equal(t, "/out/cos_build-demo/demo.dot", summary.Graph)
	require.Len(t, summary.Layout, 3)

	// Forward order: booter serves everyone, pong serves ping.
	assert.Equal(t, "booter", summary.Layout[0].Component)
	assert.Equal(t, uint32(1), summary.Layout[0].ID)
	assert.Equal(t, "-", summary.Layout[0].Space)
	assert.Equal(t, output.FormatAddress(0x1600000), summary.Layout[0].Address)
	assert.Equal(t, "pong", summary.Layout[1].Component)
	assert.Equal(t, "ping", summary.Layout[2].Component)
	assert.Equal(t, "shared", summary.Layout[2].Space)
}

func TestRoot_BuildErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{
			name: "missing spec file",
			args: []string{"/absent.toml", "demo"},
			code: oerrors.ExitNotFound,
		},
		{
			name: "missing component image",
			args: []string{"/sys.toml", "demo", "--components-dir", "/elsewhere"},
			code: oerrors.ExitNotFound,
		},
		{
			name: "invalid build name",
			args: []string{"/sys.toml", "a/b"},
			code: oerrors.ExitValidationError,
		},
		{
			name: "unknown output format",
			args: []string{"/sys.toml", "demo", "-o", "xml"},
			code: oerrors.ExitUsageError,
		},
		{
			name: "unknown analyzer policy",
			args: []string{"/sys.toml", "demo", "--analyzer-policy", "lenient"},
			code: oerrors.ExitValidationError,
		},
		{
			name: "invalid analyzer timeout",
			args: []string{"/sys.toml", "demo", "--analyzer-timeout", "soon"},
			code: oerrors.ExitValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useMemFs(t)

			args := append([]string{"--build-root", "/out", "--components-dir", "/comps"}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, oerrors.ExitCodeFromError(err))
		})
	}
}

func TestRoot_EnvOverridesConfig(t *testing.T) {
	useMemFs(t)
	isolateHome(t)

	cfgPath := testutil.WriteFile(t, t.TempDir(), "config.yaml", "build:\n  root: /wrong\n  componentsDir: /comps\n")
	t.Setenv(config.EnvBuildRoot, "/out")

	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "/sys.toml", "demo"})
	t.Cleanup(func() { output.SetupLogging(output.LogConfig{}) })

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "/out/cos_build-demo/demo.img.tar")
}
