// Package builder provides the mutable build context the pipeline threads
// through every pass: the build directory, the components directory and the
// list of written artifacts.
package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/output"
	"github.com/gparmer/Composite/internal/system"
)

// DirPrefix prefixes the build directory name.
const DirPrefix = "cos_build-"

// Options holds the directory settings supplied by the caller.
type Options struct {
	// Root is the directory the build directory is created in.
	Root string

	// ComponentsDir holds the component images named by the spec.
	ComponentsDir string
}

// DefaultBuilder is the filesystem-backed system.BuildState.
type DefaultBuilder struct {
	fs            afero.Fs
	root          string
	componentsDir string

	name      string
	specPath  string
	dir       string
	artifacts []system.Artifact
}

var _ system.BuildState = (*DefaultBuilder)(nil)

// New returns an uninitialized builder over fs.
func New(fs afero.Fs, opts Options) *DefaultBuilder {
	return &DefaultBuilder{
		fs:            fs,
		root:          opts.Root,
		componentsDir: opts.ComponentsDir,
	}
}

// Initialize prepares a fresh build directory for buildName.
//
// The directory is <root>/cos_build-<buildName>. Anything left there by an
// earlier run is removed first, so two runs with the same inputs produce the
// same tree.
func (b *DefaultBuilder) Initialize(buildName, specPath string) error {
	if strings.TrimSpace(buildName) == "" {
		return oerrors.NewValidationError("build name is empty", "", "build-name",
			"pass a non-empty build name")
	}
	if strings.ContainsAny(buildName, `/\`) || buildName == "." || buildName == ".." {
		return oerrors.NewValidationError(
			fmt.Sprintf("build name %q is not a plain file name", buildName), "", "build-name", "")
	}

	b.name = buildName
	b.specPath = specPath
	b.dir = filepath.Join(b.root, DirPrefix+buildName)
	b.artifacts = nil

	if err := b.fs.RemoveAll(b.dir); err != nil {
		return fmt.Errorf("removing old build directory %s: %w", b.dir, err)
	}
	if err := b.fs.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("creating build directory %s: %w", b.dir, err)
	}

	output.Debug("initialized build directory", "dir", b.dir, "spec", specPath)
	return nil
}

func (b *DefaultBuilder) BuildName() string { return b.name }
func (b *DefaultBuilder) SpecPath() string  { return b.specPath }
func (b *DefaultBuilder) BuildDir() string  { return b.dir }
func (b *DefaultBuilder) Fs() afero.Fs      { return b.fs }

// ArtifactPath returns file joined onto the build directory.
func (b *DefaultBuilder) ArtifactPath(file string) string {
	return filepath.Join(b.dir, file)
}

// ResolveImage finds img in the components directory. It tries the name as
// given, with an ".o" suffix, and with dots read as directory separators
// ("tests.unit_ping" -> "tests/unit_ping").
func (b *DefaultBuilder) ResolveImage(img string) (string, error) {
	candidates := []string{
		filepath.Join(b.componentsDir, img),
		filepath.Join(b.componentsDir, img+".o"),
		filepath.Join(b.componentsDir, filepath.FromSlash(strings.ReplaceAll(img, ".", "/"))),
	}

	for _, path := range candidates {
		info, err := b.fs.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("checking component image %s: %w", path, err)
		}
		if info.Mode().IsRegular() {
			return path, nil
		}
	}

	return "", oerrors.NewNotFoundError(
		fmt.Sprintf("component image %q not found", img),
		b.componentsDir,
		"set --components-dir to the directory holding the built component images",
	)
}

// Record remembers a written artifact.
func (b *DefaultBuilder) Record(kind, path string) {
	b.artifacts = append(b.artifacts, system.Artifact{Kind: kind, Path: path})
}

// Artifacts returns a copy of the recorded artifacts.
func (b *DefaultBuilder) Artifacts() []system.Artifact {
	out := make([]system.Artifact, len(b.artifacts))
	copy(out, b.artifacts)
	return out
}
