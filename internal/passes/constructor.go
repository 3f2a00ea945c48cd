package passes

import (
	"archive/tar"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/gparmer/Composite/internal/component"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/sysspec"
	"github.com/gparmer/Composite/internal/system"
)

// ManifestName is the manifest entry inside the image.
const ManifestName = "manifest.yaml"

// Manifest describes the contents of a system image.
type Manifest struct {
	Build       string              `yaml:"build"`
	Description string              `yaml:"description,omitempty"`
	Components  []ManifestComponent `yaml:"components"`
}

// ManifestComponent is one component entry in the manifest.
type ManifestComponent struct {
	ID          uint32               `yaml:"id"`
	Name        string               `yaml:"name"`
	Object      string               `yaml:"object"`
	Args        string               `yaml:"args"`
	BaseAddr    string               `yaml:"baseaddr"`
	Space       string               `yaml:"space,omitempty"`
	Constructor string               `yaml:"constructor"`
	Entry       string               `yaml:"entry,omitempty"`
	Invocations []ManifestInvocation `yaml:"invocations,omitempty"`
}

// ManifestInvocation is one invocation entry in the manifest.
type ManifestInvocation struct {
	Server      string `yaml:"server"`
	Interface   string `yaml:"interface"`
	Variant     string `yaml:"variant,omitempty"`
	CapSlot     uint32 `yaml:"capslot"`
	ClientStub  string `yaml:"client_stub"`
	ServerEntry string `yaml:"server_entry"`
}

// imageEpoch is the modification time stamped on every image entry, so the
// image only changes when its contents do.
var imageEpoch = time.Unix(0, 0).UTC()

// Constructor assembles the system image: a tar archive holding every
// component object and argument file in build order, followed by the
// manifest.
func Constructor(st *system.State, bs system.BuildState) (*system.Image, error) {
	spec, err := st.Spec()
	if err != nil {
		return nil, err
	}
	named, err := st.Named()
	if err != nil {
		return nil, err
	}
	props, err := st.Properties()
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{Build: bs.BuildName(), Description: spec.System.Description}
	var files []string

	for _, id := range named.IDs() {
		obj, err := st.Object(id)
		if err != nil {
			return nil, err
		}
		inv, err := st.Invocations(id)
		if err != nil {
			return nil, err
		}
		cp, ok := props.Of(id)
		if !ok {
			return nil, oerrors.Invariantf("no properties for %s", named.Label(id))
		}

		mc := ManifestComponent{
			ID:          uint32(id),
			Name:        obj.Name,
			Object:      filepath.Base(obj.Path),
			Args:        filepath.Base(obj.ArgsPath),
			BaseAddr:    fmt.Sprintf("%#x", cp.BaseAddr),
			Space:       cp.Space,
			Constructor: constructorName(named, cp.Constructor),
		}
		if obj.ELF {
			mc.Entry = fmt.Sprintf("%#x", obj.Entry)
		}
		for _, in := range inv.Invocations {
			mc.Invocations = append(mc.Invocations, ManifestInvocation{
				Server:      in.ServerName,
				Interface:   in.Interface,
				Variant:     in.Variant,
				CapSlot:     in.CapSlot,
				ClientStub:  in.ClientStub,
				ServerEntry: in.ServerEntry,
			})
		}
		manifest.Components = append(manifest.Components, mc)
		files = append(files, obj.Path, obj.ArgsPath)
	}

	manifestData, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}

	path := bs.ArtifactPath(bs.BuildName() + ".img.tar")
	members, err := writeImage(bs.Fs(), path, files, manifestData)
	if err != nil {
		return nil, err
	}

	info, err := bs.Fs().Stat(path)
	if err != nil {
		return nil, fmt.Errorf("checking image %s: %w", path, err)
	}
	bs.Record("image", path)

	return &system.Image{Path: path, Size: info.Size(), Members: members}, nil
}

func writeImage(fs afero.Fs, path string, files []string, manifest []byte) (members []string, err error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating image %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing image %s: %w", path, cerr)
		}
	}()

	tw := tar.NewWriter(f)
	add := func(name string, data []byte) error {
		hdr := &tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: imageEpoch,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing image entry %s: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("writing image entry %s: %w", name, err)
		}
		members = append(members, name)
		return nil
	}

	for _, file := range files {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		if err := add(filepath.Base(file), data); err != nil {
			return nil, err
		}
	}
	if err := add(ManifestName, manifest); err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("finishing image %s: %w", path, err)
	}
	return members, nil
}

func constructorName(named *component.Registry, id component.ID) string {
	if id == component.None {
		return sysspec.Kernel
	}
	name, _ := named.Name(id)
	return name
}
