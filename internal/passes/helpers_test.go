package passes

import (
	"archive/tar"
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/gparmer/Composite/internal/builder"
	"github.com/gparmer/Composite/internal/component"
	"github.com/gparmer/Composite/internal/system"
)

const pingPongSpec = `
[system]
description = "ping-pong"

[[components]]
name = "booter"
img = "booter.img"
baseaddr = "0x1600000"
implements = [{ interface = "init" }]

[[components]]
name = "ping"
img = "tests.unit_ping"
constructor = "booter"
deps = [
  { srv = "pong", interface = "pong", variant = "stubs" },
  { srv = "booter", interface = "init" },
]
params = [{ key = "iters", value = "10" }]

[[components]]
name = "pong"
img = "tests.unit_pong"
constructor = "booter"
implements = [{ interface = "pong", variant = "stubs" }]
deps = [{ srv = "booter", interface = "init" }]

[[address_spaces]]
name = "shared"
components = ["ping", "pong"]
`

type fixture struct {
	fs      afero.Fs
	builder *builder.DefaultBuilder
	state   *system.State
}

func newFixture(t *testing.T, spec string, images map[string][]byte) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sys.toml", []byte(spec), 0o644))
	for path, data := range images {
		require.NoError(t, afero.WriteFile(fs, "/comps/"+path, data, 0o644))
	}

	b := builder.New(fs, builder.Options{Root: "/out", ComponentsDir: "/comps"})
	require.NoError(t, b.Initialize("demo", "/sys.toml"))
	return &fixture{fs: fs, builder: b, state: system.NewState()}
}

func pingPongImages() map[string][]byte {
	return map[string][]byte{
		"booter.img":      []byte("booter-image"),
		"tests/unit_ping": []byte("ping-image"),
		"tests/unit_pong": []byte("pong-image"),
	}
}

// through runs the whole-system passes up to and including resource tables.
func (f *fixture) through(t *testing.T) {
	t.Helper()
	spec, err := ParseSpec(f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachSpec(spec))

	named, err := Order(f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachNamed(named))

	addrs, err := AssignAddresses(f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachAddresses(addrs))

	props, err := Properties(f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachProperties(props))

	tables, err := ResourceTables(f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachResourceTables(tables))
}

// generate runs the per-component passes for id.
func (f *fixture) generate(t *testing.T, id component.ID) {
	t.Helper()
	p, err := Params(id, f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachParams(id, p))

	obj, err := Object(id, f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachObject(id, obj))

	inv, err := Invocations(id, f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachInvocations(id, inv))
}

// all runs every pass, generating components last-first.
func (f *fixture) all(t *testing.T) {
	t.Helper()
	f.through(t)
	named, err := f.state.Named()
	require.NoError(t, err)
	ids := named.IDs()
	for i := len(ids) - 1; i >= 0; i-- {
		f.generate(t, ids[i])
	}

	img, err := Constructor(f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachConstructor(img))

	g, err := Graph(f.state, f.builder)
	require.NoError(t, err)
	require.NoError(t, f.state.AttachGraph(g))
}

func (f *fixture) id(t *testing.T, name string) component.ID {
	t.Helper()
	named, err := f.state.Named()
	require.NoError(t, err)
	id, ok := named.Lookup(name)
	require.True(t, ok, "component %s", name)
	return id
}

func readTar(t *testing.T, fs afero.Fs, path string) ([]string, map[string][]byte) {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	tr := tar.NewReader(bytes.NewReader(data))
	var names []string
	contents := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		names = append(names, hdr.Name)
		contents[hdr.Name] = body
	}
	return names, contents
}

func elfHeader(t *testing.T, class elf.Class, machine elf.Machine, entry uint64) []byte {
	t.Helper()
	var hdr elf.Header64
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(class)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	hdr.Type = uint16(elf.ET_EXEC)
	hdr.Machine = uint16(machine)
	hdr.Version = uint32(elf.EV_CURRENT)
	hdr.Entry = entry
	hdr.Ehsize = 64
	hdr.Phentsize = 56
	hdr.Shentsize = 64

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &hdr))
	return buf.Bytes()
}
