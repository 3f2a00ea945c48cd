package passes

import (
	"bytes"
	"debug/elf"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/gparmer/Composite/internal/component"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/system"
)

var elfMagic = []byte(elf.ELFMAG)

// Object copies the component image into the build directory and writes its
// argument file next to it.
//
// Images that are ELF files must target 64-bit x86-64; their entry point is
// recorded. Anything else is copied as an opaque blob.
func Object(id component.ID, st *system.State, bs system.BuildState) (*system.Object, error) {
	spec, err := st.Spec()
	if err != nil {
		return nil, err
	}
	named, err := st.Named()
	if err != nil {
		return nil, err
	}
	params, err := st.Params(id)
	if err != nil {
		return nil, err
	}

	c, err := specComponent(spec, named, id)
	if err != nil {
		return nil, err
	}

	src, err := bs.ResolveImage(c.Img)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(bs.Fs(), src)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", src, err)
	}

	obj := &system.Object{
		Component: id,
		Name:      c.Name,
		Path:      bs.ArtifactPath(fmt.Sprintf("%s.%d.o", c.Name, id)),
		ArgsPath:  bs.ArtifactPath(fmt.Sprintf("%s.%d.args", c.Name, id)),
		Size:      int64(len(data)),
	}

	if bytes.HasPrefix(data, elfMagic) {
		entry, err := checkELF(data)
		if err != nil {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("image of component %q: %v", c.Name, err), src, "img", "")
		}
		obj.ELF = true
		obj.Entry = entry
	}

	if err := afero.WriteFile(bs.Fs(), obj.Path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing object %s: %w", obj.Path, err)
	}
	bs.Record("object", obj.Path)

	if err := afero.WriteFile(bs.Fs(), obj.ArgsPath, []byte(FormatArgs(params.Args)), 0o644); err != nil {
		return nil, fmt.Errorf("writing arguments %s: %w", obj.ArgsPath, err)
	}
	bs.Record("args", obj.ArgsPath)

	return obj, nil
}

// FormatArgs renders arguments one key=value per line.
func FormatArgs(args []system.Arg) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(a.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

func checkELF(data []byte) (uint64, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("malformed ELF: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS64 {
		return 0, fmt.Errorf("ELF class %s, want %s", f.Class, elf.ELFCLASS64)
	}
	if f.Machine != elf.EM_X86_64 {
		return 0, fmt.Errorf("ELF machine %s, want %s", f.Machine, elf.EM_X86_64)
	}
	return f.Entry, nil
}
