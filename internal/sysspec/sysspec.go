// Package sysspec decodes and validates the declarative system specification.
package sysspec

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	oerrors "github.com/gparmer/Composite/internal/errors"
)

// Kernel is the constructor name of components loaded directly by the kernel.
const Kernel = "kernel"

// SystemSpec is a decoded system specification.
type SystemSpec struct {
	System        System         `toml:"system"`
	Components    []Component    `toml:"components"`
	AddressSpaces []AddressSpace `toml:"address_spaces"`

	// Path is where the spec was read from.
	Path string `toml:"-"`

	// Warnings lists keys present in the file that nothing consumed.
	Warnings []string `toml:"-"`
}

// System holds system-wide settings.
type System struct {
	Description string `toml:"description"`
}

// Component declares one buildable component.
type Component struct {
	Name string `toml:"name"`

	// Img names the component image inside the components directory.
	Img string `toml:"img"`

	// BaseAddr is an optional 0x-prefixed hexadecimal base address. It only
	// applies to components with an address space of their own.
	BaseAddr string `toml:"baseaddr"`

	// Constructor names the component that creates this one. Empty or
	// "kernel" means the kernel loads it at boot.
	Constructor string `toml:"constructor"`

	Deps       []Dep    `toml:"deps"`
	Implements []Export `toml:"implements"`
	Params     []Param  `toml:"params"`
}

// Dep is an interface this component invokes on a server.
type Dep struct {
	Srv       string `toml:"srv"`
	Interface string `toml:"interface"`
	Variant   string `toml:"variant"`
}

// Export is an interface this component implements.
type Export struct {
	Interface string `toml:"interface"`
	Variant   string `toml:"variant"`
}

// Param is a user-supplied initialization argument.
type Param struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

// AddressSpace groups components that share a virtual address space.
type AddressSpace struct {
	Name       string   `toml:"name"`
	Parent     string   `toml:"parent"`
	Components []string `toml:"components"`
}

// Root reports whether the kernel constructs c.
func (c *Component) Root() bool {
	return c.Constructor == "" || c.Constructor == Kernel
}

// Exports reports whether c implements iface.
func (c *Component) Exports(iface string) bool {
	for _, e := range c.Implements {
		if e.Interface == iface {
			return true
		}
	}
	return false
}

// Load reads and validates the spec at path.
func Load(fsys afero.Fs, path string) (*SystemSpec, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, oerrors.NewNotFoundError(
				"system specification does not exist",
				path,
				"pass the path of a TOML system specification",
			)
		}
		return nil, fmt.Errorf("reading system specification %s: %w", path, err)
	}

	spec, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Parse decodes data without validating it.
func Parse(data []byte, location string) (*SystemSpec, error) {
	var spec SystemSpec
	md, err := toml.Decode(string(data), &spec)
	if err != nil {
		loc := location
		var perr toml.ParseError
		if errors.As(err, &perr) {
			loc = fmt.Sprintf("%s:%d", location, perr.Position.Line)
		}
		return nil, &oerrors.DetailError{
			Type:     "validation failed",
			Message:  err.Error(),
			Location: loc,
			Hint:     "the system specification must be valid TOML",
			Cause:    oerrors.ErrValidation,
		}
	}

	spec.Path = location
	for _, key := range md.Undecoded() {
		spec.Warnings = append(spec.Warnings, fmt.Sprintf("unknown key %q", key.String()))
	}
	return &spec, nil
}

// Component returns the component named name.
func (s *SystemSpec) Component(name string) (*Component, bool) {
	for i := range s.Components {
		if s.Components[i].Name == name {
			return &s.Components[i], true
		}
	}
	return nil, false
}

// Names returns component names in declaration order.
func (s *SystemSpec) Names() []string {
	names := make([]string, len(s.Components))
	for i, c := range s.Components {
		names[i] = c.Name
	}
	return names
}

// Overrides maps component names to their declared base address strings.
func (s *SystemSpec) Overrides() map[string]string {
	out := make(map[string]string)
	for _, c := range s.Components {
		if strings.TrimSpace(c.BaseAddr) != "" {
			out[c.Name] = c.BaseAddr
		}
	}
	return out
}

// Validate checks names and cross references.
func (s *SystemSpec) Validate() error {
	if len(s.Components) == 0 {
		return s.invalid("no components declared", "components",
			"declare at least one [[components]] table")
	}

	declared := make(map[string]bool, len(s.Components))
	for i, c := range s.Components {
		field := fmt.Sprintf("components[%d]", i)
		if strings.TrimSpace(c.Name) == "" {
			return s.invalid("component has no name", field+".name", "")
		}
		if c.Name == Kernel {
			return s.invalid(fmt.Sprintf("component name %q is reserved", Kernel), field+".name", "")
		}
		if declared[c.Name] {
			return s.invalid(fmt.Sprintf("component %q declared twice", c.Name), field+".name", "")
		}
		declared[c.Name] = true
		if strings.TrimSpace(c.Img) == "" {
			return s.invalid(fmt.Sprintf("component %q has no image", c.Name), field+".img",
				"set img to the image name inside the components directory")
		}
	}

	for i, c := range s.Components {
		field := fmt.Sprintf("components[%d]", i)
		if !c.Root() {
			if !declared[c.Constructor] {
				return s.invalid(fmt.Sprintf("component %q names unknown constructor %q", c.Name, c.Constructor),
					field+".constructor", `use a declared component or "kernel"`)
			}
			if c.Constructor == c.Name {
				return s.invalid(fmt.Sprintf("component %q constructs itself", c.Name), field+".constructor", "")
			}
		}
		for j, d := range c.Deps {
			dfield := fmt.Sprintf("%s.deps[%d]", field, j)
			if !declared[d.Srv] {
				return s.invalid(fmt.Sprintf("component %q depends on unknown server %q", c.Name, d.Srv),
					dfield+".srv", "")
			}
			if d.Srv == c.Name {
				return s.invalid(fmt.Sprintf("component %q depends on itself", c.Name), dfield+".srv", "")
			}
			if strings.TrimSpace(d.Interface) == "" {
				return s.invalid(fmt.Sprintf("dependency of %q on %q has no interface", c.Name, d.Srv),
					dfield+".interface", "")
			}
		}
		for j, p := range c.Params {
			if strings.TrimSpace(p.Key) == "" {
				return s.invalid(fmt.Sprintf("component %q has a parameter without a key", c.Name),
					fmt.Sprintf("%s.params[%d].key", field, j), "")
			}
		}
	}

	spaces := make(map[string]bool, len(s.AddressSpaces))
	for i, as := range s.AddressSpaces {
		if strings.TrimSpace(as.Name) == "" {
			return s.invalid("address space has no name", fmt.Sprintf("address_spaces[%d].name", i), "")
		}
		if spaces[as.Name] {
			return s.invalid(fmt.Sprintf("address space %q declared twice", as.Name),
				fmt.Sprintf("address_spaces[%d].name", i), "")
		}
		spaces[as.Name] = true
	}

	member := make(map[string]string)
	for i, as := range s.AddressSpaces {
		field := fmt.Sprintf("address_spaces[%d]", i)
		if as.Parent != "" {
			if as.Parent == as.Name {
				return s.invalid(fmt.Sprintf("address space %q is its own parent", as.Name), field+".parent", "")
			}
			if !spaces[as.Parent] {
				return s.invalid(fmt.Sprintf("address space %q names unknown parent %q", as.Name, as.Parent),
					field+".parent", "")
			}
		}
		for _, name := range as.Components {
			if !declared[name] {
				return s.invalid(fmt.Sprintf("address space %q lists unknown component %q", as.Name, name),
					field+".components", "")
			}
			if prev, ok := member[name]; ok {
				return s.invalid(fmt.Sprintf("component %q is in address spaces %q and %q", name, prev, as.Name),
					field+".components", "a component can share only one address space")
			}
			member[name] = as.Name
		}
	}

	parents := make(map[string]string, len(s.AddressSpaces))
	for _, as := range s.AddressSpaces {
		parents[as.Name] = as.Parent
	}
	for i, as := range s.AddressSpaces {
		seen := map[string]bool{as.Name: true}
		for p := as.Parent; p != ""; p = parents[p] {
			if seen[p] {
				return s.invalid(fmt.Sprintf("address space %q has a parent cycle through %q", as.Name, p),
					fmt.Sprintf("address_spaces[%d].parent", i), "")
			}
			seen[p] = true
		}
	}

	return nil
}

func (s *SystemSpec) invalid(message, field, hint string) error {
	return oerrors.NewValidationError(message, s.Path, field, hint)
}
