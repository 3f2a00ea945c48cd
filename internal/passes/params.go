package passes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gparmer/Composite/internal/component"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/sysspec"
	"github.com/gparmer/Composite/internal/system"
)

// ChildParamPrefix prefixes the argument that points a constructor at a
// child's object.
const ChildParamPrefix = "child."

var reservedParams = map[string]bool{
	"compid":      true,
	"name":        true,
	"baseaddr":    true,
	"constructor": true,
}

// Params derives the initialization arguments of one component.
//
// A constructor receives the object path of every child it creates, so the
// children must have been built before it.
func Params(id component.ID, st *system.State, _ system.BuildState) (*system.Parameters, error) {
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

	c, err := specComponent(spec, named, id)
	if err != nil {
		return nil, err
	}
	cp, ok := props.Of(id)
	if !ok {
		return nil, oerrors.Invariantf("no properties for %s", named.Label(id))
	}

	ctor := sysspec.Kernel
	if cp.Constructor != component.None {
		ctor, _ = named.Name(cp.Constructor)
	}

	p := &system.Parameters{Component: id}
	p.Args = append(p.Args,
		system.Arg{Key: "compid", Value: strconv.FormatUint(uint64(id), 10)},
		system.Arg{Key: "name", Value: c.Name},
		system.Arg{Key: "baseaddr", Value: fmt.Sprintf("%#x", cp.BaseAddr)},
		system.Arg{Key: "constructor", Value: ctor},
	)

	for _, up := range c.Params {
		if reservedParams[up.Key] || strings.HasPrefix(up.Key, ChildParamPrefix) {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("component %q sets reserved parameter %q", c.Name, up.Key),
				spec.Path, "params", "")
		}
		p.Args = append(p.Args, system.Arg{Key: up.Key, Value: up.Value})
	}

	for _, child := range cp.Children {
		obj, err := st.Object(child)
		if err != nil {
			return nil, oerrors.Invariantf("child %s of %s has no object yet", named.Label(child), named.Label(id))
		}
		p.Args = append(p.Args, system.Arg{Key: ChildParamPrefix + obj.Name, Value: obj.Path})
	}

	return p, nil
}
