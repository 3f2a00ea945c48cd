package passes

import (
	"fmt"
	"strings"

	"github.com/gparmer/Composite/internal/component"
	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/sysspec"
	"github.com/gparmer/Composite/internal/system"
)

// Order computes the forward build order and assigns component ids.
//
// A server precedes its clients and a constructor precedes the components it
// creates. Among components that are ready at the same time, declaration order
// wins, so the result is stable across runs. Ids are 1..N in that order.
func Order(st *system.State, _ system.BuildState) (*component.Registry, error) {
	spec, err := st.Spec()
	if err != nil {
		return nil, err
	}

	names, err := TopoOrder(spec)
	if err != nil {
		return nil, err
	}
	return component.NewRegistry(names)
}

// TopoOrder returns component names in dependency order.
func TopoOrder(spec *sysspec.SystemSpec) ([]string, error) {
	n := len(spec.Components)
	index := make(map[string]int, n)
	for i, c := range spec.Components {
		index[c.Name] = i
	}

	succ := make([][]int, n)
	indegree := make([]int, n)
	seen := make(map[[2]int]bool)
	addEdge := func(from, to string) error {
		fi, ok := index[from]
		if !ok {
			return fmt.Errorf("%w: unknown component %q", oerrors.ErrValidation, from)
		}
		ti := index[to]
		edge := [2]int{fi, ti}
		if seen[edge] {
			return nil
		}
		seen[edge] = true
		succ[fi] = append(succ[fi], ti)
		indegree[ti]++
		return nil
	}

	for _, c := range spec.Components {
		for _, d := range c.Deps {
			if err := addEdge(d.Srv, c.Name); err != nil {
				return nil, err
			}
		}
		if !c.Root() {
			if err := addEdge(c.Constructor, c.Name); err != nil {
				return nil, err
			}
		}
	}

	done := make([]bool, n)
	order := make([]string, 0, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, c := range spec.Components {
				if !done[i] {
					stuck = append(stuck, c.Name)
				}
			}
			return nil, &oerrors.DetailError{
				Type:     "validation failed",
				Message:  fmt.Sprintf("dependency cycle among components: %s", strings.Join(stuck, ", ")),
				Location: spec.Path,
				Hint:     "components cannot depend on or construct each other in a loop",
				Cause:    oerrors.ErrValidation,
			}
		}

		done[next] = true
		order = append(order, spec.Components[next].Name)
		for _, s := range succ[next] {
			indegree[s]--
		}
	}
	return order, nil
}
