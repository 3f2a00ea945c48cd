package passes

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/system"
)

// Graph exports the component graph in Graphviz DOT form. Invocation edges
// point from client to server and carry the interface name; construction
// edges are dashed and point from constructor to child.
func Graph(st *system.State, bs system.BuildState) (*system.Graph, error) {
	named, err := st.Named()
	if err != nil {
		return nil, err
	}
	props, err := st.Properties()
	if err != nil {
		return nil, err
	}

	g := &system.Graph{Path: bs.ArtifactPath(bs.BuildName() + ".dot")}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", bs.BuildName())
	b.WriteString("\trankdir=BT;\n")
	b.WriteString("\tnode [shape=box];\n")

	for _, id := range named.IDs() {
		cp, ok := props.Of(id)
		if !ok {
			return nil, oerrors.Invariantf("no properties for %s", named.Label(id))
		}
		label := fmt.Sprintf("%s (%d)\n%#x", cp.Name, id, cp.BaseAddr)
		if cp.Space != "" {
			label += "\n[" + cp.Space + "]"
		}
		fmt.Fprintf(&b, "\t%q [label=%q];\n", cp.Name, label)
		g.Nodes++
	}

	for _, id := range named.IDs() {
		cp, _ := props.Of(id)
		inv, err := st.Invocations(id)
		if err != nil {
			return nil, err
		}
		for _, in := range inv.Invocations {
			fmt.Fprintf(&b, "\t%q -> %q [label=%q];\n", cp.Name, in.ServerName, in.Interface)
			g.Edges++
		}
		for _, child := range cp.Children {
			name, _ := named.Name(child)
			fmt.Fprintf(&b, "\t%q -> %q [style=dashed];\n", cp.Name, name)
			g.Edges++
		}
	}
	b.WriteString("}\n")

	if err := afero.WriteFile(bs.Fs(), g.Path, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("writing graph %s: %w", g.Path, err)
	}
	bs.Record("graph", g.Path)
	return g, nil
}
