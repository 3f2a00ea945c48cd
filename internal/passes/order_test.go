package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/gparmer/Composite/internal/errors"
	"github.com/gparmer/Composite/internal/sysspec"
)

func TestTopoOrder_ServersAndConstructorsFirst(t *testing.T) {
	spec, err := sysspec.Parse([]byte(pingPongSpec), "sys.toml")
	require.NoError(t, err)

	order, err := TopoOrder(spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"booter", "pong", "ping"}, order)
}

func TestTopoOrder_DeclarationOrderBreaksTies(t *testing.T) {
	spec := &sysspec.SystemSpec{Components: []sysspec.Component{
		{Name: "c", Deps: []sysspec.Dep{{Srv: "a", Interface: "x"}}},
		{Name: "b"},
		{Name: "a"},
		{Name: "d", Constructor: "b"},
	}}

	order, err := TopoOrder(spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c", "d"}, order)
}

func TestTopoOrder_Chain(t *testing.T) {
	spec := &sysspec.SystemSpec{Components: []sysspec.Component{
		{Name: "C", Deps: []sysspec.Dep{{Srv: "B", Interface: "b"}}},
		{Name: "B", Deps: []sysspec.Dep{{Srv: "A", Interface: "a"}}},
		{Name: "A"},
	}}

	order, err := TopoOrder(spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestTopoOrder_Cycle(t *testing.T) {
	spec := &sysspec.SystemSpec{
		Path: "sys.toml",
		Components: []sysspec.Component{
			{Name: "root"},
			{Name: "a", Deps: []sysspec.Dep{{Srv: "b", Interface: "x"}}},
			{Name: "b", Constructor: "a"},
		},
	}

	_, err := TopoOrder(spec)
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.Contains(t, err.Error(), "dependency cycle among components: a, b")
}

func TestOrder_AssignsIDsInOrder(t *testing.T) {
	f := newFixture(t, pingPongSpec, pingPongImages())
	f.through(t)

	named, err := f.state.Named()
	require.NoError(t, err)
	for i, name := range []string{"booter", "pong", "ping"} {
		id, ok := named.Lookup(name)
		require.True(t, ok)
		assert.EqualValues(t, i+1, id)
	}
}
