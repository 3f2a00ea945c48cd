package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gparmer/Composite/internal/component"
	"github.com/gparmer/Composite/internal/sysspec"
)

func TestState_AttachBeforeRead(t *testing.T) {
	st := NewState()

	_, err := st.Spec()
	assert.ErrorIs(t, err, ErrNotAttached)
	_, err = st.Named()
	assert.ErrorIs(t, err, ErrNotAttached)
	_, err = st.Object(1)
	assert.ErrorIs(t, err, ErrNotAttached)

	spec := &sysspec.SystemSpec{Path: "sys.toml"}
	require.NoError(t, st.AttachSpec(spec))
	got, err := st.Spec()
	require.NoError(t, err)
	assert.Same(t, spec, got)

	assert.ErrorIs(t, st.AttachSpec(&sysspec.SystemSpec{}), ErrAlreadyAttached)

	reg, err := component.NewRegistry([]string{"a"})
	require.NoError(t, err)
	require.NoError(t, st.AttachNamed(reg))

	obj := &Object{Component: 1, Name: "a"}
	require.NoError(t, st.AttachObject(1, obj))
	gotObj, err := st.Object(1)
	require.NoError(t, err)
	assert.Same(t, obj, gotObj)
	assert.ErrorIs(t, st.AttachObject(1, obj), ErrAlreadyAttached)
}

func TestProperties_Of(t *testing.T) {
	p := NewProperties([]*ComponentProperties{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}})
	assert.Equal(t, 2, p.Len())

	cp, ok := p.Of(2)
	require.True(t, ok)
	assert.Equal(t, "b", cp.Name)

	_, ok = p.Of(3)
	assert.False(t, ok)
}

func TestResourceTable_SlotFor(t *testing.T) {
	rt := &ResourceTable{
		Component: 2,
		Slots: []CapSlot{
			{Server: 1, Interface: "init", Slot: 4},
			{Server: 1, Interface: "sched", Slot: 8},
		},
	}
	tables := NewResourceTables([]*ResourceTable{rt})

	got, ok := tables.Of(2)
	require.True(t, ok)
	slot, ok := got.SlotFor(1, "sched")
	require.True(t, ok)
	assert.Equal(t, uint32(8), slot)

	_, ok = got.SlotFor(3, "sched")
	assert.False(t, ok)
}

func TestParameters_Get(t *testing.T) {
	p := &Parameters{Args: []Arg{{Key: "compid", Value: "1"}, {Key: "name", Value: "a"}}}
	v, ok := p.Get("name")
	require.True(t, ok)
	assert.Equal(t, "a", v)
	_, ok = p.Get("missing")
	assert.False(t, ok)
}
