package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gparmer/Composite/internal/component"
	oerrors "github.com/gparmer/Composite/internal/errors"
)

func TestSlot_WriteOnce(t *testing.T) {
	s := NewSlot[int]("answer")
	assert.False(t, s.Attached())

	_, err := s.Get()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAttached)
	assert.ErrorIs(t, err, oerrors.ErrInvariant)
	assert.Contains(t, err.Error(), "answer")

	require.NoError(t, s.Attach(42))
	assert.True(t, s.Attached())

	err = s.Attach(7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyAttached)

	v, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPerComponent_WriteOnce(t *testing.T) {
	p := NewPerComponent[string]("object")

	require.NoError(t, p.Attach(3, "c"))
	require.NoError(t, p.Attach(1, "a"))

	err := p.Attach(3, "again")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyAttached)
	assert.Contains(t, err.Error(), "object of component 3")

	v, err := p.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	_, err = p.Get(2)
	assert.ErrorIs(t, err, ErrNotAttached)

	assert.True(t, p.Has(1))
	assert.False(t, p.Has(2))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []component.ID{1, 3}, p.IDs())
}

func TestPerComponent_ZeroValue(t *testing.T) {
	var p PerComponent[int]
	require.NoError(t, p.Attach(1, 1))
	assert.Equal(t, 1, p.Len())
}
