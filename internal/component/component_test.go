package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_AssignsIDsInOrder(t *testing.T) {
	r, err := NewRegistry([]string{"booter", "capmgr", "ping"})
	require.NoError(t, err)

	assert.Equal(t, []ID{1, 2, 3}, r.IDs())
	assert.Equal(t, 3, r.Len())

	id, ok := r.Lookup("capmgr")
	require.True(t, ok)
	assert.Equal(t, ID(2), id)

	name, ok := r.Name(3)
	require.True(t, ok)
	assert.Equal(t, "ping", name)

	assert.True(t, r.Contains(1))
	assert.False(t, r.Contains(None))
	assert.False(t, r.Contains(4))
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{name: "duplicate", names: []string{"a", "b", "a"}, want: "registered twice"},
		{name: "empty name", names: []string{"a", ""}, want: "no name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.names)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry_IDsIsACopy(t *testing.T) {
	r, err := NewRegistry([]string{"a", "b"})
	require.NoError(t, err)

	ids := r.IDs()
	ids[0] = 99
	assert.Equal(t, []ID{1, 2}, r.IDs())
}

func TestRegistry_Label(t *testing.T) {
	r, err := NewRegistry([]string{"booter"})
	require.NoError(t, err)

	assert.Equal(t, "booter(1)", r.Label(1))
	assert.Equal(t, "#7", r.Label(7))
}
