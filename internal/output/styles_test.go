package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		addr uint64
		want string
	}{
		{0, "0x000000000000"},
		{0x400000, "0x000000400000"},
		{0x400000 + 1<<39, "0x008000400000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAddress(tt.addr))
		})
	}
}

func TestFormatCheckmark(t *testing.T) {
	out := FormatCheckmark("image written")
	assert.Contains(t, out, "✔")
	assert.Contains(t, out, "image written")
}
