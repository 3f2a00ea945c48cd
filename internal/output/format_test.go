package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
		valid bool
	}{
		{"", FormatText, true},
		{"text", FormatText, true},
		{"TABLE", FormatTable, true},
		{"yml", FormatYAML, true},
		{"yaml", FormatYAML, true},
		{"json", FormatJSON, true},
		{"xml", FormatText, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFormat(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestValidFormats(t *testing.T) {
	for _, f := range ValidFormats() {
		_, ok := ParseFormat(f)
		assert.True(t, ok, f)
	}
}
