package output

import "strings"

// Format specifies how a build result is reported on stdout.
type Format string

const (
	// FormatText prints only the generated image path.
	FormatText Format = "text"

	// FormatTable prints the image path and the address layout table.
	FormatTable Format = "table"

	// FormatYAML prints a structured build summary as YAML.
	FormatYAML Format = "yaml"

	// FormatJSON prints a structured build summary as JSON.
	FormatJSON Format = "json"
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a string into a Format.
// Returns (FormatText, false) for unknown values.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, true
	case "table":
		return FormatTable, true
	case "yaml", "yml":
		return FormatYAML, true
	case "json":
		return FormatJSON, true
	default:
		return FormatText, false
	}
}

// ValidFormats returns a slice of valid output format strings.
func ValidFormats() []string {
	return []string{"text", "table", "yaml", "json"}
}
