package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Never use inline lipgloss.Color literals elsewhere.
var (
	// ColorCyan is used for identifiable nouns: component names, paths.
	ColorCyan = lipgloss.Color("14")

	// ColorYellow is used for addresses.
	ColorYellow = lipgloss.Color("220")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns (component names, file paths).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAddress styles virtual addresses.
	StyleAddress = lipgloss.NewStyle().Foreground(ColorYellow)

	// StyleDim styles structural chrome (scope prefixes, separators).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// FormatAddress renders a virtual address as zero-padded hex.
func FormatAddress(addr uint64) string {
	return fmt.Sprintf("0x%012x", addr)
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}
