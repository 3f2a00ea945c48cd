package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableStyle defines the style for table output.
type TableStyle struct {
	// Border is the border style.
	Border lipgloss.Border

	// BorderColor is the color for borders.
	BorderColor lipgloss.Color

	// HeaderStyle is the style for header cells.
	HeaderStyle lipgloss.Style

	// CellStyle is the style for regular cells.
	CellStyle lipgloss.Style
}

// DefaultTableStyle returns the default table style.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Border:      lipgloss.NormalBorder(),
		BorderColor: ColorDimGray,
		HeaderStyle: lipgloss.NewStyle().Bold(true).Foreground(ColorBlue),
		CellStyle:   lipgloss.NewStyle(),
	}
}

// Table represents a styled table.
type Table struct {
	headers []string
	rows    [][]string
	style   TableStyle
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		style:   DefaultTableStyle(),
	}
}

// Row adds a row to the table.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// String renders the table as a string.
func (t *Table) String() string {
	tbl := table.New().
		Border(t.style.Border).
		BorderStyle(lipgloss.NewStyle().Foreground(t.style.BorderColor)).
		Headers(t.headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.style.HeaderStyle
			}
			return t.style.CellStyle
		})

	for _, row := range t.rows {
		tbl.Row(row...)
	}

	return tbl.String()
}

// LayoutRow is one component's placement in the address layout.
type LayoutRow struct {
	ID        uint32 `json:"id" yaml:"id"`
	Component string `json:"component" yaml:"component"`
	Space     string `json:"addressSpace" yaml:"addressSpace"`
	BaseAddr  uint64 `json:"-" yaml:"-"`
	Address   string `json:"baseAddress" yaml:"baseAddress"`
}

// RenderLayoutTable renders the address layout as a table.
func RenderLayoutTable(rows []LayoutRow) string {
	t := NewTable("ID", "COMPONENT", "ADDRESS SPACE", "BASE ADDRESS")
	for _, r := range rows {
		t.Row(formatID(r.ID), r.Component, r.Space, StyleAddress.Render(FormatAddress(r.BaseAddr)))
	}
	return t.String()
}
