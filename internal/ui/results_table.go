package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Alignment represents column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// ColumnDef defines a column in a ResultsTable.
type ColumnDef struct {
	Name       string         // Identifies the column; headers are not rendered
	WidthRatio float64        // Proportion of available width (0.0-1.0), 0 means fixed width
	MinWidth   int            // Minimum width in characters
	MaxWidth   int            // Maximum width (0 = no limit)
	Align      Alignment      // Text alignment
	Style      lipgloss.Style // Style to apply to cells in this column
}

// ResultRow represents a single row in the results table.
type ResultRow struct {
	Cells []string
}

// ResultsTable renders rows in columns sized to the terminal width.
type ResultsTable struct {
	display *DisplayContext
	columns []ColumnDef
	rows    []ResultRow
}

// Column definitions for element and property listings.
var (
	// ColGroup is the property group column.
	ColGroup = ColumnDef{
		Name:       "group",
		WidthRatio: 0.30,
		MinWidth:   12,
		MaxWidth:   40,
		Align:      AlignLeft,
		Style:      Muted,
	}

	// ColProperty is the property name column.
	ColProperty = ColumnDef{
		Name:       "property",
		WidthRatio: 0.30,
		MinWidth:   12,
		MaxWidth:   40,
		Align:      AlignLeft,
	}

	// ColValue is the property value column.
	ColValue = ColumnDef{
		Name:       "value",
		WidthRatio: 0.40,
		MinWidth:   10,
		MaxWidth:   80,
		Align:      AlignLeft,
	}

	// ColCount is a right-aligned count column.
	ColCount = ColumnDef{
		Name:     "count",
		MinWidth: 8,
		MaxWidth: 10,
		Align:    AlignRight,
		Style:    Muted,
	}
)

// Standard layouts.
var (
	// ElementLayout lists one element's properties: [group, property, value]
	ElementLayout = []ColumnDef{ColGroup, ColProperty, ColValue}

	// SummaryLayout lists a model's properties: [property, elements, values]
	SummaryLayout = []ColumnDef{ColProperty, ColCount, ColCount}
)

// NewResultsTable creates a new ResultsTable with the given display context and column layout.
func NewResultsTable(display *DisplayContext, columns []ColumnDef) *ResultsTable {
	return &ResultsTable{
		display: display,
		columns: columns,
		rows:    make([]ResultRow, 0),
	}
}

// AddRow adds a row to the table.
func (t *ResultsTable) AddRow(row ResultRow) {
	t.rows = append(t.rows, row)
}

// AddRows adds one row per cell slice.
func (t *ResultsTable) AddRows(rows ...[]string) {
	for _, cells := range rows {
		t.rows = append(t.rows, ResultRow{Cells: cells})
	}
}

const (
	columnGap  = 2
	leftMargin = 2
)

// calculateWidths gives fixed columns their minimum width and shares the
// rest of the terminal between ratio columns, clamped to their bounds.
func (t *ResultsTable) calculateWidths() []int {
	widths := make([]int, len(t.columns))

	var totalRatio float64
	fixed := 0
	for i, col := range t.columns {
		if col.WidthRatio > 0 {
			totalRatio += col.WidthRatio
			continue
		}
		widths[i] = clampWidth(col.MinWidth, col)
		fixed += widths[i]
	}

	available := t.display.AvailableWidth(leftMargin) - fixed - (len(t.columns)-1)*columnGap
	if available < 0 {
		available = 0
	}
	for i, col := range t.columns {
		if col.WidthRatio > 0 {
			widths[i] = clampWidth(int(float64(available)*col.WidthRatio/totalRatio), col)
		}
	}
	return widths
}

func clampWidth(w int, col ColumnDef) int {
	if w < col.MinWidth {
		w = col.MinWidth
	}
	if col.MaxWidth > 0 && w > col.MaxWidth {
		w = col.MaxWidth
	}
	return w
}

// Render generates the table output as a string.
func (t *ResultsTable) Render() string {
	if len(t.rows) == 0 {
		return ""
	}

	widths := t.calculateWidths()
	cells := make([][]string, len(t.rows))
	for i, row := range t.rows {
		cells[i] = make([]string, len(t.columns))
		for j := range t.columns {
			if j < len(row.Cells) {
				cells[i][j] = Truncate(row.Cells[j], widths[j])
			}
		}
	}

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col >= len(t.columns) {
				return lipgloss.NewStyle()
			}
			def := t.columns[col]
			style := def.Style.Width(widths[col])
			switch def.Align {
			case AlignRight:
				style = style.Align(lipgloss.Right)
			case AlignCenter:
				style = style.Align(lipgloss.Center)
			default:
				style = style.Align(lipgloss.Left)
			}
			if col < len(t.columns)-1 {
				style = style.PaddingRight(columnGap)
			}
			return style
		}).
		Rows(cells...)

	return tbl.Render()
}

// Truncate shortens s to maxLen visible characters, ending in "...".
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
