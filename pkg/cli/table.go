package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
}

// DefaultStyles is NewStyles(DefaultTheme).
var DefaultStyles = NewStyles(DefaultTheme)

// PlainStyles renders without color or padding changes. Tests and pipes use
// it to get stable output.
var PlainStyles = Styles{
	Header: lipgloss.NewStyle().Padding(0, 1),
	Cell:   lipgloss.NewStyle().Padding(0, 1),
	Border: lipgloss.NewStyle(),
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// RenderTable renders rows under headers with rounded borders.
func RenderTable(s Styles, headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return s.Cell
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

// Truncate shortens s to at most width cells, ending in an ellipsis when
// cut. Multi-byte and wide characters are measured by display width.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	cur := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if cur+w > width-1 {
			return string(runes[:i]) + "…"
		}
		cur += w
	}
	return s
}
