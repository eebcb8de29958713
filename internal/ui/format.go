package ui

import (
	"github.com/charmbracelet/lipgloss"

	"grocerydesk/internal/datatable"
)

// alignCell pads text to width following the column alignment. Text wider
// than width is left for the table to truncate.
func alignCell(text string, width int, a datatable.Align) string {
	if lipgloss.Width(text) >= width {
		return text
	}
	switch a {
	case datatable.AlignRight:
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, text)
	case datatable.AlignCenter:
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
	default:
		return text
	}
}
