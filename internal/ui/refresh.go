package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"grocerydesk/internal/datatable"
)

const (
	maxColWidth = 40
	minColWidth = 4
	colGutter   = 2 // right padding plus separator
	markerWidth = 1
)

func (m *Model) width() int {
	if m.termWidth <= 0 {
		return 120 // default before first WindowSizeMsg
	}
	return m.termWidth
}

// refresh rebuilds the table widget from the active tab's frame.
func (m *Model) refresh() {
	t := m.current()
	m.tbl.SetRows(nil)
	if t == nil || t.view == nil {
		m.frame = datatable.Frame{}
		m.tbl.SetColumns([]table.Column{{Title: " ", Width: markerWidth}, {Title: "loading", Width: 20}})
		return
	}
	all := t.columns(m.width())
	if t.selCol >= len(all) {
		t.selCol = len(all) - 1
	}
	if t.selCol < 0 {
		t.selCol = 0
	}
	f := t.view.FrameFor(all)
	widths := naturalWidths(f, t.widthAdj)
	lo, hi := fitWindow(widths, t.colOffset, t.selCol, m.width()-markerWidth-colGutter)
	t.colOffset = lo
	m.frame = f

	cols := make([]table.Column, 0, hi-lo+1)
	cols = append(cols, table.Column{Title: selectionMarker(f.SelectAll, f.SelectedCount > 0), Width: markerWidth})
	for i := lo; i < hi; i++ {
		cols = append(cols, table.Column{Title: headerTitle(f.Headers[i], i == t.selCol), Width: widths[i]})
	}
	rows := make([]table.Row, len(f.Rows))
	for r, rr := range f.Rows {
		row := make(table.Row, 0, hi-lo+1)
		row = append(row, selectionMarker(false, rr.Selected))
		for i := lo; i < hi; i++ {
			c := rr.Cells[i]
			row = append(row, alignCell(toneGlyph(c.Tone)+c.Text, widths[i], c.Align))
		}
		rows[r] = row
	}
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
	if n := len(rows); n > 0 && m.tbl.Cursor() >= n {
		m.tbl.SetCursor(n - 1)
	}
}

func selectionMarker(all, on bool) string {
	switch {
	case all:
		return "■"
	case on:
		return "●"
	default:
		return " "
	}
}

// headerTitle adds the sort arrow and marks the selected column.
func headerTitle(h datatable.Header, selected bool) string {
	title := h.Label
	switch h.Sort {
	case datatable.SortedAsc:
		title += " ▲"
	case datatable.SortedDesc:
		title += " ▼"
	}
	if selected {
		return "«" + title + "»"
	}
	return " " + title + " "
}

// naturalWidths sizes each column to its header or widest cell on the page.
func naturalWidths(f datatable.Frame, adj map[string]int) []int {
	widths := make([]int, len(f.Headers))
	for i, h := range f.Headers {
		w := lipgloss.Width(headerTitle(h, true))
		for _, r := range f.Rows {
			c := r.Cells[i]
			if cw := lipgloss.Width(toneGlyph(c.Tone) + c.Text); cw > w {
				w = cw
			}
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		w += adj[h.Key]
		if w < minColWidth {
			w = minColWidth
		}
		widths[i] = w
	}
	return widths
}

// fitWindow returns the column range [lo, hi) that starts at offset or
// later, contains sel and fits avail. At least one column is always shown.
func fitWindow(widths []int, offset, sel, avail int) (lo, hi int) {
	n := len(widths)
	if n == 0 {
		return 0, 0
	}
	if sel < 0 {
		sel = 0
	}
	if sel >= n {
		sel = n - 1
	}
	if offset < 0 || offset >= n {
		offset = 0
	}
	if sel < offset {
		offset = sel
	}
	for {
		sum, end := 0, offset
		for end < n && (end == offset || sum+widths[end]+colGutter <= avail) {
			sum += widths[end] + colGutter
			end++
		}
		if sel < end || offset == sel {
			return offset, end
		}
		offset++
	}
}

func (m *Model) cursorRow() (datatable.RenderedRow, bool) {
	idx := m.tbl.Cursor()
	if idx < 0 || idx >= len(m.frame.Rows) {
		return datatable.RenderedRow{}, false
	}
	return m.frame.Rows[idx], true
}

func (m *Model) selectedColumn() (datatable.Column, bool) {
	t := m.current()
	if t == nil || t.view == nil {
		return datatable.Column{}, false
	}
	all := t.columns(m.width())
	if t.selCol < 0 || t.selCol >= len(all) {
		return datatable.Column{}, false
	}
	return all[t.selCol], true
}
