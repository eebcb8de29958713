package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"grocerydesk/internal/util"
	"grocerydesk/internal/util/logx"
	"grocerydesk/internal/version"
)

func (m *Model) View() string {
	v := m.renderMain()
	if m.modalActive {
		// Dim the background content while keeping it visible
		dimmed := lipgloss.NewStyle().Faint(true).Render(v)
		v = overlay(dimmed, m.renderModal())
	}
	return v
}

func (m *Model) renderMain() string {
	parts := []string{m.renderTabs(), m.tbl.View()}
	f := m.frame
	t := m.current()
	switch {
	case t == nil || t.view == nil:
		parts = append(parts, m.spin.View()+" loading…")
	case f.Empty && f.Loading:
		parts = append(parts, m.spin.View()+" loading…")
	case f.Empty:
		parts = append(parts, m.styles.Muted.Render("No rows match the current filters."))
	}
	parts = append(parts, m.renderBottom(), m.styles.Status.Render(m.statusLine()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderTabs() string {
	if len(m.tabs) == 0 {
		return m.styles.TabActive.Render(version.Name)
	}
	labels := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		name := t.name
		if name == "" {
			name = "detecting…"
		}
		if i == m.active {
			labels[i] = m.styles.TabActive.Render(name)
		} else {
			labels[i] = m.styles.TabInactive.Render(name)
		}
	}
	return strings.Join(labels, "  ")
}

// renderBottom is the inline input or a summary of the active filters.
func (m *Model) renderBottom() string {
	switch m.inlineMode {
	case inlineSearch:
		return fmt.Sprintf("search: %s    [enter]=apply [esc]=cancel [n/N]=next/prev", m.input.View())
	case inlineFilter:
		col, _ := m.selectedColumn()
		return fmt.Sprintf("Filter %s: %s    [enter]=apply [esc]=cancel  text, /regex/ or =expr", col.Title(), m.input.View())
	case inlinePageSize:
		return fmt.Sprintf("Page size: %s    [enter]=apply [esc]=cancel", m.input.View())
	}
	t := m.current()
	if t != nil && len(m.frame.Filters) > 0 {
		parts := make([]string, 0, len(m.frame.Filters))
		for _, k := range m.frame.Filters {
			desc := k
			if c, ok := t.criteria[k]; ok {
				desc = k + " " + c.String()
			}
			parts = append(parts, desc)
		}
		return "Filters: " + strings.Join(parts, ", ") + "    [F]=clear"
	}
	if m.searchPattern != "" {
		return fmt.Sprintf("search: %s    [n/N]=next/prev", m.searchPattern)
	}
	return strings.Repeat(" ", max(0, m.termWidth))
}

func (m *Model) statusLine() string {
	t := m.current()
	state := "Running"
	if m.paused {
		state = "Paused"
	}
	if t == nil || t.view == nil {
		return fmt.Sprintf("[%s] | [?]=help | %s", state, m.lastMsg)
	}
	p := m.frame.Page
	st := t.view.State()
	parts := []string{
		fmt.Sprintf("page %d/%d", p.PageIndex+1, p.PageCount),
		fmt.Sprintf("%d-%d of %d", p.From, p.To, p.Total),
	}
	if st.Sorting.SortBy != "" {
		parts = append(parts, fmt.Sprintf("sort %s %s", st.Sorting.SortBy, st.Sorting.Direction))
	}
	if m.frame.SelectAll {
		parts = append(parts, fmt.Sprintf("all %d selected", m.frame.SelectedCount))
	} else if m.frame.SelectedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", m.frame.SelectedCount))
	}
	if m.loading {
		parts = append(parts, m.spin.View())
	}
	return fmt.Sprintf("[%s] %s | %s | [?]=help | %s", state, t.name, strings.Join(parts, " · "), m.lastMsg)
}

func (m *Model) renderHelp() string {
	if len(m.helpItems) == 0 {
		m.helpItems = m.buildHelpItems()
	}
	m.helpSel = min(max(m.helpSel, 0), len(m.helpItems)-1)
	lines := []string{"Shortcuts:"}
	currentGroup := ""
	lineIndexOfSel := 0
	for i, it := range m.helpItems {
		if it.group != currentGroup {
			currentGroup = it.group
			lines = append(lines, "", currentGroup+":")
		}
		prefix := "  "
		if i == m.helpSel {
			prefix = "> "
			lineIndexOfSel = len(lines)
		}
		lines = append(lines, fmt.Sprintf("%s[%s] %s", prefix, keyLabel(it.key), it.text))
	}
	m.keepLineVisible(lineIndexOfSel)
	return m.styles.Help.Render(strings.Join(lines, "\n"))
}

// keepLineVisible scrolls the modal viewport so line stays on screen.
func (m *Model) keepLineVisible(line int) {
	if m.modalVP.Height <= 0 {
		return
	}
	top := m.modalVP.YOffset
	bottom := top + m.modalVP.Height - 1
	if line <= top {
		m.modalVP.YOffset = max(0, line-1)
	} else if line >= bottom {
		m.modalVP.YOffset = max(0, line-m.modalVP.Height+2)
	}
}

func (m *Model) openModal(kind modalKind, title, body string) {
	m.modalActive = true
	m.modalKind = kind
	m.modalTitle = title
	m.modalBody = body
	m.resizeModal()
}

func (m *Model) openHelpModal() {
	m.helpItems = m.buildHelpItems()
	m.helpSel = 0
	m.openModal(modalHelp, "Help", m.renderHelp())
}

func (m *Model) openInspectorModal() {
	t := m.current()
	rr, ok := m.cursorRow()
	if t == nil || !ok {
		return
	}
	row := rr.Data
	if m.cfg.Redact {
		row = util.RedactRow(row)
	}
	m.openModal(modalInspector, fmt.Sprintf("%s %s", t.name, rr.ID), renderRecord(row, t.view.Columns(), m.styles))
}

func (m *Model) openRawModal() {
	rr, ok := m.cursorRow()
	if !ok {
		return
	}
	row := rr.Data
	if m.cfg.Redact {
		row = util.RedactRow(row)
	}
	m.openModal(modalRaw, "Raw row", colorizeJSON(row, m.styles))
}

func (m *Model) openAppLogsModal() {
	m.openModal(modalLogs, "Application Logs", logx.Dump())
	m.modalVP.GotoBottom()
}

func (m *Model) openStatsModal() {
	t := m.current()
	col, ok := m.selectedColumn()
	if !ok {
		return
	}
	m.statsField = col.Key
	// Client-side stats cover every matching row; server-side only the page.
	m.statsRows = t.view.Matching()
	m.statsItems = computeStatsItems(col.Key, m.statsRows)
	m.statsSel = 0
	m.modalActive = true
	m.modalKind = modalStats
	m.modalTitle = fmt.Sprintf("Stats: %s (%d rows)", col.Title(), len(m.statsRows))
	m.resizeModal()
}

func (m *Model) renderStats() {
	width := m.modalVP.Width
	if width <= 0 {
		width = max(40, m.termWidth-10)
	}
	m.modalBody = renderStatsList(m.statsItems, width, m.statsSel)
	m.modalVP.SetContent(m.modalBody)
	m.keepLineVisible(m.statsSel)
}

func (m *Model) openStatsTrendModal() {
	if m.statsSel < 0 || m.statsSel >= len(m.statsItems) {
		return
	}
	it := m.statsItems[m.statsSel]
	m.modalKind = modalStatsTime
	m.modalTitle = fmt.Sprintf("%s over time: %s", m.statsField, it.label)
	m.resizeModal()
}

func (m *Model) renderStatsTime() {
	t := m.current()
	if t == nil || m.statsSel >= len(m.statsItems) {
		return
	}
	m.modalBody = buildTimeDistribution(m.statsField, timeField(t.schema), m.statsItems[m.statsSel], m.statsRows, max(20, m.modalVP.Width), max(6, m.modalVP.Height))
	m.modalVP.SetContent(m.modalBody)
}

func (m *Model) resizeModal() {
	w := max(20, m.termWidth-6)
	h := max(5, m.termHeight-6)
	m.modalVP = viewport.New(w-4, h-4)
	switch m.modalKind {
	case modalStats:
		m.renderStats()
	case modalStatsTime:
		m.renderStatsTime()
	case modalHelp:
		m.modalVP.SetContent(m.renderHelp())
	default:
		m.modalVP.SetContent(m.modalBody)
	}
}

func (m *Model) renderModal() string {
	content := ""
	switch m.modalKind {
	case modalHelp:
		m.modalVP.SetContent(m.renderHelp())
		content = m.modalVP.View() + "\n[esc]=close  [enter]=run"
	case modalInspector, modalRaw:
		content = m.modalVP.View() + "\n[esc/enter]=close  [c]=copy"
	case modalStats:
		content = m.modalVP.View() + "\n[esc]=close  [enter]=over time  [↑/↓]=navigate  [f]=filter value"
	case modalStatsTime:
		content = m.modalVP.View() + "\n[esc]=back  [enter]=close"
	case modalLogs:
		content = m.styles.Help.Render(m.logsHeader()) + "\n" + m.modalVP.View() + "\n[esc/enter]=close  [c]=copy"
	default:
		content = m.modalVP.View() + "\n[esc/enter]=close"
	}
	boxW := max(20, m.termWidth-6)
	title := m.styles.PopupTitle.Render(m.modalTitle)
	body := m.styles.PopupBox.Width(boxW).Render(title + "\n" + content)
	return lipgloss.Place(m.termWidth, m.termHeight, lipgloss.Center, lipgloss.Center, body)
}

func (m *Model) logsHeader() string {
	t := m.current()
	if t == nil {
		return "Status: no dataset loaded"
	}
	lines := []string{"Status:", fmt.Sprintf("dataset: %s (confidence %.0f%%)  source: %s", t.schema.Dataset, t.schema.Confidence*100, t.source)}
	if t.server {
		lines = append(lines, fmt.Sprintf("store: %s  matching: %d", m.cfg.DBPath, m.frame.Page.Total))
	} else if t.ring != nil {
		rows, total, dropped := t.ring.Snapshot()
		lines = append(lines, fmt.Sprintf("rows: %d  ingested: %d  overflow: %d  invalid: %d", len(rows), total, dropped, t.invalid))
	}
	return strings.Join(lines, "\n")
}
