package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"grocerydesk/internal/datatable"
	"grocerydesk/internal/export"
	"grocerydesk/internal/filter"
	"grocerydesk/internal/model"
	"grocerydesk/internal/util/logx"
)

func (m *Model) buildHelpItems() []helpItem {
	km := m.keymap
	return []helpItem{
		{group: "Navigation", text: "Previous row", key: tea.Key{Type: tea.KeyUp}},
		{group: "Navigation", text: "Next row", key: tea.Key{Type: tea.KeyDown}},
		{group: "Navigation", text: "First row on page", key: km.Top},
		{group: "Navigation", text: "Last row on page", key: km.Bottom},
		{group: "Navigation", text: "Previous column", key: tea.Key{Type: tea.KeyLeft}},
		{group: "Navigation", text: "Next column", key: tea.Key{Type: tea.KeyRight}},
		{group: "Navigation", text: "Next dataset", key: km.NextTab},
		{group: "Navigation", text: "Previous dataset", key: km.PrevTab},

		{group: "Pages", text: "Next page", key: km.NextPage},
		{group: "Pages", text: "Previous page", key: km.PrevPage},
		{group: "Pages", text: "First page", key: km.FirstPage},
		{group: "Pages", text: "Last page", key: km.LastPage},
		{group: "Pages", text: "Change page size", key: km.PageSize},

		{group: "Columns", text: "Sort by column (again to flip)", key: km.Sort},
		{group: "Columns", text: "Clear sort", key: km.ClearSort},
		{group: "Columns", text: "Increase column width", key: km.IncColWidth},
		{group: "Columns", text: "Decrease column width", key: km.DecColWidth},

		{group: "Filter", text: "Filter current column", key: km.Filter},
		{group: "Filter", text: "Clear filters", key: km.ClearFilter},
		{group: "Filter", text: "Search page", key: km.Search},
		{group: "Filter", text: "Search next", key: km.SearchNext},
		{group: "Filter", text: "Search prev", key: km.SearchPrev},

		{group: "Selection", text: "Toggle row", key: km.Select},
		{group: "Selection", text: "Toggle all rows", key: km.SelectAll},
		{group: "Selection", text: "Clear selection", key: km.ClearSelection},

		{group: "Views", text: "Inspect row", key: km.Inspector},
		{group: "Views", text: "Raw row JSON", key: km.ViewRaw},
		{group: "Views", text: "Stats for column", key: km.Stats},
		{group: "Views", text: "Dashboard", key: km.Dashboard},
		{group: "Views", text: "Application logs", key: km.AppLogs},

		{group: "Control", text: "Export selection or all matching rows", key: km.Export},
		{group: "Control", text: "Copy row", key: km.CopyRow},
		{group: "Control", text: "Re-detect columns", key: km.Redetect},
		{group: "Control", text: "Pause/Resume ingest", key: km.Pause},
		{group: "Control", text: "Help", key: km.Help},
		{group: "Control", text: "Quit", key: km.Quit},
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	// State changes on server-side tabs queue a refetch.
	if f := m.pendingFetches(); f != nil {
		cmd = tea.Batch(cmd, f)
	}
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth, m.termHeight = msg.Width, msg.Height
		// Reserve tabs, table header, hint line and status bar
		m.tbl.SetHeight(max(1, msg.Height-5))
		m.tbl.SetWidth(msg.Width)
		m.refresh()
		if m.modalActive {
			m.resizeModal()
		}
		return nil
	case tea.KeyMsg:
		if m.modalActive {
			return m.updateModal(msg)
		}
		if m.inlineMode != inlineNone {
			return m.updateInline(msg)
		}
		return m.updateKeys(msg)
	case detectedMsg:
		m.applyDetected(msg)
	case serverReadyMsg:
		return m.applyServerReady(msg)
	case fetchedMsg:
		m.applyFetched(msg)
	case redetectMsg:
		m.applyRedetect(msg)
	case dashboardMsg:
		m.loading = m.anyLoading()
		if msg.err != nil {
			m.lastMsg = fmt.Sprintf("⚠️ dashboard: %v", msg.err)
			return nil
		}
		m.openModal(modalDashboard, "Dashboard", renderDashboard(msg, m.termWidth, m.styles))
	case toastMsg:
		m.lastMsg = msg.text
	case tickMsg:
		m.drain()
		return tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateModal(msg tea.KeyMsg) tea.Cmd {
	switch m.modalKind {
	case modalHelp:
		switch {
		case msg.Type == tea.KeyUp:
			if m.helpSel > 0 {
				m.helpSel--
			}
		case msg.Type == tea.KeyDown:
			if m.helpSel+1 < len(m.helpItems) {
				m.helpSel++
			}
		case msg.Type == tea.KeyEnter:
			m.modalActive = false
			if len(m.helpItems) > 0 {
				return keyCmd(m.helpItems[m.helpSel].key)
			}
		case msg.Type == tea.KeyEsc, keyMatches(msg, m.keymap.Quit), keyMatches(msg, m.keymap.Help):
			m.modalActive = false
		}
		return nil
	case modalStats:
		switch {
		case msg.Type == tea.KeyUp:
			if m.statsSel > 0 {
				m.statsSel--
				m.renderStats()
			}
			return nil
		case msg.Type == tea.KeyDown:
			if m.statsSel+1 < len(m.statsItems) {
				m.statsSel++
				m.renderStats()
			}
			return nil
		case msg.Type == tea.KeyEnter:
			m.openStatsTrendModal()
			return nil
		case keyMatches(msg, m.keymap.Filter):
			m.modalActive = false
			m.filterOnStat()
			return nil
		case msg.Type == tea.KeyEsc:
			m.modalActive = false
			return nil
		}
	case modalStatsTime:
		if msg.Type == tea.KeyEsc {
			m.modalKind = modalStats
			m.modalTitle = "Stats: " + m.statsField
			m.resizeModal()
			return nil
		}
		if msg.Type == tea.KeyEnter {
			m.modalActive = false
			return nil
		}
	default:
		if msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter {
			m.modalActive = false
			return nil
		}
		if keyMatches(msg, m.keymap.CopyRow) {
			copyToClipboard(m.modalBody)
			m.lastMsg = "copied to clipboard"
			return nil
		}
	}
	var cmd tea.Cmd
	m.modalVP, cmd = m.modalVP.Update(msg)
	return cmd
}

func (m *Model) startInline(mode inlineMode, value, placeholder string) tea.Cmd {
	m.inlineMode = mode
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) updateInline(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		q := strings.TrimSpace(m.input.Value())
		mode := m.inlineMode
		m.inlineMode = inlineNone
		m.input.Blur()
		switch mode {
		case inlineSearch:
			m.searchPattern = q
			if q != "" && !m.searchNext() {
				m.lastMsg = "no match on this page"
			}
		case inlineFilter:
			m.applyFilter(q)
		case inlinePageSize:
			m.applyPageSize(q)
		}
		return nil
	case tea.KeyEsc:
		m.inlineMode = inlineNone
		m.input.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// applyFilter sets the selected column's filter from typed input; empty
// input removes it.
func (m *Model) applyFilter(input string) {
	col, ok := m.selectedColumn()
	if !ok {
		return
	}
	m.setColumnFilter(filter.ParseInput(col.Key, input))
}

// filterOnStat filters the stats column to the selected value.
func (m *Model) filterOnStat() {
	if m.statsSel < 0 || m.statsSel >= len(m.statsItems) {
		return
	}
	it := m.statsItems[m.statsSel]
	c := filter.Criteria{Field: m.statsField}
	switch {
	case it.hasExact:
		c.Query = strconv.FormatFloat(it.fvalue, 'g', -1, 64)
		c.Kind = filter.KindNumber
	case it.hasRange:
		c.Expr = fmt.Sprintf("value >= %g && value <= %g", it.low, it.high)
	default:
		c.Query = it.svalue
	}
	m.setColumnFilter(c)
}

// setColumnFilter installs c on the current tab. Plain text is matched
// according to the column's schema type.
func (m *Model) setColumnFilter(c filter.Criteria) {
	t := m.current()
	if c.Kind == filter.KindText {
		c.Kind = t.filterKind(c.Field)
	}
	ev, err := filter.NewEvaluator(c)
	if err != nil {
		m.lastMsg = fmt.Sprintf("⚠️ filter: %v", err)
		logx.Warnf("filter: %s: %v", c.Field, err)
		return
	}
	if c.Empty() {
		delete(t.criteria, c.Field)
	} else {
		t.criteria[c.Field] = c
	}
	v := ev.Value()
	if _, isPred := v.(datatable.Predicate); isPred && t.server {
		m.lastMsg = "this filter is not applied by the store"
	}
	t.view.SetFilter(c.Field, v)
	logx.Infof("filter: %s %s", t.name, c)
	m.refresh()
}

func (m *Model) applyPageSize(q string) {
	n, err := strconv.Atoi(q)
	if err != nil || n < 1 {
		m.lastMsg = "invalid page size"
		return
	}
	m.current().view.SetPageSize(n)
	m.lastMsg = fmt.Sprintf("page size set to %d", n)
	m.refresh()
}

func (m *Model) updateKeys(msg tea.KeyMsg) tea.Cmd {
	km := m.keymap
	switch {
	case keyMatches(msg, km.Quit):
		return tea.Quit
	case keyMatches(msg, km.Help):
		m.openHelpModal()
		return nil
	case keyMatches(msg, km.AppLogs):
		m.openAppLogsModal()
		return nil
	case keyMatches(msg, km.Pause):
		m.paused = !m.paused
		return nil
	case keyMatches(msg, km.NextTab), keyMatches(msg, km.PrevTab):
		if n := len(m.tabs); n > 1 {
			step := 1
			if keyMatches(msg, km.PrevTab) {
				step = n - 1
			}
			m.active = (m.active + step) % n
			m.tbl.SetCursor(0)
			m.searchPattern = ""
			m.refresh()
		}
		return nil
	case keyMatches(msg, km.Dashboard):
		return m.dashboardCmd()
	}

	t := m.current()
	if t == nil || t.view == nil {
		return nil
	}
	v := t.view
	switch {
	case keyMatches(msg, km.NextPage):
		v.NextPage()
	case keyMatches(msg, km.PrevPage):
		v.PrevPage()
	case keyMatches(msg, km.FirstPage):
		v.GoToPage(0)
	case keyMatches(msg, km.LastPage):
		v.GoToPage(v.State().Pagination.PageCount - 1)
	case keyMatches(msg, km.PageSize):
		return m.startInline(inlinePageSize, strconv.Itoa(v.State().Pagination.PageSize), "rows per page")
	case keyMatches(msg, km.Top):
		m.tbl.GotoTop()
		return nil
	case keyMatches(msg, km.Bottom):
		m.tbl.GotoBottom()
		return nil
	case msg.Type == tea.KeyLeft:
		if t.selCol > 0 {
			t.selCol--
		}
	case msg.Type == tea.KeyRight:
		if t.selCol+1 < len(t.columns(m.width())) {
			t.selCol++
		}
	case keyMatches(msg, km.Sort):
		col, ok := m.selectedColumn()
		if !ok {
			return nil
		}
		if !col.Sortable() {
			m.lastMsg = fmt.Sprintf("%s is not sortable", col.Title())
			return nil
		}
		v.Sort(col.Key)
	case keyMatches(msg, km.ClearSort):
		v.ClearSort()
	case keyMatches(msg, km.Filter):
		col, ok := m.selectedColumn()
		if !ok {
			return nil
		}
		return m.startInline(inlineFilter, t.criteria[col.Key].String(), "text, /regex/ or =expression")
	case keyMatches(msg, km.ClearFilter):
		t.criteria = map[string]filter.Criteria{}
		v.ClearFilters()
	case keyMatches(msg, km.Search):
		return m.startInline(inlineSearch, m.searchPattern, "text or /regex/")
	case keyMatches(msg, km.SearchNext):
		m.searchNext()
		return nil
	case keyMatches(msg, km.SearchPrev):
		m.searchPrev()
		return nil
	case keyMatches(msg, km.Select):
		if rr, ok := m.cursorRow(); ok {
			v.ToggleRowSelection(rr.ID)
		}
	case keyMatches(msg, km.SelectAll):
		v.ToggleSelectAll()
	case keyMatches(msg, km.ClearSelection):
		v.ClearSelection()
	case keyMatches(msg, km.IncColWidth), keyMatches(msg, km.DecColWidth):
		if col, ok := m.selectedColumn(); ok {
			d := 2
			if keyMatches(msg, km.DecColWidth) {
				d = -2
			}
			t.widthAdj[col.Key] += d
		}
	case keyMatches(msg, km.Inspector):
		m.openInspectorModal()
		return nil
	case keyMatches(msg, km.ViewRaw):
		m.openRawModal()
		return nil
	case keyMatches(msg, km.CopyRow):
		if rr, ok := m.cursorRow(); ok {
			copyToClipboard(model.PrettyJSON(rr.Data))
			m.lastMsg = "copied to clipboard"
		}
		return nil
	case keyMatches(msg, km.Stats):
		m.openStatsModal()
		return nil
	case keyMatches(msg, km.Export):
		return m.exportCmd()
	case keyMatches(msg, km.Redetect):
		return m.redetect()
	default:
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return cmd
	}
	m.refresh()
	return nil
}

// exportTarget resolves --export/--out, defaulting to <dataset>.csv.
func (m *Model) exportTarget(t *deskTab) (format, path string) {
	format = strings.ToLower(m.cfg.ExportFormat)
	if format == "" {
		format = "csv"
	}
	path = m.cfg.ExportOut
	if path == "" {
		ext := "csv"
		if format != "csv" {
			ext = "ndjson"
		}
		path = fmt.Sprintf("%s-%s.%s", t.name, time.Now().Format("20060102-150405"), ext)
	}
	return format, path
}

// exportCmd writes the selected rows or, with no selection, every row
// matching the filters in sort order.
func (m *Model) exportCmd() tea.Cmd {
	t := m.current()
	format, path := m.exportTarget(t)
	cols := t.view.Columns()
	opt := export.Options{Redact: m.cfg.Redact}
	rows := t.view.Selected()
	what := "selected"
	var fetchAll func() ([]datatable.Row, error)
	if len(rows) == 0 {
		what = "matching"
		if t.server {
			st := t.view.State()
			st.Pagination = datatable.Pagination{PageSize: max(1, t.view.FilteredCount())}
			ctx, s := m.ctx, m.store
			fetchAll = func() ([]datatable.Row, error) {
				rows, _, err := s.Query(ctx, t.name, st)
				return rows, err
			}
		} else {
			rows = t.view.Matching()
		}
	}
	return func() tea.Msg {
		if fetchAll != nil {
			var err error
			if rows, err = fetchAll(); err != nil {
				logx.Errorf("export: %v", err)
				return toastMsg{text: fmt.Sprintf("⚠️ export failed: %v", err)}
			}
		}
		if err := export.Write(format, path, cols, rows, opt); err != nil {
			logx.Errorf("export: %v", err)
			return toastMsg{text: fmt.Sprintf("⚠️ export failed: %v", err)}
		}
		logx.Infof("export: wrote %d %s rows to %s (%s)", len(rows), what, path, format)
		return toastMsg{text: fmt.Sprintf("exported %d %s rows to %s", len(rows), what, path)}
	}
}

// dashboardCmd gathers order and product rows from their tabs. Client
// tabs hand over their loaded rows; server tabs read the whole dataset.
func (m *Model) dashboardCmd() tea.Cmd {
	type source struct {
		name  string
		rows  []datatable.Row
		fetch bool
	}
	var orders, products source
	for _, t := range m.tabs {
		if t.view == nil {
			continue
		}
		var dst *source
		switch t.schema.Dataset {
		case "orders":
			dst = &orders
		case "products":
			dst = &products
		default:
			continue
		}
		dst.name = t.name
		if t.server {
			dst.fetch = true
		} else {
			dst.rows = t.view.Rows()
		}
	}
	if !orders.fetch && !products.fetch && orders.rows == nil && products.rows == nil {
		m.lastMsg = "dashboard needs an orders or products dataset"
		return nil
	}
	ctx, s, limit := m.ctx, m.store, m.cfg.MaxBuffer
	m.loading = true
	return func() tea.Msg {
		all := datatable.ViewState{Pagination: datatable.Pagination{PageSize: limit}}
		var err error
		if orders.fetch {
			if orders.rows, _, err = s.Query(ctx, orders.name, all); err != nil {
				return dashboardMsg{err: err}
			}
		}
		if products.fetch {
			if products.rows, _, err = s.Query(ctx, products.name, all); err != nil {
				return dashboardMsg{err: err}
			}
		}
		return dashboardMsg{orders: orders.rows, products: products.rows}
	}
}
