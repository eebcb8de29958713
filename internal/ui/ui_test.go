package ui

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"grocerydesk/internal/config"
	"grocerydesk/internal/datatable"
	"grocerydesk/internal/detect"
	"grocerydesk/internal/filter"
	"grocerydesk/internal/ingest"
	"grocerydesk/internal/loader"
	"grocerydesk/internal/parse"
	"grocerydesk/internal/seed"
	"grocerydesk/internal/store"
)

func testConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cfg, err := config.Parse(append([]string{"-offline", "-no-cache"}, args...), false)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

// productsModel returns a model with one client-side tab holding 12
// products, five per page.
func productsModel(t *testing.T, args ...string) (*Model, *deskTab, []datatable.Row) {
	t.Helper()
	cfg := testConfig(t, append([]string{"-page-size", "5"}, args...)...)
	m := initialModel(context.Background(), cfg, nil)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	schema, _ := detect.Builtin("products")
	rows := seed.New(3).Products(12)
	tab := newTab("", cfg)
	m.tabs = append(m.tabs, tab)
	m.Update(detectedMsg{tab: tab, guess: detect.Guess{Schema: schema, Confidence: 1, Source: "builtin"}, parser: &parse.JSONParser{}, rows: rows})
	if !tab.ready || tab.name != "products" {
		t.Fatalf("tab not ready: ready=%v name=%q", tab.ready, tab.name)
	}
	return m, tab, rows
}

func press(m *Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func keyOf(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

// run executes cmd and feeds every resulting message back into m.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			run(m, c)
		}
	default:
		_, next := m.Update(msg)
		run(m, next)
	}
}

func selectColumn(t *testing.T, m *Model, tab *deskTab, key string) {
	t.Helper()
	for i, c := range tab.columns(m.width()) {
		if c.Key == key {
			tab.selCol = i
			m.refresh()
			return
		}
	}
	t.Fatalf("column %q not visible at width %d", key, m.width())
}

func TestPagingKeys(t *testing.T) {
	m, tab, _ := productsModel(t)
	pg := func() datatable.Pagination { return tab.view.State().Pagination }
	if p := pg(); p.PageCount != 3 || p.PageIndex != 0 || len(m.frame.Rows) != 5 {
		t.Fatalf("initial page: %+v rows=%d", p, len(m.frame.Rows))
	}
	press(m, keyOf(tea.KeyPgDown))
	if pg().PageIndex != 1 {
		t.Fatalf("pgdown: %+v", pg())
	}
	press(m, keyOf(tea.KeyEnd))
	if pg().PageIndex != 2 || len(m.frame.Rows) != 2 {
		t.Fatalf("end: %+v rows=%d", pg(), len(m.frame.Rows))
	}
	if m.frame.Page.From != 11 || m.frame.Page.To != 12 || m.frame.Page.Total != 12 {
		t.Fatalf("summary: %+v", m.frame.Page)
	}
	press(m, keyOf(tea.KeyPgDown))
	if pg().PageIndex != 2 {
		t.Fatalf("pgdown past end: %+v", pg())
	}
	press(m, keyOf(tea.KeyHome), keyOf(tea.KeyPgUp))
	if pg().PageIndex != 0 {
		t.Fatalf("home/pgup: %+v", pg())
	}

	press(m, runes("z"))
	if m.inlineMode != inlinePageSize || m.input.Value() != "5" {
		t.Fatalf("page size prompt: mode=%v value=%q", m.inlineMode, m.input.Value())
	}
	m.input.SetValue("4")
	press(m, keyOf(tea.KeyEnter))
	if p := pg(); p.PageSize != 4 || p.PageCount != 3 {
		t.Fatalf("page size: %+v", p)
	}
}

func TestSortKeysFollowSelectedColumn(t *testing.T) {
	m, tab, _ := productsModel(t)
	selectColumn(t, m, tab, "price")
	press(m, runes("s"))
	if s := tab.view.State().Sorting; s.SortBy != "price" || s.Direction != datatable.SortAsc {
		t.Fatalf("first sort: %+v", s)
	}
	prices := func() []float64 {
		var out []float64
		for _, r := range m.frame.Rows {
			f, _ := datatable.Number(r.Data["price"])
			out = append(out, f)
		}
		return out
	}
	asc := prices()
	for i := 1; i < len(asc); i++ {
		if asc[i] < asc[i-1] {
			t.Fatalf("not ascending: %v", asc)
		}
	}
	press(m, runes("s"))
	if tab.view.State().Sorting.Direction != datatable.SortDesc {
		t.Fatalf("second sort should flip: %+v", tab.view.State().Sorting)
	}
	var priceHeader datatable.Header
	for _, h := range m.frame.Headers {
		if h.Key == "price" {
			priceHeader = h
		}
	}
	if priceHeader.Sort != datatable.SortedDesc {
		t.Fatalf("header indicator: %+v", priceHeader)
	}
	press(m, runes("S"))
	if tab.view.State().Sorting.SortBy != "" {
		t.Fatalf("sort not cleared: %+v", tab.view.State().Sorting)
	}
}

func TestFilterPrompt(t *testing.T) {
	m, tab, rows := productsModel(t)
	selectColumn(t, m, tab, "category")
	want := 0
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r["category"].(string)), "dairy") {
			want++
		}
	}

	press(m, runes("f"))
	if m.inlineMode != inlineFilter {
		t.Fatalf("filter prompt not open")
	}
	press(m, runes("DAIRY"), keyOf(tea.KeyEnter))
	if got := tab.view.State().Filters["category"]; got != "DAIRY" {
		t.Fatalf("filter value = %v", got)
	}
	if got := tab.view.FilteredCount(); got != want {
		t.Fatalf("filtered = %d, want %d", got, want)
	}
	if m.frame.Page.Total != want {
		t.Fatalf("frame total = %d", m.frame.Page.Total)
	}
	if !strings.Contains(m.renderBottom(), "category DAIRY") {
		t.Fatalf("bottom line: %q", m.renderBottom())
	}

	press(m, runes("F"))
	if len(tab.view.State().Filters) != 0 || tab.view.FilteredCount() != len(rows) || len(tab.criteria) != 0 {
		t.Fatalf("filters not cleared: %v", tab.view.State().Filters)
	}
}

func TestExpressionFilterOnNumbers(t *testing.T) {
	m, tab, rows := productsModel(t)
	selectColumn(t, m, tab, "stock")
	want := 0
	for _, r := range rows {
		if r["stock"].(int) < 30 {
			want++
		}
	}
	press(m, runes("f"), runes("=value < 30"), keyOf(tea.KeyEnter))
	if got := tab.view.FilteredCount(); got != want {
		t.Fatalf("filtered = %d, want %d", got, want)
	}
	if c := tab.criteria["stock"]; c.Expr != "value < 30" {
		t.Fatalf("criteria = %+v", c)
	}
}

func TestPlainFilterOnNumericColumn(t *testing.T) {
	m, tab, rows := productsModel(t)
	// Decoded JSON and CSV carry numbers as float64.
	decoded := make([]datatable.Row, len(rows))
	for i, r := range rows {
		d := datatable.Row{}
		for k, v := range r {
			d[k] = v
		}
		d["stock"] = float64(r["stock"].(int))
		decoded[i] = d
	}
	tab.view.SetRows(decoded)
	selectColumn(t, m, tab, "stock")
	target := decoded[0]["stock"].(float64)
	want := 0
	for _, r := range decoded {
		if r["stock"] == target {
			want++
		}
	}
	press(m, runes("f"), runes(strconv.FormatFloat(target, 'f', -1, 64)), keyOf(tea.KeyEnter))
	if got := tab.view.FilteredCount(); got != want || got == 0 {
		t.Fatalf("filtered = %d, want %d", got, want)
	}
	if c := tab.criteria["stock"]; c.Kind != filter.KindNumber {
		t.Fatalf("criteria = %+v", c)
	}
}

func TestSelectionKeys(t *testing.T) {
	m, tab, rows := productsModel(t)
	first := m.frame.Rows[0].ID
	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	sel := tab.view.State().Selection
	if !sel.Has(first) || sel.Len() != 1 || sel.SelectAll {
		t.Fatalf("toggle row: %+v", sel)
	}
	if !m.frame.Rows[0].Selected || m.frame.SelectedCount != 1 {
		t.Fatalf("frame selection: %+v", m.frame.Rows[0])
	}

	press(m, runes("a"))
	sel = tab.view.State().Selection
	if !sel.SelectAll || sel.Len() != len(rows) || len(tab.view.Selected()) != len(rows) {
		t.Fatalf("select all: all=%v len=%d", sel.SelectAll, sel.Len())
	}
	press(m, runes("a"))
	if sel = tab.view.State().Selection; sel.SelectAll || sel.Len() != 0 {
		t.Fatalf("toggle all off: %+v", sel)
	}

	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, runes("A"))
	if tab.view.State().Selection.Len() != 0 {
		t.Fatalf("clear selection: %+v", tab.view.State().Selection)
	}
}

func TestExportMatchingThenSelected(t *testing.T) {
	out := filepath.Join(t.TempDir(), "products.csv")
	m, tab, rows := productsModel(t, "-export", "csv", "-out", out)
	cmd := press(m, runes("e"))
	if cmd == nil {
		t.Fatalf("export returned no command")
	}
	msg, ok := cmd().(toastMsg)
	if !ok || !strings.Contains(msg.text, "exported 12 matching rows") {
		t.Fatalf("toast = %#v", msg)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != len(rows)+1 || !strings.HasPrefix(lines[0], "id,sku,name,category") {
		t.Fatalf("export:\n%s", b)
	}

	tab.view.ToggleRowSelection(m.frame.Rows[1].ID)
	msg, _ = press(m, runes("e"))().(toastMsg)
	if !strings.Contains(msg.text, "exported 1 selected rows") {
		t.Fatalf("toast = %#v", msg)
	}
}

func TestTabsAndHelpModal(t *testing.T) {
	m, _, _ := productsModel(t)
	second := newTab("orders", m.cfg)
	m.tabs = append(m.tabs, second)
	schema, _ := detect.Builtin("orders")
	m.Update(detectedMsg{tab: second, guess: detect.Guess{Schema: schema, Confidence: 1, Source: "builtin"}, parser: &parse.JSONParser{}, rows: seed.New(4).Orders(3)})

	press(m, keyOf(tea.KeyTab))
	if m.current() != second || len(m.frame.Rows) != 3 {
		t.Fatalf("tab switch: active=%d rows=%d", m.active, len(m.frame.Rows))
	}
	if !strings.Contains(m.renderTabs(), "orders") {
		t.Fatalf("tabs: %q", m.renderTabs())
	}
	press(m, keyOf(tea.KeyShiftTab))
	if m.active != 0 {
		t.Fatalf("shift-tab: active=%d", m.active)
	}

	press(m, runes("?"))
	if !m.modalActive || m.modalKind != modalHelp {
		t.Fatalf("help modal not open")
	}
	for m.helpItems[m.helpSel].text != "Next page" {
		press(m, keyOf(tea.KeyDown))
	}
	cmd := press(m, keyOf(tea.KeyEnter))
	if m.modalActive || cmd == nil {
		t.Fatalf("enter should close help and replay the key")
	}
	run(m, cmd)
	if m.current().view.State().Pagination.PageIndex != 1 {
		t.Fatalf("replayed key did not page: %+v", m.current().view.State().Pagination)
	}
}

func TestDemoIngestDetectsDataset(t *testing.T) {
	cfg := testConfig(t, "-dataset", "users")
	m := initialModel(context.Background(), cfg, nil)
	defer m.stopIngest()
	tab := newTab("users", cfg)
	m.tabs = append(m.tabs, tab)
	m.Update(m.startIngest(tab, ingest.SourceDemo)())
	if !tab.ready || tab.schema.Dataset != "users" || tab.source != "demo" {
		t.Fatalf("tab: ready=%v schema=%q source=%q", tab.ready, tab.schema.Dataset, tab.source)
	}
	m.drain()
	if got := len(tab.view.Rows()); got != loader.DemoRows {
		t.Fatalf("rows = %d", got)
	}
}

func TestServerSideTabsFetchPages(t *testing.T) {
	cfg := testConfig(t, "-db", filepath.Join(t.TempDir(), "desk.db"), "-page-size", "10")
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	m := initialModel(context.Background(), cfg, st)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	run(m, setupPipeline(m))

	var names []string
	for _, tab := range m.tabs {
		names = append(names, tab.name)
	}
	if diff := cmp.Diff([]string{"orders", "products", "promotions", "users"}, names); diff != "" {
		t.Fatalf("tabs (-want +got):\n%s", diff)
	}
	tab := m.current()
	if !tab.server || tab.view.Loading() || m.loading {
		t.Fatalf("tab still loading: server=%v loading=%v", tab.server, tab.view.Loading())
	}
	if len(tab.view.Rows()) != 10 || tab.view.FilteredCount() != loader.DemoRows {
		t.Fatalf("rows=%d total=%d", len(tab.view.Rows()), tab.view.FilteredCount())
	}
	firstPage := m.frame.Rows[0].ID

	run(m, press(m, keyOf(tea.KeyPgDown)))
	if p := tab.view.State().Pagination; p.PageIndex != 1 || p.PageCount != loader.DemoRows/10 {
		t.Fatalf("pagination: %+v", p)
	}
	if m.frame.Rows[0].ID == firstPage || m.frame.Page.From != 11 {
		t.Fatalf("second page not fetched: first=%s from=%d", m.frame.Rows[0].ID, m.frame.Page.From)
	}

	run(m, press(m, keyOf(tea.KeyHome)))
	selectColumn(t, m, tab, "status")
	run(m, press(m, runes("f"), runes("delivered"), keyOf(tea.KeyEnter)))
	p := tab.view.State().Pagination
	if p.PageIndex != 0 || tab.view.FilteredCount() == 0 || tab.view.FilteredCount() >= loader.DemoRows {
		t.Fatalf("server filter: %+v total=%d", p, tab.view.FilteredCount())
	}
	for _, r := range tab.view.Rows() {
		if r["status"] != "delivered" {
			t.Fatalf("row not filtered: %v", r["status"])
		}
	}
}

func TestStatFiltersOnServerTab(t *testing.T) {
	cfg := testConfig(t, "-db", filepath.Join(t.TempDir(), "desk.db"), "-page-size", "10")
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	m := initialModel(context.Background(), cfg, st)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	run(m, setupPipeline(m))
	tab := m.current()
	target, ok := tab.view.Rows()[0]["total"].(float64)
	if !ok || target == 0 {
		t.Fatalf("first total: %v", tab.view.Rows()[0]["total"])
	}

	m.lastMsg = ""
	m.statsField = "total"
	m.statsItems = []statItem{{hasExact: true, fvalue: target}, {hasRange: true, low: 1, high: 10}}
	m.statsSel = 0
	m.filterOnStat()
	run(m, m.pendingFetches())
	if got := tab.view.State().Filters["total"]; got != target {
		t.Fatalf("exact filter value = %#v", got)
	}
	if tab.view.FilteredCount() == 0 || tab.view.FilteredCount() >= loader.DemoRows || m.lastMsg != "" {
		t.Fatalf("exact filter: total=%d msg=%q", tab.view.FilteredCount(), m.lastMsg)
	}
	for _, r := range tab.view.Rows() {
		if r["total"] != target {
			t.Fatalf("row not filtered: %v", r["total"])
		}
	}

	m.statsSel = 1
	m.filterOnStat()
	if !strings.Contains(m.lastMsg, "not applied by the store") {
		t.Fatalf("range filter on server tab: msg=%q", m.lastMsg)
	}
}

func TestStaleFetchIgnored(t *testing.T) {
	cfg := testConfig(t)
	m := initialModel(context.Background(), cfg, nil)
	tab := newTab("orders", cfg)
	tab.server = true
	tab.view = datatable.New(nil, nil, datatable.WithServerSide(true), datatable.WithLoading(true))
	tab.fetchSeq = 2
	m.tabs = append(m.tabs, tab)
	m.Update(fetchedMsg{tab: tab, seq: 1, rows: []datatable.Row{{"id": 1}}, total: 1})
	if len(tab.view.Rows()) != 0 || !tab.view.Loading() {
		t.Fatalf("stale response applied")
	}
	m.Update(fetchedMsg{tab: tab, seq: 2, rows: []datatable.Row{{"id": 1}, {"id": 2}}, total: 7})
	if len(tab.view.Rows()) != 2 || tab.view.FilteredCount() != 7 || tab.view.Loading() {
		t.Fatalf("fresh response: rows=%d total=%d", len(tab.view.Rows()), tab.view.FilteredCount())
	}
}

func TestFitWindow(t *testing.T) {
	widths := []int{10, 10, 10, 10}
	cases := []struct {
		offset, sel, avail int
		lo, hi             int
	}{
		{0, 0, 25, 0, 2},
		{0, 3, 25, 2, 4},
		{3, 1, 25, 1, 3},
		{0, 2, 100, 0, 4},
		{0, 1, 5, 1, 2},
		{9, 0, 25, 0, 2},
	}
	for _, c := range cases {
		lo, hi := fitWindow(widths, c.offset, c.sel, c.avail)
		if lo != c.lo || hi != c.hi {
			t.Fatalf("fitWindow(offset=%d sel=%d avail=%d) = [%d,%d), want [%d,%d)", c.offset, c.sel, c.avail, lo, hi, c.lo, c.hi)
		}
	}
	if lo, hi := fitWindow(nil, 0, 0, 10); lo != 0 || hi != 0 {
		t.Fatalf("empty: [%d,%d)", lo, hi)
	}
}

func TestHeaderAndCellFormatting(t *testing.T) {
	h := datatable.Header{Label: "Price", Sort: datatable.SortedAsc}
	if got := headerTitle(h, false); got != " Price ▲ " {
		t.Fatalf("header = %q", got)
	}
	h.Sort = datatable.SortedDesc
	if got := headerTitle(h, true); got != "«Price ▼»" {
		t.Fatalf("selected header = %q", got)
	}
	if got := alignCell("4.50", 8, datatable.AlignRight); got != "    4.50" {
		t.Fatalf("right = %q", got)
	}
	if got := alignCell("ok", 6, datatable.AlignCenter); got != "  ok  " {
		t.Fatalf("center = %q", got)
	}
	if got := alignCell("too wide", 3, datatable.AlignRight); got != "too wide" {
		t.Fatalf("overflow = %q", got)
	}
}

func TestComputeStatsItems(t *testing.T) {
	rows := []datatable.Row{
		{"cat": "Dairy", "qty": 2, "ok": true},
		{"cat": "Fruits", "qty": 2, "ok": false},
		{"cat": "Dairy", "qty": 5.5, "ok": true},
		{"cat": nil, "qty": nil},
	}
	text := computeStatsItems("cat", rows)
	if len(text) != 2 || text[0].svalue != "Dairy" || text[0].count != 2 || text[1].svalue != "Fruits" {
		t.Fatalf("text stats: %+v", text)
	}
	nums := computeStatsItems("qty", rows)
	if len(nums) != 2 || !nums[0].hasExact || nums[0].fvalue != 2 || nums[0].count != 2 || nums[1].label != "5.50" {
		t.Fatalf("numeric stats: %+v", nums)
	}
	bools := computeStatsItems("ok", rows)
	if len(bools) != 2 || bools[0].svalue != "true" || bools[0].count != 2 {
		t.Fatalf("bool stats: %+v", bools)
	}

	var many []datatable.Row
	for i := 0; i < 100; i++ {
		many = append(many, datatable.Row{"n": i})
	}
	bins := computeStatsItems("n", many)
	total := 0
	for _, b := range bins {
		if !b.hasRange {
			t.Fatalf("expected bins: %+v", b)
		}
		total += b.count
	}
	if len(bins) != 40 || total != 100 {
		t.Fatalf("bins=%d total=%d", len(bins), total)
	}
}

func TestRowMatcher(t *testing.T) {
	row := datatable.RenderedRow{Cells: []datatable.Cell{{Text: "Greek yogurt"}, {Text: "$4.50"}}}
	for pattern, want := range map[string]bool{
		"YOGURT":      true,
		"/^greek/":    true,
		`/\$\d\.50$/`: true,
		"/milk/":      false,
		"cheddar":     false,
	} {
		if got := rowMatcher(pattern)(row); got != want {
			t.Fatalf("rowMatcher(%q) = %v", pattern, got)
		}
	}
}

func TestSearchMovesCursor(t *testing.T) {
	m, _, _ := productsModel(t)
	target := m.frame.Rows[3].Cells
	var name string
	for i, h := range m.frame.Headers {
		if h.Key == "name" {
			name = target[i].Text
		}
	}
	m.searchPattern = name
	if !m.searchNext() {
		t.Fatalf("no match for %q", name)
	}
	row, _ := m.cursorRow()
	if !rowMatcher(name)(row) {
		t.Fatalf("cursor on non-matching row %d", m.tbl.Cursor())
	}
}

func TestRenderDashboard(t *testing.T) {
	g := seed.New(5)
	products := g.Products(20)
	products[0]["stock"] = 3
	out := stripANSI(renderDashboard(dashboardMsg{orders: g.Orders(30), products: products}, 120, NewStyles(true)))
	for _, want := range []string{"Revenue", "Sales by month", "Sales by category", "Orders by status", "Recent orders", "Low stock (< 10)", datatable.Stringify(products[0]["sku"])} {
		if !strings.Contains(out, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, out)
		}
	}
	if got := renderDashboard(dashboardMsg{}, 80, NewStyles(false)); got != "No orders or products loaded" {
		t.Fatalf("empty dashboard: %q", got)
	}
}

func TestKeyLabel(t *testing.T) {
	km := DefaultKeyMap()
	for k, want := range map[*tea.Key]string{
		&km.Select:    "space",
		&km.NextPage:  "pgdown",
		&km.FirstPage: "home",
		&km.Inspector: "enter",
		&km.Sort:      "s",
	} {
		if got := keyLabel(*k); got != want {
			t.Fatalf("keyLabel = %q, want %q", got, want)
		}
	}
}
