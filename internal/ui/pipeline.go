package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"grocerydesk/internal/config"
	"grocerydesk/internal/datatable"
	"grocerydesk/internal/detect"
	"grocerydesk/internal/filter"
	"grocerydesk/internal/ingest"
	"grocerydesk/internal/loader"
	"grocerydesk/internal/model"
	"grocerydesk/internal/parse"
	"grocerydesk/internal/seed"
	"grocerydesk/internal/store"
	"grocerydesk/internal/util/logx"
)

const (
	demoSeed     = 1
	demoInterval = 3 * time.Second
	sampleLines  = 50
	sampleRows   = 200
)

var errNoRows = errors.New("no rows received")

type detectedMsg struct {
	tab     *deskTab
	guess   detect.Guess
	parser  parse.Parser
	rows    []datatable.Row
	invalid int
	err     error
}

type serverSpec struct {
	name   string
	schema model.Schema
	rows   int
}

type serverReadyMsg struct {
	specs []serverSpec
	err   error
}

type fetchedMsg struct {
	tab   *deskTab
	seq   int
	rows  []datatable.Row
	total int
	err   error
}

type redetectMsg struct {
	tab   *deskTab
	guess detect.Guess
	err   error
}

type dashboardMsg struct {
	orders   []datatable.Row
	products []datatable.Row
	err      error
}

type tickMsg struct{}

// Simple UI toast/status message
type toastMsg struct{ text string }

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func newTab(name string, cfg *config.Config) *deskTab {
	return &deskTab{
		name:     name,
		ring:     model.NewRing(cfg.MaxBuffer),
		criteria: map[string]filter.Criteria{},
		widthAdj: map[string]int{},
	}
}

// setupPipeline starts one ingest per tab. Demo mode opens a tab per seeded
// dataset; stdin or a file give a single tab named after what is detected.
func setupPipeline(m *Model) tea.Cmd {
	if m.store != nil {
		m.loading = true
		return m.startServer()
	}
	src := loader.Source(m.cfg)
	names := []string{""}
	if src == ingest.SourceDemo {
		names = []string{loader.DemoDataset(m.cfg)}
		if m.cfg.Dataset == "" || m.cfg.Dataset == "auto" {
			names = seed.Datasets
		}
	}
	cmds := make([]tea.Cmd, 0, len(names))
	for _, name := range names {
		t := newTab(name, m.cfg)
		m.tabs = append(m.tabs, t)
		cmds = append(cmds, m.startIngest(t, src))
	}
	m.loading = true
	return tea.Batch(cmds...)
}

func (m *Model) startIngest(t *deskTab, src ingest.SourceKind) tea.Cmd {
	opt := ingest.Options{Source: src, Path: m.cfg.FilePath, Follow: m.cfg.Follow}
	if !m.cfg.Follow && m.cfg.BlockSizeMB > 0 {
		opt.BlockSizeBytes = int64(m.cfg.BlockSizeMB) * 1024 * 1024
	}
	if src == ingest.SourceDemo {
		opt.DemoDataset = t.name
		opt.DemoRows = loader.DemoRows
		opt.DemoSeed = demoSeed
		opt.DemoInterval = demoInterval
	}
	ctx, cancel := context.WithCancel(m.ctx)
	t.cancel = cancel
	t.source = string(src)
	t.lines, t.errs = ingest.Read(ctx, opt)
	logx.Infof("ingest: source=%s path=%s follow=%v dataset=%s", src, m.cfg.FilePath, m.cfg.Follow, t.name)

	cfg, lines, errs := m.cfg, t.lines, t.errs
	return func() tea.Msg {
		// Wait at least one second and for at least one line; keep
		// everything read meanwhile so nothing is dropped.
		buffered := make([]string, 0, 1024)
		timer := time.NewTimer(time.Second)
		defer timer.Stop()
		minElapsed := false
		for len(buffered) == 0 || !minElapsed {
			select {
			case l, ok := <-lines:
				if !ok {
					if len(buffered) == 0 {
						if err, ok := <-errs; ok && err != nil {
							return detectedMsg{tab: t, err: err}
						}
						return detectedMsg{tab: t, err: errNoRows}
					}
					minElapsed = true
					continue
				}
				buffered = append(buffered, l.Text)
			case <-timer.C:
				minElapsed = true
			case <-ctx.Done():
				return detectedMsg{tab: t, err: ctx.Err()}
			}
		}
		p, err := loader.Parser(cfg, buffered[0])
		if err != nil {
			return detectedMsg{tab: t, err: err}
		}
		rows, invalid := loader.Rows(p, buffered)
		opt := loader.ResolveOptions(cfg)
		if t.name != "" {
			opt.Dataset = t.name
		}
		g, err := detect.Resolve(ctx, opt, head(buffered, sampleLines), headRows(rows, sampleRows))
		if err != nil {
			return detectedMsg{tab: t, err: err}
		}
		return detectedMsg{tab: t, guess: g, parser: p, rows: rows, invalid: invalid}
	}
}

// applyDetected turns a finished sample into a live tab.
func (m *Model) applyDetected(msg detectedMsg) {
	t := msg.tab
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return
		}
		m.lastMsg = fmt.Sprintf("⚠️ %s: %v", t.source, msg.err)
		logx.Errorf("ingest: %s: %v", t.source, msg.err)
		m.loading = m.anyLoading()
		return
	}
	t.schema = msg.guess.Schema
	if t.name == "" {
		t.name = t.schema.Dataset
	}
	t.parser = msg.parser
	t.invalid += msg.invalid
	for _, r := range msg.rows {
		t.ring.Push(r)
	}
	rows, _, _ := t.ring.Snapshot()
	t.view = datatable.New(rows, t.schema.Columns(),
		datatable.WithIDKey(m.idKey(t.schema)),
		datatable.WithInitialState(datatable.ViewState{Pagination: datatable.Pagination{PageSize: m.cfg.PageSize}}),
		datatable.WithOnStateChange(m.onStateChange(t)),
	)
	t.ready = true
	m.loading = m.anyLoading()
	m.lastMsg = fmt.Sprintf("Detected %s (%s, %.0f%%)", t.name, msg.guess.Source, msg.guess.Confidence*100)
	m.refresh()
}

func (m *Model) anyLoading() bool {
	for _, t := range m.tabs {
		if t.server {
			if t.view != nil && t.view.Loading() {
				return true
			}
			continue
		}
		if !t.ready && t.lines != nil {
			return true
		}
	}
	return false
}

func (m *Model) idKey(s model.Schema) string {
	if m.cfg.IDKey != datatable.DefaultIDKey || s.IDKey == "" {
		return m.cfg.IDKey
	}
	return s.IDKey
}

// onStateChange mirrors every transition into the log; server-side tabs
// also queue a refetch.
func (m *Model) onStateChange(t *deskTab) datatable.Listener {
	return func(st datatable.ViewState) {
		p := st.Pagination
		logx.Debugf("view %s: page=%d/%d size=%d sort=%s %s filters=%v selected=%d all=%v",
			t.name, p.PageIndex+1, p.PageCount, p.PageSize, st.Sorting.SortBy, st.Sorting.Direction,
			st.FilterKeys(), st.Selection.Len(), st.Selection.SelectAll)
		if t.server {
			t.pending = true
		}
	}
}

// drain pulls parsed rows from every live client-side tab.
func (m *Model) drain() {
	if m.paused {
		return
	}
	for _, t := range m.tabs {
		if !t.ready || t.server || t.lines == nil {
			continue
		}
	pull:
		for i := 0; i < 500; i++ { // limit per tick
			select {
			case l, ok := <-t.lines:
				if !ok {
					t.lines = nil
					logx.Infof("ingest: %s finished", t.name)
					break pull
				}
				r, err := t.parser.Parse(l.Text)
				if err != nil {
					if !errors.Is(err, parse.ErrEmptyLine) {
						t.invalid++
					}
					continue
				}
				if r != nil {
					t.ring.Push(r)
					t.dirty = true
				}
			default:
				break pull
			}
		}
		for j := 0; j < 20; j++ {
			select {
			case err, ok := <-t.errs:
				if !ok {
					t.errs = nil
					j = 20
					continue
				}
				logx.Errorf("ingest error: %v", err)
			default:
				j = 20
			}
		}
		if t.dirty {
			rows, _, dropped := t.ring.Snapshot()
			if dropped > t.dropped {
				logx.Warnf("buffer overflow on %s: dropped +%d (cap=%d). Consider increasing --max-buffer.", t.name, dropped-t.dropped, m.cfg.MaxBuffer)
				t.dropped = dropped
			}
			t.view.SetRows(rows)
			t.dirty = false
			if t == m.current() {
				m.refresh()
			}
		}
	}
}

// startServer fills the store when needed and opens a tab per stored
// dataset.
func (m *Model) startServer() tea.Cmd {
	ctx, cfg, st := m.ctx, m.cfg, m.store
	return func() tea.Msg {
		schemas := map[string]model.Schema{}
		if loader.Source(cfg) != ingest.SourceDemo {
			b, err := loader.Load(ctx, cfg)
			if err != nil {
				return serverReadyMsg{err: err}
			}
			if err := st.Import(ctx, b.Schema.Dataset, b.Rows, b.Schema.IDKey); err != nil {
				return serverReadyMsg{err: err}
			}
			schemas[b.Schema.Dataset] = b.Schema
		} else if err := seedStore(ctx, st); err != nil {
			return serverReadyMsg{err: err}
		}
		infos, err := st.Datasets(ctx)
		if err != nil {
			return serverReadyMsg{err: err}
		}
		specs := make([]serverSpec, 0, len(infos))
		for _, in := range infos {
			s, ok := schemas[in.Name]
			if !ok {
				s, ok = detect.Builtin(in.Name)
			}
			if !ok {
				page, _, err := st.Query(ctx, in.Name, datatable.ViewState{Pagination: datatable.Pagination{PageSize: sampleRows}})
				if err != nil {
					return serverReadyMsg{err: err}
				}
				s = detect.Heuristics(page).Schema
				s.Dataset = in.Name
			}
			specs = append(specs, serverSpec{name: in.Name, schema: s, rows: in.Rows})
		}
		return serverReadyMsg{specs: specs}
	}
}

// seedStore loads the demo datasets into an empty store.
func seedStore(ctx context.Context, st *store.Store) error {
	have, err := st.Datasets(ctx)
	if err != nil || len(have) > 0 {
		return err
	}
	g := seed.New(demoSeed)
	for _, name := range seed.Datasets {
		rows, err := g.Dataset(name, loader.DemoRows)
		if err != nil {
			return err
		}
		if err := st.Import(ctx, name, rows, datatable.DefaultIDKey); err != nil {
			return err
		}
	}
	logx.Infof("store: seeded %d demo datasets", len(seed.Datasets))
	return nil
}

func (m *Model) applyServerReady(msg serverReadyMsg) tea.Cmd {
	m.loading = false
	if msg.err != nil {
		m.lastMsg = fmt.Sprintf("⚠️ store: %v", msg.err)
		logx.Errorf("store: %v", msg.err)
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(msg.specs))
	for _, sp := range msg.specs {
		t := newTab(sp.name, m.cfg)
		t.server = true
		t.ready = true
		t.source = "store"
		t.schema = sp.schema
		t.view = datatable.New(nil, sp.schema.Columns(),
			datatable.WithServerSide(true),
			datatable.WithLoading(true),
			datatable.WithIDKey(m.idKey(sp.schema)),
			datatable.WithInitialState(datatable.ViewState{Pagination: datatable.Pagination{PageSize: m.cfg.PageSize}}),
			datatable.WithOnStateChange(m.onStateChange(t)),
		)
		m.tabs = append(m.tabs, t)
		cmds = append(cmds, m.fetch(t))
	}
	m.loading = len(cmds) > 0
	m.lastMsg = fmt.Sprintf("store: %d datasets", len(msg.specs))
	m.refresh()
	return tea.Batch(cmds...)
}

// fetch queries the store for t's current state.
func (m *Model) fetch(t *deskTab) tea.Cmd {
	t.pending = false
	t.fetchSeq++
	seq, st, ctx, s := t.fetchSeq, t.view.State(), m.ctx, m.store
	t.view.SetLoading(true)
	m.loading = true
	return func() tea.Msg {
		rows, total, err := s.Query(ctx, t.name, st)
		return fetchedMsg{tab: t, seq: seq, rows: rows, total: total, err: err}
	}
}

func (m *Model) pendingFetches() tea.Cmd {
	var cmds []tea.Cmd
	for _, t := range m.tabs {
		if t.server && t.pending {
			cmds = append(cmds, m.fetch(t))
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) applyFetched(msg fetchedMsg) {
	t := msg.tab
	if msg.seq != t.fetchSeq {
		return
	}
	if msg.err != nil {
		m.lastMsg = fmt.Sprintf("⚠️ %s: %v", t.name, msg.err)
		logx.Errorf("store: fetch %s: %v", t.name, msg.err)
	} else {
		t.view.SetServerRows(msg.rows, msg.total)
	}
	t.view.SetLoading(false)
	m.loading = m.anyLoading()
	if t == m.current() {
		m.refresh()
	}
}

// redetect re-runs detection on the rows already loaded, bypassing the
// forced dataset and the cache.
func (m *Model) redetect() tea.Cmd {
	t := m.current()
	if t == nil || t.view == nil || t.server {
		return func() tea.Msg { return toastMsg{text: "re-detect needs loaded client-side rows"} }
	}
	rows, _, _ := t.ring.Snapshot()
	if len(rows) == 0 {
		return func() tea.Msg { return toastMsg{text: "no data yet to detect"} }
	}
	sample := headRows(rows, sampleRows)
	lines := make([]string, 0, sampleLines)
	for _, r := range headRows(sample, sampleLines) {
		b, _ := json.Marshal(r)
		lines = append(lines, string(b))
	}
	opt := detect.Options{NoCache: true, Inferer: loader.Inferer(m.cfg)}
	ctx := m.ctx
	m.loading = true
	return func() tea.Msg {
		g, err := detect.Resolve(ctx, opt, lines, sample)
		return redetectMsg{tab: t, guess: g, err: err}
	}
}

func (m *Model) applyRedetect(msg redetectMsg) {
	m.loading = m.anyLoading()
	if msg.err != nil {
		m.lastMsg = fmt.Sprintf("⚠️ re-detect: %v", msg.err)
		return
	}
	t := msg.tab
	t.schema = msg.guess.Schema
	t.view.SetColumns(t.schema.Columns())
	t.selCol, t.colOffset = 0, 0
	m.lastMsg = fmt.Sprintf("🔄 Schema updated: %s (%s)", t.schema.Dataset, msg.guess.Source)
	logx.Infof("redetect: %s -> %s via %s", t.name, t.schema.Dataset, msg.guess.Source)
	m.refresh()
}

func head(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func headRows(rows []datatable.Row, n int) []datatable.Row {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
