package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"grocerydesk/internal/config"
	"grocerydesk/internal/datatable"
	"grocerydesk/internal/filter"
	"grocerydesk/internal/ingest"
	"grocerydesk/internal/model"
	"grocerydesk/internal/parse"
	"grocerydesk/internal/store"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalStats
	modalStatsTime
	modalInspector
	modalRaw
	modalLogs
	modalDashboard
)

type inlineMode int

const (
	inlineNone inlineMode = iota
	inlineSearch
	inlineFilter
	inlinePageSize
)

// deskTab is one loaded dataset with its own table state.
type deskTab struct {
	name   string
	schema model.Schema
	view   *datatable.View
	source string

	// Client-side rows arrive through the ingest channels into ring.
	ring    *model.Ring
	parser  parse.Parser
	lines   <-chan ingest.Line
	errs    <-chan error
	cancel  context.CancelFunc
	ready   bool
	dirty   bool
	invalid int
	dropped uint64
	server  bool

	// Server-side fetch bookkeeping; only the newest response is applied.
	fetchSeq int
	pending  bool

	criteria  map[string]filter.Criteria
	selCol    int // index into the tab's columns
	colOffset int
	widthAdj  map[string]int
}

func (t *deskTab) columns(width int) []datatable.Column {
	if t.view == nil {
		return nil
	}
	return datatable.VisibleColumns(t.view.Columns(), width)
}

// filterKind maps a field's schema type to how typed filter text is
// matched against it.
func (t *deskTab) filterKind(key string) filter.Kind {
	f, _ := t.schema.Field(key)
	switch f.Type {
	case model.TypeNumber, model.TypeInteger, model.TypeCurrency:
		return filter.KindNumber
	case model.TypeBool:
		return filter.KindOther
	}
	return filter.KindText
}

type Model struct {
	ctx   context.Context
	cfg   *config.Config
	store *store.Store

	tabs   []*deskTab
	active int

	// UI
	paused     bool
	tbl        table.Model
	styles     Styles
	input      textinput.Model
	spin       spinner.Model
	keymap     KeyMap
	termWidth  int
	termHeight int
	lastMsg    string
	loading    bool

	// Modal popup
	modalActive bool
	modalKind   modalKind
	modalVP     viewport.Model
	modalTitle  string
	modalBody   string

	// Help menu state
	helpItems []helpItem
	helpSel   int

	// Stats modal state
	statsField string
	statsRows  []datatable.Row
	statsItems []statItem
	statsSel   int

	// Last rendered page of the active tab, cursor-aligned with tbl.
	frame datatable.Frame

	// Search within the current page
	searchPattern string
	inlineMode    inlineMode
}

func (m *Model) current() *deskTab {
	if m.active < 0 || m.active >= len(m.tabs) {
		return nil
	}
	return m.tabs[m.active]
}

type helpItem struct {
	group string
	text  string
	key   tea.Key
}

// statItem represents one row in the stats list. It can be either a
// categorical value or a numeric bin range.
type statItem struct {
	label string
	count int
	// Categorical selection
	svalue string
	// Numeric selection
	hasRange bool
	low      float64
	high     float64
	hasExact bool
	fvalue   float64
}

func keyCmd(k tea.Key) tea.Cmd {
	return func() tea.Msg {
		if k.Type == tea.KeyRunes {
			return tea.KeyMsg{Type: k.Type, Runes: k.Runes}
		}
		return tea.KeyMsg{Type: k.Type}
	}
}

// keyLabel is bubbletea's key name with space and shift-tab spelled out
// for the help list.
func keyLabel(k tea.Key) string {
	switch s := k.String(); s {
	case " ":
		return "space"
	case "shift+tab":
		return "shift-tab"
	default:
		return s
	}
}
