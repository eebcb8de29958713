package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"grocerydesk/internal/config"
	"grocerydesk/internal/store"
	"grocerydesk/internal/util/logx"
)

func initialModel(ctx context.Context, cfg *config.Config, st *store.Store) *Model {
	m := &Model{
		ctx:    ctx,
		cfg:    cfg,
		store:  st,
		styles: NewStyles(cfg.Theme == config.ThemeDark),
		keymap: DefaultKeyMap(),
		input:  textinput.New(),
		spin:   spinner.New(),
	}
	m.spin.Spinner = spinner.Dot
	m.input.CharLimit = 256
	m.input.Prompt = ""

	m.tbl = table.New(table.WithFocused(true), table.WithHeight(20))
	ts := table.DefaultStyles()
	ts.Header = m.styles.TableStyles.Header
	ts.Cell = m.styles.TableStyles.Cell
	ts.Selected = m.styles.TableStyles.Selected
	m.tbl.SetStyles(ts)
	m.refresh()
	return m
}

// Run starts the TUI. With a store configured, tables page through SQLite
// instead of memory.
func Run(ctx context.Context, cfg *config.Config) error {
	var st *store.Store
	if cfg.ServerSide() {
		var err error
		if st, err = store.Open(cfg.DBPath); err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logx.Warnf("store: close: %v", err)
			}
		}()
	}
	m := initialModel(ctx, cfg, st)
	defer m.stopIngest()
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(setupPipeline(m), m.spin.Tick, tick())
}

func (m *Model) stopIngest() {
	for _, t := range m.tabs {
		if t.cancel != nil {
			t.cancel()
		}
	}
}
