package ui

import (
	"github.com/charmbracelet/lipgloss"

	"grocerydesk/internal/datatable"
)

type Styles struct {
	Base        lipgloss.Style
	Status      lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Help        lipgloss.Style
	Muted       lipgloss.Style
	Tone        map[datatable.Tone]lipgloss.Style
	TableStyles TableStyles
	PopupBox    lipgloss.Style
	PopupTitle  lipgloss.Style

	JSONKey    lipgloss.Style
	JSONString lipgloss.Style
	JSONNumber lipgloss.Style
	JSONBool   lipgloss.Style
	JSONNull   lipgloss.Style
	JSONPunct  lipgloss.Style
}

type TableStyles struct {
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
}

func NewStyles(dark bool) Styles {
	s := Styles{}
	if dark {
		s.Base = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
		s.Status = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		s.TabActive = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")).Underline(true)
		s.TabInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		s.Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
		s.PopupBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(1, 2)
		s.PopupTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
		s.JSONKey = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
		s.JSONString = lipgloss.NewStyle().Foreground(lipgloss.Color("150"))
		s.JSONNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	} else {
		s.Base = lipgloss.NewStyle()
		s.Status = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.TabActive = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("27")).Underline(true)
		s.TabInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		s.PopupBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12")).Padding(1, 2)
		s.PopupTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("27"))
		s.JSONKey = lipgloss.NewStyle().Foreground(lipgloss.Color("27"))
		s.JSONString = lipgloss.NewStyle().Foreground(lipgloss.Color("28"))
		s.JSONNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("130"))
	}
	s.JSONBool = s.JSONNumber.Copy().Bold(true)
	s.JSONNull = s.Muted.Copy().Italic(true)
	s.JSONPunct = s.Muted
	s.Tone = map[datatable.Tone]lipgloss.Style{
		datatable.ToneMuted:   s.Muted,
		datatable.ToneInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		datatable.ToneSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		datatable.ToneWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		datatable.ToneDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	s.TableStyles = TableStyles{
		Header:   lipgloss.NewStyle().Bold(true).PaddingRight(1),
		Cell:     lipgloss.NewStyle().PaddingRight(1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220")),
	}
	return s
}

// ToneText paints s with the palette entry for tone; no tone leaves it as is.
func (s Styles) ToneText(tone datatable.Tone, text string) string {
	if st, ok := s.Tone[tone]; ok {
		return st.Render(text)
	}
	return text
}

// toneGlyph marks a toned cell inside the table, where ANSI colour would
// break the widget's width math.
func toneGlyph(t datatable.Tone) string {
	switch t {
	case datatable.ToneSuccess:
		return "● "
	case datatable.ToneWarning:
		return "◐ "
	case datatable.ToneDanger:
		return "✕ "
	case datatable.ToneInfo:
		return "○ "
	case datatable.ToneMuted:
		return "· "
	default:
		return ""
	}
}
