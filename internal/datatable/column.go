package datatable

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Breakpoint hides a column when the render width is below its threshold.
type Breakpoint int

const (
	BreakpointNone Breakpoint = iota
	BreakpointSmall
	BreakpointMedium
	BreakpointLarge
	BreakpointXLarge
)

// MinWidth is the render width (terminal cells) at which the column shows.
func (b Breakpoint) MinWidth() int {
	switch b {
	case BreakpointSmall:
		return 60
	case BreakpointMedium:
		return 80
	case BreakpointLarge:
		return 110
	case BreakpointXLarge:
		return 140
	default:
		return 0
	}
}

type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// Tone is a semantic colour hint; the renderer maps it to a palette.
type Tone string

const (
	ToneNone    Tone = ""
	ToneMuted   Tone = "muted"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

type CellStyle struct {
	Align Align
	Tone  Tone
}

// FormatKind is the closed set of cell formatting strategies.
type FormatKind int

const (
	FormatPlain FormatKind = iota
	FormatCurrency
	FormatDate
	FormatBadge
	FormatCustom
)

func (k FormatKind) String() string {
	switch k {
	case FormatPlain:
		return "plain"
	case FormatCurrency:
		return "currency"
	case FormatDate:
		return "date"
	case FormatBadge:
		return "badge"
	case FormatCustom:
		return "custom"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Format describes how a cell value becomes display text. Only the fields
// relevant to Kind are read.
type Format struct {
	Kind FormatKind
	// Symbol prefixes currency amounts; "$" when empty.
	Symbol string
	// Layout is the time layout for dates; "2006-01-02" when empty.
	Layout string
	// Badges maps a lower-cased value to its tone.
	Badges map[string]Tone
	// Custom receives the row and its index on the visible page.
	Custom func(row Row, rowIndex int) string
}

// Plain, Currency, Date, Badge and Custom build the matching Format.
func Plain() Format { return Format{Kind: FormatPlain} }

func Currency(symbol string) Format { return Format{Kind: FormatCurrency, Symbol: symbol} }

func Date(layout string) Format { return Format{Kind: FormatDate, Layout: layout} }

func Badge(tones map[string]Tone) Format {
	return Format{Kind: FormatBadge, Badges: tones}
}

func Custom(fn func(row Row, rowIndex int) string) Format {
	return Format{Kind: FormatCustom, Custom: fn}
}

// Column is a declarative descriptor; it owns no state.
type Column struct {
	Key   string
	Label string
	// Unsortable disables sorting; columns sort by default.
	Unsortable bool
	Breakpoint Breakpoint
	Format     Format
	Style      CellStyle
}

func (c Column) Sortable() bool { return !c.Unsortable }

// Title returns Label, or Key when no label is set.
func (c Column) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

// Cell renders the column's value for row. A panicking custom formatter
// yields an empty cell instead of taking the table down.
func (c Column) Cell(row Row, rowIndex int) (text string, tone Tone) {
	tone = c.Style.Tone
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	v := row[c.Key]
	switch c.Format.Kind {
	case FormatCurrency:
		if f, ok := toFloat(v); ok {
			sym := c.Format.Symbol
			if sym == "" {
				sym = "$"
			}
			sign := ""
			if f < 0 {
				sign = "-"
				f = math.Abs(f)
			}
			return sign + sym + fmt.Sprintf("%.2f", f), tone
		}
	case FormatDate:
		if t, ok := toTime(v); ok {
			layout := c.Format.Layout
			if layout == "" {
				layout = "2006-01-02"
			}
			return t.Format(layout), tone
		}
	case FormatBadge:
		s := Stringify(v)
		if t, ok := c.Format.Badges[strings.ToLower(s)]; ok {
			tone = t
		}
		return s, tone
	case FormatCustom:
		if c.Format.Custom != nil {
			return c.Format.Custom(row, rowIndex), tone
		}
	}
	return Stringify(v), tone
}

// VisibleColumns drops columns whose breakpoint exceeds width.
func VisibleColumns(cols []Column, width int) []Column {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		if width > 0 && c.Breakpoint.MinWidth() > width {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Stringify renders any cell value as plain text.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return fmt.Sprintf("%.0f", t)
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
