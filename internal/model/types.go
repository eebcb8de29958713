package model

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"grocerydesk/internal/datatable"
)

// Field types understood by Columns.
const (
	TypeText     = "text"
	TypeNumber   = "number"
	TypeInteger  = "integer"
	TypeCurrency = "currency"
	TypeDate     = "date"
	TypeBadge    = "badge"
	TypeBool     = "bool"
)

type FieldDef struct {
	Name        string            `json:"name" yaml:"name"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Type        string            `json:"type" yaml:"type"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Badges      map[string]string `json:"badges,omitempty" yaml:"badges,omitempty"` // value -> tone
	Hide        string            `json:"hideBelow,omitempty" yaml:"hideBelow,omitempty"`
	Unsortable  bool              `json:"unsortable,omitempty" yaml:"unsortable,omitempty"`
}

type Schema struct {
	Dataset    string     `json:"dataset" yaml:"dataset"`
	IDKey      string     `json:"idKey" yaml:"idKey"`
	Fields     []FieldDef `json:"fields" yaml:"fields"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
	Currency   string     `json:"currency,omitempty" yaml:"currency,omitempty"`
	DateLayout string     `json:"dateLayout,omitempty" yaml:"dateLayout,omitempty"`
}

func (s Schema) ColumnOrder() []string {
	// Preferred columns
	pref := []string{s.idKey(), "name", "title", "code", "trackingNumber", "customer", "email", "category", "status", "price", "total", "stock", "createdAt", "updatedAt"}
	cols := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, f.Name)
	}
	sort.SliceStable(cols, func(i, j int) bool {
		return indexOf(pref, cols[i]) < indexOf(pref, cols[j])
	})
	return cols
}

func (s Schema) idKey() string {
	if s.IDKey == "" {
		return datatable.DefaultIDKey
	}
	return s.IDKey
}

func (s Schema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Columns maps the schema onto engine columns, in ColumnOrder.
func (s Schema) Columns() []datatable.Column {
	order := s.ColumnOrder()
	out := make([]datatable.Column, 0, len(order))
	for _, name := range order {
		f, _ := s.Field(name)
		col := datatable.Column{
			Key:        f.Name,
			Label:      f.Label,
			Unsortable: f.Unsortable,
			Breakpoint: parseBreakpoint(f.Hide),
		}
		switch f.Type {
		case TypeCurrency:
			col.Format = datatable.Currency(s.Currency)
			col.Style.Align = datatable.AlignRight
		case TypeNumber, TypeInteger:
			col.Style.Align = datatable.AlignRight
		case TypeDate:
			col.Format = datatable.Date(s.DateLayout)
		case TypeBadge:
			tones := make(map[string]datatable.Tone, len(f.Badges))
			for k, v := range f.Badges {
				tones[strings.ToLower(k)] = datatable.Tone(v)
			}
			col.Format = datatable.Badge(tones)
			col.Style.Align = datatable.AlignCenter
		case TypeBool:
			col.Format = datatable.Custom(yesNo(f.Name))
			col.Style.Align = datatable.AlignCenter
		}
		out = append(out, col)
	}
	return out
}

func yesNo(key string) func(datatable.Row, int) string {
	return func(r datatable.Row, _ int) string {
		switch v := r[key].(type) {
		case bool:
			if v {
				return "yes"
			}
			return "no"
		case nil:
			return ""
		default:
			return datatable.Stringify(v)
		}
	}
}

func parseBreakpoint(s string) datatable.Breakpoint {
	switch strings.ToLower(s) {
	case "sm", "small":
		return datatable.BreakpointSmall
	case "md", "medium":
		return datatable.BreakpointMedium
	case "lg", "large":
		return datatable.BreakpointLarge
	case "xl", "xlarge":
		return datatable.BreakpointXLarge
	}
	return datatable.BreakpointNone
}

func indexOf(arr []string, s string) int {
	for i, v := range arr {
		if v == s {
			return i
		}
	}
	return len(arr) + 1
}

// Ring is a bounded buffer of rows; once full the oldest row is dropped.
type Ring struct {
	mu      sync.RWMutex
	buf     []datatable.Row
	cap     int
	start   int
	size    int
	total   uint64 // total ingested
	dropped uint64
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{cap: capacity, buf: make([]datatable.Row, capacity)}
}

func (r *Ring) Push(row datatable.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < r.cap {
		r.buf[(r.start+r.size)%r.cap] = row
		r.size++
	} else {
		// overwrite oldest
		r.buf[r.start] = row
		r.start = (r.start + 1) % r.cap
		r.dropped++
	}
	r.total++
}

func (r *Ring) Snapshot() ([]datatable.Row, uint64, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]datatable.Row, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%r.cap]
	}
	return out, r.total, r.dropped
}

func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

func (r *Ring) Clear() { // does not reset counters
	r.mu.Lock()
	defer r.mu.Unlock()
	r.size = 0
	r.start = 0
}

func PrettyJSON(row datatable.Row) string {
	b, _ := json.MarshalIndent(row, "", "  ")
	return string(b)
}
