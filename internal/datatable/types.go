// Package datatable keeps the view state of a table (pagination, sorting,
// filters, selection) and derives the visible page of rows from it.
//
// It knows nothing about rendering: a View hands a Frame to whatever draws
// it, and reports every state transition to an optional listener.
package datatable

import (
	"fmt"
	"sort"
	"strconv"
)

// Row is one record. Only the fields referenced by columns, sorting and
// filters are ever looked at.
type Row map[string]any

// RowID identifies a row across re-renders for selection purposes.
type RowID string

// DefaultIDKey is the field used as identity key when none is configured.
const DefaultIDKey = "id"

// DefaultPageSize is used when the initial state carries no page size.
const DefaultPageSize = 10

// Predicate is a filter callback. It receives the filtered field's value
// (nil when absent) and the whole row.
type Predicate func(cell any, row Row) bool

// SortDirection specifies the direction of sorting.
type SortDirection int

const (
	// SortAsc sorts ascending. Nulls come first.
	SortAsc SortDirection = iota
	// SortDesc sorts descending. Nulls come last.
	SortDesc
)

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return fmt.Sprintf("unknown(%d)", int(d))
	}
}

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

type Pagination struct {
	PageIndex int
	PageSize  int
	PageCount int
}

// Sorting is inactive while SortBy is empty.
type Sorting struct {
	SortBy    string
	Direction SortDirection
}

// Selection holds the selected identity keys as a set.
type Selection struct {
	IDs       map[RowID]struct{}
	SelectAll bool
}

// Has reports whether id is selected.
func (s Selection) Has(id RowID) bool {
	_, ok := s.IDs[id]
	return ok
}

// Len returns the number of selected rows.
func (s Selection) Len() int { return len(s.IDs) }

// Sorted returns the selected ids in ascending order.
func (s Selection) Sorted() []RowID {
	out := make([]RowID, 0, len(s.IDs))
	for id := range s.IDs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ViewState is the combined state of one table instance. A Filters value is
// either a Predicate or a plain value compared against the field.
type ViewState struct {
	Pagination Pagination
	Sorting    Sorting
	Filters    map[string]any
	Selection  Selection
}

// Clone returns a copy that shares no maps with s.
func (s ViewState) Clone() ViewState {
	out := s
	out.Filters = make(map[string]any, len(s.Filters))
	for k, v := range s.Filters {
		out.Filters[k] = v
	}
	out.Selection.IDs = make(map[RowID]struct{}, len(s.Selection.IDs))
	for id := range s.Selection.IDs {
		out.Selection.IDs[id] = struct{}{}
	}
	return out
}

// FilterKeys returns the active filter fields in ascending order.
func (s ViewState) FilterKeys() []string {
	keys := make([]string, 0, len(s.Filters))
	for k := range s.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// pageCountFor returns max(1, ceil(n/size)).
func pageCountFor(n, size int) int {
	if size < 1 {
		size = 1
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

func clampPage(idx, count int) int {
	if idx > count-1 {
		idx = count - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// rowID returns the identity key of row. Rows without one get "#" plus
// their position, which cannot collide with a real key of the same digits.
func rowID(row Row, key string, index int) RowID {
	if row != nil {
		if v, ok := row[key]; ok && v != nil {
			return RowID(fmt.Sprint(v))
		}
	}
	return RowID("#" + strconv.Itoa(index))
}
