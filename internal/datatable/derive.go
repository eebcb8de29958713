package datatable

import (
	"reflect"
	"slices"
	"strings"
)

// Derive returns the visible page of rows: filter, then sort, then
// paginate. It does not modify rows and returns value-equal output for
// equal input.
func Derive(rows []Row, columns []Column, st ViewState) []Row {
	idx := deriveIndices(rows, columns, st, true)
	return pick(rows, idx)
}

// DeriveAll is Derive without pagination: every row that passes the
// filters, in sort order.
func DeriveAll(rows []Row, columns []Column, st ViewState) []Row {
	idx := deriveIndices(rows, columns, st, false)
	return pick(rows, idx)
}

// CountFiltered returns how many rows pass filters.
func CountFiltered(rows []Row, filters map[string]any) int {
	if len(filters) == 0 {
		return len(rows)
	}
	keys := sortedKeys(filters)
	n := 0
	for _, r := range rows {
		if matchesAll(r, keys, filters) {
			n++
		}
	}
	return n
}

func pick(rows []Row, idx []int) []Row {
	out := make([]Row, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

// deriveIndices runs the pipeline over positions into rows so callers can
// keep track of each row's original index.
func deriveIndices(rows []Row, columns []Column, st ViewState, paginate bool) []int {
	idx := filterIndices(rows, st.Filters)
	sortIndices(rows, idx, columns, st.Sorting)
	if paginate {
		idx = paginateIndices(idx, st.Pagination)
	}
	return idx
}

func filterIndices(rows []Row, filters map[string]any) []int {
	idx := make([]int, 0, len(rows))
	keys := sortedKeys(filters)
	for i, r := range rows {
		if matchesAll(r, keys, filters) {
			idx = append(idx, i)
		}
	}
	return idx
}

func matchesAll(r Row, keys []string, filters map[string]any) bool {
	for _, k := range keys {
		if !matchFilter(r[k], r, filters[k]) {
			return false
		}
	}
	return true
}

// matchFilter applies one filter entry. A panicking predicate rejects the
// row rather than aborting the whole derivation.
func matchFilter(cell any, row Row, want any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	switch f := want.(type) {
	case Predicate:
		return f(cell, row)
	case func(any, Row) bool:
		return f(cell, row)
	case string:
		if s, isStr := cell.(string); isStr {
			return strings.Contains(strings.ToLower(s), strings.ToLower(f))
		}
	}
	return valuesEqual(cell, want)
}

func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	if isNull(a) || isNull(b) {
		return isNull(a) && isNull(b)
	}
	return reflect.DeepEqual(a, b)
}

func sortIndices(rows []Row, idx []int, columns []Column, s Sorting) {
	if s.SortBy == "" {
		return
	}
	for _, c := range columns {
		if c.Key == s.SortBy && c.Unsortable {
			return
		}
	}
	cmp := newComparator()
	sign := 1
	if s.Direction == SortDesc {
		sign = -1
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return sign * safeCompare(cmp, s.SortBy, rows[a][s.SortBy], rows[b][s.SortBy])
	})
}

// safeCompare treats values the comparator cannot handle as equal, which
// keeps their original relative order.
func safeCompare(c *comparator, field string, a, b any) (n int) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()
	return c.compare(field, a, b)
}

func paginateIndices(idx []int, p Pagination) []int {
	size := p.PageSize
	if size < 1 {
		size = 1
	}
	start := p.PageIndex * size
	if start < 0 {
		start = 0
	}
	if start >= len(idx) {
		return idx[:0]
	}
	end := start + size
	if end > len(idx) {
		end = len(idx)
	}
	return idx[start:end]
}

// isFalsy reports whether a filter value means "no filter".
func isFalsy(v any) bool {
	if isNull(v) {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	case Predicate:
		return t == nil
	case func(any, Row) bool:
		return t == nil
	}
	if f, ok := toFloat(v); ok {
		return f == 0
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
