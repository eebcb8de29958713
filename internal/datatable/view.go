package datatable

// Listener receives the complete state after every transition. It is
// called synchronously and gets its own copy.
type Listener func(ViewState)

type Option func(*View)

// WithIDKey sets the identity key field.
func WithIDKey(key string) Option {
	return func(v *View) {
		if key != "" {
			v.idKey = key
		}
	}
}

// WithInitialState seeds the state. Out-of-range values are normalized.
func WithInitialState(st ViewState) Option {
	return func(v *View) { v.state = st.Clone() }
}

func WithOnStateChange(fn Listener) Option {
	return func(v *View) { v.onChange = fn }
}

// WithServerSide makes the view pass rows through untouched: pagination,
// sorting and filtering are assumed to be applied upstream.
func WithServerSide(on bool) Option {
	return func(v *View) { v.serverSide = on }
}

func WithLoading(on bool) Option {
	return func(v *View) { v.loading = on }
}

// View owns the state of one table instance and the rows it was given.
// It is not safe for concurrent use; drive it from a single goroutine.
type View struct {
	rows    []Row
	ids     []RowID
	idSet   map[RowID]struct{}
	columns []Column
	state   ViewState
	idKey   string

	serverSide bool
	total      int
	loading    bool
	onChange   Listener
}

// New creates a view over rows. The initial state is not reported to the
// listener.
func New(rows []Row, columns []Column, opts ...Option) *View {
	v := &View{idKey: DefaultIDKey, columns: columns}
	for _, o := range opts {
		o(v)
	}
	if v.state.Filters == nil {
		v.state.Filters = map[string]any{}
	}
	if v.state.Selection.IDs == nil {
		v.state.Selection.IDs = map[RowID]struct{}{}
	}
	if v.state.Pagination.PageSize < 1 {
		v.state.Pagination.PageSize = DefaultPageSize
	}
	if v.state.Sorting.Direction != SortDesc {
		v.state.Sorting.Direction = SortAsc
	}
	for k, f := range v.state.Filters {
		if isFalsy(f) {
			delete(v.state.Filters, k)
		}
	}
	v.load(rows, len(rows))
	return v
}

// State returns a copy of the current state.
func (v *View) State() ViewState { return v.state.Clone() }

func (v *View) Columns() []Column { return v.columns }

// SetColumns replaces the column definitions. Sort and filters are kept.
func (v *View) SetColumns(cols []Column) { v.columns = cols }

func (v *View) IDKey() string { return v.idKey }

func (v *View) ServerSide() bool { return v.serverSide }

func (v *View) Loading() bool { return v.loading }

func (v *View) SetLoading(on bool) { v.loading = on }

// Rows returns the loaded rows as given.
func (v *View) Rows() []Row { return v.rows }

// Visible returns the rows of the current page.
func (v *View) Visible() []Row {
	if v.serverSide {
		return v.rows
	}
	return Derive(v.rows, v.columns, v.state)
}

// Matching returns every row that passes the filters, in sort order.
func (v *View) Matching() []Row {
	if v.serverSide {
		return v.rows
	}
	return DeriveAll(v.rows, v.columns, v.state)
}

// Selected returns the selected rows in load order.
func (v *View) Selected() []Row {
	out := make([]Row, 0, v.state.Selection.Len())
	for i, id := range v.ids {
		if v.state.Selection.Has(id) {
			out = append(out, v.rows[i])
		}
	}
	return out
}

// FilteredCount is the row count pagination is computed from.
func (v *View) FilteredCount() int {
	if v.serverSide {
		return v.total
	}
	return CountFiltered(v.rows, v.state.Filters)
}

// SetRows replaces the loaded rows, e.g. when a fetch completes. It reports
// the state only if pagination or selection had to change.
func (v *View) SetRows(rows []Row) {
	v.SetServerRows(rows, len(rows))
}

// SetServerRows is SetRows for server-side mode, where total is the
// upstream count of rows matching the current filters.
func (v *View) SetServerRows(rows []Row, total int) {
	before := v.state.Pagination
	if v.load(rows, total) || v.state.Pagination != before {
		v.notify()
	}
}

// load installs rows and reports whether the selection changed. Ids that
// left are pruned; under select-all, ids that arrived are added.
func (v *View) load(rows []Row, total int) (selChanged bool) {
	prev := v.idSet
	v.rows = rows
	v.total = total
	if v.total < len(rows) {
		v.total = len(rows)
	}
	v.ids = make([]RowID, len(rows))
	v.idSet = make(map[RowID]struct{}, len(rows))
	for i, r := range rows {
		id := rowID(r, v.idKey, i)
		v.ids[i] = id
		v.idSet[id] = struct{}{}
	}
	sel := &v.state.Selection
	for id := range sel.IDs {
		if _, ok := v.idSet[id]; !ok {
			delete(sel.IDs, id)
			selChanged = true
		}
	}
	if sel.SelectAll {
		for _, id := range v.ids {
			if _, seen := prev[id]; seen {
				continue
			}
			if _, ok := sel.IDs[id]; !ok {
				sel.IDs[id] = struct{}{}
				selChanged = true
			}
		}
	}
	v.recount()
	return selChanged
}

// recount recomputes PageCount from the filtered count and clamps
// PageIndex into range.
func (v *View) recount() {
	p := &v.state.Pagination
	if p.PageSize < 1 {
		p.PageSize = 1
	}
	p.PageCount = pageCountFor(v.FilteredCount(), p.PageSize)
	p.PageIndex = clampPage(p.PageIndex, p.PageCount)
}

func (v *View) notify() {
	if v.onChange != nil {
		v.onChange(v.state.Clone())
	}
}

// GoToPage moves to page index i, clamped into range.
func (v *View) GoToPage(i int) {
	v.recount()
	v.state.Pagination.PageIndex = clampPage(i, v.state.Pagination.PageCount)
	v.notify()
}

func (v *View) NextPage() { v.GoToPage(v.state.Pagination.PageIndex + 1) }

func (v *View) PrevPage() { v.GoToPage(v.state.Pagination.PageIndex - 1) }

// SetPageSize changes the page size and returns to the first page.
func (v *View) SetPageSize(size int) {
	if size < 1 {
		size = 1
	}
	v.state.Pagination.PageSize = size
	v.state.Pagination.PageIndex = 0
	v.recount()
	v.notify()
}

// Sort flips the direction when key is already the sort key, otherwise
// sorts ascending by key. Unsortable columns are ignored.
func (v *View) Sort(key string) {
	if key == "" {
		return
	}
	for _, c := range v.columns {
		if c.Key == key && c.Unsortable {
			return
		}
	}
	s := &v.state.Sorting
	if s.SortBy == key {
		s.Direction = s.Direction.Flip()
	} else {
		s.SortBy = key
		s.Direction = SortAsc
	}
	v.notify()
}

// ClearSort returns rows to their loaded order.
func (v *View) ClearSort() {
	v.state.Sorting = Sorting{}
	v.notify()
}

// SetFilter replaces the filter for key; a falsy value removes it.
func (v *View) SetFilter(key string, value any) {
	if isFalsy(value) {
		delete(v.state.Filters, key)
	} else {
		v.state.Filters[key] = value
	}
	v.recount()
	v.notify()
}

func (v *View) ClearFilters() {
	v.state.Filters = map[string]any{}
	v.recount()
	v.notify()
}

// ToggleRowSelection adds or removes id. Ids not among the loaded rows are
// ignored.
func (v *View) ToggleRowSelection(id RowID) {
	if _, ok := v.idSet[id]; !ok {
		return
	}
	sel := v.state.Selection.IDs
	if _, ok := sel[id]; ok {
		delete(sel, id)
	} else {
		sel[id] = struct{}{}
	}
	v.notify()
}

// ToggleSelectAll selects every loaded row, not just the visible page, or
// clears the selection when select-all was on.
func (v *View) ToggleSelectAll() {
	v.state.Selection.SelectAll = !v.state.Selection.SelectAll
	ids := make(map[RowID]struct{}, len(v.ids))
	if v.state.Selection.SelectAll {
		for _, id := range v.ids {
			ids[id] = struct{}{}
		}
	}
	v.state.Selection.IDs = ids
	v.notify()
}

// ClearSelection drops every selected id and the select-all flag.
func (v *View) ClearSelection() {
	v.state.Selection = Selection{IDs: map[RowID]struct{}{}}
	v.notify()
}
