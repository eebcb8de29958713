package datatable

// SortIndicator tells the renderer which sort affordance to draw.
type SortIndicator int

const (
	SortNone SortIndicator = iota
	SortedAsc
	SortedDesc
)

func (s SortIndicator) String() string {
	switch s {
	case SortedAsc:
		return "asc"
	case SortedDesc:
		return "desc"
	default:
		return "none"
	}
}

type Header struct {
	Key      string
	Label    string
	Sortable bool
	Sort     SortIndicator
	Align    Align
}

type Cell struct {
	Text  string
	Tone  Tone
	Align Align
}

// RenderedRow pairs a visible row with its identity and formatted cells.
type RenderedRow struct {
	ID RowID
	// Index is the row's position on the visible page.
	Index    int
	Data     Row
	Cells    []Cell
	Selected bool
}

// PageSummary feeds a pager control. From and To are 1-based and both zero
// when nothing matches.
type PageSummary struct {
	PageIndex int
	PageSize  int
	PageCount int
	From      int
	To        int
	Total     int
}

// Frame is everything a renderer needs for one render cycle.
type Frame struct {
	Headers       []Header
	Rows          []RenderedRow
	Page          PageSummary
	Loading       bool
	Empty         bool
	SelectedCount int
	SelectAll     bool
	Filters       []string
}

// Frame builds the presentation of the current page for all columns.
func (v *View) Frame() Frame {
	return v.FrameFor(v.columns)
}

// FrameFor builds the presentation using cols, typically the subset left
// by VisibleColumns.
func (v *View) FrameFor(cols []Column) Frame {
	st := v.state
	f := Frame{
		Loading:       v.loading,
		SelectedCount: st.Selection.Len(),
		SelectAll:     st.Selection.SelectAll,
		Filters:       st.FilterKeys(),
	}
	f.Headers = make([]Header, len(cols))
	for i, c := range cols {
		h := Header{Key: c.Key, Label: c.Title(), Sortable: c.Sortable(), Align: c.Style.Align}
		if c.Sortable() && st.Sorting.SortBy == c.Key {
			h.Sort = SortedAsc
			if st.Sorting.Direction == SortDesc {
				h.Sort = SortedDesc
			}
		}
		f.Headers[i] = h
	}

	var idx []int
	if v.serverSide {
		idx = make([]int, len(v.rows))
		for i := range v.rows {
			idx[i] = i
		}
	} else {
		idx = deriveIndices(v.rows, v.columns, st, true)
	}
	f.Rows = make([]RenderedRow, len(idx))
	for pos, i := range idx {
		row := v.rows[i]
		rr := RenderedRow{
			ID:       v.ids[i],
			Index:    pos,
			Data:     row,
			Selected: st.Selection.Has(v.ids[i]),
			Cells:    make([]Cell, len(cols)),
		}
		for ci, c := range cols {
			text, tone := c.Cell(row, pos)
			rr.Cells[ci] = Cell{Text: text, Tone: tone, Align: c.Style.Align}
		}
		f.Rows[pos] = rr
	}

	total := v.FilteredCount()
	p := st.Pagination
	f.Page = PageSummary{PageIndex: p.PageIndex, PageSize: p.PageSize, PageCount: p.PageCount, Total: total}
	if total > 0 && len(idx) > 0 {
		f.Page.From = p.PageIndex*p.PageSize + 1
		f.Page.To = f.Page.From + len(idx) - 1
	}
	f.Empty = total == 0
	return f
}
