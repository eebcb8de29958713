package datatable

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func numberedRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{"id": i + 1, "name": fmt.Sprintf("item %d", i+1)}
	}
	return rows
}

func TestPaginationInvariant(t *testing.T) {
	for n := 0; n <= 23; n++ {
		for size := 1; size <= 7; size++ {
			v := New(numberedRows(n), nil)
			v.SetPageSize(size)
			want := (n + size - 1) / size
			if want < 1 {
				want = 1
			}
			for _, target := range []int{-5, 0, 1, want - 1, want, 100} {
				v.GoToPage(target)
				p := v.State().Pagination
				if p.PageCount != want {
					t.Fatalf("n=%d size=%d: pageCount=%d want %d", n, size, p.PageCount, want)
				}
				if p.PageIndex < 0 || p.PageIndex > p.PageCount-1 {
					t.Fatalf("n=%d size=%d target=%d: pageIndex=%d out of range", n, size, target, p.PageIndex)
				}
			}
		}
	}
}

func TestZeroRows(t *testing.T) {
	v := New(nil, nil)
	p := v.State().Pagination
	if p.PageCount != 1 || p.PageIndex != 0 {
		t.Fatalf("zero rows: got %+v", p)
	}
	v.SetPageSize(25)
	v.NextPage()
	p = v.State().Pagination
	if p.PageCount != 1 || p.PageIndex != 0 {
		t.Fatalf("zero rows after transitions: got %+v", p)
	}
	f := v.Frame()
	if !f.Empty || f.Page.From != 0 || f.Page.To != 0 {
		t.Fatalf("zero rows frame: %+v", f.Page)
	}
}

func TestSortTogglesDirection(t *testing.T) {
	v := New(numberedRows(3), nil)
	v.Sort("name")
	if s := v.State().Sorting; s.SortBy != "name" || s.Direction != SortAsc {
		t.Fatalf("first sort: %+v", s)
	}
	v.Sort("name")
	if s := v.State().Sorting; s.Direction != SortDesc {
		t.Fatalf("second sort: %+v", s)
	}
	v.Sort("id")
	if s := v.State().Sorting; s.SortBy != "id" || s.Direction != SortAsc {
		t.Fatalf("new key: %+v", s)
	}
}

func TestSelectAllIsGlobal(t *testing.T) {
	v := New(numberedRows(50), nil, WithInitialState(ViewState{Pagination: Pagination{PageSize: 10}}))
	if got := len(v.Visible()); got != 10 {
		t.Fatalf("visible rows = %d, want 10", got)
	}
	v.ToggleSelectAll()
	st := v.State()
	if !st.Selection.SelectAll || st.Selection.Len() != 50 {
		t.Fatalf("select all: flag=%v len=%d", st.Selection.SelectAll, st.Selection.Len())
	}
	v.ToggleSelectAll()
	st = v.State()
	if st.Selection.SelectAll || st.Selection.Len() != 0 {
		t.Fatalf("deselect all: flag=%v len=%d", st.Selection.SelectAll, st.Selection.Len())
	}
}

func TestToggleRowSelectionIsASet(t *testing.T) {
	calls := 0
	v := New(numberedRows(3), nil, WithOnStateChange(func(ViewState) { calls++ }))
	v.ToggleRowSelection("2")
	v.ToggleRowSelection("3")
	v.ToggleRowSelection("2")
	v.ToggleRowSelection("99")
	got := v.State().Selection.Sorted()
	if diff := cmp.Diff([]RowID{"3"}, got); diff != "" {
		t.Fatalf("selection (-want +got):\n%s", diff)
	}
	if calls != 3 {
		t.Fatalf("listener calls = %d, want 3", calls)
	}
	sel := v.Selected()
	if len(sel) != 1 || sel[0]["id"] != 3 {
		t.Fatalf("selected rows: %v", sel)
	}
}

func TestIdentityFallsBackToIndex(t *testing.T) {
	rows := []Row{{"name": "a"}, {"name": "b"}}
	v := New(rows, nil)
	v.ToggleRowSelection("#1")
	f := v.Frame()
	if f.Rows[1].ID != "#1" || !f.Rows[1].Selected || f.Rows[0].Selected {
		t.Fatalf("fallback identity: %+v", f.Rows)
	}
}

func TestFallbackIdentityDoesNotCollide(t *testing.T) {
	v := New([]Row{{"name": "no id"}, {"id": 0, "name": "zero"}}, nil)
	v.ToggleRowSelection("0")
	sel := v.Selected()
	if len(sel) != 1 || sel[0]["name"] != "zero" {
		t.Fatalf("selected rows: %v", sel)
	}
}

func TestSelectAllTakesArrivingRows(t *testing.T) {
	calls := 0
	v := New(numberedRows(3), nil, WithOnStateChange(func(ViewState) { calls++ }))
	v.ToggleSelectAll()
	v.ToggleRowSelection("2")
	calls = 0
	v.SetRows(numberedRows(4))
	st := v.State()
	if diff := cmp.Diff([]RowID{"1", "3", "4"}, st.Selection.Sorted()); diff != "" {
		t.Fatalf("selection after new row (-want +got):\n%s", diff)
	}
	if calls != 1 {
		t.Fatalf("listener calls = %d, want 1", calls)
	}
	f := v.Frame()
	if !f.SelectAll || f.SelectedCount != 3 || !f.Rows[3].Selected {
		t.Fatalf("frame: all=%v count=%d last=%v", f.SelectAll, f.SelectedCount, f.Rows[3].Selected)
	}
	if got := len(v.Selected()); got != 3 {
		t.Fatalf("selected rows = %d", got)
	}
}

func TestCustomIDKey(t *testing.T) {
	rows := []Row{{"sku": "A-1"}, {"sku": "B-2"}}
	v := New(rows, nil, WithIDKey("sku"))
	v.ToggleRowSelection("B-2")
	if !v.State().Selection.Has("B-2") {
		t.Fatalf("expected B-2 selected")
	}
}

func TestPageSizeChangeUsesFilteredCount(t *testing.T) {
	rows := numberedRows(30)
	for i, r := range rows {
		if i%3 == 0 {
			r["category"] = "Fruits"
		} else {
			r["category"] = "Dairy"
		}
	}
	v := New(rows, nil)
	v.GoToPage(2)
	v.SetFilter("category", "fruits")
	v.SetPageSize(4)
	p := v.State().Pagination
	if p.PageIndex != 0 || p.PageCount != 3 {
		t.Fatalf("after page size change: %+v", p)
	}
}

func TestSetFilterClampsAndRemoves(t *testing.T) {
	rows := numberedRows(30)
	v := New(rows, nil)
	v.GoToPage(2)
	v.SetFilter("name", "item 1")
	p := v.State().Pagination
	// "item 1", "item 10".."item 19" match.
	if p.PageCount != 2 || p.PageIndex != 1 {
		t.Fatalf("after filter: %+v", p)
	}
	v.SetFilter("name", "")
	st := v.State()
	if len(st.Filters) != 0 || st.Pagination.PageCount != 3 {
		t.Fatalf("after clearing filter: %+v", st)
	}
}

func TestListenerGetsFullStateCopy(t *testing.T) {
	var last ViewState
	v := New(numberedRows(12), nil, WithOnStateChange(func(s ViewState) { last = s }))
	v.Sort("name")
	v.SetFilter("name", "item")
	v.ToggleRowSelection("4")
	v.GoToPage(1)
	if last.Sorting.SortBy != "name" || last.Filters["name"] != "item" || !last.Selection.Has("4") || last.Pagination.PageIndex != 1 {
		t.Fatalf("listener state: %+v", last)
	}
	last.Selection.IDs["7"] = struct{}{}
	if v.State().Selection.Has("7") {
		t.Fatalf("listener copy aliases view state")
	}
}

func TestSetRowsPrunesSelectionAndClamps(t *testing.T) {
	calls := 0
	v := New(numberedRows(25), nil, WithOnStateChange(func(ViewState) { calls++ }))
	v.ToggleRowSelection("2")
	v.ToggleRowSelection("20")
	v.GoToPage(2)
	calls = 0
	v.SetRows(numberedRows(5))
	st := v.State()
	if st.Pagination.PageIndex != 0 || st.Pagination.PageCount != 1 {
		t.Fatalf("pagination after SetRows: %+v", st.Pagination)
	}
	if diff := cmp.Diff([]RowID{"2"}, st.Selection.Sorted()); diff != "" {
		t.Fatalf("selection after SetRows (-want +got):\n%s", diff)
	}
	if calls != 1 {
		t.Fatalf("listener calls = %d, want 1", calls)
	}
	v.SetRows(numberedRows(5))
	if calls != 1 {
		t.Fatalf("unchanged SetRows notified")
	}
}

func TestServerSidePassesRowsThrough(t *testing.T) {
	page := []Row{{"id": 30, "name": "z"}, {"id": 10, "name": "a"}}
	v := New(nil, nil, WithServerSide(true), WithInitialState(ViewState{
		Pagination: Pagination{PageSize: 2},
		Sorting:    Sorting{SortBy: "name"},
		Filters:    map[string]any{"name": "nothing matches"},
	}))
	v.SetServerRows(page, 9)
	v.GoToPage(3)
	got := idsOf(v.Visible())
	if diff := cmp.Diff([]any{30, 10}, got); diff != "" {
		t.Fatalf("server rows (-want +got):\n%s", diff)
	}
	p := v.State().Pagination
	if p.PageCount != 5 || p.PageIndex != 3 {
		t.Fatalf("server pagination: %+v", p)
	}
	f := v.Frame()
	if f.Page.From != 7 || f.Page.To != 8 || f.Page.Total != 9 {
		t.Fatalf("server page summary: %+v", f.Page)
	}
}

func TestEndToEndFruitsByPrice(t *testing.T) {
	rows := make([]Row, 0, 25)
	prices := []float64{1.2, 3.5, 0.99, 2.25, 4.1, 1.75}
	for i, p := range prices {
		rows = append(rows, Row{"id": i + 1, "category": "Fruits", "price": p})
	}
	others := []string{"Vegetables", "Dairy", "Bakery"}
	for i := len(prices); i < 25; i++ {
		rows = append(rows, Row{"id": i + 1, "category": others[i%3], "price": float64(i)})
	}
	v := New(rows, nil, WithInitialState(ViewState{Pagination: Pagination{PageSize: 10}}))
	v.Sort("price")
	v.Sort("price")
	v.SetFilter("category", "Fruits")

	st := v.State()
	if st.Pagination.PageCount != 1 || st.Pagination.PageIndex != 0 {
		t.Fatalf("pagination: %+v", st.Pagination)
	}
	got := idsOf(v.Visible())
	want := []any{5, 2, 4, 6, 1, 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("visible rows (-want +got):\n%s", diff)
	}
	f := v.Frame()
	if f.Page.From != 1 || f.Page.To != 6 || f.Page.Total != 6 || f.Page.PageCount != 1 {
		t.Fatalf("page summary: %+v", f.Page)
	}
}
