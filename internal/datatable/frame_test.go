package datatable

import (
	"testing"
	"time"
)

func TestFrameHeadersAndCells(t *testing.T) {
	rows := []Row{
		{"id": 1, "name": "Apples", "price": 3.5, "status": "Delivered", "createdAt": "2024-02-03T10:00:00Z"},
		{"id": 2, "name": "Milk", "price": -1.25, "status": "cancelled", "createdAt": nil},
	}
	cols := []Column{
		{Key: "name", Label: "Product"},
		{Key: "price", Format: Currency("€"), Style: CellStyle{Align: AlignRight}},
		{Key: "status", Unsortable: true, Format: Badge(map[string]Tone{"delivered": ToneSuccess, "cancelled": ToneDanger})},
		{Key: "createdAt", Format: Date("02 Jan 2006")},
		{Key: "rank", Format: Custom(func(r Row, i int) string { return r["name"].(string)[:1] + "#" + string(rune('1'+i)) })},
	}
	v := New(rows, cols)
	v.Sort("price")
	v.ToggleRowSelection("1")
	f := v.Frame()

	if f.Headers[0].Label != "Product" || f.Headers[1].Label != "price" {
		t.Fatalf("labels: %+v", f.Headers)
	}
	if f.Headers[1].Sort != SortedAsc || f.Headers[0].Sort != SortNone {
		t.Fatalf("sort indicators: %+v", f.Headers)
	}
	if f.Headers[2].Sortable {
		t.Fatalf("status header should not be sortable")
	}
	// price asc puts Milk first.
	milk, apples := f.Rows[0], f.Rows[1]
	if milk.ID != "2" || apples.ID != "1" {
		t.Fatalf("row order: %s, %s", milk.ID, apples.ID)
	}
	if got := milk.Cells[1].Text; got != "-€1.25" {
		t.Fatalf("currency: %q", got)
	}
	if milk.Cells[1].Align != AlignRight {
		t.Fatalf("align not carried to cell")
	}
	if milk.Cells[2].Tone != ToneDanger || apples.Cells[2].Tone != ToneSuccess {
		t.Fatalf("badge tones: %q %q", milk.Cells[2].Tone, apples.Cells[2].Tone)
	}
	if got := apples.Cells[3].Text; got != "03 Feb 2024" {
		t.Fatalf("date: %q", got)
	}
	if got := milk.Cells[3].Text; got != "" {
		t.Fatalf("null date: %q", got)
	}
	if milk.Cells[4].Text != "M#1" || apples.Cells[4].Text != "A#2" {
		t.Fatalf("custom: %q %q", milk.Cells[4].Text, apples.Cells[4].Text)
	}
	if !apples.Selected || milk.Selected || f.SelectedCount != 1 {
		t.Fatalf("selection flags wrong")
	}
	if f.Page.From != 1 || f.Page.To != 2 || f.Page.Total != 2 || f.Empty {
		t.Fatalf("page summary: %+v", f.Page)
	}
}

func TestCustomFormatterPanicYieldsEmptyCell(t *testing.T) {
	col := Column{Key: "x", Format: Custom(func(r Row, _ int) string { return r["missing"].(string) })}
	text, _ := col.Cell(Row{"x": 1}, 0)
	if text != "" {
		t.Fatalf("expected empty cell, got %q", text)
	}
}

func TestFrameLoadingFlag(t *testing.T) {
	v := New(nil, nil, WithLoading(true))
	if f := v.Frame(); !f.Loading || !f.Empty {
		t.Fatalf("loading frame: %+v", f)
	}
	v.SetLoading(false)
	if v.Frame().Loading {
		t.Fatalf("loading flag not cleared")
	}
}

func TestVisibleColumns(t *testing.T) {
	cols := []Column{
		{Key: "name"},
		{Key: "sku", Breakpoint: BreakpointMedium},
		{Key: "supplier", Breakpoint: BreakpointXLarge},
	}
	got := VisibleColumns(cols, 90)
	if len(got) != 2 || got[1].Key != "sku" {
		t.Fatalf("width 90: %+v", got)
	}
	if got := VisibleColumns(cols, 0); len(got) != 3 {
		t.Fatalf("unknown width should keep all columns")
	}
}

func TestStringify(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := map[string]any{
		"":                     nil,
		"12":                   float64(12),
		"2.5":                  2.5,
		"true":                 true,
		"2024-01-02T03:04:05Z": ts,
	}
	for want, in := range cases {
		if got := Stringify(in); got != want {
			t.Fatalf("Stringify(%v) = %q, want %q", in, got, want)
		}
	}
}
