package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"grocerydesk/internal/datatable"
)

var rows = []datatable.Row{
	{"id": 2, "customer": "Bo, Jr.", "email": "bo@x.io", "total": 30.0, "note": nil},
	{"id": 1, "customer": "Ana", "email": "ana@x.io", "total": 10.5, "tags": []any{"vip"}},
}

func TestToCSVUsesColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	cols := []datatable.Column{{Key: "id"}, {Key: "customer"}, {Key: "total", Format: datatable.Currency("$")}}
	if err := ToCSV(path, cols, rows, Options{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, _ := os.ReadFile(path)
	want := "id,customer,total\n2,\"Bo, Jr.\",30\n1,Ana,10.5\n"
	if string(b) != want {
		t.Fatalf("csv:\n%s\nwant:\n%s", b, want)
	}
}

func TestToCSVDefaultColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := ToCSV(path, nil, rows, Options{Redact: true}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if lines[0] != "id,customer,email,note,tags,total" {
		t.Fatalf("header: %s", lines[0])
	}
	if lines[2] != `1,Ana,[redacted-email],,"[""vip""]",10.5` {
		t.Fatalf("row: %s", lines[2])
	}
}

func TestToNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.ndjson")
	if err := Write("json", path, nil, rows, Options{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"customer":"Bo, Jr."`) {
		t.Fatalf("ndjson: %s", b)
	}
}

func TestNoRowsAndUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	if err := ToCSV(filepath.Join(dir, "a.csv"), nil, nil, Options{}); err != ErrNoRows {
		t.Fatalf("csv err = %v", err)
	}
	if err := ToNDJSON(filepath.Join(dir, "a.json"), nil, Options{}); err != ErrNoRows {
		t.Fatalf("ndjson err = %v", err)
	}
	if err := Write("xml", filepath.Join(dir, "a.xml"), nil, rows, Options{}); err == nil {
		t.Fatalf("expected format error")
	}
}
