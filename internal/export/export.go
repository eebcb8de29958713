package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"grocerydesk/internal/datatable"
	"grocerydesk/internal/util"
)

var ErrNoRows = errors.New("no rows")

type Options struct {
	Redact bool // mask emails, phones and tokens
}

// ToCSV writes rows with one column per descriptor, header first. Cells
// hold the raw values, not the formatted display text. With no columns the
// union of row keys is used.
func ToCSV(path string, cols []datatable.Column, rows []datatable.Row, opt Options) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	if len(cols) == 0 {
		cols = columns(rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Key
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if opt.Redact {
			r = util.RedactRow(r)
		}
		rec := make([]string, len(cols))
		for i, c := range cols {
			rec[i] = cell(r[c.Key])
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		b, _ := json.Marshal(t)
		return string(b)
	}
	return datatable.Stringify(v)
}

// ToNDJSON writes one JSON object per line.
func ToNDJSON(path string, rows []datatable.Row, opt Options) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	for _, r := range rows {
		if opt.Redact {
			r = util.RedactRow(r)
		}
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		if _, err := bw.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// Write dispatches on format: "csv", or "json"/"ndjson".
func Write(format, path string, cols []datatable.Column, rows []datatable.Row, opt Options) error {
	switch strings.ToLower(format) {
	case "csv":
		return ToCSV(path, cols, rows, opt)
	case "json", "ndjson", "jsonl":
		return ToNDJSON(path, rows, opt)
	}
	return fmt.Errorf("unknown export format %q", format)
}

func columns(rows []datatable.Row) []datatable.Column {
	set := map[string]struct{}{}
	for _, r := range rows {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	// prefer id first
	out := make([]datatable.Column, 0, len(keys))
	if _, ok := set[datatable.DefaultIDKey]; ok {
		out = append(out, datatable.Column{Key: datatable.DefaultIDKey})
	}
	for _, k := range keys {
		if k != datatable.DefaultIDKey {
			out = append(out, datatable.Column{Key: k})
		}
	}
	return out
}
