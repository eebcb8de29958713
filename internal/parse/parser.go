package parse

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"grocerydesk/internal/datatable"
)

var ErrEmptyLine = errors.New("empty line")

type Parser interface {
	Parse(line string) (datatable.Row, error)
}

// NewParser returns a parser for "json" (one object per line) or "csv"
// (first line is the header).
func NewParser(format string) (Parser, error) {
	switch strings.ToLower(format) {
	case "json", "ndjson", "jsonl":
		return &JSONParser{}, nil
	case "csv":
		return &CSVParser{}, nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// DetectFormat guesses the format of a data stream from its first line.
func DetectFormat(first string) string {
	t := strings.TrimSpace(first)
	if strings.HasPrefix(t, "{") {
		return "json"
	}
	return "csv"
}

// JSON lines
type JSONParser struct{}

func (p *JSONParser) Parse(line string) (datatable.Row, error) {
	t := strings.TrimSpace(line)
	if t == "" {
		return nil, ErrEmptyLine
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(t), &m); err != nil {
		return nil, fmt.Errorf("decode json row: %w", err)
	}
	row := datatable.Row{}
	flatten(row, "", m)
	return row, nil
}

// flatten lifts nested objects into dotted keys ("customer.email") so
// they can be columns.
func flatten(dst datatable.Row, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if inner, ok := v.(map[string]any); ok && len(inner) > 0 {
			flatten(dst, key, inner)
			continue
		}
		dst[key] = v
	}
}

// CSVParser treats the first non-empty line it sees as the header.
type CSVParser struct {
	mu     sync.Mutex
	header []string
}

func (p *CSVParser) Header() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.header...)
}

func (p *CSVParser) Parse(line string) (datatable.Row, error) {
	if strings.TrimSpace(line) == "" {
		return nil, ErrEmptyLine
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	rec, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("decode csv row: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.header == nil {
		p.header = make([]string, len(rec))
		for i, h := range rec {
			p.header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		}
		return nil, nil
	}
	row := make(datatable.Row, len(p.header))
	for i, h := range p.header {
		if i >= len(rec) {
			row[h] = nil
			continue
		}
		row[h] = Cell(rec[i])
	}
	return row, nil
}

// Cell converts a raw CSV cell: empty becomes nil, true/false become bools,
// plain numbers become float64. Codes with leading zeros stay strings.
func Cell(s string) any {
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if len(t) > 1 && t[0] == '0' && t[1] != '.' {
		return t
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return t
}
