package ui

import (
	"fmt"
	"sort"
	"strings"

	"grocerydesk/internal/datatable"
)

// colorizeJSON renders a row as indented, coloured JSON with sorted keys.
func colorizeJSON(v any, st Styles) string {
	var b strings.Builder
	renderJSON(&b, v, st, 0)
	return b.String()
}

func renderJSON(b *strings.Builder, v any, st Styles, indent int) {
	ind := strings.Repeat("  ", indent)
	switch t := v.(type) {
	case datatable.Row:
		renderJSON(b, map[string]any(t), st, indent)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(st.JSONPunct.Render("{"))
		if len(keys) > 0 {
			b.WriteString("\n")
		}
		for i, k := range keys {
			b.WriteString(ind + "  ")
			b.WriteString(st.JSONKey.Render(fmt.Sprintf("%q", k)))
			b.WriteString(st.JSONPunct.Render(": "))
			renderJSON(b, t[k], st, indent+1)
			if i < len(keys)-1 {
				b.WriteString(st.JSONPunct.Render(","))
			}
			b.WriteString("\n")
		}
		b.WriteString(ind + st.JSONPunct.Render("}"))
	case []any:
		b.WriteString(st.JSONPunct.Render("["))
		if len(t) > 0 {
			b.WriteString("\n")
		}
		for i, it := range t {
			b.WriteString(ind + "  ")
			renderJSON(b, it, st, indent+1)
			if i < len(t)-1 {
				b.WriteString(st.JSONPunct.Render(","))
			}
			b.WriteString("\n")
		}
		b.WriteString(ind + st.JSONPunct.Render("]"))
	case string:
		b.WriteString(st.JSONString.Render(fmt.Sprintf("%q", t)))
	case bool:
		b.WriteString(st.JSONBool.Render(fmt.Sprint(t)))
	case nil:
		b.WriteString(st.JSONNull.Render("null"))
	default:
		if f, ok := datatable.Number(t); ok {
			b.WriteString(st.JSONNumber.Render(datatable.Stringify(f)))
			return
		}
		b.WriteString(st.JSONString.Render(fmt.Sprintf("%q", fmt.Sprint(t))))
	}
}

// renderRecord lists a row field by field using the tab's column formats;
// fields without a column follow, muted.
func renderRecord(row datatable.Row, cols []datatable.Column, st Styles) string {
	labelW := 0
	for _, c := range cols {
		if w := len(c.Title()); w > labelW {
			labelW = w
		}
	}
	seen := map[string]bool{}
	var b strings.Builder
	for _, c := range cols {
		seen[c.Key] = true
		text, tone := c.Cell(row, 0)
		if text == "" {
			text = st.JSONNull.Render("null")
		} else {
			text = st.ToneText(tone, text)
		}
		fmt.Fprintf(&b, "%s  %s\n", st.JSONKey.Render(padRight(c.Title(), labelW)), text)
	}
	extra := make([]string, 0, len(row))
	for k := range row {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	if len(extra) > 0 {
		b.WriteString("\n")
	}
	for _, k := range extra {
		fmt.Fprintf(&b, "%s  %s\n", st.Muted.Render(k), datatable.Stringify(row[k]))
	}
	return strings.TrimRight(b.String(), "\n")
}
