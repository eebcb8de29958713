package ui

import (
	"regexp"
	"strings"

	"grocerydesk/internal/datatable"
)

// searchNext moves the cursor to the next row on the page whose cells
// match the pattern, wrapping around.
func (m *Model) searchNext() bool { return m.searchStep(1) }

func (m *Model) searchPrev() bool { return m.searchStep(-1) }

func (m *Model) searchStep(dir int) bool {
	n := len(m.frame.Rows)
	if m.searchPattern == "" || n == 0 {
		return false
	}
	match := rowMatcher(m.searchPattern)
	start := m.tbl.Cursor()
	for i := 1; i <= n; i++ {
		idx := ((start+dir*i)%n + n) % n
		if match(m.frame.Rows[idx]) {
			m.tbl.SetCursor(idx)
			return true
		}
	}
	return false
}

// rowMatcher matches rendered cell text: /re/ as a case-insensitive regex,
// anything else as a case-insensitive substring.
func rowMatcher(pattern string) func(datatable.RenderedRow) bool {
	if len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		if re, err := regexp.Compile("(?i)" + pattern[1:len(pattern)-1]); err == nil {
			return func(r datatable.RenderedRow) bool {
				for _, c := range r.Cells {
					if re.MatchString(c.Text) {
						return true
					}
				}
				return false
			}
		}
	}
	q := strings.ToLower(pattern)
	return func(r datatable.RenderedRow) bool {
		for _, c := range r.Cells {
			if strings.Contains(strings.ToLower(c.Text), q) {
				return true
			}
		}
		return false
	}
}
