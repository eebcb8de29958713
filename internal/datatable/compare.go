package datatable

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// comparator orders cell values. A collator is not safe for concurrent use,
// so each derivation builds its own.
type comparator struct {
	coll *collate.Collator
}

func newComparator() *comparator {
	return &comparator{coll: collate.New(language.Und)}
}

// compare returns <0, 0 or >0 in ascending order. Nulls sort before every
// other value and never reach the value rules.
func (c *comparator) compare(field string, a, b any) int {
	an, bn := isNull(a), isNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}

	lower := strings.ToLower(field)
	if strings.Contains(lower, "id") {
		ai, aok := parseInteger(a)
		bi, bok := parseInteger(b)
		if aok && bok {
			return cmpInt(ai, bi)
		}
	}
	if isDateField(field) {
		at, aok := toTime(a)
		bt, bok := toTime(b)
		if aok && bok {
			return at.Compare(bt)
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmpFloat(af, bf)
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		af, aNum := parseNumeric(as)
		bf, bNum := parseNumeric(bs)
		if aNum && bNum {
			return cmpFloat(af, bf)
		}
		return c.coll.CompareString(as, bs)
	}
	return fallbackCompare(a, b)
}

func isDateField(field string) bool {
	if field == "createdAt" || field == "updatedAt" {
		return true
	}
	return strings.Contains(strings.ToLower(field), "date")
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// fallbackCompare handles mixed or unusual types: booleans order false
// before true, number-like values compare numerically, anything else by
// its text.
func fallbackCompare(a, b any) int {
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	}
	af, aok := numberLike(a)
	bf, bok := numberLike(b)
	if aok && bok {
		return cmpFloat(af, bf)
	}
	return strings.Compare(Stringify(a), Stringify(b))
}

func numberLike(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return parseNumeric(s)
	}
	return 0, false
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// toFloat converts Go numeric kinds (and json.Number) to float64.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), !math.IsNaN(float64(t))
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// parseNumeric accepts a non-empty string holding a finite number.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// parseInteger reads an integer the lenient way: leading sign and digits
// of a string ("12abc" is 12), truncation of fractional numbers.
func parseInteger(v any) (int64, bool) {
	if f, ok := toFloat(v); ok {
		if math.IsInf(f, 0) {
			return 0, false
		}
		return int64(math.Trunc(f)), true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// toTime parses time values, date strings in common layouts, and numbers
// as Unix milliseconds.
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	}
	if f, ok := toFloat(v); ok && !math.IsInf(f, 0) {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}

// Number reads a cell as a number: Go numeric kinds or a numeric string.
func Number(v any) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return parseNumeric(s)
	}
	return 0, false
}

// Time reads a cell as a timestamp the way date columns sort.
func Time(v any) (time.Time, bool) { return toTime(v) }
