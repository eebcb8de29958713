package datatable

import "testing"

func TestParseInteger(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{" -7 ", -7, true},
		{"12abc", 12, true},
		{"abc", 0, false},
		{"", 0, false},
		{float64(3.9), 3, true},
		{int64(11), 11, true},
		{true, 0, false},
	}
	for _, c := range cases {
		got, ok := parseInteger(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("parseInteger(%v) = %d,%v want %d,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestCompareRules(t *testing.T) {
	c := newComparator()
	cases := []struct {
		field string
		a, b  any
		want  int
	}{
		{"orderId", "100", "20", 1},
		{"name", nil, "x", -1},
		{"name", "x", nil, 1},
		{"name", nil, nil, 0},
		{"createdAt", "2024-05-01", "2024-04-30T23:00:00Z", 1},
		{"updatedAt", "not a date", "also not", 1},
		{"price", 2, 10.5, -1},
		{"label", "10", "9", 1},
		{"label", "b", "a", 1},
		{"flag", false, true, -1},
		{"mixed", "5", 4, 1},
	}
	for _, tc := range cases {
		got := c.compare(tc.field, tc.a, tc.b)
		if sign(got) != tc.want {
			t.Fatalf("compare(%s, %v, %v) = %d, want sign %d", tc.field, tc.a, tc.b, got, tc.want)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestNumberAndTime(t *testing.T) {
	if f, ok := Number(" 12.5 "); !ok || f != 12.5 {
		t.Fatalf("Number string: %v %v", f, ok)
	}
	if _, ok := Number("twelve"); ok {
		t.Fatalf("Number accepted text")
	}
	if f, ok := Number(int64(3)); !ok || f != 3 {
		t.Fatalf("Number int64: %v %v", f, ok)
	}
	ts, ok := Time("2024-03-05")
	if !ok || ts.Month() != 3 || ts.Day() != 5 {
		t.Fatalf("Time: %v %v", ts, ok)
	}
}
