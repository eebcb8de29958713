// Package dashboard aggregates order and product rows for the overview
// screen: headline figures, sales per month and category, recent orders
// and low stock.
package dashboard

import (
	"sort"
	"strings"

	"grocerydesk/internal/datatable"
	"grocerydesk/internal/model"
)

type Summary struct {
	Revenue      float64
	Orders       int
	Cancelled    int
	AverageOrder float64
	Customers    int
}

// Summarize totals orders. Cancelled orders count as orders but add no
// revenue.
func Summarize(orders []datatable.Row) Summary {
	var s Summary
	customers := map[string]struct{}{}
	paid := 0
	for _, o := range orders {
		s.Orders++
		if c := customerKey(o); c != "" {
			customers[c] = struct{}{}
		}
		if status(o) == model.OrderCancelled {
			s.Cancelled++
			continue
		}
		if t, ok := datatable.Number(o["total"]); ok {
			s.Revenue += t
			paid++
		}
	}
	if paid > 0 {
		s.AverageOrder = s.Revenue / float64(paid)
	}
	s.Customers = len(customers)
	return s
}

func customerKey(o datatable.Row) string {
	if e := datatable.Stringify(o["email"]); e != "" {
		return strings.ToLower(e)
	}
	return datatable.Stringify(o["customer"])
}

func status(o datatable.Row) string {
	return strings.ToLower(datatable.Stringify(o["status"]))
}

type Bucket struct {
	Key    string
	Total  float64
	Orders int
}

// SalesByMonth sums non-cancelled order totals per yyyy-mm of createdAt,
// oldest month first.
func SalesByMonth(orders []datatable.Row) []Bucket {
	m := map[string]*Bucket{}
	for _, o := range orders {
		if status(o) == model.OrderCancelled {
			continue
		}
		ts, ok := datatable.Time(o["createdAt"])
		if !ok {
			continue
		}
		addTo(m, ts.Format("2006-01"), o)
	}
	out := flatten(m)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SalesByCategory sums non-cancelled order totals per category, largest
// first.
func SalesByCategory(orders []datatable.Row) []Bucket {
	m := map[string]*Bucket{}
	for _, o := range orders {
		if status(o) == model.OrderCancelled {
			continue
		}
		cat := datatable.Stringify(o["category"])
		if cat == "" {
			cat = "Uncategorised"
		}
		addTo(m, cat, o)
	}
	out := flatten(m)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func addTo(m map[string]*Bucket, key string, o datatable.Row) {
	b := m[key]
	if b == nil {
		b = &Bucket{Key: key}
		m[key] = b
	}
	b.Orders++
	if t, ok := datatable.Number(o["total"]); ok {
		b.Total += t
	}
}

func flatten(m map[string]*Bucket) []Bucket {
	out := make([]Bucket, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	return out
}

// RecentOrders returns the n newest orders by createdAt.
func RecentOrders(orders []datatable.Row, n int) []datatable.Row {
	st := datatable.ViewState{Sorting: datatable.Sorting{SortBy: "createdAt", Direction: datatable.SortDesc}}
	return head(datatable.DeriveAll(orders, nil, st), n)
}

// LowStock returns products with stock below threshold, fewest first.
func LowStock(products []datatable.Row, threshold int) []datatable.Row {
	below := datatable.Predicate(func(cell any, _ datatable.Row) bool {
		n, ok := datatable.Number(cell)
		return ok && n < float64(threshold)
	})
	st := datatable.ViewState{
		Filters: map[string]any{"stock": below},
		Sorting: datatable.Sorting{SortBy: "stock"},
	}
	return datatable.DeriveAll(products, nil, st)
}

func head(rows []datatable.Row, n int) []datatable.Row {
	if n >= 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

type StatusCount struct {
	Status string
	Count  int
}

// StatusCounts counts orders per status: known statuses in lifecycle
// order (zeros included), then any others alphabetically.
func StatusCounts(orders []datatable.Row) []StatusCount {
	counts := map[string]int{}
	for _, o := range orders {
		counts[status(o)]++
	}
	out := make([]StatusCount, 0, len(counts))
	for _, s := range model.OrderStatuses {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
		delete(counts, s)
	}
	var extra []string
	for s := range counts {
		extra = append(extra, s)
	}
	sort.Strings(extra)
	for _, s := range extra {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out
}
