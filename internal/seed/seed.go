// Package seed generates deterministic storefront data for demos and tests.
package seed

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"grocerydesk/internal/datatable"
	"grocerydesk/internal/model"
)

// Datasets lists what Dataset can generate.
var Datasets = []string{"products", "orders", "promotions", "users"}

// Epoch anchors generated timestamps so output only depends on the seed.
var Epoch = time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)

type Generator struct {
	rnd       *rand.Rand
	now       time.Time
	nextOrder int
}

func New(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), now: Epoch}
}

// Dataset returns n rows of the named dataset.
func (g *Generator) Dataset(name string, n int) ([]datatable.Row, error) {
	switch name {
	case "products":
		return g.Products(n), nil
	case "orders":
		return g.Orders(n), nil
	case "promotions":
		return g.Promotions(n), nil
	case "users":
		return g.Users(n), nil
	}
	return nil, fmt.Errorf("unknown dataset %q", name)
}

var catalog = map[string][]string{
	"Fruits":     {"Apples", "Bananas", "Blueberries", "Mango", "Pears", "Strawberries"},
	"Vegetables": {"Carrots", "Spinach", "Broccoli", "Tomatoes", "Red onions", "Courgettes"},
	"Dairy":      {"Whole milk", "Oat milk", "Greek yogurt", "Cheddar", "Butter"},
	"Bakery":     {"Sourdough", "Rye bread", "Croissants", "Bagels"},
	"Pantry":     {"Basmati rice", "Olive oil", "Penne", "Chickpeas", "Honey"},
}

var categories = []string{"Fruits", "Vegetables", "Dairy", "Bakery", "Pantry"}

var firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elena", "Farid", "Grace", "Hugo", "Ines", "Jonas"}

var lastNames = []string{"Silva", "Meyer", "Okafor", "Tanaka", "Novak", "Costa", "Larsen", "Haddad"}

func (g *Generator) Products(n int) []datatable.Row {
	rows := make([]datatable.Row, 0, n)
	for i := 1; i <= n; i++ {
		cat := categories[g.rnd.Intn(len(categories))]
		items := catalog[cat]
		name := items[g.rnd.Intn(len(items))]
		created := g.pastTime(365)
		rows = append(rows, datatable.Row{
			"id":        i,
			"sku":       fmt.Sprintf("%s-%04d", strings.ToUpper(cat[:3]), i),
			"name":      name,
			"category":  cat,
			"price":     g.money(0.5, 25),
			"stock":     g.rnd.Intn(120),
			"featured":  g.rnd.Intn(5) == 0,
			"status":    pick(g.rnd, []string{"active", "active", "active", "draft", "archived"}),
			"createdAt": created.Format(time.RFC3339),
			"updatedAt": g.after(created).Format(time.RFC3339),
		})
	}
	return rows
}

func (g *Generator) Orders(n int) []datatable.Row {
	rows := make([]datatable.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, g.order(g.pastTime(180)))
	}
	return rows
}

// NextOrder returns a fresh order stamped at ts, for live streams.
func (g *Generator) NextOrder(ts time.Time) datatable.Row {
	row := g.order(ts)
	row["status"] = model.OrderPending
	row["courierStatus"] = model.CourierAwaitingPickup
	return row
}

func (g *Generator) order(created time.Time) datatable.Row {
	g.nextOrder++
	first := pick(g.rnd, firstNames)
	last := pick(g.rnd, lastNames)
	items := 1 + g.rnd.Intn(8)
	status := pick(g.rnd, model.OrderStatuses)
	return datatable.Row{
		"id":             g.nextOrder,
		"trackingNumber": g.tracking(),
		"customer":       first + " " + last,
		"email":          strings.ToLower(first+"."+last) + "@example.com",
		"category":       pick(g.rnd, categories),
		"items":          items,
		"total":          g.money(float64(items)*1.5, float64(items)*18),
		"status":         status,
		"courierStatus":  courierFor(g.rnd, status),
		"createdAt":      created.Format(time.RFC3339),
		"updatedAt":      g.after(created).Format(time.RFC3339),
	}
}

func courierFor(rnd *rand.Rand, status string) string {
	switch status {
	case model.OrderShipped:
		return model.CourierInTransit
	case model.OrderDelivered:
		return model.CourierDelivered
	case model.OrderCancelled:
		if rnd.Intn(2) == 0 {
			return model.CourierReturned
		}
	}
	return model.CourierAwaitingPickup
}

func (g *Generator) Promotions(n int) []datatable.Row {
	rows := make([]datatable.Row, 0, n)
	words := []string{"FRESH", "SAVE", "WEEKEND", "BULK", "WELCOME", "HARVEST"}
	for i := 1; i <= n; i++ {
		start := g.pastTime(120)
		end := start.Add(time.Duration(7+g.rnd.Intn(30)) * 24 * time.Hour)
		rows = append(rows, datatable.Row{
			"id":              i,
			"code":            fmt.Sprintf("%s%d", pick(g.rnd, words), 5*(1+g.rnd.Intn(8))),
			"title":           pick(g.rnd, categories) + " deal",
			"discountPercent": 5 * (1 + g.rnd.Intn(8)),
			"startDate":       start.Format("2006-01-02"),
			"endDate":         end.Format("2006-01-02"),
			"active":          end.After(g.now),
			"uses":            g.rnd.Intn(400),
		})
	}
	return rows
}

func (g *Generator) Users(n int) []datatable.Row {
	rows := make([]datatable.Row, 0, n)
	for i := 1; i <= n; i++ {
		first := pick(g.rnd, firstNames)
		last := pick(g.rnd, lastNames)
		created := g.pastTime(720)
		rows = append(rows, datatable.Row{
			"id":            i,
			"name":          first + " " + last,
			"email":         fmt.Sprintf("%s.%s%d@grocer.example", strings.ToLower(first), strings.ToLower(last), i),
			"role":          pick(g.rnd, []string{"admin", "manager", "staff", "staff"}),
			"status":        pick(g.rnd, []string{"active", "active", "inactive"}),
			"lastLoginDate": g.after(created).Format(time.RFC3339),
			"createdAt":     created.Format(time.RFC3339),
		})
	}
	return rows
}

func (g *Generator) tracking() string {
	id, err := uuid.NewRandomFromReader(g.rnd)
	if err != nil {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:16])
}

func (g *Generator) pastTime(days int) time.Time {
	return g.now.Add(-time.Duration(g.rnd.Int63n(int64(days) * int64(24*time.Hour)))).Truncate(time.Second)
}

func (g *Generator) after(t time.Time) time.Time {
	span := g.now.Sub(t)
	if span <= 0 {
		return t
	}
	return t.Add(time.Duration(g.rnd.Int63n(int64(span)))).Truncate(time.Second)
}

func (g *Generator) money(min, max float64) float64 {
	v := min + g.rnd.Float64()*(max-min)
	return math.Round(v*100) / 100
}

func pick(rnd *rand.Rand, xs []string) string { return xs[rnd.Intn(len(xs))] }
