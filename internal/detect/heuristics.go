package detect

import (
	"sort"
	"strings"
	"time"

	"grocerydesk/internal/datatable"
	"grocerydesk/internal/model"
)

const Generic = "generic"

type Guess struct {
	Schema     model.Schema
	Confidence float64
	Source     string // builtin|heuristics|file|cache|openai
}

// signatures are the fields that mark a known dataset.
var signatures = map[string][]string{
	"products":   {"sku", "price", "stock", "category"},
	"orders":     {"trackingNumber", "total", "status", "customer", "courierStatus"},
	"promotions": {"code", "discountPercent", "startDate", "endDate"},
	"users":      {"email", "role", "lastLoginDate"},
}

// Heuristics matches a sample of rows against the built-in datasets. When
// no dataset scores at least one half, the schema is inferred from the
// rows and the dataset is Generic.
func Heuristics(sample []datatable.Row) Guess {
	if len(sample) == 0 {
		return Guess{Schema: model.Schema{Dataset: Generic}, Source: "heuristics"}
	}
	best, bestScore := "", 0.0
	names := make([]string, 0, len(signatures))
	for name := range signatures {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sig := signatures[name]
		hits := 0
		for _, r := range sample {
			for _, f := range sig {
				if _, ok := r[f]; ok {
					hits++
				}
			}
		}
		score := float64(hits) / float64(len(sig)*len(sample))
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if bestScore >= 0.5 {
		s, _ := Builtin(best)
		s.Confidence = bestScore
		return Guess{Schema: s, Confidence: bestScore, Source: "heuristics"}
	}
	s := Infer(sample)
	return Guess{Schema: s, Confidence: 0, Source: "heuristics"}
}

// Infer builds a generic schema from the union of keys in rows, typing
// each field from its name and first non-null value.
func Infer(rows []datatable.Row) model.Schema {
	seen := map[string]any{}
	var order []string
	for _, r := range rows {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, known := seen[k]
			if !known {
				order = append(order, k)
			}
			if v == nil {
				seen[k] = r[k]
			}
		}
	}
	s := model.Schema{Dataset: Generic, IDKey: datatable.DefaultIDKey}
	for _, k := range order {
		s.Fields = append(s.Fields, model.FieldDef{Name: k, Type: inferType(k, seen[k])})
	}
	return s
}

func inferType(name string, v any) string {
	lower := strings.ToLower(name)
	switch v.(type) {
	case bool:
		return model.TypeBool
	case float64, float32, int, int64, int32:
		for _, w := range []string{"price", "total", "amount", "cost", "revenue"} {
			if strings.Contains(lower, w) {
				return model.TypeCurrency
			}
		}
		return model.TypeNumber
	case string:
		if strings.Contains(lower, "date") || name == "createdAt" || name == "updatedAt" {
			return model.TypeDate
		}
		if _, err := time.Parse(time.RFC3339, v.(string)); err == nil {
			return model.TypeDate
		}
		if lower == "status" {
			return model.TypeBadge
		}
	}
	return model.TypeText
}

// Builtin returns the column schema for a known dataset.
func Builtin(dataset string) (model.Schema, bool) {
	switch dataset {
	case "products":
		return model.Schema{Dataset: "products", IDKey: "id", Confidence: 1, Fields: []model.FieldDef{
			{Name: "id", Label: "ID", Type: model.TypeInteger},
			{Name: "sku", Label: "SKU", Type: model.TypeText, Hide: "md"},
			{Name: "name", Label: "Product", Type: model.TypeText},
			{Name: "category", Label: "Category", Type: model.TypeText},
			{Name: "price", Label: "Price", Type: model.TypeCurrency},
			{Name: "stock", Label: "Stock", Type: model.TypeInteger},
			{Name: "status", Label: "Status", Type: model.TypeBadge, Badges: model.StatusTones},
			{Name: "featured", Label: "Featured", Type: model.TypeBool, Hide: "lg"},
			{Name: "createdAt", Label: "Created", Type: model.TypeDate, Hide: "lg"},
			{Name: "updatedAt", Label: "Updated", Type: model.TypeDate, Hide: "xl"},
		}}, true
	case "orders":
		return model.Schema{Dataset: "orders", IDKey: "id", Confidence: 1, Fields: []model.FieldDef{
			{Name: "id", Label: "Order", Type: model.TypeInteger},
			{Name: "trackingNumber", Label: "Tracking", Type: model.TypeText, Hide: "lg", Unsortable: true},
			{Name: "customer", Label: "Customer", Type: model.TypeText},
			{Name: "email", Label: "Email", Type: model.TypeText, Hide: "xl"},
			{Name: "category", Label: "Category", Type: model.TypeText, Hide: "xl"},
			{Name: "items", Label: "Items", Type: model.TypeInteger, Hide: "md"},
			{Name: "total", Label: "Total", Type: model.TypeCurrency},
			{Name: "status", Label: "Status", Type: model.TypeBadge, Badges: model.StatusTones},
			{Name: "courierStatus", Label: "Courier", Type: model.TypeBadge, Badges: model.StatusTones, Hide: "md"},
			{Name: "createdAt", Label: "Placed", Type: model.TypeDate},
		}}, true
	case "promotions":
		return model.Schema{Dataset: "promotions", IDKey: "id", Confidence: 1, Fields: []model.FieldDef{
			{Name: "id", Label: "ID", Type: model.TypeInteger},
			{Name: "code", Label: "Code", Type: model.TypeText},
			{Name: "title", Label: "Title", Type: model.TypeText, Hide: "md"},
			{Name: "discountPercent", Label: "Discount %", Type: model.TypeNumber},
			{Name: "startDate", Label: "Starts", Type: model.TypeDate},
			{Name: "endDate", Label: "Ends", Type: model.TypeDate},
			{Name: "active", Label: "Active", Type: model.TypeBool},
			{Name: "uses", Label: "Uses", Type: model.TypeInteger, Hide: "lg"},
		}}, true
	case "users":
		return model.Schema{Dataset: "users", IDKey: "id", Confidence: 1, Fields: []model.FieldDef{
			{Name: "id", Label: "ID", Type: model.TypeInteger},
			{Name: "name", Label: "Name", Type: model.TypeText},
			{Name: "email", Label: "Email", Type: model.TypeText},
			{Name: "role", Label: "Role", Type: model.TypeText},
			{Name: "status", Label: "Status", Type: model.TypeBadge, Badges: model.StatusTones},
			{Name: "lastLoginDate", Label: "Last login", Type: model.TypeDate, Hide: "md"},
			{Name: "createdAt", Label: "Joined", Type: model.TypeDate, Hide: "lg"},
		}}, true
	}
	return model.Schema{}, false
}
