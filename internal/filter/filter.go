package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"grocerydesk/internal/datatable"
)

// Kind says what a column holds, which decides how plain text meets it.
type Kind int

const (
	KindText   Kind = iota // string cells: substring match in the engine
	KindNumber             // numeric cells: equality on the parsed number
	KindOther              // anything else: substring of the printed cell
)

type Criteria struct {
	Field    string // column the filter is stored under
	Query    string // plain contains, or regex when UseRegex
	UseRegex bool
	Expr     string // govaluate expression; row fields plus `value`
	Kind     Kind
}

// ParseInput reads what a user typed into the filter prompt: /re/ is a
// regex, a leading = starts an expression, anything else is plain text.
func ParseInput(field, input string) Criteria {
	s := strings.TrimSpace(input)
	c := Criteria{Field: field}
	switch {
	case len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/"):
		c.Query = s[1 : len(s)-1]
		c.UseRegex = true
	case strings.HasPrefix(s, "="):
		c.Expr = strings.TrimSpace(s[1:])
	default:
		c.Query = s
	}
	return c
}

func (c Criteria) Empty() bool {
	return strings.TrimSpace(c.Query) == "" && strings.TrimSpace(c.Expr) == ""
}

func (c Criteria) String() string {
	switch {
	case c.Expr != "":
		return "=" + c.Expr
	case c.UseRegex:
		return "/" + c.Query + "/"
	}
	return c.Query
}

type Evaluator struct {
	c    Criteria
	re   *regexp.Regexp
	expr *govaluate.EvaluableExpression
}

var functions = map[string]govaluate.ExpressionFunction{
	"contains": func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, errors.New("contains takes two arguments")
		}
		return strings.Contains(strings.ToLower(datatable.Stringify(args[0])), strings.ToLower(datatable.Stringify(args[1]))), nil
	},
	"lower": func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("lower takes one argument")
		}
		return strings.ToLower(datatable.Stringify(args[0])), nil
	},
}

func NewEvaluator(c Criteria) (*Evaluator, error) {
	e := &Evaluator{c: c}
	var err error
	if c.UseRegex && c.Query != "" {
		e.re, err = regexp.Compile("(?i)" + c.Query)
		if err != nil {
			return nil, fmt.Errorf("compile regex: %w", err)
		}
	}
	if strings.TrimSpace(c.Expr) != "" {
		e.expr, err = govaluate.NewEvaluableExpressionWithFunctions(c.Expr, functions)
		if err != nil {
			return nil, fmt.Errorf("parse expression: %w", err)
		}
	}
	return e, nil
}

// Value is what to hand to View.SetFilter. Plain text stays a string on
// text columns and becomes a float64 on numeric ones; regex, expression
// and other plain filters are Predicates. nil clears.
func (e *Evaluator) Value() any {
	switch {
	case e.expr != nil:
		return datatable.Predicate(e.matchExpr)
	case e.re != nil:
		return datatable.Predicate(e.matchRegex)
	case e.c.Query == "":
		return nil
	}
	switch e.c.Kind {
	case KindNumber:
		if n, err := strconv.ParseFloat(strings.TrimSpace(e.c.Query), 64); err == nil {
			if n == 0 {
				// 0 reads as "no filter" to the engine
				return datatable.Predicate(matchZero)
			}
			return n
		}
		return datatable.Predicate(e.matchText)
	case KindOther:
		return datatable.Predicate(e.matchText)
	}
	return e.c.Query
}

func matchZero(cell any, _ datatable.Row) bool {
	n, ok := datatable.Number(cell)
	return ok && n == 0
}

func (e *Evaluator) matchText(cell any, _ datatable.Row) bool {
	return strings.Contains(strings.ToLower(datatable.Stringify(cell)), strings.ToLower(e.c.Query))
}

func (e *Evaluator) matchRegex(cell any, _ datatable.Row) bool {
	return e.re.MatchString(datatable.Stringify(cell))
}

func (e *Evaluator) matchExpr(cell any, row datatable.Row) bool {
	params := make(map[string]any, len(row)+1)
	for k, v := range row {
		params[k] = param(v)
	}
	params["value"] = param(cell)
	result, err := e.expr.Evaluate(params)
	if err != nil {
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

// param widens numbers to float64, the only numeric type govaluate
// compares.
func param(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case uint:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}
