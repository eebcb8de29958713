package ui

import (
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"grocerydesk/internal/dashboard"
	"grocerydesk/internal/datatable"
	"grocerydesk/internal/model"
	"grocerydesk/internal/util/logx"
)

func overlay(base, overlay string) string {
	// Draw overlay on top of base by replacing lines where overlay has content.
	bLines := strings.Split(base, "\n")
	oLines := strings.Split(overlay, "\n")
	maxLen := len(bLines)
	if len(oLines) > maxLen {
		maxLen = len(oLines)
	}
	for len(bLines) < maxLen {
		bLines = append(bLines, "")
	}
	for len(oLines) < maxLen {
		oLines = append(oLines, "")
	}
	out := make([]string, maxLen)
	for i := 0; i < maxLen; i++ {
		// Treat whitespace-only overlay lines as transparent
		if strings.TrimSpace(oLines[i]) != "" {
			out[i] = oLines[i]
		} else {
			out[i] = bLines[i]
		}
	}
	return strings.Join(out, "\n")
}

// copyToClipboard uses the system clipboard, falling back to OSC52 for
// terminals without one (SSH sessions, containers).
func copyToClipboard(s string) {
	s = stripANSI(s)
	err := clipboard.WriteAll(s)
	if err == nil {
		return
	}
	logx.Debugf("clipboard: %v; using OSC52", err)
	payload := fmt.Sprintf("\x1b]52;c;%s\x07", base64.StdEncoding.EncodeToString([]byte(s)))
	if f, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0); err == nil {
		defer f.Close()
		_, _ = f.WriteString(payload)
		return
	}
	fmt.Fprint(os.Stdout, payload)
}

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// computeStatsItems builds the stats list for field: exact values when a
// numeric column has few distinct values, bins otherwise, and counts per
// value for text.
func computeStatsItems(field string, rows []datatable.Row) []statItem {
	nums := []float64{}
	counts := map[string]int{}
	for _, r := range rows {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		if _, isBool := v.(bool); !isBool {
			if f, ok := datatable.Number(v); ok {
				nums = append(nums, f)
				continue
			}
		}
		counts[datatable.Stringify(v)]++
	}
	items := []statItem{}
	if len(nums) > 0 && len(nums) >= len(counts) {
		uniq := map[float64]int{}
		for _, v := range nums {
			uniq[v]++
		}
		if len(uniq) <= 40 {
			type kv struct {
				k float64
				v int
			}
			arr := make([]kv, 0, len(uniq))
			for k, v := range uniq {
				arr = append(arr, kv{k, v})
			}
			sort.Slice(arr, func(i, j int) bool {
				if arr[i].v != arr[j].v {
					return arr[i].v > arr[j].v
				}
				return arr[i].k < arr[j].k
			})
			for _, it := range arr {
				items = append(items, statItem{label: formatNumericLabel(it.k), count: it.v, hasExact: true, fvalue: it.k})
			}
			return items
		}
		bins := len(uniq)
		if bins > 40 {
			bins = 40
		}
		minv, maxv := nums[0], nums[0]
		for _, v := range nums {
			minv = math.Min(minv, v)
			maxv = math.Max(maxv, v)
		}
		hist := make([]int, bins)
		step := (maxv - minv) / float64(bins)
		for _, v := range nums {
			idx := int(math.Floor(float64(bins) * (v - minv) / (maxv - minv)))
			if idx >= bins {
				idx = bins - 1
			}
			hist[idx]++
		}
		for i := 0; i < bins; i++ {
			low := minv + float64(i)*step
			high := low + step
			items = append(items, statItem{label: fmt.Sprintf("[%.2f – %.2f]", low, high), count: hist[i], hasRange: true, low: low, high: high})
		}
		return items
	}
	type kv struct {
		k string
		v int
	}
	arr := make([]kv, 0, len(counts))
	for k, v := range counts {
		arr = append(arr, kv{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].v != arr[j].v {
			return arr[i].v > arr[j].v
		}
		return arr[i].k < arr[j].k
	})
	for _, it := range arr {
		items = append(items, statItem{label: it.k, svalue: it.k, count: it.v})
	}
	return items
}

func formatNumericLabel(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// matches reports whether a row's field value falls in the stats item.
func (it statItem) matches(v any) bool {
	if v == nil {
		return false
	}
	if it.hasRange || it.hasExact {
		f, ok := datatable.Number(v)
		if !ok {
			return false
		}
		if it.hasExact {
			return f == it.fvalue
		}
		return f >= it.low && f <= it.high
	}
	return datatable.Stringify(v) == it.svalue
}

// colorBar returns a bar with simple red intensity for larger ratios.
func colorBar(width int, val, max float64) string {
	if width <= 0 {
		return ""
	}
	r := 0.0
	if max > 0 {
		r = val / max
	}
	color := 226 - int(r*30) // yellow->red
	if color < 196 {
		color = 196
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, strings.Repeat("▇", width))
}

// renderStatsList paints the stats items with a fixed 50/50 split between
// label and bar columns. The selected item is prefixed with "> ".
func renderStatsList(items []statItem, width, sel int) string {
	if len(items) == 0 {
		return "No data"
	}
	if width < 20 {
		width = 20
	}
	usable := width - 2
	labelW := usable / 2
	barW := usable - labelW
	maxc := 1
	for _, it := range items {
		if it.count > maxc {
			maxc = it.count
		}
	}
	var b strings.Builder
	for i, it := range items {
		prefix := "  "
		if i == sel {
			prefix = "> "
		}
		label := padRight(truncateRunes(it.label, labelW), labelW)
		cnt := fmt.Sprintf("(%d)", it.count)
		widthBar := barW - runeLen(cnt) - 1
		if widthBar < 0 {
			widthBar = 0
		}
		scaled := int(math.Round(float64(widthBar) * float64(it.count) / float64(maxc)))
		pad := strings.Repeat(" ", max(0, widthBar-scaled))
		fmt.Fprintf(&b, "%s%s%s %s\n", prefix, label, colorBar(scaled, float64(it.count), float64(maxc))+pad, cnt)
	}
	return b.String()
}

func runeLen(s string) int { return len([]rune(s)) }

func padRight(s string, w int) string {
	rs := []rune(s)
	if len(rs) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(rs))
}

func truncateRunes(s string, w int) string {
	rs := []rune(s)
	if len(rs) <= w {
		return s
	}
	return string(rs[:w])
}

// timeField picks the date column charts are drawn against.
func timeField(s model.Schema) string {
	var first string
	for _, f := range s.Fields {
		if f.Type != model.TypeDate {
			continue
		}
		if f.Name == "createdAt" {
			return f.Name
		}
		if first == "" {
			first = f.Name
		}
	}
	return first
}

// buildTimeDistribution draws a vertical bar chart of the rows matching
// the selected stats item over the timeKey dates.
func buildTimeDistribution(field, timeKey string, it statItem, rows []datatable.Row, width, height int) string {
	if timeKey == "" {
		return "No date column to chart against"
	}
	var minT, maxT int64
	first := true
	stamps := make([]int64, len(rows))
	for i, r := range rows {
		ts, ok := datatable.Time(r[timeKey])
		if !ok {
			stamps[i] = math.MinInt64
			continue
		}
		u := ts.Unix()
		stamps[i] = u
		if first {
			minT, maxT, first = u, u, false
			continue
		}
		minT = min(minT, u)
		maxT = max(maxT, u)
	}
	if first || minT == maxT {
		return "Not enough dated rows to chart"
	}
	cols := max(10, width-2)
	buckets := make([]int, cols)
	rng := float64(maxT-minT) + 1
	total := 0
	for i, r := range rows {
		if stamps[i] == math.MinInt64 || !it.matches(r[field]) {
			continue
		}
		idx := int(math.Floor(float64(cols) * float64(stamps[i]-minT) / rng))
		buckets[min(max(idx, 0), cols-1)]++
		total++
	}
	chartH := max(3, height-6)
	maxc := 1
	for _, v := range buckets {
		maxc = max(maxc, v)
	}
	lines := make([]string, chartH)
	for row := chartH; row >= 1; row-- {
		var sb strings.Builder
		for i := 0; i < cols; i++ {
			if int(math.Round(float64(buckets[i])*float64(chartH)/float64(maxc))) >= row {
				sb.WriteString("▇")
			} else {
				sb.WriteString(" ")
			}
		}
		lines[chartH-row] = sb.String()
	}
	axis := placeThree(
		time.Unix(minT, 0).UTC().Format("2006-01-02"),
		time.Unix((minT+maxT)/2, 0).UTC().Format("2006-01-02"),
		time.Unix(maxT, 0).UTC().Format("2006-01-02"),
		cols,
	)
	return strings.Join(lines, "\n") + "\n" + axis + "\n" + fmt.Sprintf("count:%d  max/bin:%d  by %s", total, maxc, timeKey)
}

// placeThree places left, center, right labels proportionally across a width.
func placeThree(left, center, right string, width int) string {
	if width < 10 {
		width = 10
	}
	maxw := max(8, width/3)
	left, center, right = truncateRunes(left, maxw), truncateRunes(center, maxw), truncateRunes(right, maxw)
	line := []rune(strings.Repeat(" ", width))
	copy(line, []rune(left))
	copy(line[max(0, (width-runeLen(center))/2):], []rune(center))
	copy(line[max(0, width-runeLen(right)):], []rune(right))
	return string(line)
}

// renderDashboard lays out the overview of orders and products.
func renderDashboard(msg dashboardMsg, width int, st Styles) string {
	if len(msg.orders) == 0 && len(msg.products) == 0 {
		return "No orders or products loaded"
	}
	money := datatable.Column{Key: "v", Format: datatable.Currency("")}
	cash := func(f float64) string {
		s, _ := money.Cell(datatable.Row{"v": f}, 0)
		return s
	}
	var b strings.Builder
	sum := dashboard.Summarize(msg.orders)
	fmt.Fprintf(&b, "%s %s   %s %d (%d cancelled)   %s %s   %s %d\n\n",
		st.PopupTitle.Render("Revenue"), cash(sum.Revenue),
		st.PopupTitle.Render("Orders"), sum.Orders, sum.Cancelled,
		st.PopupTitle.Render("Avg order"), cash(sum.AverageOrder),
		st.PopupTitle.Render("Customers"), sum.Customers)

	barW := max(10, width/2-20)
	buckets := func(title string, bs []dashboard.Bucket) {
		if len(bs) == 0 {
			return
		}
		b.WriteString(st.PopupTitle.Render(title) + "\n")
		top := 0.0
		for _, x := range bs {
			top = math.Max(top, x.Total)
		}
		for _, x := range bs {
			w := 0
			if top > 0 {
				w = int(math.Round(float64(barW) * x.Total / top))
			}
			fmt.Fprintf(&b, "  %s %s %s (%d)\n", padRight(truncateRunes(x.Key, 14), 14), colorBar(w, x.Total, top)+strings.Repeat(" ", barW-w), cash(x.Total), x.Orders)
		}
		b.WriteString("\n")
	}
	buckets("Sales by month", dashboard.SalesByMonth(msg.orders))
	buckets("Sales by category", dashboard.SalesByCategory(msg.orders))

	if len(msg.orders) > 0 {
		b.WriteString(st.PopupTitle.Render("Orders by status") + "\n  ")
		for _, sc := range dashboard.StatusCounts(msg.orders) {
			b.WriteString(st.ToneText(datatable.Tone(model.StatusTones[sc.Status]), fmt.Sprintf("%s %d", sc.Status, sc.Count)) + "   ")
		}
		b.WriteString("\n\n" + st.PopupTitle.Render("Recent orders") + "\n")
		for _, o := range dashboard.RecentOrders(msg.orders, 5) {
			fmt.Fprintf(&b, "  %s  %s  %s  %s\n",
				padRight(datatable.Stringify(o["trackingNumber"]), 16),
				padRight(truncateRunes(datatable.Stringify(o["customer"]), 20), 20),
				padRight(cash(numberOr0(o["total"])), 10),
				datatable.Stringify(o["status"]))
		}
		b.WriteString("\n")
	}
	if len(msg.products) > 0 {
		low := dashboard.LowStock(msg.products, lowStockThreshold)
		b.WriteString(st.PopupTitle.Render(fmt.Sprintf("Low stock (< %d)", lowStockThreshold)) + "\n")
		if len(low) == 0 {
			b.WriteString("  none\n")
		}
		for _, p := range low {
			fmt.Fprintf(&b, "  %s  %s  %s\n",
				padRight(datatable.Stringify(p["sku"]), 10),
				padRight(truncateRunes(datatable.Stringify(p["name"]), 28), 28),
				st.ToneText(datatable.ToneWarning, datatable.Stringify(p["stock"])))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

const lowStockThreshold = 10

func numberOr0(v any) float64 {
	f, _ := datatable.Number(v)
	return f
}
