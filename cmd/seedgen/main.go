package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"grocerydesk/internal/datatable"
	"grocerydesk/internal/detect"
	"grocerydesk/internal/export"
	"grocerydesk/internal/seed"
)

func main() {
	var (
		datasetsCSV string
		format      string
		rows        int
		seedVal     int64
		dir         string
		toStdout    bool
		stream      bool
		rate        float64
		durationStr string
	)

	flag.StringVar(&datasetsCSV, "datasets", strings.Join(seed.Datasets, ","), "Comma-separated list: "+strings.Join(seed.Datasets, ","))
	flag.StringVar(&format, "format", "ndjson", "Output format: ndjson or csv")
	flag.IntVar(&rows, "rows", 120, "Rows per dataset")
	flag.Int64Var(&seedVal, "seed", 1, "Random seed; the same seed gives the same rows")
	flag.StringVar(&dir, "dir", "sampledata", "Output directory, one <dataset>.<ext> per dataset")
	flag.BoolVar(&toStdout, "stdout", false, "Write NDJSON to stdout instead of files (single dataset only)")
	flag.BoolVar(&stream, "stream", false, "After seeding, keep appending new orders (orders dataset, NDJSON only)")
	flag.Float64Var(&rate, "rate", 1.0, "Orders per second when streaming")
	flag.StringVar(&durationStr, "duration", "", "Optional stream duration (e.g., 30s, 2m). Empty means run until interrupted")
	flag.Parse()

	datasets, err := splitDatasets(datasetsCSV)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	format = normalizeFormat(format)
	if format != "ndjson" && format != "csv" {
		fmt.Fprintf(os.Stderr, "unsupported format: %s\n", format)
		os.Exit(2)
	}
	if toStdout && len(datasets) != 1 {
		fmt.Fprintln(os.Stderr, "--stdout needs exactly one dataset")
		os.Exit(2)
	}
	if stream && (format != "ndjson" || !contains(datasets, "orders")) {
		fmt.Fprintln(os.Stderr, "--stream needs the orders dataset in ndjson format")
		os.Exit(2)
	}
	if rate <= 0 {
		rate = 1
	}

	// Setup interrupt handling
	var interrupted atomic.Bool
	abort := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		interrupted.Store(true)
		close(abort)
	}()

	var deadline time.Time
	if durationStr != "" {
		d, err := time.ParseDuration(durationStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid duration: %v\n", err)
			os.Exit(2)
		}
		deadline = time.Now().Add(d)
	}
	shouldStop := func() bool {
		select {
		case <-abort:
			return true
		default:
		}
		return !deadline.IsZero() && time.Now().After(deadline)
	}

	g := seed.New(seedVal)
	if toStdout {
		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()
		data, err := g.Dataset(datasets[0], rows)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := writeNDJSON(w, data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if stream {
			runStream(w, g, rate, shouldStop)
		}
		return
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", dir, err)
		os.Exit(1)
	}
	ext := map[string]string{"ndjson": ".ndjson", "csv": ".csv"}[format]
	for _, name := range datasets {
		data, err := g.Dataset(name, rows)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		schema, _ := detect.Builtin(name)
		p := filepath.Join(dir, name+ext)
		if err := export.Write(format, p, schema.Columns(), data, export.Options{}); err != nil {
			fmt.Fprintf(os.Stderr, "error writing %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "wrote %d %s -> %s\n", len(data), name, p)
	}
	if !stream {
		return
	}

	p := filepath.Join(dir, "orders"+ext)
	f, err := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	fmt.Fprintf(os.Stderr, "streaming orders -> %s at %.2f/s\n", p, rate)
	w := bufio.NewWriter(f)
	defer w.Flush()
	n := runStream(w, g, rate, shouldStop)
	if interrupted.Load() {
		fmt.Fprintf(os.Stderr, "interrupted after %d streamed orders\n", n)
	}
}

// runStream appends one fresh order per tick until shouldStop, flushing
// after each so followers see whole lines.
func runStream(w *bufio.Writer, g *seed.Generator, rate float64, shouldStop func() bool) int {
	interval := time.Duration(float64(time.Second) / rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	n := 0
	for !shouldStop() {
		<-ticker.C
		if shouldStop() {
			break
		}
		b, err := json.Marshal(g.NextOrder(time.Now().UTC()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode order: %v\n", err)
			return n
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			fmt.Fprintf(os.Stderr, "write order: %v\n", err)
			return n
		}
		if err := w.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "flush: %v\n", err)
			return n
		}
		n++
	}
	return n
}

func writeNDJSON(w io.Writer, rows []datatable.Row) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func splitDatasets(csv string) ([]string, error) {
	var out []string
	for _, p := range strings.Split(csv, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !contains(seed.Datasets, p) {
			return nil, fmt.Errorf("unknown dataset %q (want %s)", p, strings.Join(seed.Datasets, ","))
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no datasets given")
	}
	return out, nil
}

func normalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	switch f {
	case "json", "jsonl", "json_lines":
		return "ndjson"
	default:
		return f
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
