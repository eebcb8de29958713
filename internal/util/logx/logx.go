// Package logx keeps recent log lines in memory for the in-app log viewer.
// Writing to the terminal would tear the TUI, so other sinks are opt-in:
// GROCERYDESK_LOG_STDERR=1 mirrors to stderr and GROCERYDESK_LOG_FILE
// appends to a file.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	default:
		return "ERROR"
	}
}

const maxLines = 500

var (
	mu    sync.Mutex
	level = Info
	ring  [maxLines]string
	start int // oldest line
	count int
	sinks []io.Writer
)

func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// ParseLevel maps a level name to a Level; unknown names yield Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// SetLevelFromEnv applies GROCERYDESK_LOG_LEVEL and opens the optional
// sinks.
func SetLevelFromEnv() {
	if lv := strings.TrimSpace(os.Getenv("GROCERYDESK_LOG_LEVEL")); lv != "" {
		SetLevel(ParseLevel(lv))
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("GROCERYDESK_LOG_STDERR"))); v != "" && v != "0" && v != "false" && v != "no" {
		AddSink(os.Stderr)
	}
	if p := strings.TrimSpace(os.Getenv("GROCERYDESK_LOG_FILE")); p != "" {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			Warnf("logx: open %s: %v", p, err)
			return
		}
		AddSink(f)
	}
}

// AddSink mirrors every kept line to w.
func AddSink(w io.Writer) {
	mu.Lock()
	sinks = append(sinks, w)
	mu.Unlock()
}

func Debugf(format string, a ...any) { logf(Debug, format, a...) }
func Infof(format string, a ...any)  { logf(Info, format, a...) }
func Warnf(format string, a ...any)  { logf(Warn, format, a...) }
func Errorf(format string, a ...any) { logf(Error, format, a...) }

func logf(l Level, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	line := fmt.Sprintf("%s %-5s %s", time.Now().Format("2006-01-02T15:04:05.000Z07:00"), l, fmt.Sprintf(format, a...))
	if count < maxLines {
		ring[(start+count)%maxLines] = line
		count++
	} else {
		ring[start] = line
		start = (start + 1) % maxLines
	}
	for _, w := range sinks {
		fmt.Fprintln(w, line)
	}
}

func Dump() string {
	return strings.Join(Lines(), "\n")
}

// Lines returns the kept lines, oldest first.
func Lines() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, count)
	for i := range out {
		out[i] = ring[(start+i)%maxLines]
	}
	return out
}

// Reset drops buffered lines and sinks; tests use it to start clean.
func Reset() {
	mu.Lock()
	start, count = 0, 0
	sinks = nil
	mu.Unlock()
}
