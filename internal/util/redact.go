package util

import (
	"regexp"
	"strings"
	"time"
)

var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	rePhone = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	reToken = regexp.MustCompile(`(?i)(api|secret|token|key)[=:]\s*([A-Za-z0-9-_]{8,})`)
)

func RedactPII(s string) string {
	s = reEmail.ReplaceAllString(s, "[redacted-email]")
	s = reToken.ReplaceAllString(s, "$1=[redacted]")
	s = rePhone.ReplaceAllString(s, "[redacted-phone]")
	return s
}

// RedactRow returns a copy of row with string values scrubbed. Fields whose
// name mentions a password or token are blanked entirely.
func RedactRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "password") || strings.Contains(lk, "token") {
			out[k] = "[redacted]"
			continue
		}
		if s, ok := v.(string); ok && !isDate(s) {
			out[k] = RedactPII(s)
			continue
		}
		out[k] = v
	}
	return out
}

// isDate keeps timestamps away from the phone pattern.
func isDate(s string) bool {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
