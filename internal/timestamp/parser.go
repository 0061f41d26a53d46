// Package timestamp recovers event times from log lines. Lines arrive with
// anything from RFC3339 prefixes to bare wall-clock times to epoch numbers
// in JSON fields; the parser tries the common shapes and reports what it
// found so callers can fall back to arrival time.
package timestamp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of scanning a line for a leading timestamp.
type Result struct {
	Found     bool
	Timestamp time.Time
	Remaining string // line with the timestamp prefix removed
}

// Parser recognizes timestamp prefixes and epoch values.
type Parser struct {
	now func() time.Time
}

// NewParser returns a Parser using the wall clock for year inference.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

var (
	isoPrefix = regexp.MustCompile(
		`^(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d{1,9})?(?:Z|[+-]\d{2}:?\d{2})?)\s*`)
	syslogPrefix = regexp.MustCompile(
		`^([A-Z][a-z]{2} {1,2}\d{1,2} \d{2}:\d{2}:\d{2})\s*`)
	timeOnlyPrefix = regexp.MustCompile(
		`^(\d{2}:\d{2}:\d{2}(?:[.,]\d{1,9})?)\s*`)
	severityPrefix = regexp.MustCompile(
		`^(?i)(?:TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL|CRITICAL)\s*:?\s+`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseFromText scans the start of a line for a timestamp. On a hit the
// result carries the parsed time and the rest of the line; otherwise the
// line comes back unchanged.
func (p *Parser) ParseFromText(text string) Result {
	if m := isoPrefix.FindStringSubmatch(text); m != nil {
		raw := normalizeDecimal(m[1])
		// "2006-01-02 15:04:05+05:00" needs the T variants too.
		candidates := []string{raw, strings.Replace(raw, " ", "T", 1)}
		for _, candidate := range candidates {
			for _, layout := range isoLayouts {
				if ts, err := time.Parse(layout, candidate); err == nil {
					return Result{Found: true, Timestamp: ts, Remaining: text[len(m[0]):]}
				}
			}
		}
	}
	if m := syslogPrefix.FindStringSubmatch(text); m != nil {
		raw := strings.Join(strings.Fields(m[1]), " ")
		if ts, err := time.Parse("Jan 2 15:04:05", raw); err == nil {
			ts = ts.AddDate(p.now().Year(), 0, 0)
			return Result{Found: true, Timestamp: ts, Remaining: text[len(m[0]):]}
		}
	}
	if m := timeOnlyPrefix.FindStringSubmatch(text); m != nil {
		raw := normalizeDecimal(m[1])
		if ts, err := time.Parse("15:04:05.999999999", raw); err == nil {
			now := p.now()
			ts = time.Date(now.Year(), now.Month(), now.Day(),
				ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), now.Location())
			return Result{Found: true, Timestamp: ts, Remaining: text[len(m[0]):]}
		}
	}
	return Result{Remaining: text}
}

// ParseTimestamp parses a timestamp value from a structured field: strings
// go through the text layouts, numbers through epoch-magnitude detection.
func (p *Parser) ParseTimestamp(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		if r := p.ParseFromText(s); r.Found {
			return r.Timestamp, true
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return p.parseUnixTimestamp(n), true
		}
		return time.Time{}, false
	case float64:
		return p.parseUnixTimestamp(v), true
	case int64:
		return p.parseUnixTimestamp(float64(v)), true
	case int:
		return p.parseUnixTimestamp(float64(v)), true
	}
	return time.Time{}, false
}

// parseUnixTimestamp buckets an epoch number by magnitude. Present-day
// epochs sit near 1.7e9 s, 1.7e12 ms, 1.7e15 µs and 1.7e18 ns, so the
// cutoffs halfway between the unit bands classify any plausible value.
func (p *Parser) parseUnixTimestamp(v float64) time.Time {
	switch {
	case v >= 1e17:
		return time.Unix(0, int64(v))
	case v >= 1e14:
		return time.UnixMicro(int64(v))
	case v >= 1e11:
		return time.UnixMilli(int64(v))
	default:
		return time.Unix(int64(v), 0)
	}
}

// ExtractLogMessage strips a leading timestamp and severity marker,
// returning the message body. A line with neither comes back whole.
func (p *Parser) ExtractLogMessage(line string) string {
	rest := p.ParseFromText(line).Remaining
	rest = severityPrefix.ReplaceAllString(rest, "")
	if strings.TrimSpace(rest) == "" {
		return line
	}
	return rest
}

func normalizeDecimal(s string) string {
	return strings.Replace(s, ",", ".", 1)
}
