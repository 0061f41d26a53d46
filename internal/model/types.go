package model

import (
	"strings"
	"time"
)

// Level is the ordered severity of a log entry. Higher values are more
// severe; comparisons against a minimum level rely on this ordering.
type Level int8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// Levels lists all severities in ascending order.
var Levels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

// ParseLevel maps a severity name to its Level. Common aliases
// (WARNING, ERR, CRITICAL, ...) are accepted. Unknown names report ok=false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE", "TRC", "VERBOSE", "FINEST", "FINER":
		return LevelTrace, true
	case "DEBUG", "DBG", "FINE", "CONFIG":
		return LevelDebug, true
	case "INFO", "INF", "INFORMATION", "NOTICE":
		return LevelInfo, true
	case "WARN", "WRN", "WARNING":
		return LevelWarn, true
	case "ERROR", "ERR", "SEVERE":
		return LevelError, true
	case "FATAL", "CRITICAL", "CRIT", "PANIC", "EMERGENCY", "ALERT":
		return LevelFatal, true
	}
	return LevelInfo, false
}

// Entry represents a single log event. It is the canonical type across
// ingestion, the view model, storage, and display. Entries are immutable
// once assembled; the view model's backing store owns them after insertion.
type Entry struct {
	Time     time.Time
	Seq      int64 // assigned at ingestion, strictly increasing
	Level    Level
	Category string
	Message  string
	Source   string // "tcp", "stdin", "file", "otlp", "http"
}

// LevelCount represents the number of entries seen for one severity.
type LevelCount struct {
	Level Level
	Count int64
}

// MinuteCounts represents severity counts for one minute bucket.
type MinuteCounts struct {
	Minute time.Time
	Trace  int64
	Debug  int64
	Info   int64
	Warn   int64
	Error  int64
	Fatal  int64
	Total  int64
}
