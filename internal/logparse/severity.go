package logparse

import (
	"regexp"
	"strings"

	"github.com/tinytelemetry/lumen/internal/model"
)

// severityRegex matches common severity tokens in free-form log text.
var severityRegex = regexp.MustCompile(`(?i)\b(TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL|CRITICAL)\b`)

// NormalizeLevel converts the many severity spellings found in log lines to
// a Level. Exact names and known aliases resolve first; otherwise a short
// prefix decides. Unknown input maps to INFO.
func NormalizeLevel(severity string) model.Level {
	if level, ok := model.ParseLevel(severity); ok {
		return level
	}
	normalized := strings.ToUpper(strings.TrimSpace(severity))
	switch normalized {
	case "TRAC":
		return model.LevelTrace
	case "DEBU", "DEB":
		return model.LevelDebug
	case "WRNG":
		return model.LevelWarn
	case "ERRO":
		return model.LevelError
	case "FATL", "FTL", "CRT", "PNC":
		return model.LevelFatal
	}
	if len(normalized) >= 4 {
		switch normalized[:4] {
		case "INFO":
			return model.LevelInfo
		case "WARN":
			return model.LevelWarn
		case "ERRO":
			return model.LevelError
		case "DEBU":
			return model.LevelDebug
		case "TRAC":
			return model.LevelTrace
		case "FATA", "CRIT":
			return model.LevelFatal
		}
	}
	return model.LevelInfo
}

// ExtractLevelFromText finds a severity token anywhere in the message.
// ok reports whether a token was present; without one the level is INFO.
func ExtractLevelFromText(message string) (level model.Level, ok bool) {
	matches := severityRegex.FindStringSubmatch(message)
	if len(matches) > 1 {
		return NormalizeLevel(matches[1]), true
	}
	return model.LevelInfo, false
}

// NumericLevel converts pino/bunyan style numeric levels to a Level.
// Exact decades map directly; everything else buckets by range.
func NumericLevel(level int) model.Level {
	switch {
	case level < 20:
		return model.LevelTrace
	case level < 30:
		return model.LevelDebug
	case level < 40:
		return model.LevelInfo
	case level < 50:
		return model.LevelWarn
	case level < 60:
		return model.LevelError
	default:
		return model.LevelFatal
	}
}

// OTLPSeverityNumber converts an OTLP severity number (1..24) to a Level.
// Zero (unspecified) maps to INFO.
func OTLPSeverityNumber(n int) model.Level {
	switch {
	case n == 0:
		return model.LevelInfo
	case n <= 4:
		return model.LevelTrace
	case n <= 8:
		return model.LevelDebug
	case n <= 12:
		return model.LevelInfo
	case n <= 16:
		return model.LevelWarn
	case n <= 20:
		return model.LevelError
	default:
		return model.LevelFatal
	}
}
