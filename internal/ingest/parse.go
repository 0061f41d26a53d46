package ingest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tinytelemetry/lumen/internal/logparse"
	"github.com/tinytelemetry/lumen/internal/model"
)

type parsedEntry struct {
	time     time.Time
	level    model.Level
	category string
	message  string
}

var (
	messageKeys  = []string{"message", "msg", "body", "text", "log"}
	levelKeys    = []string{"level", "severity", "severityText", "level_name", "lvl", "loglevel"}
	categoryKeys = []string{"logger", "logger_name", "category", "component", "module", "tag", "name"}
	timeKeys     = []string{"timestamp", "time", "ts", "@timestamp", "datetime", "timeUnixNano", "observedTimeUnixNano"}
)

// parseJSONEntry extracts entry fields from a single JSON log object.
// Lines that are not JSON objects report ok=false and fall back to text
// parsing.
func (a *Assembler) parseJSONEntry(line string) (parsedEntry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return parsedEntry{}, false
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return parsedEntry{}, false
	}

	p := parsedEntry{level: model.LevelInfo}

	p.message = firstString(raw, messageKeys)
	if p.message == "" {
		// An object with no recognizable message field is still one event;
		// show it whole.
		p.message = trimmed
	}

	if s := firstString(raw, levelKeys); s != "" {
		p.level = logparse.NormalizeLevel(s)
	} else if n, ok := firstNumber(raw, "level"); ok {
		p.level = logparse.NumericLevel(int(n))
	} else if n, ok := firstNumber(raw, "severityNumber"); ok {
		p.level = logparse.OTLPSeverityNumber(int(n))
	}

	p.category = firstString(raw, categoryKeys)
	if p.category == "" {
		if scope, ok := raw["scope"].(map[string]interface{}); ok {
			if name, ok := scope["name"].(string); ok {
				p.category = name
			}
		}
	}

	for _, key := range timeKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if ts, ok := a.parser.ParseTimestamp(v); ok {
			p.time = ts
			break
		}
	}

	return p, true
}

// parseTextEntry fills e from a free-form text line: leading timestamp,
// severity token, category marker, and what remains as the message.
func (a *Assembler) parseTextEntry(line string, e *model.Entry) {
	res := a.parser.ParseFromText(line)
	if res.Found {
		e.Time = res.Timestamp
	}
	body := res.Remaining

	level, found := logparse.ExtractLevelFromText(body)
	if found {
		e.Level = level
	} else {
		e.Level = model.LevelInfo
	}

	category, rest := logparse.ExtractCategory(body)
	e.Category = category

	e.Message = a.parser.ExtractLogMessage(rest)
}

func firstString(raw map[string]interface{}, keys []string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			// OTLP AnyValue shape: {"stringValue": "..."}.
			if s, ok := v["stringValue"].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func firstNumber(raw map[string]interface{}, key string) (float64, bool) {
	switch v := raw[key].(type) {
	case float64:
		return v, true
	case string:
		var n float64
		if err := json.Unmarshal([]byte(v), &n); err == nil {
			return n, true
		}
	}
	return 0, false
}
