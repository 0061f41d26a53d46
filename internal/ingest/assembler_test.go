package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/lumen/internal/model"
)

type captureSink struct {
	mu      sync.Mutex
	batches [][]*model.Entry
}

func (s *captureSink) Append(entries []*model.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, entries)
}

func (s *captureSink) all() []*model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Entry
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func runLines(t *testing.T, lines ...string) []*model.Entry {
	t.Helper()
	sink := &captureSink{}
	a := NewAssembler(sink)

	ch := make(chan model.IngestEnvelope, len(lines))
	for _, line := range lines {
		ch <- model.IngestEnvelope{Source: "tcp", Line: line}
	}
	close(ch)
	a.Run(context.Background(), ch)
	return sink.all()
}

func TestAssembleTextLine(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantLevel    model.Level
		wantCategory string
		wantMessage  string
	}{
		{
			name:        "timestamp and severity",
			line:        "2024-01-15T10:30:45Z ERROR: connection refused",
			wantLevel:   model.LevelError,
			wantMessage: "connection refused",
		},
		{
			name:         "bracketed category",
			line:         "[network] request started",
			wantLevel:    model.LevelInfo,
			wantCategory: "network",
			wantMessage:  "request started",
		},
		{
			name:         "category then severity",
			line:         "renderer: WARN frame dropped",
			wantLevel:    model.LevelWarn,
			wantCategory: "renderer",
			wantMessage:  "frame dropped",
		},
		{
			name:        "plain text defaults to info",
			line:        "nothing structured here",
			wantLevel:   model.LevelInfo,
			wantMessage: "nothing structured here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := runLines(t, tt.line)
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(entries))
			}
			e := entries[0]
			if e.Level != tt.wantLevel {
				t.Errorf("Level = %v, want %v", e.Level, tt.wantLevel)
			}
			if e.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", e.Category, tt.wantCategory)
			}
			if e.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", e.Message, tt.wantMessage)
			}
			if e.Time.IsZero() {
				t.Error("Time is zero, want parsed or arrival time")
			}
			if e.Source != "tcp" {
				t.Errorf("Source = %q, want %q", e.Source, "tcp")
			}
		})
	}
}

func TestAssembleJSONLine(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantLevel    model.Level
		wantCategory string
		wantMessage  string
	}{
		{
			name:         "pino style numeric level",
			line:         `{"level":30,"time":1705312245000,"msg":"request completed","name":"api"}`,
			wantLevel:    model.LevelInfo,
			wantCategory: "api",
			wantMessage:  "request completed",
		},
		{
			name:        "severity text",
			line:        `{"severity":"warning","message":"disk filling"}`,
			wantLevel:   model.LevelWarn,
			wantMessage: "disk filling",
		},
		{
			name:        "otlp severity number",
			line:        `{"severityNumber":17,"body":{"stringValue":"boom"}}`,
			wantLevel:   model.LevelError,
			wantMessage: "boom",
		},
		{
			name:         "logger field as category",
			line:         `{"level":"debug","logger":"http.client","msg":"GET /"}`,
			wantLevel:    model.LevelDebug,
			wantCategory: "http.client",
			wantMessage:  "GET /",
		},
		{
			name:        "no message field keeps whole object",
			line:        `{"foo":"bar"}`,
			wantLevel:   model.LevelInfo,
			wantMessage: `{"foo":"bar"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := runLines(t, tt.line)
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(entries))
			}
			e := entries[0]
			if e.Level != tt.wantLevel {
				t.Errorf("Level = %v, want %v", e.Level, tt.wantLevel)
			}
			if e.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", e.Category, tt.wantCategory)
			}
			if e.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", e.Message, tt.wantMessage)
			}
		})
	}
}

func TestAssembleMultiLineJSON(t *testing.T) {
	entries := runLines(t,
		"before",
		"{",
		`  "level": "error",`,
		`  "msg": "split across lines"`,
		"}",
		"after",
	)

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Message != "before" {
		t.Errorf("first = %q, want %q", entries[0].Message, "before")
	}
	if entries[1].Level != model.LevelError || entries[1].Message != "split across lines" {
		t.Errorf("accumulated = %v %q, want ERROR %q", entries[1].Level, entries[1].Message, "split across lines")
	}
	if entries[2].Message != "after" {
		t.Errorf("last = %q, want %q", entries[2].Message, "after")
	}
}

func TestAssembleSkipsBlankLines(t *testing.T) {
	entries := runLines(t, "", "   ", "\t", "real")
	if len(entries) != 1 || entries[0].Message != "real" {
		t.Fatalf("entries = %+v, want only %q", entries, "real")
	}
}

func TestSequenceStrictlyIncreasing(t *testing.T) {
	sink := &captureSink{}
	a := NewAssembler(sink)

	ch := make(chan model.IngestEnvelope, 4)
	for _, line := range []string{"one", "two", "three"} {
		ch <- model.IngestEnvelope{Source: "stdin", Line: line}
	}
	close(ch)
	a.Run(context.Background(), ch)

	a.SubmitRecords("otlp", []Record{
		{Level: model.LevelInfo, Message: "four"},
		{Level: model.LevelWarn, Message: "five"},
	})

	entries := sink.all()
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}
	var prev int64
	for i, e := range entries {
		if e.Seq <= prev {
			t.Errorf("entry %d: Seq = %d, not strictly after %d", i, e.Seq, prev)
		}
		prev = e.Seq
	}
	if entries[3].Source != "otlp" || entries[3].Message != "four" {
		t.Errorf("submitted record = %q from %q, want %q from otlp", entries[3].Message, entries[3].Source, "four")
	}
}

func TestSubmitRecordsStampsArrivalTime(t *testing.T) {
	sink := &captureSink{}
	a := NewAssembler(sink)

	before := time.Now()
	a.SubmitRecords("otlp", []Record{{Message: "no time"}})
	after := time.Now()

	entries := sink.all()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Time.Before(before) || entries[0].Time.After(after) {
		t.Errorf("Time = %v, want between %v and %v", entries[0].Time, before, after)
	}
}

func TestRunBatchesBurst(t *testing.T) {
	sink := &captureSink{}
	a := NewAssembler(sink)

	const n = 10
	ch := make(chan model.IngestEnvelope, n)
	for i := 0; i < n; i++ {
		ch <- model.IngestEnvelope{Source: "tcp", Line: "line"}
	}
	close(ch)
	a.Run(context.Background(), ch)

	sink.mu.Lock()
	batches := len(sink.batches)
	sink.mu.Unlock()
	if batches != 1 {
		t.Errorf("burst delivered in %d batches, want 1", batches)
	}
	if got := len(sink.all()); got != n {
		t.Errorf("got %d entries, want %d", got, n)
	}
}

func TestCountJSONDepth(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{`{"a":1}`, 0},
		{"{", 1},
		{"}", -1},
		{`{"nested":{"x":[1,2]}}`, 0},
		{`"level": "info",`, 0},
		{`{"text":"{not a brace}"}`, 0},
		{`{"escaped":"\"{"}`, 0},
		{`[{"a":1},`, 1},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := CountJSONDepth(tt.line); got != tt.want {
				t.Errorf("CountJSONDepth(%q) = %d, want %d", tt.line, got, tt.want)
			}
		})
	}
}
