// Package ingest turns raw source lines into canonical entries: it parses
// structure out of JSON and text lines, stitches multi-line JSON objects
// back together, stamps arrival metadata, and assigns the global sequence
// numbers the view model orders by.
package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/lumen/internal/model"
	"github.com/tinytelemetry/lumen/internal/timestamp"
)

// Sink receives assembled entry batches in sequence order.
type Sink interface {
	Append(entries []*model.Entry)
}

// Record is a pre-parsed event handed in by structured receivers (OTLP);
// it skips line parsing but still goes through sequencing.
type Record struct {
	Time     time.Time
	Level    model.Level
	Category string
	Message  string
}

// Assembler converts ingest envelopes and pre-parsed records into entries.
// Sequence numbers are assigned under one lock so the append order seen by
// the sink always matches sequence order, whichever path delivered first.
type Assembler struct {
	parser *timestamp.Parser

	mu      sync.Mutex
	nextSeq int64
	sink    Sink

	// Multi-line JSON accumulation, keyed by source so interleaved
	// sources cannot corrupt each other's pending object.
	pending map[string]*jsonAccumulator

	batchSize int
	now       func() time.Time
}

// NewAssembler returns an Assembler feeding sink.
func NewAssembler(sink Sink) *Assembler {
	return &Assembler{
		parser:    timestamp.NewParser(),
		sink:      sink,
		pending:   make(map[string]*jsonAccumulator),
		batchSize: 64,
		now:       time.Now,
	}
}

// Run consumes envelopes until lines closes or ctx is canceled. Lines
// already queued are drained into the same batch before it is sealed, so
// bursts arrive at the sink as one append.
func (a *Assembler) Run(ctx context.Context, lines <-chan model.IngestEnvelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-lines:
			if !ok {
				return
			}
			batch := a.appendAssembled(nil, env)
			for len(batch) < a.batchSize {
				select {
				case more, ok := <-lines:
					if !ok {
						a.flush(batch)
						return
					}
					batch = a.appendAssembled(batch, more)
					continue
				default:
				}
				break
			}
			a.flush(batch)
		}
	}
}

// SubmitRecords sequences and delivers pre-parsed records from a
// structured receiver.
func (a *Assembler) SubmitRecords(source string, records []Record) {
	if len(records) == 0 {
		return
	}
	entries := make([]*model.Entry, 0, len(records))
	for _, r := range records {
		when := r.Time
		if when.IsZero() {
			when = a.now()
		}
		entries = append(entries, &model.Entry{
			Time:     when,
			Level:    r.Level,
			Category: r.Category,
			Message:  r.Message,
			Source:   source,
		})
	}
	a.deliver(entries)
}

func (a *Assembler) appendAssembled(batch []*model.Entry, env model.IngestEnvelope) []*model.Entry {
	for _, e := range a.assemble(env) {
		batch = append(batch, e)
	}
	return batch
}

func (a *Assembler) flush(batch []*model.Entry) {
	if len(batch) == 0 {
		return
	}
	a.deliver(batch)
}

// deliver assigns sequence numbers and hands the batch to the sink while
// holding the sequencing lock, keeping append order equal to seq order.
func (a *Assembler) deliver(entries []*model.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range entries {
		a.nextSeq++
		e.Seq = a.nextSeq
	}
	if a.sink != nil {
		a.sink.Append(entries)
	}
}

// assemble parses one envelope into zero or more entries. A line opening a
// multi-line JSON object is buffered and produces nothing until the object
// closes.
func (a *Assembler) assemble(env model.IngestEnvelope) []*model.Entry {
	if line, done, consumed := a.accumulateJSON(env); consumed {
		if !done {
			return nil
		}
		return []*model.Entry{a.entryFromLine(env.Source, line)}
	}
	line := strings.TrimRight(env.Line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return []*model.Entry{a.entryFromLine(env.Source, line)}
}

func (a *Assembler) entryFromLine(source, line string) *model.Entry {
	e := &model.Entry{Source: source, Message: line}
	if parsed, ok := a.parseJSONEntry(line); ok {
		e.Level = parsed.level
		e.Category = parsed.category
		e.Message = parsed.message
		e.Time = parsed.time
	} else {
		a.parseTextEntry(line, e)
	}
	if e.Time.IsZero() {
		e.Time = a.now()
	}
	return e
}

type jsonAccumulator struct {
	buf   strings.Builder
	depth int
}

// accumulateJSON tracks brace depth across lines of one source. consumed
// reports the line belongs to JSON handling at all; done reports a
// complete object, returned in line.
func (a *Assembler) accumulateJSON(env model.IngestEnvelope) (line string, done, consumed bool) {
	trimmed := strings.TrimSpace(env.Line)
	acc := a.pending[env.Source]

	if acc == nil {
		if !strings.HasPrefix(trimmed, "{") {
			return "", false, false
		}
		depth := CountJSONDepth(env.Line)
		if depth <= 0 {
			// Balanced on one line; no accumulation needed.
			return trimmed, true, true
		}
		acc = &jsonAccumulator{depth: depth}
		acc.buf.WriteString(env.Line)
		acc.buf.WriteString("\n")
		a.pending[env.Source] = acc
		return "", false, true
	}

	acc.buf.WriteString(env.Line)
	acc.buf.WriteString("\n")
	acc.depth += CountJSONDepth(env.Line)
	if acc.depth <= 0 {
		delete(a.pending, env.Source)
		return strings.TrimSpace(acc.buf.String()), true, true
	}
	return "", false, true
}

// CountJSONDepth counts the net change in JSON nesting depth for a line,
// ignoring braces inside strings and escaped quotes.
func CountJSONDepth(line string) int {
	depth := 0
	inString := false
	escaped := false

	for _, char := range line {
		if escaped {
			escaped = false
			continue
		}

		switch char {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}', ']':
			if !inString {
				depth--
			}
		}
	}

	return depth
}
