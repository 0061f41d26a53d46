package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/tinytelemetry/lumen/internal/model"
)

const (
	dialTimeout   = 5 * time.Second
	redialBackoff = 2 * time.Second
	timeLayout    = "2006-01-02 15:04:05.000"
)

// Emitter streams synthetic log lines to the viewer's TCP ingest address.
// Shapes rotate through the formats the assembler understands: timestamped
// text, bracket and colon category markers, single- and multi-line JSON.
type Emitter struct {
	addr     string
	interval time.Duration
	inject   chan string
	rng      *rand.Rand
	seq      int
}

func NewEmitter(addr string, linesPerSecond float64) *Emitter {
	if linesPerSecond <= 0 {
		linesPerSecond = 8
	}
	return &Emitter{
		addr:     addr,
		interval: time.Duration(float64(time.Second) / linesPerSecond),
		inject:   make(chan string, 64),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Inject queues one out-of-band message, tagged as the inspector category.
// Full queue drops the message; injection is demo flavor, not delivery.
func (e *Emitter) Inject(message string) {
	line := fmt.Sprintf("%s INFO [inspector] %s", time.Now().Format(timeLayout), message)
	select {
	case e.inject <- line:
	default:
	}
}

// Run streams lines until ctx is canceled, redialing on connection loss.
func (e *Emitter) Run(ctx context.Context) error {
	for {
		conn, err := net.DialTimeout("tcp", e.addr, dialTimeout)
		if err != nil {
			log.Printf("sim: dial %s: %v", e.addr, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(redialBackoff):
			}
			continue
		}

		err = e.stream(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Printf("sim: stream: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(redialBackoff):
		}
	}
}

func (e *Emitter) stream(ctx context.Context, conn net.Conn) error {
	w := bufio.NewWriter(conn)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-e.inject:
			if err := writeLines(w, []string{line}); err != nil {
				return err
			}
		case <-ticker.C:
			if err := writeLines(w, e.nextLines()); err != nil {
				return err
			}
		}
	}
}

func writeLines(w *bufio.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

var simCategories = []string{"net", "ui", "db", "render", "auth", "sync"}

var simMessages = map[string][]string{
	"net":    {"request completed in %dms", "connection pool at %d/10", "retrying request, attempt %d", "dns lookup took %dms"},
	"ui":     {"frame rendered in %dms", "gesture recognized after %d samples", "layout pass %d complete", "rebuilding %d widgets"},
	"db":     {"query returned %d rows", "transaction committed in %dms", "cache hit ratio %d%%", "vacuum freed %d pages"},
	"render": {"raster thread busy for %dms", "uploaded %d textures", "shader compile took %dms", "dropped %d frames"},
	"auth":   {"token refresh in %dms", "session %d validated", "login attempt %d", "key rotation %d complete"},
	"sync":   {"pushed %d changes", "pulled %d remote edits", "conflict resolved in %dms", "checkpoint %d written"},
}

// nextLines produces the physical lines of one synthetic event. Most
// events are a single line; JSON events may span several.
func (e *Emitter) nextLines() []string {
	e.seq++
	level := e.nextLevel()
	category := simCategories[e.rng.Intn(len(simCategories))]
	templates := simMessages[category]
	message := fmt.Sprintf(templates[e.rng.Intn(len(templates))], e.rng.Intn(500)+1)

	switch shape := e.rng.Intn(100); {
	case shape < 45:
		return []string{fmt.Sprintf("%s %s [%s] %s",
			time.Now().Format(timeLayout), level.String(), category, message)}
	case shape < 60:
		return []string{fmt.Sprintf("[%s] %s %s", category, level.String(), message)}
	case shape < 72:
		return []string{fmt.Sprintf("%s.client: %s", category, message)}
	case shape < 84:
		return []string{e.jsonLine(level, category, message, false)}
	case shape < 92:
		return strings.Split(e.jsonLine(level, category, message, true), "\n")
	default:
		return []string{message}
	}
}

func (e *Emitter) jsonLine(level model.Level, category, message string, indent bool) string {
	payload := map[string]interface{}{
		"ts":     time.Now().Format(time.RFC3339Nano),
		"level":  strings.ToLower(level.String()),
		"logger": category,
		"msg":    message,
		"seq":    e.seq,
	}
	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}
	if err != nil {
		return message
	}
	return string(data)
}

func (e *Emitter) nextLevel() model.Level {
	switch n := e.rng.Intn(100); {
	case n < 50:
		return model.LevelInfo
	case n < 70:
		return model.LevelDebug
	case n < 82:
		return model.LevelWarn
	case n < 90:
		return model.LevelTrace
	case n < 98:
		return model.LevelError
	default:
		return model.LevelFatal
	}
}
