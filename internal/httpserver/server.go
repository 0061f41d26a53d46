// Package httpserver exposes the read API and the OTLP/HTTP ingest
// endpoint over gin.
package httpserver

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/tinytelemetry/lumen/internal/model"
	"github.com/tinytelemetry/lumen/internal/otlpserver"
)

// maxIngestBody caps OTLP/HTTP payloads, matching the RPC scanner ceiling.
const maxIngestBody = 10 * 1024 * 1024

// ViewReader is the narrow view-model contract required by the API:
// the full in-memory log and the current filter counts.
type ViewReader interface {
	Snapshot() []*model.Entry
	Counts() (filteredOut, total int)
}

// Snapshotter exports the archive database file for bug reports.
type Snapshotter interface {
	SnapshotTo(dstPath string) error
}

// Config holds optional collaborators for the HTTP server.
type Config struct {
	// Archive backs /api/v1/entries and per-level counts when set.
	// Without it both are served from the view snapshot.
	Archive model.EntryQuerier

	// Snapshot backs /api/v1/snapshot when set.
	Snapshot Snapshotter
}

// Server provides the HTTP API for querying and ingesting entries.
type Server struct {
	addr      string
	view      ViewReader
	sink      otlpserver.RecordSink
	archive   model.EntryQuerier
	snapshot  Snapshotter
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, view ViewReader, sink otlpserver.RecordSink, conf ...Config) *Server {
	if addr == "" {
		addr = "127.0.0.1:3900"
	}
	var archive model.EntryQuerier
	var snapshot Snapshotter
	if len(conf) > 0 {
		archive = conf[0].Archive
		snapshot = conf[0].Snapshot
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:     addr,
		view:     view,
		sink:     sink,
		archive:  archive,
		snapshot: snapshot,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/api/v1/entries", s.handleEntries)
	r.GET("/api/v1/counts", s.handleCounts)
	r.POST("/api/v1/ingest/otlp", s.handleIngestOTLP)
	r.POST("/api/v1/snapshot", s.handleSnapshot)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the bound listen address once Start has succeeded, which
// matters when the configured address uses port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("http: %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	_, total := s.view.Counts()
	resp := gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
		"entries": total,
	}
	if s.archive != nil {
		archived, err := s.archive.TotalEntryCount()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
			return
		}
		resp["archived_entries"] = archived
	}
	c.JSON(http.StatusOK, resp)
}

// entryPayload is the wire shape of one entry.
type entryPayload struct {
	Time     time.Time `json:"time"`
	Seq      int64     `json:"seq"`
	Level    string    `json:"level"`
	Category string    `json:"category,omitempty"`
	Message  string    `json:"message"`
	Source   string    `json:"source"`
}

func toPayload(entries []*model.Entry) []entryPayload {
	out := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryPayload{
			Time:     e.Time,
			Seq:      e.Seq,
			Level:    e.Level.String(),
			Category: e.Category,
			Message:  e.Message,
			Source:   e.Source,
		})
	}
	return out
}

func (s *Server) handleEntries(c *gin.Context) {
	var opts model.QueryOpts
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		opts.Limit = n
	}
	if v := c.Query("min_level"); v != "" {
		lvl, ok := model.ParseLevel(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown min_level " + strconv.Quote(v)})
			return
		}
		opts.MinLevel = &lvl
	}
	opts.Category = c.Query("category")
	opts.Contains = c.Query("contains")

	var (
		entries []*model.Entry
		err     error
	)
	if s.archive != nil {
		entries, err = s.archive.RecentEntries(opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query entries"})
			return
		}
	} else {
		entries = filterSnapshot(s.view.Snapshot(), opts)
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": toPayload(entries),
		"count":   len(entries),
	})
}

// filterSnapshot applies QueryOpts to the in-memory log, keeping the most
// recent matches in arrival order. Mirrors the archive query semantics.
func filterSnapshot(entries []*model.Entry, opts model.QueryOpts) []*model.Entry {
	contains := strings.ToLower(opts.Contains)
	matched := make([]*model.Entry, 0, len(entries))
	for _, e := range entries {
		if opts.MinLevel != nil && e.Level < *opts.MinLevel {
			continue
		}
		if opts.Category != "" && e.Category != opts.Category {
			continue
		}
		if contains != "" && !strings.Contains(strings.ToLower(e.Message), contains) {
			continue
		}
		matched = append(matched, e)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = model.DefaultHTTPLimit
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

func (s *Server) handleCounts(c *gin.Context) {
	filteredOut, total := s.view.Counts()

	levels := make(map[string]int64, len(model.Levels))
	if s.archive != nil {
		counts, err := s.archive.LevelCounts()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query level counts"})
			return
		}
		for _, lc := range counts {
			levels[lc.Level.String()] = lc.Count
		}
	} else {
		for _, e := range s.view.Snapshot() {
			levels[e.Level.String()]++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total":        total,
		"shown":        total - filteredOut,
		"filtered_out": filteredOut,
		"levels":       levels,
	})
}

// handleSnapshot exports the archive database to a caller-supplied path.
// The error text is returned verbatim; the caller chose the destination
// and needs to know why it failed.
func (s *Server) handleSnapshot(c *gin.Context) {
	if s.snapshot == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "archive is not enabled"})
		return
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	if err := s.snapshot.SnapshotTo(req.Path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": req.Path})
}

func (s *Server) handleIngestOTLP(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIngestBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var req collogspb.ExportLogsServiceRequest
	if err := protojson.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid OTLP JSON payload"})
		return
	}

	records := otlpserver.RecordsFromExport(&req)
	if len(records) > 0 {
		s.sink.SubmitRecords("http", records)
	}

	c.JSON(http.StatusOK, gin.H{"accepted": len(records)})
}
