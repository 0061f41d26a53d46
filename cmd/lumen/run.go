package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/lumen/internal/archive"
	"github.com/tinytelemetry/lumen/internal/debugrpc"
	"github.com/tinytelemetry/lumen/internal/httpserver"
	"github.com/tinytelemetry/lumen/internal/ingest"
	"github.com/tinytelemetry/lumen/internal/inspector"
	"github.com/tinytelemetry/lumen/internal/journal"
	"github.com/tinytelemetry/lumen/internal/logview"
	"github.com/tinytelemetry/lumen/internal/model"
	"github.com/tinytelemetry/lumen/internal/otlpserver"
	"github.com/tinytelemetry/lumen/internal/settings"
	"github.com/tinytelemetry/lumen/internal/tui"
	"golang.org/x/sync/errgroup"
)

const replayBatchSize = 2000

// runViewer wires sources, assembler, optional archive and servers, and
// the TUI into one process.
func runViewer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger(cfg.Log.Verbose)
	defer cleanupLogger()

	view := logview.New(logview.Config{
		Debounce:    time.Duration(cfg.View.DebounceMs) * time.Millisecond,
		ScrollDelay: time.Duration(cfg.View.ScrollDelayMs) * time.Millisecond,
	})
	defer view.Dispose()

	columns := logview.NewColumnSet()

	// Optional session archive: journaled, batched inserts into DuckDB.
	var store *archive.Store
	var insertBuffer *archive.InsertBuffer
	if cfg.Archive.Enabled {
		var err error
		store, err = archive.NewStore(cfg.Archive.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize archive: %w", err)
		}
		defer store.Close()

		journalPath := filepath.Join(cfg.Archive.JournalDir, "ingest.journal")
		ingestJournal, err := journal.Open(journalPath)
		if err != nil {
			return fmt.Errorf("failed to open ingest journal: %w", err)
		}
		if err := replayUncommittedJournal(ingestJournal, store, replayBatchSize); err != nil {
			_ = ingestJournal.Close()
			return fmt.Errorf("failed to replay ingest journal: %w", err)
		}

		// The buffer owns the journal from here; Stop closes it.
		insertBuffer = archive.NewInsertBuffer(store, archive.InsertBufferConfig{
			Journal: ingestJournal,
		})
		defer insertBuffer.Stop()

		if cleaner := archive.NewRetentionCleaner(store, archive.RetentionConfig{
			RetentionMinutes: cfg.Archive.RetentionMinutes,
		}); cleaner != nil {
			defer cleaner.Stop()
		}
	}

	var sink ingest.Sink = view
	if insertBuffer != nil {
		sink = teeSink{view: view, buffer: insertBuffer}
	}
	asm := ingest.NewAssembler(sink)

	if cfg.Inputs.OTLP.Enabled {
		otlp := otlpserver.NewServer(cfg.Inputs.OTLP.Addr, asm)
		if err := otlp.Start(); err != nil {
			return fmt.Errorf("failed to start OTLP receiver: %w", err)
		}
		defer otlp.Stop()
	}

	if cfg.HTTP.Enabled {
		var httpConf httpserver.Config
		if store != nil {
			httpConf.Archive = store
			httpConf.Snapshot = store
		}
		api := httpserver.NewServer(cfg.HTTP.Addr, view, asm, httpConf)
		if err := api.Start(); err != nil {
			return fmt.Errorf("failed to start HTTP API: %w", err)
		}
		defer api.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	insp := inspector.NewController()
	go maintainDebugChannel(ctx, insp, cfg.Debug.Socket)

	// Build input plugins and source multiplexer.
	plugins := buildInputPlugins(InputPluginConfig{
		TCPEnabled:   cfg.Inputs.TCP.Enabled,
		TCPAddr:      cfg.Inputs.TCP.Addr,
		FilePath:     cfg.Inputs.File.Path,
		StdinEnabled: cfg.Inputs.Stdin.Enabled,
	})

	sources := make([]NamedLogSource, 0, len(plugins))
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(ctx)
		if err != nil {
			log.Printf("Error initializing input plugin %q: %v", plugin.Name(), err)
			continue
		}
		sources = append(sources, src)
	}

	mux := NewSourceMultiplexer(ctx, sources, defaultMuxBufferSize)
	mux.Start()
	defer mux.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		asm.Run(gctx, mux.Lines())
		return nil
	})

	sourceNames := mux.SourceNames()
	if cfg.Inputs.OTLP.Enabled {
		sourceNames = append(sourceNames, "otlp")
	}
	if cfg.HTTP.Enabled {
		sourceNames = append(sourceNames, "http")
	}

	var viewSettings *settings.Store
	if path, err := settings.DefaultPath(); err != nil {
		log.Printf("settings: resolve path: %v", err)
	} else if st, err := settings.NewStore(path); err != nil {
		log.Printf("settings: %v", err)
	} else {
		viewSettings = st
	}

	app := tui.NewModel(view, tui.Config{
		Columns:   columns,
		Inspector: insp,
		Settings:  viewSettings,
		Sources:   sourceNames,
	})

	printStartupBanner(cfg, sourceNames)

	stat, statErr := os.Stdin.Stat()
	stdinPiped := statErr == nil && (stat.Mode()&os.ModeCharDevice) == 0

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	if stdinPiped {
		// Stdin carries log data; read keys from the controlling terminal.
		opts = append(opts, tea.WithInputTTY())
	}
	p := tea.NewProgram(app, opts...)

	binder := tui.NewBinder(p)
	view.Bind(binder)
	removeCounts := view.AddCountListener(binder.CountListener())
	defer removeCounts()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			p.Quit()
		case <-ctx.Done():
			return
		}

		// Shutdown deadline starts at the first signal, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
		case <-deadline.C:
		case <-ctx.Done():
			return
		}
		os.Exit(1)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("the viewer requires a real terminal (pipe logs with: your-app | lumen)")
		}
		return fmt.Errorf("error running viewer: %w", err)
	}

	cancel()
	mux.Stop()

	if err := g.Wait(); err != nil {
		log.Printf("viewer: ingest group exited with error: %v", err)
	}

	return nil
}

// teeSink fans assembled entries into the live view and the archive path.
type teeSink struct {
	view   *logview.Model
	buffer *archive.InsertBuffer
}

func (s teeSink) Append(entries []*model.Entry) {
	s.view.Append(entries)
	for _, e := range entries {
		s.buffer.Add(e)
	}
}

// maintainDebugChannel keeps the inspector attached to the app's debug
// socket, redialing whenever the connection drops.
func maintainDebugChannel(ctx context.Context, insp *inspector.Controller, socketPath string) {
	const redialInterval = 2 * time.Second

	for {
		client, err := debugrpc.Dial("unix", socketPath)
		if err == nil {
			watchDone := make(chan struct{})
			go func() {
				defer close(watchDone)
				insp.Attach(client)
				insp.Watch(client.Notifications())
				insp.Detach()
			}()

			select {
			case <-watchDone:
				_ = client.Close()
			case <-ctx.Done():
				_ = client.Close()
				<-watchDone
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(redialInterval):
		}
	}
}

func configureRuntimeLogger(verbose bool) func() {
	flags := log.LstdFlags | log.Lmicroseconds
	if verbose {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "lumen")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "lumen.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func replayUncommittedJournal(j *journal.Journal, store *archive.Store, batchSize int) error {
	if j == nil {
		return nil
	}
	if batchSize <= 0 {
		batchSize = replayBatchSize
	}

	batch := make([]*model.Entry, 0, batchSize)
	batchMaxSeq := uint64(0)
	replayed := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.InsertEntryBatch(batch); err != nil {
			return err
		}
		if batchMaxSeq > 0 {
			if err := j.Commit(batchMaxSeq); err != nil {
				return err
			}
		}
		replayed += len(batch)
		batch = make([]*model.Entry, 0, batchSize)
		batchMaxSeq = 0
		return nil
	}

	if err := j.Replay(func(seq uint64, e *model.Entry) error {
		copied := *e
		batch = append(batch, &copied)
		if seq > batchMaxSeq {
			batchMaxSeq = seq
		}
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	}); err != nil {
		return err
	}

	if err := flush(); err != nil {
		return err
	}
	if replayed > 0 {
		log.Printf("ingest journal: replayed %d uncommitted entries", replayed)
	}
	return nil
}

func printStartupBanner(cfg appConfig, sourceNames []string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦  ╦ ╦╔╦╗╔═╗╔╗╔
    ║  ║ ║║║║║╣ ║║║
    ╩═╝╚═╝╩ ╩╚═╝╝╚╝`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Inputs"))
	lines = append(lines, "")

	if cfg.Inputs.TCP.Enabled {
		lines = append(lines, fmt.Sprintf("    %s  TCP Ingest     %s", check, cyan.Render(cfg.Inputs.TCP.Addr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  TCP Ingest     %s", dot, dim.Render("disabled")))
	}
	if cfg.Inputs.File.Path != "" {
		lines = append(lines, fmt.Sprintf("    %s  File Follow    %s", check, cyan.Render(shortenPath(cfg.Inputs.File.Path))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  File Follow    %s", dot, dim.Render("disabled")))
	}
	if hasSourceName(sourceNames, "stdin") {
		lines = append(lines, fmt.Sprintf("    %s  Stdin          %s", check, cyan.Render("piped")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Stdin          %s", dot, dim.Render("no pipe")))
	}
	if cfg.Inputs.OTLP.Enabled {
		lines = append(lines, fmt.Sprintf("    %s  OTLP/gRPC      %s", check, cyan.Render(cfg.Inputs.OTLP.Addr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  OTLP/gRPC      %s", dot, dim.Render("disabled")))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")

	if cfg.HTTP.Enabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.HTTP.Addr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Debug Socket   %s", check, cyan.Render(shortenPath(cfg.Debug.Socket))))

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")

	if cfg.Archive.Enabled {
		lines = append(lines, fmt.Sprintf("    %s  Archive        %s", check, dim.Render(shortenPath(cfg.Archive.DBPath))))
		lines = append(lines, fmt.Sprintf("    %s  Journal        %s", check, dim.Render(shortenPath(cfg.Archive.JournalDir))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Archive        %s", dot, dim.Render("disabled")))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Starting viewer, press ")+yellow.Render("q")+dim.Render(" to quit"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func hasSourceName(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
