package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/lumen/internal/debugrpc"
	"golang.org/x/sync/errgroup"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var targetAddr string
	var socketPath string
	var debugTCP string
	var rate float64
	var restartEvery time.Duration
	var showVersion bool

	flag.StringVar(&targetAddr, "addr", "127.0.0.1:4000", "TCP ingest address of the running viewer")
	flag.StringVar(&socketPath, "socket", debugrpc.DefaultSocketPath(), "unix socket path for the debug channel")
	flag.StringVar(&debugTCP, "debug-tcp", "", "serve the debug channel on a TCP address instead of a unix socket")
	flag.Float64Var(&rate, "rate", 8, "synthetic lines per second")
	flag.DurationVar(&restartEvery, "restart-every", 0, "simulate an app restart at this interval (0 disables)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Lumen Sim - Instrumented App Stand-in\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	if err := runSim(targetAddr, socketPath, debugTCP, rate, restartEvery); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSim(targetAddr, socketPath, debugTCP string, rate float64, restartEvery time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emitter := NewEmitter(targetAddr, rate)
	state := newExtensionState()

	network, addr := "unix", socketPath
	if debugTCP != "" {
		network, addr = "tcp", debugTCP
	}
	srv := debugrpc.NewServer(network, addr)
	registerExtensions(srv, state, emitter.Inject)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start debug channel: %w", err)
	}
	defer srv.Stop()

	printSimBanner(targetAddr, network, srv.Addr(), rate, restartEvery)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return emitter.Run(gctx)
	})

	if restartEvery > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(restartEvery)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					emitter.Inject("app restarted")
					srv.Notify("app.started", map[string]string{"mode": "sim"})
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	return g.Wait()
}

func printSimBanner(targetAddr, network, debugAddr string, rate float64, restartEvery time.Duration) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	check := green.Render("●")

	var lines []string
	lines = append(lines, "")
	lines = append(lines, cyan.Bold(true).Render("    lumen-sim")+" "+dim.Render("v"+version))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Emitting to    %s  %s", check, cyan.Render(targetAddr), dim.Render(fmt.Sprintf("(%.0f lines/s)", rate))))
	lines = append(lines, fmt.Sprintf("    %s  Debug channel  %s", check, cyan.Render(network+"://"+debugAddr)))
	if restartEvery > 0 {
		lines = append(lines, fmt.Sprintf("    %s  App restart    %s", check, cyan.Render("every "+restartEvery.String())))
	}
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}
