package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinytelemetry/lumen/internal/debugrpc"

	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var filePath string
	var tcpAddr string
	var httpAddr string
	var socketPath string
	var verbose bool
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/lumen/lumen.yaml)")
	flag.StringVar(&filePath, "file", "", "follow a log file in addition to configured inputs")
	flag.StringVar(&tcpAddr, "tcp-addr", "", "override TCP ingest listen address")
	flag.StringVar(&httpAddr, "http-addr", "", "override HTTP API listen address")
	flag.StringVar(&socketPath, "socket", "", "override debug channel socket path")
	flag.BoolVar(&verbose, "verbose", false, "verbose runtime logging")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Lumen - Streaming Log Viewer\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if filePath != "" {
		cfg.Inputs.File.Path = filePath
	}
	if tcpAddr != "" {
		cfg.Inputs.TCP.Addr = tcpAddr
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if socketPath != "" {
		cfg.Debug.Socket = socketPath
	}
	if verbose {
		cfg.Log.Verbose = true
	}

	if err := runViewer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "lumen", "lumen.duckdb")
	defaultJournalDir := filepath.Join(home, ".local", "state", "lumen")

	v := viper.New()
	v.SetEnvPrefix("LUMEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("inputs.stdin.enabled", true)
	v.SetDefault("inputs.tcp.enabled", true)
	v.SetDefault("inputs.tcp.addr", defaultTCPAddr)
	v.SetDefault("inputs.file.path", "")
	v.SetDefault("inputs.otlp.enabled", false)
	v.SetDefault("inputs.otlp.addr", defaultOTLPAddr)
	v.SetDefault("http.enabled", false)
	v.SetDefault("http.addr", defaultHTTPAddr)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.db_path", defaultDBPath)
	v.SetDefault("archive.retention_minutes", defaultRetentionMinutes)
	v.SetDefault("archive.journal_dir", defaultJournalDir)
	v.SetDefault("debug.socket", debugrpc.DefaultSocketPath())
	v.SetDefault("view.debounce_ms", defaultDebounceMs)
	v.SetDefault("view.scroll_delay_ms", defaultScrollDelayMs)
	v.SetDefault("log.verbose", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "lumen", "lumen.yaml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.Inputs.TCP.Enabled {
		if err := validateAddr("inputs.tcp.addr", cfg.Inputs.TCP.Addr); err != nil {
			return cfg, err
		}
	}
	if cfg.Inputs.OTLP.Enabled {
		if err := validateAddr("inputs.otlp.addr", cfg.Inputs.OTLP.Addr); err != nil {
			return cfg, err
		}
	}
	if cfg.HTTP.Enabled {
		if err := validateAddr("http.addr", cfg.HTTP.Addr); err != nil {
			return cfg, err
		}
	}
	if cfg.Archive.RetentionMinutes < 0 {
		return cfg, fmt.Errorf("invalid archive.retention_minutes: %d", cfg.Archive.RetentionMinutes)
	}
	if cfg.Archive.Enabled && strings.TrimSpace(cfg.Archive.JournalDir) == "" {
		return cfg, errors.New("archive.journal_dir must be set when the archive is enabled")
	}
	if cfg.View.DebounceMs < 0 || cfg.View.ScrollDelayMs < 0 {
		return cfg, errors.New("view.debounce_ms and view.scroll_delay_ms must be >= 0")
	}

	cfg.Inputs.File.Path = expandHome(home, cfg.Inputs.File.Path)
	cfg.Archive.DBPath = expandHome(home, cfg.Archive.DBPath)
	cfg.Archive.JournalDir = expandHome(home, cfg.Archive.JournalDir)
	cfg.Debug.Socket = expandHome(home, cfg.Debug.Socket)

	return cfg, nil
}

func validateAddr(key, addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, addr, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("invalid %s %q: missing host or port", key, addr)
	}
	return nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
