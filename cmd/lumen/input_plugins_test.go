package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildInputPlugins_RegistersPrimitives(t *testing.T) {
	t.Parallel()

	plugins := buildInputPlugins(InputPluginConfig{
		TCPEnabled:   true,
		TCPAddr:      "127.0.0.1:4000",
		FilePath:     "/var/log/app.log",
		StdinEnabled: true,
	})

	if len(plugins) != 3 {
		t.Fatalf("expected 3 plugins, got %d", len(plugins))
	}
	if plugins[0].Name() != "tcp" {
		t.Fatalf("plugins[0] name = %q, want %q", plugins[0].Name(), "tcp")
	}
	if plugins[1].Name() != "file" {
		t.Fatalf("plugins[1] name = %q, want %q", plugins[1].Name(), "file")
	}
	if plugins[2].Name() != "stdin" {
		t.Fatalf("plugins[2] name = %q, want %q", plugins[2].Name(), "stdin")
	}
	if !plugins[0].Enabled() {
		t.Fatal("expected tcp plugin to be enabled when TCPEnabled=true")
	}
	if !plugins[1].Enabled() {
		t.Fatal("expected file plugin to be enabled when a path is set")
	}
}

func TestBuildInputPlugins_TCPDisabled(t *testing.T) {
	t.Parallel()

	plugins := buildInputPlugins(InputPluginConfig{
		TCPEnabled: false,
		TCPAddr:    "127.0.0.1:4000",
	})

	if plugins[0].Enabled() {
		t.Fatal("expected tcp plugin to be disabled when TCPEnabled=false")
	}
}

func TestBuildInputPlugins_FileRequiresPath(t *testing.T) {
	t.Parallel()

	plugins := buildInputPlugins(InputPluginConfig{FilePath: ""})
	if plugins[1].Enabled() {
		t.Fatal("expected file plugin to be disabled without a path")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetLumenEnv(t)

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}

	if !cfg.Inputs.TCP.Enabled {
		t.Fatal("tcp input should default to enabled")
	}
	if cfg.Inputs.TCP.Addr != defaultTCPAddr {
		t.Fatalf("tcp addr = %q, want %q", cfg.Inputs.TCP.Addr, defaultTCPAddr)
	}
	if !cfg.Inputs.Stdin.Enabled {
		t.Fatal("stdin input should default to enabled")
	}
	if cfg.Inputs.OTLP.Enabled || cfg.HTTP.Enabled || cfg.Archive.Enabled {
		t.Fatal("otlp, http and archive should default to disabled")
	}
	if cfg.Debug.Socket == "" {
		t.Fatal("debug socket should have a default path")
	}
	if cfg.View.DebounceMs != defaultDebounceMs {
		t.Fatalf("debounce_ms = %d, want %d", cfg.View.DebounceMs, defaultDebounceMs)
	}
	if cfg.View.ScrollDelayMs != defaultScrollDelayMs {
		t.Fatalf("scroll_delay_ms = %d, want %d", cfg.View.ScrollDelayMs, defaultScrollDelayMs)
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	resetLumenEnv(t)

	configPath := writeTempConfig(t, `
inputs:
  tcp:
    addr: 0.0.0.0:5140
  otlp:
    enabled: true
    addr: 127.0.0.1:14317
http:
  enabled: true
  addr: 127.0.0.1:3901
view:
  debounce_ms: 25
`)

	cfg, err := loadConfig(configPath)
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}

	if cfg.Inputs.TCP.Addr != "0.0.0.0:5140" {
		t.Fatalf("tcp addr = %q, want %q", cfg.Inputs.TCP.Addr, "0.0.0.0:5140")
	}
	if !cfg.Inputs.OTLP.Enabled || cfg.Inputs.OTLP.Addr != "127.0.0.1:14317" {
		t.Fatalf("otlp config = %+v", cfg.Inputs.OTLP)
	}
	if !cfg.HTTP.Enabled || cfg.HTTP.Addr != "127.0.0.1:3901" {
		t.Fatalf("http config = %+v", cfg.HTTP)
	}
	if cfg.View.DebounceMs != 25 {
		t.Fatalf("debounce_ms = %d, want 25", cfg.View.DebounceMs)
	}
	if cfg.ConfigPath != configPath {
		t.Fatalf("ConfigPath = %q, want %q", cfg.ConfigPath, configPath)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	resetLumenEnv(t)
	t.Setenv("LUMEN_INPUTS_TCP_ADDR", "127.0.0.1:9999")
	t.Setenv("LUMEN_ARCHIVE_ENABLED", "true")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}

	if cfg.Inputs.TCP.Addr != "127.0.0.1:9999" {
		t.Fatalf("tcp addr = %q, want env override", cfg.Inputs.TCP.Addr)
	}
	if !cfg.Archive.Enabled {
		t.Fatal("archive should be enabled via env")
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	resetLumenEnv(t)

	tests := []struct {
		name         string
		configYAML   string
		errSubstring string
	}{
		{
			name: "invalid tcp addr rejected",
			configYAML: `
inputs:
  tcp:
    addr: not-an-addr
`,
			errSubstring: "inputs.tcp.addr",
		},
		{
			name: "invalid http addr rejected",
			configYAML: `
http:
  enabled: true
  addr: "127.0.0.1"
`,
			errSubstring: "http.addr",
		},
		{
			name: "negative retention rejected",
			configYAML: `
archive:
  retention_minutes: -5
`,
			errSubstring: "archive.retention_minutes",
		},
		{
			name: "archive requires journal dir",
			configYAML: `
archive:
  enabled: true
  journal_dir: ""
`,
			errSubstring: "archive.journal_dir",
		},
		{
			name:         "malformed config is fatal",
			configYAML:   "inputs: [not: a map",
			errSubstring: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeTempConfig(t, tt.configYAML)
			_, err := loadConfig(configPath)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.errSubstring != "" && !strings.Contains(err.Error(), tt.errSubstring) {
				t.Fatalf("error = %q, want substring %q", err.Error(), tt.errSubstring)
			}
		})
	}
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	resetLumenEnv(t)

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("user home dir: %v", err)
	}

	configPath := writeTempConfig(t, `
inputs:
  file:
    path: ~/logs/app.log
archive:
  db_path: ~/archive/lumen.duckdb
`)

	cfg, err := loadConfig(configPath)
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}

	wantFile := filepath.Join(home, "logs", "app.log")
	if cfg.Inputs.File.Path != wantFile {
		t.Fatalf("file path = %q, want %q", cfg.Inputs.File.Path, wantFile)
	}
	wantDB := filepath.Join(home, "archive", "lumen.duckdb")
	if cfg.Archive.DBPath != wantDB {
		t.Fatalf("db path = %q, want %q", cfg.Archive.DBPath, wantDB)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "lumen.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func resetLumenEnv(t *testing.T) {
	t.Helper()

	original := make(map[string]string)
	existed := make(map[string]bool)

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "LUMEN_") {
			continue
		}
		original[key] = value
		existed[key] = true
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}

	t.Cleanup(func() {
		for key := range existed {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("cleanup unset %s: %v", key, err)
			}
		}
		for key, value := range original {
			if err := os.Setenv(key, value); err != nil {
				t.Fatalf("cleanup restore %s: %v", key, err)
			}
		}
	})
}
