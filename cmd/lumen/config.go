package main

import "github.com/tinytelemetry/lumen/internal/model"

const (
	defaultTCPAddr          = "127.0.0.1:4000"
	defaultOTLPAddr         = "127.0.0.1:4317"
	defaultHTTPAddr         = "127.0.0.1:3900"
	defaultMuxBufferSize    = DefaultMuxBuffer
	defaultRetentionMinutes = 0 // 0 = keep everything for the session
)

var (
	defaultDebounceMs    = int(model.DefaultRedisplayDebounce.Milliseconds())
	defaultScrollDelayMs = int(model.DefaultScrollDelay.Milliseconds())
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Inputs  inputsConfig  `mapstructure:"inputs"`
	HTTP    httpConfig    `mapstructure:"http"`
	Archive archiveConfig `mapstructure:"archive"`
	Debug   debugConfig   `mapstructure:"debug"`
	View    viewConfig    `mapstructure:"view"`
	Log     logConfig     `mapstructure:"log"`

	ConfigPath string `mapstructure:"-"` // not from config file
}

type inputsConfig struct {
	Stdin stdinInputConfig `mapstructure:"stdin"`
	TCP   tcpInputConfig   `mapstructure:"tcp"`
	File  fileInputConfig  `mapstructure:"file"`
	OTLP  otlpInputConfig  `mapstructure:"otlp"`
}

type stdinInputConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type tcpInputConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type fileInputConfig struct {
	Path string `mapstructure:"path"`
}

type otlpInputConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type httpConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type archiveConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	DBPath           string `mapstructure:"db_path"`
	RetentionMinutes int    `mapstructure:"retention_minutes"`
	JournalDir       string `mapstructure:"journal_dir"`
}

type debugConfig struct {
	Socket string `mapstructure:"socket"`
}

type viewConfig struct {
	DebounceMs    int `mapstructure:"debounce_ms"`
	ScrollDelayMs int `mapstructure:"scroll_delay_ms"`
}

type logConfig struct {
	Verbose bool `mapstructure:"verbose"`
}
