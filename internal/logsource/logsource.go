package logsource

import "github.com/tinytelemetry/lumen/internal/model"

// LogSource is the unified interface over all line-oriented inputs
// (TCP, file follow, stdin). A source that cannot start or runs dry just
// closes its channel; missing input is zero entries, never an error.
type LogSource interface {
	Lines() <-chan model.IngestEnvelope // read-only channel of log lines
	Stop()                              // graceful shutdown, idempotent
	Name() string                       // "tcp", "file", "stdin"
}
