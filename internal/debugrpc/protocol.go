package debugrpc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSON-RPC 2.0 Method Reference
//
// The debug channel carries viewer-to-app service extension calls and
// app-to-viewer notifications. Frames are newline-delimited JSON over a
// Unix domain socket (or TCP for the simulator).
//
//   Method                    Params                          Result
//   ──────────────────────    ────────────────────────────    ────────────────────────
//   ext.debugPaint            {"enabled": bool}               {"enabled": bool}
//   ext.performanceOverlay    {"enabled": bool}               {"enabled": bool}
//   ext.platformOverride      {"value": string}               {"value": string}
//   ext.slowAnimations        {"timeDilation": number}        {"timeDilation": number}
//   ext.inspectWidgets        {"enabled": bool}               {"enabled": bool}
//
// Notifications (no id, app to viewer):
//   app.started               (none)
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error (extension failure)

const (
	CodeParse          = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeServer         = -32000
)

// Request is a JSON-RPC 2.0 request. A nil ID marks a notification, which
// expects no response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// InvalidParams builds the standard invalid-params error.
func InvalidParams(err error) *RPCError {
	return &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
}

// ServerError builds an application-level error.
func ServerError(msg string) *RPCError {
	return &RPCError{Code: CodeServer, Message: msg}
}

// Notification is an id-less frame pushed by the far side.
type Notification struct {
	Method string
	Params json.RawMessage
}

// DefaultSocketPath returns the default Unix socket path for the debug
// channel. It prefers $XDG_RUNTIME_DIR/lumen/debug.sock, falling back to
// ~/.local/state/lumen/debug.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "lumen", "debug.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/lumen-debug.sock"
	}
	return filepath.Join(home, ".local", "state", "lumen", "debug.sock")
}
