package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/lumen/internal/debugrpc"
)

type announceRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *announceRecorder) record(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *announceRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func startTestExtensions(t *testing.T) (*debugrpc.Client, *extensionState, *announceRecorder) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "debug.sock")
	state := newExtensionState()
	recorder := &announceRecorder{}

	srv := debugrpc.NewServer("unix", socketPath)
	registerExtensions(srv, state, recorder.record)
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(srv.Stop)

	client, err := debugrpc.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client, state, recorder
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestBoolExtensionsRecordState(t *testing.T) {
	t.Parallel()

	client, state, recorder := startTestExtensions(t)
	ctx := callCtx(t)

	var result struct {
		Enabled bool `json:"enabled"`
	}
	if err := client.Call(ctx, "ext.debugPaint", map[string]bool{"enabled": true}, &result); err != nil {
		t.Fatalf("ext.debugPaint: %v", err)
	}
	if !result.Enabled {
		t.Fatal("result.Enabled = false, want true")
	}
	if !state.snapshot().debugPaint {
		t.Fatal("state.debugPaint = false, want true")
	}

	if err := client.Call(ctx, "ext.performanceOverlay", map[string]bool{"enabled": true}, nil); err != nil {
		t.Fatalf("ext.performanceOverlay: %v", err)
	}
	if err := client.Call(ctx, "ext.inspectWidgets", map[string]bool{"enabled": true}, nil); err != nil {
		t.Fatalf("ext.inspectWidgets: %v", err)
	}

	snap := state.snapshot()
	if !snap.perfOverlay || !snap.inspect {
		t.Fatalf("state = %+v, want overlay and inspect enabled", snap)
	}

	msgs := recorder.all()
	if len(msgs) != 3 {
		t.Fatalf("announcements = %v, want 3", msgs)
	}
	if msgs[0] != "debug paint enabled" {
		t.Fatalf("msgs[0] = %q, want %q", msgs[0], "debug paint enabled")
	}
}

func TestSlowAnimationsValidatesDilation(t *testing.T) {
	t.Parallel()

	client, state, _ := startTestExtensions(t)
	ctx := callCtx(t)

	if err := client.Call(ctx, "ext.slowAnimations", map[string]float64{"timeDilation": 5}, nil); err != nil {
		t.Fatalf("ext.slowAnimations: %v", err)
	}
	if got := state.snapshot().timeDilation; got != 5 {
		t.Fatalf("timeDilation = %g, want 5", got)
	}

	err := client.Call(ctx, "ext.slowAnimations", map[string]float64{"timeDilation": -1}, nil)
	if err == nil {
		t.Fatal("expected error for negative timeDilation")
	}
	if got := state.snapshot().timeDilation; got != 5 {
		t.Fatalf("timeDilation changed on rejected call: %g", got)
	}
}

func TestPlatformOverrideSetAndClear(t *testing.T) {
	t.Parallel()

	client, state, recorder := startTestExtensions(t)
	ctx := callCtx(t)

	if err := client.Call(ctx, "ext.platformOverride", map[string]string{"value": "android"}, nil); err != nil {
		t.Fatalf("set platform: %v", err)
	}
	if got := state.snapshot().platform; got != "android" {
		t.Fatalf("platform = %q, want android", got)
	}

	if err := client.Call(ctx, "ext.platformOverride", map[string]string{"value": ""}, nil); err != nil {
		t.Fatalf("clear platform: %v", err)
	}
	if got := state.snapshot().platform; got != "" {
		t.Fatalf("platform = %q, want empty", got)
	}

	msgs := recorder.all()
	if len(msgs) != 2 || msgs[1] != "platform override cleared" {
		t.Fatalf("announcements = %v", msgs)
	}
}
