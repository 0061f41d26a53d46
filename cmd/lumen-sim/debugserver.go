package main

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tinytelemetry/lumen/internal/debugrpc"
)

// extensionState mirrors what a real instrumented app would track for the
// inspector's service extensions.
type extensionState struct {
	mu           sync.Mutex
	debugPaint   bool
	perfOverlay  bool
	inspect      bool
	timeDilation float64
	platform     string
}

func newExtensionState() *extensionState {
	return &extensionState{timeDilation: 1.0}
}

// extensionSnapshot is a plain copy of the current toggle values.
type extensionSnapshot struct {
	debugPaint   bool
	perfOverlay  bool
	inspect      bool
	timeDilation float64
	platform     string
}

func (st *extensionState) snapshot() extensionSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return extensionSnapshot{
		debugPaint:   st.debugPaint,
		perfOverlay:  st.perfOverlay,
		inspect:      st.inspect,
		timeDilation: st.timeDilation,
		platform:     st.platform,
	}
}

// registerExtensions wires the five service extension methods onto the
// debug channel server. Each call records the requested state and reports
// it back through the emitter so the round trip shows up in the viewer.
func registerExtensions(srv *debugrpc.Server, st *extensionState, announce func(string)) {
	boolExt := func(name string, target *bool) debugrpc.Handler {
		return func(params json.RawMessage) (interface{}, *debugrpc.RPCError) {
			var req struct {
				Enabled bool `json:"enabled"`
			}
			if err := json.Unmarshal(params, &req); err != nil {
				return nil, debugrpc.InvalidParams(err)
			}
			st.mu.Lock()
			*target = req.Enabled
			st.mu.Unlock()
			announce(fmt.Sprintf("%s %s", name, onOff(req.Enabled)))
			return map[string]bool{"enabled": req.Enabled}, nil
		}
	}

	srv.Handle("ext.debugPaint", boolExt("debug paint", &st.debugPaint))
	srv.Handle("ext.performanceOverlay", boolExt("performance overlay", &st.perfOverlay))
	srv.Handle("ext.inspectWidgets", boolExt("widget inspection", &st.inspect))

	srv.Handle("ext.slowAnimations", func(params json.RawMessage) (interface{}, *debugrpc.RPCError) {
		var req struct {
			TimeDilation float64 `json:"timeDilation"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, debugrpc.InvalidParams(err)
		}
		if req.TimeDilation <= 0 {
			return nil, debugrpc.InvalidParams(fmt.Errorf("timeDilation must be > 0, got %v", req.TimeDilation))
		}
		st.mu.Lock()
		st.timeDilation = req.TimeDilation
		st.mu.Unlock()
		announce(fmt.Sprintf("time dilation set to %g", req.TimeDilation))
		return map[string]float64{"timeDilation": req.TimeDilation}, nil
	})

	srv.Handle("ext.platformOverride", func(params json.RawMessage) (interface{}, *debugrpc.RPCError) {
		var req struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, debugrpc.InvalidParams(err)
		}
		st.mu.Lock()
		st.platform = req.Value
		st.mu.Unlock()
		if req.Value == "" {
			announce("platform override cleared")
		} else {
			announce("platform override " + req.Value)
		}
		return map[string]string{"value": req.Value}, nil
	})
}

func onOff(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
