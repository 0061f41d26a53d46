// Package inspector drives an instrumented app's debug service extensions
// over the debug channel: debug paint, performance overlay, platform
// override, slow animations, widget inspection.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/lumen/internal/debugrpc"
)

// ErrUnavailable reports that no debug channel is attached. Toggles are
// inert without one; the viewer keeps running.
var ErrUnavailable = errors.New("inspector: debug channel unavailable")

// DefaultCallTimeout bounds a single extension call.
const DefaultCallTimeout = 3 * time.Second

// platforms is the override cycle order.
var platforms = []string{"android", "iOS", "fuchsia"}

// Toggle identifies one service extension.
type Toggle int

const (
	DebugPaint Toggle = iota
	PerformanceOverlay
	PlatformOverride
	SlowAnimations
	InspectWidgets
)

// Toggles lists every extension in display order.
var Toggles = []Toggle{DebugPaint, PerformanceOverlay, PlatformOverride, SlowAnimations, InspectWidgets}

func (t Toggle) String() string {
	switch t {
	case DebugPaint:
		return "Debug paint"
	case PerformanceOverlay:
		return "Performance overlay"
	case PlatformOverride:
		return "Platform override"
	case SlowAnimations:
		return "Slow animations"
	case InspectWidgets:
		return "Widget inspection"
	default:
		return "unknown"
	}
}

// Method returns the RPC method backing the toggle.
func (t Toggle) Method() string {
	switch t {
	case DebugPaint:
		return "ext.debugPaint"
	case PerformanceOverlay:
		return "ext.performanceOverlay"
	case PlatformOverride:
		return "ext.platformOverride"
	case SlowAnimations:
		return "ext.slowAnimations"
	case InspectWidgets:
		return "ext.inspectWidgets"
	default:
		return ""
	}
}

// Caller is the slice of debugrpc.Client the controller needs.
type Caller interface {
	Call(ctx context.Context, method string, params, dest interface{}) error
}

// State is a snapshot of every toggle. An empty Platform means no
// override is active.
type State struct {
	DebugPaint         bool
	PerformanceOverlay bool
	SlowAnimations     bool
	InspectWidgets     bool
	Platform           string
}

// Config holds optional controller settings.
type Config struct {
	CallTimeout time.Duration
}

// Controller tracks the desired state of each toggle and replays it when
// the app restarts. State only changes after the extension call succeeds,
// so the viewer never shows a toggle the app rejected.
type Controller struct {
	timeout time.Duration

	mu          sync.Mutex
	caller      Caller
	debugPaint  bool
	perfOverlay bool
	slowAnims   bool
	inspect     bool
	platformIdx int // index+1 into platforms, 0 = no override
}

// NewController creates a detached controller.
func NewController(cfgs ...Config) *Controller {
	timeout := DefaultCallTimeout
	if len(cfgs) > 0 && cfgs[0].CallTimeout > 0 {
		timeout = cfgs[0].CallTimeout
	}
	return &Controller{timeout: timeout}
}

// Attach binds the controller to a debug channel.
func (c *Controller) Attach(caller Caller) {
	c.mu.Lock()
	c.caller = caller
	c.mu.Unlock()
}

// Detach drops the channel. Desired state is kept for the next Attach.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.caller = nil
	c.mu.Unlock()
}

// Attached reports whether a debug channel is bound.
func (c *Controller) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caller != nil
}

// State returns a snapshot of every toggle.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	s := State{
		DebugPaint:         c.debugPaint,
		PerformanceOverlay: c.perfOverlay,
		SlowAnimations:     c.slowAnims,
		InspectWidgets:     c.inspect,
	}
	if c.platformIdx > 0 {
		s.Platform = platforms[c.platformIdx-1]
	}
	return s
}

// Toggle flips a boolean extension or advances the platform cycle. The
// new state is recorded only when the call succeeds.
func (c *Controller) Toggle(t Toggle) error {
	c.mu.Lock()
	caller := c.caller
	c.mu.Unlock()
	if caller == nil {
		return ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	switch t {
	case DebugPaint, PerformanceOverlay, InspectWidgets:
		c.mu.Lock()
		next := !*c.boolFor(t)
		c.mu.Unlock()
		if err := caller.Call(ctx, t.Method(), map[string]bool{"enabled": next}, nil); err != nil {
			return fmt.Errorf("inspector: %s: %w", t.Method(), err)
		}
		c.mu.Lock()
		*c.boolFor(t) = next
		c.mu.Unlock()
		return nil

	case SlowAnimations:
		c.mu.Lock()
		next := !c.slowAnims
		c.mu.Unlock()
		if err := caller.Call(ctx, t.Method(), map[string]float64{"timeDilation": dilation(next)}, nil); err != nil {
			return fmt.Errorf("inspector: %s: %w", t.Method(), err)
		}
		c.mu.Lock()
		c.slowAnims = next
		c.mu.Unlock()
		return nil

	case PlatformOverride:
		c.mu.Lock()
		next := c.platformIdx%len(platforms) + 1
		value := platforms[next-1]
		c.mu.Unlock()
		if err := caller.Call(ctx, t.Method(), map[string]string{"value": value}, nil); err != nil {
			return fmt.Errorf("inspector: %s: %w", t.Method(), err)
		}
		c.mu.Lock()
		c.platformIdx = next
		c.mu.Unlock()
		return nil

	default:
		return fmt.Errorf("inspector: unknown toggle %d", t)
	}
}

// boolFor must be called with c.mu held.
func (c *Controller) boolFor(t Toggle) *bool {
	switch t {
	case DebugPaint:
		return &c.debugPaint
	case PerformanceOverlay:
		return &c.perfOverlay
	default:
		return &c.inspect
	}
}

func dilation(slow bool) float64 {
	if slow {
		return 5.0
	}
	return 1.0
}

// Reapply re-sends every active toggle. A restarted app comes up with
// extensions reset, so the viewer pushes its desired state back.
func (c *Controller) Reapply() error {
	c.mu.Lock()
	caller := c.caller
	state := c.stateLocked()
	c.mu.Unlock()
	if caller == nil {
		return ErrUnavailable
	}

	type call struct {
		method string
		params interface{}
	}
	var calls []call
	if state.DebugPaint {
		calls = append(calls, call{DebugPaint.Method(), map[string]bool{"enabled": true}})
	}
	if state.PerformanceOverlay {
		calls = append(calls, call{PerformanceOverlay.Method(), map[string]bool{"enabled": true}})
	}
	if state.InspectWidgets {
		calls = append(calls, call{InspectWidgets.Method(), map[string]bool{"enabled": true}})
	}
	if state.SlowAnimations {
		calls = append(calls, call{SlowAnimations.Method(), map[string]float64{"timeDilation": dilation(true)}})
	}
	if state.Platform != "" {
		calls = append(calls, call{PlatformOverride.Method(), map[string]string{"value": state.Platform}})
	}

	failed := 0
	for _, cl := range calls {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		err := caller.Call(ctx, cl.method, cl.params, nil)
		cancel()
		if err != nil {
			failed++
			log.Printf("inspector: reapply %s: %v", cl.method, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("inspector: reapply: %d of %d extensions failed", failed, len(calls))
	}
	return nil
}

// Watch consumes debug channel notifications until the channel closes,
// reapplying toggles whenever the app reports a (re)start. Run it in its
// own goroutine.
func (c *Controller) Watch(notes <-chan debugrpc.Notification) {
	for note := range notes {
		if note.Method != "app.started" {
			continue
		}
		if err := c.Reapply(); err != nil && !errors.Is(err, ErrUnavailable) {
			log.Printf("inspector: %v", err)
		}
	}
}
