package tui

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/lumen/internal/inspector"
	"github.com/tinytelemetry/lumen/internal/logview"
	"github.com/tinytelemetry/lumen/internal/settings"
)

// recordingCaller accepts every extension call and records the methods.
type recordingCaller struct {
	mu      sync.Mutex
	methods []string
}

func (c *recordingCaller) Call(_ context.Context, method string, _, _ interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.methods = append(c.methods, method)
	return nil
}

func (c *recordingCaller) called() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.methods...)
}

func TestManualScrollReleasesFollow(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.Update(redisplayMsg{entries: testEntries(50)})

	if got, want := m.scrollOffset, m.maxScrollOffset(); got != want {
		t.Fatalf("initial offset = %d, want pinned to %d", got, want)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.autoScroll {
		t.Fatal("scrolling up did not release follow")
	}
	if m.view.AutoScroll() {
		t.Fatal("view model still follows after manual scroll")
	}
	if got, want := m.scrollOffset, m.maxScrollOffset()-1; got != want {
		t.Fatalf("offset after up = %d, want %d", got, want)
	}
}

func TestScrollingToBottomReengagesFollow(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.Update(redisplayMsg{entries: testEntries(50)})

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.autoScroll {
		t.Fatal("follow should be off after scrolling up")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.autoScroll {
		t.Fatal("follow re-engaged before reaching the bottom")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if !m.autoScroll {
		t.Fatal("reaching the bottom edge should re-engage follow")
	}
}

func TestHomeAndEndKeys(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.Update(redisplayMsg{entries: testEntries(80)})

	m.Update(tea.KeyMsg{Type: tea.KeyHome})
	if m.scrollOffset != 0 {
		t.Fatalf("offset after home = %d, want 0", m.scrollOffset)
	}
	if m.autoScroll {
		t.Fatal("home should release follow")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	if got, want := m.scrollOffset, m.maxScrollOffset(); got != want {
		t.Fatalf("offset after end = %d, want %d", got, want)
	}
	if !m.autoScroll {
		t.Fatal("end should re-engage follow")
	}
}

func TestPageKeysMoveByLogPage(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.Update(redisplayMsg{entries: testEntries(100)})

	before := m.scrollOffset
	m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	if got, want := m.scrollOffset, before-m.logRows(); got != want {
		t.Fatalf("offset after pgup = %d, want %d", got, want)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	if got := m.scrollOffset; got != before {
		t.Fatalf("offset after pgdown = %d, want %d", got, before)
	}
}

func TestMouseWheelScrolls(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.Update(redisplayMsg{entries: testEntries(60)})

	before := m.scrollOffset
	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if got, want := m.scrollOffset, before-3; got != want {
		t.Fatalf("offset after wheel up = %d, want %d", got, want)
	}
	if m.autoScroll {
		t.Fatal("wheel up should release follow")
	}
}

func TestColumnToggleKeysPersist(t *testing.T) {
	t.Parallel()

	store, err := settings.NewStore(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	m := newTestModel(t, Config{Settings: store})

	m.Update(keyMsg("t"))
	if m.columns.Visible(logview.ColumnTime) {
		t.Fatal("t did not hide the time column")
	}
	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.VisibleColumns[logview.ColumnTime] {
		t.Fatal("hidden time column was not persisted")
	}
	if !st.VisibleColumns[logview.ColumnCategory] {
		t.Fatal("untouched columns should persist as visible")
	}

	m.Update(keyMsg("s"))
	m.Update(keyMsg("l"))
	m.Update(keyMsg("c"))
	for _, name := range []string{logview.ColumnSequence, logview.ColumnLevel, logview.ColumnCategory} {
		if m.columns.Visible(name) {
			t.Fatalf("column %s should be hidden", name)
		}
	}

	m.Update(keyMsg("t"))
	if !m.columns.Visible(logview.ColumnTime) {
		t.Fatal("second t did not restore the time column")
	}
}

func TestInspectorToggleRoundtrip(t *testing.T) {
	t.Parallel()

	caller := &recordingCaller{}
	ctrl := inspector.NewController()
	ctrl.Attach(caller)

	m := newTestModel(t, Config{Inspector: ctrl})

	_, cmd := m.Update(keyMsg("1"))
	if cmd == nil {
		t.Fatal("toggle key returned no command")
	}
	msg := cmd()
	res, ok := msg.(inspectorResultMsg)
	if !ok {
		t.Fatalf("command produced %T, want inspectorResultMsg", msg)
	}
	m.Update(res)

	if !m.inspState.DebugPaint {
		t.Fatal("debug paint should be on after the toggle")
	}
	if m.inspErr != "" {
		t.Fatalf("unexpected inspector error: %q", m.inspErr)
	}
	methods := caller.called()
	if len(methods) != 1 || methods[0] != "ext.debugPaint" {
		t.Fatalf("called methods = %v, want [ext.debugPaint]", methods)
	}
}

func TestInspectorToggleWhileDetached(t *testing.T) {
	t.Parallel()

	ctrl := inspector.NewController()
	m := newTestModel(t, Config{Inspector: ctrl})

	_, cmd := m.Update(keyMsg("3"))
	if cmd == nil {
		t.Fatal("toggle key returned no command")
	}
	m.Update(cmd())

	if m.inspErr == "" {
		t.Fatal("detached toggle should surface an error")
	}
	if m.inspState.Platform != "" {
		t.Fatalf("platform = %q, want no override after failed toggle", m.inspState.Platform)
	}
}

func TestInspectorToggleWithoutController(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	_, cmd := m.Update(keyMsg("2"))
	if cmd != nil {
		t.Fatal("no controller should mean no command")
	}
	if m.inspErr == "" {
		t.Fatal("missing controller should surface the unavailable error")
	}
}

func TestTickRefreshesInspectorState(t *testing.T) {
	t.Parallel()

	ctrl := inspector.NewController()
	m := newTestModel(t, Config{Inspector: ctrl})
	if m.attached {
		t.Fatal("controller starts detached")
	}

	ctrl.Attach(&recordingCaller{})
	_, cmd := m.Update(TickMsg(time.Now()))
	if !m.attached {
		t.Fatal("tick did not pick up the attached channel")
	}
	if cmd == nil {
		t.Fatal("tick must reschedule itself")
	}
}
