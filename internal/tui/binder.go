package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/lumen/internal/inspector"
	"github.com/tinytelemetry/lumen/internal/logview"
	"github.com/tinytelemetry/lumen/internal/model"
)

// TickMsg drives the periodic refresh of inspector state.
type TickMsg time.Time

// redisplayMsg carries a fresh filtered view from the logview model. done
// is invoked once the entries are applied so the model can schedule
// scroll-to-end against applied content.
type redisplayMsg struct {
	entries []*model.Entry
	done    func()
}

// scrollToEndMsg pins the log pane to the last entry.
type scrollToEndMsg struct{}

// countsMsg reports the view's entry counts after a reload.
type countsMsg struct {
	filteredOut int
	total       int
}

// inspectorResultMsg is the outcome of an asynchronous toggle call.
type inspectorResultMsg struct {
	state    inspector.State
	attached bool
	err      error
}

// Sender is the slice of *tea.Program the binder needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Binder bridges the logview model's render callbacks into the bubbletea
// message loop. Both callbacks arrive on the view model's owner goroutine;
// Send hands them to the program thread-safely.
type Binder struct {
	sender Sender
}

// NewBinder wraps a running program (or any Sender).
func NewBinder(s Sender) *Binder {
	return &Binder{sender: s}
}

// Redisplay forwards the new filtered view into the program.
func (b *Binder) Redisplay(entries []*model.Entry, done func()) {
	b.sender.Send(redisplayMsg{entries: entries, done: done})
}

// ScrollToEnd forwards a pin-to-end request into the program.
func (b *Binder) ScrollToEnd() {
	b.sender.Send(scrollToEndMsg{})
}

// CountListener returns a listener that forwards count reports into the
// program. Register it on the logview model alongside Bind.
func (b *Binder) CountListener() logview.CountListener {
	return logview.CountListenerFunc(func(filteredOut, total int) {
		b.sender.Send(countsMsg{filteredOut: filteredOut, total: total})
	})
}
