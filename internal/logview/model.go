package logview

import (
	"sync"
	"time"

	"github.com/tinytelemetry/lumen/internal/model"
)

// ViewBinder is the render layer seen from the model. Redisplay hands over
// the new filtered view and a completion callback; the binder calls done
// once the entries are applied so the model can schedule scroll-to-end
// against laid-out content. ScrollToEnd pins the view to the last entry.
// Both may be called from the model's owner goroutine at any time.
type ViewBinder interface {
	Redisplay(entries []*model.Entry, done func())
	ScrollToEnd()
}

// Config tunes the model's scheduling behavior. Zero values fall back to
// the shared defaults.
type Config struct {
	// Debounce is how long an append-driven redisplay stays cancelable.
	// Appends inside the window supersede the pending redisplay, so bursts
	// coalesce into one visual update.
	Debounce time.Duration

	// ScrollDelay bounds the wait for the binder's redisplay-complete
	// callback before scroll-to-end fires anyway.
	ScrollDelay time.Duration
}

// Model is the streaming/filtering core: the full append-only log, the
// derived filtered view, and the scheduling that turns appends into
// coalesced redisplays. All state below the task queue is confined to the
// run goroutine; exported methods are safe from any goroutine and become
// silent no-ops after Dispose.
type Model struct {
	tasks chan func()
	quit  chan struct{}
	dead  chan struct{}
	once  sync.Once

	debounce    time.Duration
	scrollDelay time.Duration

	// Owner-confined state. Only run() touches these.
	full       []*model.Entry
	filtered   []*model.Entry
	filter     *EntryFilter
	autoScroll bool
	binder     ViewBinder
	counts     countDispatcher

	redisplayGen int
	scrollGen    int
}

// New starts the model's owner goroutine and returns the model with
// auto-scroll enabled and no filter.
func New(cfgs ...Config) *Model {
	var cfg Config
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = model.DefaultRedisplayDebounce
	}
	if cfg.ScrollDelay <= 0 {
		cfg.ScrollDelay = model.DefaultScrollDelay
	}
	m := &Model{
		tasks:       make(chan func(), 256),
		quit:        make(chan struct{}),
		dead:        make(chan struct{}),
		debounce:    cfg.Debounce,
		scrollDelay: cfg.ScrollDelay,
		autoScroll:  true,
	}
	go m.run()
	return m
}

func (m *Model) run() {
	defer close(m.dead)
	for {
		// Disposal drops everything still queued.
		select {
		case <-m.quit:
			return
		default:
		}
		select {
		case <-m.quit:
			return
		case fn := <-m.tasks:
			fn()
		}
	}
}

// post hands fn to the owner goroutine. After disposal the work is dropped
// and post reports false.
func (m *Model) post(fn func()) bool {
	select {
	case m.tasks <- fn:
		return true
	case <-m.quit:
		return false
	}
}

// read posts fn and waits for it to run, so callers can copy owner state
// out. It reports false when the model was disposed before fn ran.
func (m *Model) read(fn func()) bool {
	ran := make(chan struct{})
	if !m.post(func() { fn(); close(ran) }) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-m.dead:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Append adds entries to the tail of the full log in arrival order and
// schedules a debounced redisplay, followed by scroll-to-end when
// auto-scroll is on. Empty batches do nothing.
func (m *Model) Append(entries []*model.Entry) {
	if len(entries) == 0 {
		return
	}
	batch := make([]*model.Entry, len(entries))
	copy(batch, entries)
	m.post(func() {
		m.full = append(m.full, batch...)
		m.scheduleRedisplay(true)
	})
}

// SetFilter installs f as the active filter and triggers a full
// recomputation of the filtered view. Setting a filter equal to the current
// one is a no-op. A nil filter shows everything.
func (m *Model) SetFilter(f *EntryFilter) {
	m.post(func() {
		if f.Equal(m.filter) {
			return
		}
		m.filter = f
		m.scheduleReload()
	})
}

// Filter returns the active filter, nil when none is set.
func (m *Model) Filter() *EntryFilter {
	var f *EntryFilter
	m.read(func() { f = m.filter })
	return f
}

// Reload re-derives the filtered view from the full log and reports counts,
// asynchronously on the owner goroutine.
func (m *Model) Reload() {
	m.post(func() { m.scheduleReload() })
}

// Clear atomically empties the full log and the filtered view, then
// triggers a reload so the display and counts follow.
func (m *Model) Clear() {
	m.post(func() {
		m.full = nil
		m.filtered = nil
		m.scheduleReload()
	})
}

// ScrollToEnd advances the attached view to the last entry. Without a
// bound view this does nothing.
func (m *Model) ScrollToEnd() {
	m.post(func() {
		if m.binder != nil {
			m.binder.ScrollToEnd()
		}
	})
}

// SetAutoScroll switches scroll-to-end scheduling after redisplays.
func (m *Model) SetAutoScroll(on bool) {
	m.post(func() { m.autoScroll = on })
}

// AutoScroll reports whether scroll-to-end follows redisplays.
func (m *Model) AutoScroll() bool {
	var on bool
	m.read(func() { on = m.autoScroll })
	return on
}

// Bind attaches the render layer and pushes the current view to it.
func (m *Model) Bind(b ViewBinder) {
	m.post(func() {
		m.binder = b
		m.scheduleReload()
	})
}

// AddCountListener registers l for count reports after every reload and
// returns its removal func. Both directions are safe around disposal.
func (m *Model) AddCountListener(l CountListener) (remove func()) {
	ids := make(chan int, 1)
	if !m.post(func() { ids <- m.counts.add(l) }) {
		return func() {}
	}
	select {
	case id := <-ids:
		return func() {
			m.post(func() { m.counts.remove(id) })
		}
	case <-m.dead:
		return func() {}
	}
}

// Snapshot returns a copy of the full log in arrival order. A disposed
// model returns nil.
func (m *Model) Snapshot() []*model.Entry {
	var out []*model.Entry
	m.read(func() { out = append([]*model.Entry(nil), m.full...) })
	return out
}

// FilteredSnapshot returns a copy of the current filtered view.
func (m *Model) FilteredSnapshot() []*model.Entry {
	var out []*model.Entry
	m.read(func() { out = append([]*model.Entry(nil), m.filtered...) })
	return out
}

// Counts returns how many entries the active filter hides and the total.
func (m *Model) Counts() (filteredOut, total int) {
	m.read(func() {
		filteredOut = len(m.full) - len(m.filtered)
		total = len(m.full)
	})
	return filteredOut, total
}

// Dispose stops the owner goroutine, dropping queued and pending work.
// Every operation on a disposed model is a silent no-op. Idempotent.
func (m *Model) Dispose() {
	m.once.Do(func() { close(m.quit) })
}

// Done is closed once the owner goroutine has exited.
func (m *Model) Done() <-chan struct{} {
	return m.dead
}

// scheduleRedisplay arms the debounced redisplay, superseding any pending
// redisplay and any not-yet-fired scroll. Owner goroutine only.
func (m *Model) scheduleRedisplay(withScroll bool) {
	m.redisplayGen++
	m.scrollGen++
	gen := m.redisplayGen
	time.AfterFunc(m.debounce, func() {
		m.post(func() { m.redisplay(gen, withScroll) })
	})
}

// scheduleReload queues an undebounced recompute for the next loop turn,
// superseding a pending append redisplay (its entries are already in the
// full log). Owner goroutine only.
func (m *Model) scheduleReload() {
	m.redisplayGen++
	gen := m.redisplayGen
	m.post(func() { m.redisplay(gen, false) })
}

// redisplay is the single reload path: re-derive the filtered view from
// the full log, report counts, hand the view to the binder, and arrange
// scroll-to-end. Superseded generations return immediately.
func (m *Model) redisplay(gen int, withScroll bool) {
	if gen != m.redisplayGen {
		return
	}
	m.recompute()
	m.counts.dispatch(len(m.full)-len(m.filtered), len(m.full))
	if m.binder == nil {
		return
	}
	view := make([]*model.Entry, len(m.filtered))
	copy(view, m.filtered)
	done := func() {}
	if withScroll && m.autoScroll {
		m.scrollGen++
		sgen := m.scrollGen
		// The binder's completion callback drives the scroll; the timer is
		// the fallback when the callback never arrives.
		done = func() {
			m.post(func() { m.scrollNow(sgen) })
		}
		time.AfterFunc(m.scrollDelay, func() {
			m.post(func() { m.scrollNow(sgen) })
		})
	}
	m.binder.Redisplay(view, done)
}

func (m *Model) recompute() {
	m.filtered = m.filtered[:0]
	for _, e := range m.full {
		if m.filter.Accept(e) {
			m.filtered = append(m.filtered, e)
		}
	}
}

// scrollNow fires at most once per armed generation; the consume below
// makes the callback and the fallback timer mutually exclusive.
func (m *Model) scrollNow(gen int) {
	if gen != m.scrollGen {
		return
	}
	m.scrollGen++
	if m.binder != nil && m.autoScroll {
		m.binder.ScrollToEnd()
	}
}
