// Package tui implements the terminal viewer: a bubbletea program around
// the logview model with a column-aware log pane, live filtering, a
// per-level stats chart, and the inspector toggle pane.
package tui

import (
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/lumen/internal/inspector"
	"github.com/tinytelemetry/lumen/internal/logview"
	"github.com/tinytelemetry/lumen/internal/model"
	"github.com/tinytelemetry/lumen/internal/settings"
)

const (
	tickInterval = time.Second

	minTermWidth  = 60
	minTermHeight = 20

	levelCount = int(model.LevelFatal) + 1
)

// Config holds the optional collaborators of the viewer model.
type Config struct {
	// Columns is the column visibility set. A fresh default set is used
	// when nil.
	Columns *logview.ColumnSet

	// Inspector drives the debug-channel toggle pane. Nil leaves the pane
	// in its unavailable state.
	Inspector *inspector.Controller

	// Settings persists view state across runs. Nil disables persistence.
	Settings *settings.Store

	// Sources names the active inputs for the header line.
	Sources []string
}

// FilterState is the inline filter input and its error line.
type FilterState struct {
	filterInput  textinput.Model
	filterActive bool
	filterErr    string

	// savedFilter is the filter that was active when input editing
	// started; escape restores it.
	savedFilter *logview.EntryFilter

	// appliedParam mirrors the filter currently installed on the view so
	// rendering never has to block on the view model.
	appliedParam logview.FilterParam
}

// LogState is the rendered slice of the filtered view plus scroll state.
type LogState struct {
	visible      []*model.Entry
	scrollOffset int
	autoScroll   bool
	paused       bool

	// Redisplays arriving while paused land here; resume applies the
	// newest one.
	pending    []*model.Entry
	pendingSet bool

	levelTally [levelCount]int
}

// InspectorState mirrors the controller for rendering.
type InspectorState struct {
	showInspector bool
	attached      bool
	inspState     inspector.State
	inspErr       string
}

// StatsState controls the per-level chart pane.
type StatsState struct {
	showStats bool
}

// Model is the root bubbletea model of the viewer.
type Model struct {
	view     *logview.Model
	columns  *logview.ColumnSet
	insp     *inspector.Controller
	settings *settings.Store
	keys     KeyMap

	sources string

	width  int
	height int

	FilterState
	LogState
	InspectorState
	StatsState
	ModalStackState

	total       int
	filteredOut int

	inlineHandlers []inlineHandlerEntry
}

// NewModel builds the viewer around an existing logview model. Persisted
// view state is applied immediately so the first frame already reflects it.
func NewModel(view *logview.Model, conf ...Config) *Model {
	var cfg Config
	if len(conf) > 0 {
		cfg = conf[0]
	}
	if cfg.Columns == nil {
		cfg.Columns = logview.NewColumnSet()
	}

	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "filter expression"
	input.CharLimit = 256

	m := &Model{
		view:     view,
		columns:  cfg.Columns,
		insp:     cfg.Inspector,
		settings: cfg.Settings,
		keys:     DefaultKeyMap(),
		sources:  strings.Join(cfg.Sources, ", "),
		FilterState: FilterState{
			filterInput: input,
		},
		LogState: LogState{
			autoScroll: true,
		},
	}
	m.inlineHandlers = []inlineHandlerEntry{
		{
			isActive: func(m *Model) bool { return m.filterActive },
			handler:  filterInputHandler{},
		},
	}

	m.loadViewState()
	if f := view.Filter(); f != nil {
		m.appliedParam = f.Param()
	}
	if m.insp != nil {
		m.attached = m.insp.Attached()
		m.inspState = m.insp.State()
	}
	return m
}

// Init starts mouse reporting and the refresh tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tea.EnableMouseCellMotion, m.tickCmd())
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// loadViewState applies persisted auto-scroll and column visibility.
func (m *Model) loadViewState() {
	if m.settings == nil {
		return
	}
	st, err := m.settings.Load()
	if err != nil {
		log.Printf("tui: load view state: %v", err)
	}
	m.autoScroll = st.ShouldAutoScroll
	m.view.SetAutoScroll(st.ShouldAutoScroll)
	for name, visible := range st.VisibleColumns {
		m.columns.SetVisible(name, visible)
	}
	m.columns.Update()
}

// persistViewState writes the current auto-scroll flag and column toggles.
func (m *Model) persistViewState() {
	if m.settings == nil {
		return
	}
	st := settings.State{
		ShouldAutoScroll: m.autoScroll,
		VisibleColumns: map[string]bool{
			logview.ColumnTime:     m.columns.Visible(logview.ColumnTime),
			logview.ColumnSequence: m.columns.Visible(logview.ColumnSequence),
			logview.ColumnLevel:    m.columns.Visible(logview.ColumnLevel),
			logview.ColumnCategory: m.columns.Visible(logview.ColumnCategory),
		},
	}
	if err := m.settings.Save(st); err != nil {
		log.Printf("tui: save view state: %v", err)
	}
}

// setAutoScroll flips the follow flag on both the model and the view, and
// persists the change. No-op when already in the requested state.
func (m *Model) setAutoScroll(on bool) {
	if m.autoScroll == on {
		return
	}
	m.autoScroll = on
	m.view.SetAutoScroll(on)
	m.persistViewState()
}

// shownCount is how many entries the active filter lets through.
func (m *Model) shownCount() int {
	return m.total - m.filteredOut
}

// currentFilterParam returns the parameters of the filter last installed
// through this model, zero when none is set.
func (m *Model) currentFilterParam() logview.FilterParam {
	return m.appliedParam
}

// restoreFilter reinstalls a previously captured filter, nil included, and
// refreshes the cached parameters.
func (m *Model) restoreFilter(f *logview.EntryFilter) {
	m.view.SetFilter(f)
	if f != nil {
		m.appliedParam = f.Param()
	} else {
		m.appliedParam = logview.FilterParam{}
	}
}

// setVisible installs a fresh filtered view and rebuilds the level tally.
func (m *Model) setVisible(entries []*model.Entry) {
	m.visible = entries
	var tally [levelCount]int
	for _, e := range entries {
		if e.Level >= 0 && int(e.Level) < len(tally) {
			tally[e.Level]++
		}
	}
	m.levelTally = tally
	m.clampScroll()
}
