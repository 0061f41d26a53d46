package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/lumen/internal/inspector"
	"github.com/tinytelemetry/lumen/internal/logview"
	"github.com/tinytelemetry/lumen/internal/model"
)

// Update is the single message handler. Scroll clamping happens here, not
// in View, so rendering stays a pure function of model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Leave room on the filter line for the inline error text.
		inputWidth := msg.Width - 40
		if inputWidth < 20 {
			inputWidth = 20
		}
		m.filterInput.Width = inputWidth
		m.clampScroll()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if top := m.TopModal(); top != nil {
			pop, cmd := top.Update(msg)
			if pop {
				m.PopModal()
			}
			return m, cmd
		}
		return m.handleMouse(msg)

	case TickMsg:
		if m.insp != nil {
			m.attached = m.insp.Attached()
			m.inspState = m.insp.State()
		}
		return m, m.tickCmd()

	case redisplayMsg:
		m.applyRedisplay(msg)
		return m, nil

	case scrollToEndMsg:
		if !m.paused {
			m.scrollOffset = m.maxScrollOffset()
		}
		return m, nil

	case countsMsg:
		m.filteredOut = msg.filteredOut
		m.total = msg.total
		return m, nil

	case inspectorResultMsg:
		m.inspState = msg.state
		m.attached = msg.attached
		if msg.err != nil {
			m.inspErr = msg.err.Error()
		} else {
			m.inspErr = ""
		}
		return m, nil
	}
	return m, nil
}

// applyRedisplay installs a fresh view, or stashes it while paused. done is
// always invoked so the view model's scroll scheduling stays in step.
func (m *Model) applyRedisplay(msg redisplayMsg) {
	defer func() {
		if msg.done != nil {
			msg.done()
		}
	}()
	if m.paused {
		m.pending = msg.entries
		m.pendingSet = true
		return
	}
	m.setVisible(msg.entries)
}

// handleKeyPress dispatches a key: force quit first, then the topmost
// modal, then active inline inputs, then global bindings.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if top := m.TopModal(); top != nil {
		pop, cmd := top.Update(msg)
		if pop {
			m.PopModal()
		}
		return m, cmd
	}

	for _, entry := range m.inlineHandlers {
		if !entry.isActive(m) {
			continue
		}
		if handled, cmd := entry.handler.HandleKey(m, msg); handled {
			return m, cmd
		}
	}

	return m.handleGlobalKeys(msg)
}

func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.PushModal(NewHelpModal())
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if !m.paused {
			if m.pendingSet {
				m.setVisible(m.pending)
				m.pending = nil
				m.pendingSet = false
			}
			if m.autoScroll {
				m.scrollOffset = m.maxScrollOffset()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Follow):
		m.setAutoScroll(!m.autoScroll)
		if m.autoScroll {
			m.scrollOffset = m.maxScrollOffset()
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.view.Clear()
		m.setVisible(nil)
		m.pending = nil
		m.pendingSet = false
		m.total, m.filteredOut = 0, 0
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		return m, m.startFilterInput()

	case key.Matches(msg, m.keys.LevelModal):
		m.PushModal(NewLevelModal(m))
		return m, nil

	case key.Matches(msg, m.keys.ToggleTime):
		m.toggleColumn(logview.ColumnTime)
		return m, nil
	case key.Matches(msg, m.keys.ToggleSequence):
		m.toggleColumn(logview.ColumnSequence)
		return m, nil
	case key.Matches(msg, m.keys.ToggleLevel):
		m.toggleColumn(logview.ColumnLevel)
		return m, nil
	case key.Matches(msg, m.keys.ToggleCategory):
		m.toggleColumn(logview.ColumnCategory)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.scrollBy(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.scrollBy(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(-m.logRows())
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(m.logRows())
		return m, nil
	case key.Matches(msg, m.keys.Home):
		m.setAutoScroll(false)
		m.scrollOffset = 0
		return m, nil
	case key.Matches(msg, m.keys.End):
		m.setAutoScroll(true)
		m.scrollOffset = m.maxScrollOffset()
		return m, nil

	case key.Matches(msg, m.keys.Inspector):
		m.showInspector = !m.showInspector
		m.clampScroll()
		return m, nil
	case key.Matches(msg, m.keys.Stats):
		m.showStats = !m.showStats
		m.clampScroll()
		return m, nil

	case key.Matches(msg, m.keys.DebugPaint):
		return m, m.toggleInspectorCmd(inspector.DebugPaint)
	case key.Matches(msg, m.keys.PerformanceOverlay):
		return m, m.toggleInspectorCmd(inspector.PerformanceOverlay)
	case key.Matches(msg, m.keys.PlatformOverride):
		return m, m.toggleInspectorCmd(inspector.PlatformOverride)
	case key.Matches(msg, m.keys.SlowAnimations):
		return m, m.toggleInspectorCmd(inspector.SlowAnimations)
	case key.Matches(msg, m.keys.InspectWidgets):
		return m, m.toggleInspectorCmd(inspector.InspectWidgets)
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scrollBy(-3)
	case tea.MouseButtonWheelDown:
		m.scrollBy(3)
	}
	return m, nil
}

// startFilterInput snapshots the active filter and opens the input with
// its expression preloaded. Escape restores the snapshot.
func (m *Model) startFilterInput() tea.Cmd {
	m.savedFilter = m.view.Filter()
	expr := ""
	if m.savedFilter != nil {
		expr = m.savedFilter.Param().Expression
	}
	m.filterErr = ""
	m.filterActive = true
	m.filterInput.SetValue(expr)
	m.filterInput.CursorEnd()
	return m.filterInput.Focus()
}

func (m *Model) toggleColumn(name string) {
	m.columns.SetVisible(name, !m.columns.Visible(name))
	if m.columns.Update() {
		m.persistViewState()
	}
}

// applyMinLevel rebuilds the active filter with a new severity threshold,
// keeping the expression as it is.
func (m *Model) applyMinLevel(lvl model.Level) {
	param := m.currentFilterParam()
	param.MinLevel = lvl
	f, err := logview.NewEntryFilter(param)
	if err != nil {
		// The expression already compiled once; a level change cannot
		// invalidate it.
		return
	}
	m.appliedParam = param
	m.view.SetFilter(f)
}

// toggleInspectorCmd flips one debug-channel extension asynchronously. The
// call can block up to the controller's timeout, so it runs as a command.
func (m *Model) toggleInspectorCmd(t inspector.Toggle) tea.Cmd {
	insp := m.insp
	if insp == nil {
		m.inspErr = inspector.ErrUnavailable.Error()
		return nil
	}
	return func() tea.Msg {
		err := insp.Toggle(t)
		return inspectorResultMsg{state: insp.State(), attached: insp.Attached(), err: err}
	}
}

// scrollBy moves the log window. Scrolling up releases auto-scroll;
// reaching the bottom edge re-engages it.
func (m *Model) scrollBy(delta int) {
	if delta == 0 {
		return
	}
	next := m.scrollOffset + delta
	maxOffset := m.maxScrollOffset()
	if next < 0 {
		next = 0
	}
	if next > maxOffset {
		next = maxOffset
	}
	m.scrollOffset = next
	if delta < 0 {
		m.setAutoScroll(false)
	} else if next == maxOffset {
		m.setAutoScroll(true)
	}
}

func (m *Model) maxScrollOffset() int {
	maxOffset := len(m.visible) - m.logRows()
	if maxOffset < 0 {
		return 0
	}
	return maxOffset
}

// clampScroll keeps the window inside the entry list and pins it to the
// end while following.
func (m *Model) clampScroll() {
	maxOffset := m.maxScrollOffset()
	if m.autoScroll || m.scrollOffset > maxOffset {
		m.scrollOffset = maxOffset
	}
}
