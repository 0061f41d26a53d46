package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/lumen/internal/inspector"
	"github.com/tinytelemetry/lumen/internal/logview"
	"github.com/tinytelemetry/lumen/internal/model"
)

const (
	inspectorPaneHeight = 7
	minLogRows          = 4
)

// layout holds the height of every section for the current frame. All
// sizing decisions live here; render functions emit exactly the lines the
// layout assigns them.
type layout struct {
	header    int
	filter    int
	log       int
	stats     int
	inspector int
	status    int
}

func (m *Model) layoutHeights() layout {
	lay := layout{header: 1, status: 1}
	if m.filterActive {
		lay.filter = 1
	}
	if m.showStats {
		lay.stats = m.statsPaneHeight()
	}
	if m.showInspector {
		lay.inspector = inspectorPaneHeight
	}

	remaining := func() int {
		return m.height - lay.header - lay.filter - lay.stats - lay.inspector - lay.status
	}
	// Optional panes yield before the log pane starves.
	if remaining() < minLogRows {
		lay.stats = 0
	}
	if remaining() < minLogRows {
		lay.inspector = 0
	}
	lay.log = remaining()
	if lay.log < 1 {
		lay.log = 1
	}
	return lay
}

// logRows is how many entry rows fit in the log pane, excluding the
// column header row.
func (m *Model) logRows() int {
	rows := m.layoutHeights().log - 1
	if rows < 1 {
		return 1
	}
	return rows
}

func (m *Model) statsPaneHeight() int {
	if m.width < 80 {
		return 7
	}
	return 9
}

// View renders the whole frame. An active modal takes over the screen.
func (m *Model) View() string {
	if m.width <= 0 {
		return "Initializing..."
	}
	if top := m.TopModal(); top != nil {
		return top.View(m.width, m.height)
	}
	if m.width < minTermWidth || m.height < minTermHeight {
		msg := fmt.Sprintf("Terminal too small (%dx%d minimum)", minTermWidth, minTermHeight)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dimStyle.Render(msg))
	}

	lay := m.layoutHeights()
	sections := []string{m.renderHeader()}
	if lay.filter > 0 {
		sections = append(sections, m.renderFilterLine())
	}
	sections = append(sections, m.renderLogPane(lay.log))
	if lay.stats > 0 {
		sections = append(sections, m.renderStatsPane(lay.stats))
	}
	if lay.inspector > 0 {
		sections = append(sections, m.renderInspectorPane())
	}
	sections = append(sections, m.renderStatusLine())
	return strings.Join(sections, "\n")
}

func (m *Model) renderHeader() string {
	left := titleStyle.Render("lumen")
	if m.sources != "" {
		left += headerStyle.Render("  " + m.sources)
	}
	var badges []string
	if m.paused {
		badges = append(badges, badgeStyle.Render("PAUSED"))
	}
	if m.attached {
		badges = append(badges, promptStyle.Render("ATTACHED"))
	}
	right := strings.Join(badges, " ")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderFilterLine() string {
	line := m.filterInput.View()
	if m.filterErr != "" {
		remaining := m.width - lipgloss.Width(line) - 2
		line += "  " + errorStyle.Render(truncate(m.filterErr, remaining))
	}
	return line
}

// columnWidth is the fixed cell width per column; Message gets whatever
// is left.
func columnWidth(name string) int {
	switch name {
	case logview.ColumnTime:
		return 12
	case logview.ColumnSequence:
		return 6
	case logview.ColumnLevel:
		return 5
	case logview.ColumnCategory:
		return 16
	default:
		return 0
	}
}

// renderLogPane emits exactly height lines: one column header row, then
// the scroll window over the filtered entries, padded with blanks.
func (m *Model) renderLogPane(height int) string {
	cols := m.columns.VisibleColumns()
	lines := make([]string, 0, height)
	lines = append(lines, m.renderColumnHeader(cols))

	rows := height - 1
	start := m.scrollOffset
	if start > len(m.visible) {
		start = len(m.visible)
	}
	end := start + rows
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for _, e := range m.visible[start:end] {
		lines = append(lines, m.renderLogRow(e, cols))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderColumnHeader(cols []logview.ColumnSpec) string {
	var parts []string
	used := 0
	for _, col := range cols {
		if col.Name == logview.ColumnMessage {
			continue
		}
		w := columnWidth(col.Name)
		parts = append(parts, columnHeaderStyle.Render(fmt.Sprintf("%-*s", w, col.Name)))
		used += w + 1
	}
	msgW := m.width - used
	if msgW < 1 {
		msgW = 1
	}
	parts = append(parts, columnHeaderStyle.Render(fmt.Sprintf("%-*s", msgW, logview.ColumnMessage)))
	return strings.Join(parts, " ")
}

func (m *Model) renderLogRow(e *model.Entry, cols []logview.ColumnSpec) string {
	var parts []string
	used := 0
	for _, col := range cols {
		if col.Name == logview.ColumnMessage {
			continue
		}
		w := columnWidth(col.Name)
		cell := truncate(m.columns.Format(col.Name, e), w)
		switch col.Name {
		case logview.ColumnSequence:
			cell = dimStyle.Render(fmt.Sprintf("%*s", w, cell))
		case logview.ColumnTime:
			cell = dimStyle.Render(fmt.Sprintf("%-*s", w, cell))
		case logview.ColumnLevel:
			cell = levelStyle(e.Level).Render(fmt.Sprintf("%-*s", w, cell))
		default:
			cell = headerStyle.Render(fmt.Sprintf("%-*s", w, cell))
		}
		parts = append(parts, cell)
		used += w + 1
	}
	msgW := m.width - used
	if msgW < 1 {
		msgW = 1
	}
	msg := truncate(firstLine(m.columns.Format(logview.ColumnMessage, e)), msgW)
	if e.Level >= model.LevelWarn {
		msg = levelStyle(e.Level).Render(msg)
	}
	parts = append(parts, msg)
	return strings.Join(parts, " ")
}

// renderInspectorPane lists the debug-channel toggles with their state and
// the channel health on the last line.
func (m *Model) renderInspectorPane() string {
	rows := make([]string, 0, inspectorPaneHeight)
	rows = append(rows, paneTitleStyle.Render("Inspector"))
	for i, t := range inspector.Toggles {
		text, on := m.toggleStateText(t)
		state := dimStyle.Render(text)
		if on {
			state = promptStyle.Render(text)
		}
		rows = append(rows, fmt.Sprintf("  [%d] %-22s %s", i+1, t.String(), state))
	}
	switch {
	case m.inspErr != "":
		rows = append(rows, "  "+errorStyle.Render(truncate(m.inspErr, m.width-2)))
	case m.attached:
		rows = append(rows, "  "+promptStyle.Render("● attached"))
	default:
		rows = append(rows, "  "+dimStyle.Render("○ detached"))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) toggleStateText(t inspector.Toggle) (string, bool) {
	st := m.inspState
	switch t {
	case inspector.DebugPaint:
		return onOffText(st.DebugPaint), st.DebugPaint
	case inspector.PerformanceOverlay:
		return onOffText(st.PerformanceOverlay), st.PerformanceOverlay
	case inspector.PlatformOverride:
		if st.Platform == "" {
			return "off", false
		}
		return st.Platform, true
	case inspector.SlowAnimations:
		return onOffText(st.SlowAnimations), st.SlowAnimations
	case inspector.InspectWidgets:
		return onOffText(st.InspectWidgets), st.InspectWidgets
	}
	return "off", false
}

func onOffText(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// renderStatusLine lays out counts, the filter summary, and the follow
// state. Narrow terminals drop the middle, then the right part. Parts are
// truncated to their slots so the line never wraps.
func (m *Model) renderStatusLine() string {
	countsText := fmt.Sprintf("%d shown / %d total (%d filtered out)",
		m.shownCount(), m.total, m.filteredOut)

	followText := "follow off"
	if m.autoScroll {
		followText = "follow on"
	}
	dot := dimStyle.Render("○")
	if m.attached {
		dot = promptStyle.Render("●")
	}

	switch {
	case m.width < 60:
		return statusStrongStyle.Render(truncate(countsText, m.width))
	case m.width < 80:
		left := statusStrongStyle.Render(countsText)
		right := dot + " " + statusStyle.Render(followText)
		gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
		if gap < 1 {
			return left
		}
		return left + strings.Repeat(" ", gap) + right
	default:
		leftW := m.width * 3 / 8
		rightW := m.width / 4
		centerW := m.width - leftW - rightW
		left := statusStrongStyle.Render(truncate(countsText, leftW))
		center := statusStyle.Render(truncate(m.filterSummary(), centerW))
		right := dot + " " + statusStyle.Render(truncate(followText+"  ? help", rightW-2))
		return lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(leftW).Render(left),
			lipgloss.NewStyle().Width(centerW).Align(lipgloss.Center).Render(center),
			lipgloss.NewStyle().Width(rightW).Align(lipgloss.Right).Render(right),
		)
	}
}

func (m *Model) filterSummary() string {
	param := m.currentFilterParam()
	var parts []string
	if param.Expression != "" {
		parts = append(parts, fmt.Sprintf("filter %q", param.Expression))
	}
	if param.MinLevel > model.LevelTrace {
		parts = append(parts, "min "+param.MinLevel.String())
	}
	if len(parts) == 0 {
		return "no filter"
	}
	return strings.Join(parts, " | ")
}

// truncate cuts s to at most w cells, marking the cut with an ellipsis.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(r[:w-1]) + "…"
}

// firstLine collapses a multi-line message to its first line for row
// display.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
