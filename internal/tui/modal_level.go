package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/lumen/internal/model"
)

// LevelModal picks the minimum severity of the view filter. Cursor moves
// apply the threshold immediately so the log pane previews the result;
// escape restores the filter that was active when the modal opened.
type LevelModal struct {
	levels  []model.Level
	cursor  int
	apply   func(model.Level)
	restore func()
}

func NewLevelModal(m *Model) *LevelModal {
	original := m.view.Filter()
	current := model.LevelTrace
	if original != nil {
		current = original.Param().MinLevel
	}
	cursor := 0
	for i, lvl := range model.Levels {
		if lvl == current {
			cursor = i
			break
		}
	}
	return &LevelModal{
		levels:  model.Levels,
		cursor:  cursor,
		apply:   m.applyMinLevel,
		restore: func() { m.restoreFilter(original) },
	}
}

func (l *LevelModal) ID() string { return "level" }

func (l *LevelModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	switch key.String() {
	case "up", "k":
		if l.cursor > 0 {
			l.cursor--
			l.apply(l.levels[l.cursor])
		}
		return false, nil
	case "down", "j":
		if l.cursor < len(l.levels)-1 {
			l.cursor++
			l.apply(l.levels[l.cursor])
		}
		return false, nil
	case "enter", "ctrl+f":
		return true, nil
	case "esc", "escape":
		l.restore()
		return true, nil
	}
	return false, nil
}

func (l *LevelModal) View(width, height int) string {
	var rows []string
	rows = append(rows, paneTitleStyle.Render("Minimum level"), "")
	for i, lvl := range l.levels {
		marker := "  "
		name := levelStyle(lvl).Render(lvl.String())
		if i == l.cursor {
			marker = promptStyle.Render("> ")
			name = levelStyle(lvl).Bold(true).Render(lvl.String())
		}
		rows = append(rows, marker+name)
	}
	rows = append(rows, "", dimStyle.Render("↑/↓: level | enter: keep | esc: cancel"))

	box := lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Render(strings.Join(rows, "\n"))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
