package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModal displays the key binding reference in a scrollable viewport.
type HelpModal struct {
	viewport viewport.Model
}

func NewHelpModal() *HelpModal {
	return &HelpModal{viewport: viewport.New(80, 20)}
}

func (h *HelpModal) ID() string { return "help" }

func (h *HelpModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			h.viewport.ScrollUp(1)
			return false, nil
		case "down", "j":
			h.viewport.ScrollDown(1)
			return false, nil
		case "pgup":
			h.viewport.HalfPageUp()
			return false, nil
		case "pgdown", "pagedown":
			h.viewport.HalfPageDown()
			return false, nil
		case "?", "h", "esc", "escape", "q":
			return true, nil
		}
		var cmd tea.Cmd
		h.viewport, cmd = h.viewport.Update(msg)
		return false, cmd

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				h.viewport.ScrollUp(1)
			case tea.MouseButtonWheelDown:
				h.viewport.ScrollDown(1)
			}
		}
		return false, nil
	}
	return false, nil
}

func (h *HelpModal) View(width, height int) string {
	modalWidth := width - 8
	modalHeight := height - 4
	contentWidth := modalWidth - 4
	contentHeight := modalHeight - 4

	h.viewport.Width = contentWidth
	h.viewport.Height = contentHeight
	h.viewport.SetContent(helpContent())

	header := lipgloss.NewStyle().
		Width(contentWidth).
		Foreground(ColorBlue).
		Bold(true).
		Render("Help")

	contentPane := lipgloss.NewStyle().
		Width(contentWidth).
		Height(contentHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(ColorGray).
		Render(h.viewport.View())

	statusBar := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render("↑/↓: scroll | pgup/pgdn: page | ?/esc: close")

	modal := lipgloss.NewStyle().
		Width(modalWidth).
		Height(modalHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, contentPane, statusBar))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

func helpContent() string {
	return `lumen log viewer

LOG FLOW:
  Space          - Pause/resume live updates
  f              - Toggle follow (auto-scroll to newest)
  Ctrl+L         - Clear the log

FILTERING:
  /              - Edit the filter expression (regex, case-insensitive)
                   Matches category first, then message. Invalid patterns
                   show an error and keep the previous filter.
  Ctrl+F         - Pick the minimum severity level
  Enter          - Keep the filter and leave input mode
  Escape         - Cancel input, restore the previous filter

COLUMNS:
  t              - Toggle the Time column
  s              - Toggle the Sequence column
  l              - Toggle the Level column
  c              - Toggle the Category column
                   Message is always visible.

SCROLLING:
  ↑/↓ or k/j     - Scroll one line (up releases follow)
  PgUp/PgDn      - Scroll one page
  Home           - Jump to the oldest entry
  End            - Jump to the newest entry, resume follow
  Mouse wheel    - Scroll three lines

PANES:
  g              - Toggle the per-level stats chart
  i              - Toggle the inspector pane

INSPECTOR (requires an attached debug channel):
  1              - Debug paint
  2              - Performance overlay
  3              - Platform override (cycles android/iOS/fuchsia)
  4              - Slow animations
  5              - Widget inspection

OTHER:
  ? or h         - Toggle this help
  q / Ctrl+C     - Quit
`
}
