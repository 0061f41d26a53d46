package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all viewer key bindings with built-in help text.
type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding

	// Log flow
	Pause  key.Binding
	Follow key.Binding
	Clear  key.Binding

	// Filtering
	Filter     key.Binding
	LevelModal key.Binding

	// Column visibility
	ToggleTime     key.Binding
	ToggleSequence key.Binding
	ToggleLevel    key.Binding
	ToggleCategory key.Binding

	// Scrolling
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Panes
	Inspector key.Binding
	Stats     key.Binding

	// Inspector toggles
	DebugPaint         key.Binding
	PerformanceOverlay key.Binding
	PlatformOverride   key.Binding
	SlowAnimations     key.Binding
	InspectWidgets     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?/h", "help"),
		),

		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause/resume"),
		),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle follow"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear log"),
		),

		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		LevelModal: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "level filter"),
		),

		ToggleTime: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "time column"),
		),
		ToggleSequence: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sequence column"),
		),
		ToggleLevel: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "level column"),
		),
		ToggleCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "category column"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "pagedown"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "go to bottom"),
		),

		Inspector: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "inspector pane"),
		),
		Stats: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "stats pane"),
		),

		DebugPaint: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "debug paint"),
		),
		PerformanceOverlay: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "performance overlay"),
		),
		PlatformOverride: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "platform override"),
		),
		SlowAnimations: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "slow animations"),
		),
		InspectWidgets: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "widget inspection"),
		),
	}
}
