package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/lumen/internal/model"
)

// Color palette shared across the viewer.
var (
	ColorBlue   = lipgloss.Color("39")
	ColorGreen  = lipgloss.Color("42")
	ColorYellow = lipgloss.Color("220")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
	ColorPink   = lipgloss.Color("201")
	ColorGray   = lipgloss.Color("244")
	ColorDim    = lipgloss.Color("240")
	ColorWhite  = lipgloss.Color("252")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	columnHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorDim).
				Underline(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	statusStrongStyle = lipgloss.NewStyle().
				Foreground(ColorWhite)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	paneTitleStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	promptStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)
)

var levelColors = map[model.Level]lipgloss.Color{
	model.LevelTrace: ColorDim,
	model.LevelDebug: ColorGray,
	model.LevelInfo:  ColorBlue,
	model.LevelWarn:  ColorOrange,
	model.LevelError: ColorRed,
	model.LevelFatal: ColorPink,
}

// levelColor returns the display color for a severity.
func levelColor(lvl model.Level) lipgloss.Color {
	if c, ok := levelColors[lvl]; ok {
		return c
	}
	return ColorWhite
}

// levelStyle returns a foreground style for a severity.
func levelStyle(lvl model.Level) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(levelColor(lvl))
}

// levelBarStyle returns a solid style for chart bars of a severity. Bar
// cells use the same color for foreground and background so partially
// filled block runes still read as one color.
func levelBarStyle(lvl model.Level) lipgloss.Style {
	c := levelColor(lvl)
	return lipgloss.NewStyle().Foreground(c).Background(c)
}
