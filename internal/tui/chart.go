package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/lumen/internal/model"
)

// renderStatsPane draws the per-level bar chart with a title line on top.
func (m *Model) renderStatsPane(height int) string {
	total := 0
	for _, n := range m.levelTally {
		total += n
	}
	left := paneTitleStyle.Render("Levels")
	right := dimStyle.Render(fmt.Sprintf("%d entries", total))
	title := left
	if gap := m.width - lipgloss.Width(left) - lipgloss.Width(right); gap >= 1 {
		title = left + strings.Repeat(" ", gap) + right
	}
	return title + "\n" + renderLevelChart(m.width, height-1, m.levelTally)
}

// renderLevelChart renders one bar per severity next to a count legend.
// The output is exactly height lines.
func renderLevelChart(width, height int, tally [levelCount]int) string {
	legendWidth := 14
	chartWidth := width - legendWidth - 2
	if chartWidth < 20 {
		chartWidth = 20
	}

	bc := barchart.New(chartWidth, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(3),
		barchart.WithNoAxis(),
	)
	for _, lvl := range model.Levels {
		bc.Push(barchart.BarData{
			Label: lvl.String(),
			Values: []barchart.BarValue{
				{Name: lvl.String(), Value: float64(tally[lvl]), Style: levelBarStyle(lvl)},
			},
		})
	}
	bc.Draw()
	chartLines := strings.Split(bc.View(), "\n")

	legend := make([]string, 0, len(model.Levels))
	for _, lvl := range model.Levels {
		name := levelStyle(lvl).Render(fmt.Sprintf("%-5s", lvl.String()))
		legend = append(legend, fmt.Sprintf("%s %d", name, tally[lvl]))
	}

	var b strings.Builder
	for i := 0; i < height; i++ {
		line := ""
		if i < len(chartLines) {
			line = chartLines[i]
		}
		if pad := chartWidth - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		b.WriteString(line)
		b.WriteString("  ")
		if i < len(legend) {
			b.WriteString(legend[i])
		}
		if i < height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
