package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/lumen/internal/logview"
)

// filterInputHandler consumes keys while the filter input is focused.
// Every edit recompiles the expression: a valid pattern is applied to the
// view immediately, an invalid one shows an inline error and leaves the
// last valid filter active.
type filterInputHandler struct{}

func (filterInputHandler) HandleKey(m *Model, msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc", "escape":
		m.cancelFilterInput()
		return true, nil

	case "enter":
		if m.filterErr != "" {
			// Nothing to commit until the pattern compiles.
			return true, nil
		}
		m.filterActive = false
		m.filterInput.Blur()
		return true, nil

	default:
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.applyFilterExpression(m.filterInput.Value())
		return true, cmd
	}
}

// applyFilterExpression compiles expr against the current severity
// threshold and applies it when valid.
func (m *Model) applyFilterExpression(expr string) {
	param := m.currentFilterParam()
	param.Expression = expr
	param.IsRegex = true
	f, err := logview.NewEntryFilter(param)
	if err != nil {
		m.filterErr = filterErrText(err)
		return
	}
	m.filterErr = ""
	m.appliedParam = param
	m.view.SetFilter(f)
}

// cancelFilterInput closes the input and restores the filter that was
// active when editing started.
func (m *Model) cancelFilterInput() {
	m.restoreFilter(m.savedFilter)
	m.filterActive = false
	m.filterErr = ""
	m.filterInput.Blur()
	m.filterInput.SetValue("")
}

// filterErrText strips the wrapping down to the regexp syntax error, which
// is the part worth a line of screen space.
func filterErrText(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}
