// Package logview implements the in-memory log view model: an append-only
// ordered log with a derived filtered view, debounced redisplay scheduling,
// scroll-to-end notification, column visibility, and count reporting.
//
// The model confines all state to a single owner goroutine. Callers on any
// goroutine hand work to the owner through the model's task queue; there is
// no locking around the log itself.
package logview

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tinytelemetry/lumen/internal/model"
)

// FilterParam describes a view filter as supplied by the filter UI.
// It is a value object: two params are the same filter iff they are ==.
type FilterParam struct {
	MinLevel   model.Level
	Expression string
	MatchCase  bool
	IsRegex    bool
}

// EntryFilter is a stateless predicate over entries built from a FilterParam
// snapshot. Two filters are interchangeable iff their params are equal; the
// model uses that to skip redundant recomputation.
type EntryFilter struct {
	param FilterParam
	expr  string // case-adjusted expression for substring matching
	re    *regexp.Regexp
}

// NewEntryFilter compiles a filter from param. A malformed regular
// expression is a configuration error returned to the caller; nothing is
// swallowed here. Accept itself never fails.
func NewEntryFilter(param FilterParam) (*EntryFilter, error) {
	f := &EntryFilter{param: param, expr: param.Expression}
	if !param.MatchCase {
		f.expr = strings.ToLower(f.expr)
	}
	if param.IsRegex && f.expr != "" {
		// Containment match over the whole text. Dot spans newlines so a
		// multi-line message is one searchable unit; ^ and $ anchor lines.
		re, err := regexp.Compile(`(?sm)\A.*` + f.expr + `.*\z`)
		if err != nil {
			return nil, fmt.Errorf("logview: compile filter expression %q: %w", param.Expression, err)
		}
		f.re = re
	}
	return f, nil
}

// Param returns the FilterParam snapshot the filter was built from.
func (f *EntryFilter) Param() FilterParam {
	return f.param
}

// Equal reports whether both filters were built from equal params.
// A nil filter equals only another nil filter.
func (f *EntryFilter) Equal(other *EntryFilter) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.param == other.param
}

// Accept reports whether the entry passes the filter. The level gate runs
// first, an empty expression then accepts, otherwise the category is tested
// before the message and a category hit short-circuits.
func (f *EntryFilter) Accept(e *model.Entry) bool {
	if f == nil {
		return true
	}
	if e.Level < f.param.MinLevel {
		return false
	}
	if f.param.Expression == "" {
		return true
	}
	category, message := e.Category, e.Message
	if !f.param.MatchCase {
		category = strings.ToLower(category)
		message = strings.ToLower(message)
	}
	if f.matches(category) {
		return true
	}
	return f.matches(message)
}

func (f *EntryFilter) matches(text string) bool {
	if f.re != nil {
		return f.re.MatchString(text)
	}
	return strings.Contains(text, f.expr)
}
