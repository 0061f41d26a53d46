package logview

import (
	"strconv"

	"github.com/tinytelemetry/lumen/internal/model"
)

// Column names in declaration order. Time through Category are toggleable;
// Message is always visible and cannot be hidden.
const (
	ColumnTime     = "Time"
	ColumnSequence = "Sequence"
	ColumnLevel    = "Level"
	ColumnCategory = "Category"
	ColumnMessage  = "Message"
)

// ColumnSpec is one named column and its current visibility.
type ColumnSpec struct {
	Name    string
	Visible bool
}

// Formatter renders one entry cell for a column.
type Formatter func(*model.Entry) string

type columnState struct {
	name       string
	visible    bool
	toggleable bool
}

// ColumnSet tracks column visibility in fixed declaration order. Toggles
// only mark the set dirty; the materialized active list is rebuilt lazily on
// the next Update so bursts of toggles coalesce into one rebuild.
type ColumnSet struct {
	columns []columnState
	active  []ColumnSpec
	dirty   bool
	formats map[string]Formatter
}

// NewColumnSet returns the fixed column set with every column visible and
// default cell formatters installed.
func NewColumnSet() *ColumnSet {
	s := &ColumnSet{
		columns: []columnState{
			{name: ColumnTime, visible: true, toggleable: true},
			{name: ColumnSequence, visible: true, toggleable: true},
			{name: ColumnLevel, visible: true, toggleable: true},
			{name: ColumnCategory, visible: true, toggleable: true},
			{name: ColumnMessage, visible: true, toggleable: false},
		},
		formats: map[string]Formatter{
			ColumnTime: func(e *model.Entry) string {
				if e.Time.IsZero() {
					return ""
				}
				return e.Time.Format("15:04:05.000")
			},
			ColumnSequence: func(e *model.Entry) string { return strconv.FormatInt(e.Seq, 10) },
			ColumnLevel:    func(e *model.Entry) string { return e.Level.String() },
			ColumnCategory: func(e *model.Entry) string { return e.Category },
			ColumnMessage:  func(e *model.Entry) string { return e.Message },
		},
	}
	s.rebuild()
	return s
}

// SetVisible changes one column's visibility. Hiding Message or naming an
// unknown column does nothing. The active list is not rebuilt until Update.
func (s *ColumnSet) SetVisible(name string, visible bool) {
	for i := range s.columns {
		c := &s.columns[i]
		if c.name != name || !c.toggleable {
			continue
		}
		if c.visible != visible {
			c.visible = visible
			s.dirty = true
		}
		return
	}
}

// Visible reports the current visibility flag for name.
func (s *ColumnSet) Visible(name string) bool {
	for _, c := range s.columns {
		if c.name == name {
			return c.visible
		}
	}
	return false
}

// Update rebuilds the active column list if any toggle changed since the
// last rebuild. It reports whether a rebuild happened.
func (s *ColumnSet) Update() bool {
	if !s.dirty {
		return false
	}
	s.rebuild()
	return true
}

// Rebuild order is fixed: toggleable columns in declaration order, filtered
// by visibility, then the always-on columns appended unconditionally.
func (s *ColumnSet) rebuild() {
	s.active = s.active[:0]
	for _, c := range s.columns {
		if c.toggleable && c.visible {
			s.active = append(s.active, ColumnSpec{Name: c.name, Visible: true})
		}
	}
	for _, c := range s.columns {
		if !c.toggleable {
			s.active = append(s.active, ColumnSpec{Name: c.name, Visible: true})
		}
	}
	s.dirty = false
}

// VisibleColumns returns the materialized active columns in order. The
// result reflects the last Update, not toggles made since.
func (s *ColumnSet) VisibleColumns() []ColumnSpec {
	out := make([]ColumnSpec, len(s.active))
	copy(out, s.active)
	return out
}

// SetFormatter overrides the cell formatter for a column.
func (s *ColumnSet) SetFormatter(name string, f Formatter) {
	if f == nil {
		return
	}
	if _, ok := s.formats[name]; ok {
		s.formats[name] = f
	}
}

// Format renders the cell text for one column of one entry.
func (s *ColumnSet) Format(name string, e *model.Entry) string {
	if f, ok := s.formats[name]; ok {
		return f(e)
	}
	return ""
}
