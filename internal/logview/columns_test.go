package logview

import (
	"testing"
	"time"

	"github.com/tinytelemetry/lumen/internal/model"
)

func columnNames(specs []ColumnSpec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestColumnSetDefaults(t *testing.T) {
	s := NewColumnSet()
	want := []string{ColumnTime, ColumnSequence, ColumnLevel, ColumnCategory, ColumnMessage}
	if got := columnNames(s.VisibleColumns()); !equalNames(got, want) {
		t.Errorf("VisibleColumns() = %v, want %v", got, want)
	}
	for _, name := range want {
		if !s.Visible(name) {
			t.Errorf("Visible(%q) = false, want true", name)
		}
	}
}

func TestColumnSetLazyRebuild(t *testing.T) {
	s := NewColumnSet()
	s.SetVisible(ColumnTime, false)

	// The toggle is recorded but the active list is stale until Update.
	if s.Visible(ColumnTime) {
		t.Error("Visible(Time) = true after hiding, want false immediately")
	}
	before := []string{ColumnTime, ColumnSequence, ColumnLevel, ColumnCategory, ColumnMessage}
	if got := columnNames(s.VisibleColumns()); !equalNames(got, before) {
		t.Errorf("VisibleColumns() before Update = %v, want stale %v", got, before)
	}

	if !s.Update() {
		t.Error("Update() = false after a toggle, want true")
	}
	after := []string{ColumnSequence, ColumnLevel, ColumnCategory, ColumnMessage}
	if got := columnNames(s.VisibleColumns()); !equalNames(got, after) {
		t.Errorf("VisibleColumns() after Update = %v, want %v", got, after)
	}

	if s.Update() {
		t.Error("Update() = true with no pending toggles, want false")
	}
}

func TestColumnSetCoalescesToggles(t *testing.T) {
	s := NewColumnSet()
	s.SetVisible(ColumnSequence, false)
	s.SetVisible(ColumnCategory, false)
	s.SetVisible(ColumnSequence, true)
	s.SetVisible(ColumnSequence, false)

	if !s.Update() {
		t.Fatal("Update() = false, want rebuild after toggles")
	}
	want := []string{ColumnTime, ColumnLevel, ColumnMessage}
	if got := columnNames(s.VisibleColumns()); !equalNames(got, want) {
		t.Errorf("VisibleColumns() = %v, want %v", got, want)
	}
}

func TestColumnSetNoopToggle(t *testing.T) {
	s := NewColumnSet()
	s.SetVisible(ColumnTime, true) // already visible
	if s.Update() {
		t.Error("Update() rebuilt after a no-op toggle")
	}
}

func TestColumnSetMessageUnhideable(t *testing.T) {
	s := NewColumnSet()
	s.SetVisible(ColumnMessage, false)
	if s.Update() {
		t.Error("Update() rebuilt after attempting to hide Message")
	}
	if !s.Visible(ColumnMessage) {
		t.Error("Visible(Message) = false, want always true")
	}
}

func TestColumnSetUnknownColumn(t *testing.T) {
	s := NewColumnSet()
	s.SetVisible("Nope", false)
	if s.Update() {
		t.Error("Update() rebuilt after toggling an unknown column")
	}
	if s.Visible("Nope") {
		t.Error("Visible(unknown) = true, want false")
	}
}

func TestColumnSetFormat(t *testing.T) {
	s := NewColumnSet()
	e := &model.Entry{
		Time:     time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC),
		Seq:      42,
		Level:    model.LevelWarn,
		Category: "http",
		Message:  "slow response",
	}

	tests := []struct {
		column string
		want   string
	}{
		{ColumnTime, "09:26:53.589"},
		{ColumnSequence, "42"},
		{ColumnLevel, "WARN"},
		{ColumnCategory, "http"},
		{ColumnMessage, "slow response"},
		{"Nope", ""},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			if got := s.Format(tt.column, e); got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.column, got, tt.want)
			}
		})
	}

	if got := s.Format(ColumnTime, &model.Entry{Seq: 1}); got != "" {
		t.Errorf("Format(Time) with zero time = %q, want empty", got)
	}

	s.SetFormatter(ColumnLevel, func(e *model.Entry) string { return "!" + e.Level.String() })
	if got := s.Format(ColumnLevel, e); got != "!WARN" {
		t.Errorf("Format(Level) with override = %q, want %q", got, "!WARN")
	}
}
