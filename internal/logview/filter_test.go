package logview

import (
	"testing"

	"github.com/tinytelemetry/lumen/internal/model"
)

func entry(level model.Level, category, message string) *model.Entry {
	return &model.Entry{Level: level, Category: category, Message: message}
}

func mustFilter(t *testing.T, p FilterParam) *EntryFilter {
	t.Helper()
	f, err := NewEntryFilter(p)
	if err != nil {
		t.Fatalf("NewEntryFilter(%+v): %v", p, err)
	}
	return f
}

func TestFilterAccept(t *testing.T) {
	tests := []struct {
		name  string
		param FilterParam
		entry *model.Entry
		want  bool
	}{
		{
			name:  "below level threshold rejected",
			param: FilterParam{MinLevel: model.LevelError},
			entry: entry(model.LevelInfo, "a", "hello"),
			want:  false,
		},
		{
			name:  "at level threshold accepted",
			param: FilterParam{MinLevel: model.LevelError},
			entry: entry(model.LevelError, "b", "world"),
			want:  true,
		},
		{
			name:  "above level threshold accepted",
			param: FilterParam{MinLevel: model.LevelWarn},
			entry: entry(model.LevelFatal, "b", "boom"),
			want:  true,
		},
		{
			name:  "empty expression accepts",
			param: FilterParam{},
			entry: entry(model.LevelTrace, "", ""),
			want:  true,
		},
		{
			name:  "substring match case-insensitive",
			param: FilterParam{Expression: "ell"},
			entry: entry(model.LevelInfo, "", "HELLO"),
			want:  true,
		},
		{
			name:  "substring match case-sensitive rejects",
			param: FilterParam{Expression: "ell", MatchCase: true},
			entry: entry(model.LevelInfo, "", "HELLO"),
			want:  false,
		},
		{
			name:  "substring match case-sensitive accepts exact",
			param: FilterParam{Expression: "ell", MatchCase: true},
			entry: entry(model.LevelInfo, "", "bello"),
			want:  true,
		},
		{
			name:  "category match accepts without message match",
			param: FilterParam{Expression: "net"},
			entry: entry(model.LevelInfo, "network", "connection open"),
			want:  true,
		},
		{
			name:  "no match in category or message rejects",
			param: FilterParam{Expression: "disk"},
			entry: entry(model.LevelInfo, "network", "connection open"),
			want:  false,
		},
		{
			name:  "level gate applies before expression",
			param: FilterParam{MinLevel: model.LevelError, Expression: "hello"},
			entry: entry(model.LevelInfo, "", "hello"),
			want:  false,
		},
		{
			name:  "regex contains match",
			param: FilterParam{Expression: "con.*open", IsRegex: true},
			entry: entry(model.LevelInfo, "", "connection open"),
			want:  true,
		},
		{
			name:  "regex no match rejects",
			param: FilterParam{Expression: "^open", IsRegex: true},
			entry: entry(model.LevelInfo, "", "connection open"),
			want:  false,
		},
		{
			name:  "regex spans newline via dotall",
			param: FilterParam{Expression: "^h.*o$", IsRegex: true},
			entry: entry(model.LevelInfo, "", "line1\nho"),
			want:  true,
		},
		{
			name:  "same anchors as literal substring reject",
			param: FilterParam{Expression: "^h.*o$"},
			entry: entry(model.LevelInfo, "", "line1\nho"),
			want:  false,
		},
		{
			name:  "regex case-insensitive lowers expression",
			param: FilterParam{Expression: "HELLO", IsRegex: true},
			entry: entry(model.LevelInfo, "", "well hello there"),
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFilter(t, tt.param)
			if got := f.Accept(tt.entry); got != tt.want {
				t.Errorf("Accept(%+v) = %v, want %v", tt.entry, got, tt.want)
			}
		})
	}
}

func TestFilterInvalidRegex(t *testing.T) {
	_, err := NewEntryFilter(FilterParam{Expression: "([unclosed", IsRegex: true})
	if err == nil {
		t.Fatal("NewEntryFilter with malformed pattern: want error, got nil")
	}
}

func TestFilterNilAcceptsEverything(t *testing.T) {
	var f *EntryFilter
	if !f.Accept(entry(model.LevelTrace, "any", "thing")) {
		t.Error("nil filter rejected an entry, want accept")
	}
}

func TestFilterEqual(t *testing.T) {
	base := FilterParam{MinLevel: model.LevelWarn, Expression: "x", MatchCase: true, IsRegex: false}
	tests := []struct {
		name string
		a, b FilterParam
		want bool
	}{
		{"identical params", base, base, true},
		{"different level", base, FilterParam{MinLevel: model.LevelError, Expression: "x", MatchCase: true}, false},
		{"different expression", base, FilterParam{MinLevel: model.LevelWarn, Expression: "y", MatchCase: true}, false},
		{"different case flag", base, FilterParam{MinLevel: model.LevelWarn, Expression: "x"}, false},
		{"different regex flag", base, FilterParam{MinLevel: model.LevelWarn, Expression: "x", MatchCase: true, IsRegex: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustFilter(t, tt.a)
			b := mustFilter(t, tt.b)
			if got := a.Equal(b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}

	f := mustFilter(t, base)
	if f.Equal(nil) {
		t.Error("filter.Equal(nil) = true, want false")
	}
	var nilA, nilB *EntryFilter
	if !nilA.Equal(nilB) {
		t.Error("nil.Equal(nil) = false, want true")
	}
}
