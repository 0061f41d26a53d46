package logparse

import (
	"testing"

	"github.com/tinytelemetry/lumen/internal/model"
)

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected model.Level
	}{
		// Standard forms
		{"TRACE", model.LevelTrace}, {"DEBUG", model.LevelDebug}, {"INFO", model.LevelInfo},
		{"WARN", model.LevelWarn}, {"ERROR", model.LevelError}, {"FATAL", model.LevelFatal},
		// Variants
		{"TRAC", model.LevelTrace}, {"TRC", model.LevelTrace},
		{"DEBU", model.LevelDebug}, {"DBG", model.LevelDebug}, {"DEB", model.LevelDebug},
		{"INFORMATION", model.LevelInfo}, {"INF", model.LevelInfo},
		{"WARNING", model.LevelWarn}, {"WRNG", model.LevelWarn}, {"WRN", model.LevelWarn},
		{"ERR", model.LevelError}, {"ERRO", model.LevelError},
		{"FATL", model.LevelFatal}, {"FTL", model.LevelFatal},
		{"CRITICAL", model.LevelFatal}, {"CRIT", model.LevelFatal}, {"CRT", model.LevelFatal},
		{"PANIC", model.LevelFatal}, {"PNC", model.LevelFatal},
		// Case insensitive
		{"info", model.LevelInfo}, {"warn", model.LevelWarn}, {"error", model.LevelError},
		{"debug", model.LevelDebug}, {"trace", model.LevelTrace}, {"fatal", model.LevelFatal},
		// Prefix matching
		{"INFORMATION_EXTRA", model.LevelInfo}, {"WARNING_LEVEL", model.LevelWarn},
		{"ERROR_CODE_42", model.LevelError}, {"DEBUG_VERBOSE", model.LevelDebug},
		{"TRACE_ALL", model.LevelTrace}, {"FATAL_CRASH", model.LevelFatal},
		{"CRITICAL_ALERT", model.LevelFatal},
		// Unknown defaults to INFO
		{"", model.LevelInfo}, {"UNKNOWN", model.LevelInfo}, {"foo", model.LevelInfo},
		// Whitespace
		{"  INFO  ", model.LevelInfo}, {"\tWARN\t", model.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeLevel(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractLevelFromText(t *testing.T) {
	tests := []struct {
		input    string
		expected model.Level
		found    bool
	}{
		{"2024-01-01 INFO Starting server", model.LevelInfo, true},
		{"ERROR: connection refused", model.LevelError, true},
		{"[WARN] disk usage high", model.LevelWarn, true},
		{"FATAL out of memory", model.LevelFatal, true},
		{"DEBUG checking cache", model.LevelDebug, true},
		{"TRACE entering function", model.LevelTrace, true},
		{"WARNING deprecated API", model.LevelWarn, true},
		{"CRITICAL system failure", model.LevelFatal, true},
		{"no severity here", model.LevelInfo, false},
		{"", model.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, found := ExtractLevelFromText(tt.input)
			if got != tt.expected || found != tt.found {
				t.Errorf("ExtractLevelFromText(%q) = (%v, %v), want (%v, %v)",
					tt.input, got, found, tt.expected, tt.found)
			}
		})
	}
}

func TestNumericLevel(t *testing.T) {
	tests := []struct {
		input    int
		expected model.Level
	}{
		{10, model.LevelTrace}, {20, model.LevelDebug}, {30, model.LevelInfo},
		{40, model.LevelWarn}, {50, model.LevelError}, {60, model.LevelFatal},
		{5, model.LevelTrace}, {25, model.LevelDebug}, {35, model.LevelInfo},
		{45, model.LevelWarn}, {55, model.LevelError}, {99, model.LevelFatal},
	}

	for _, tt := range tests {
		got := NumericLevel(tt.input)
		if got != tt.expected {
			t.Errorf("NumericLevel(%d) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestOTLPSeverityNumber(t *testing.T) {
	tests := []struct {
		input    int
		expected model.Level
	}{
		{0, model.LevelInfo},
		{1, model.LevelTrace}, {4, model.LevelTrace},
		{5, model.LevelDebug}, {8, model.LevelDebug},
		{9, model.LevelInfo}, {12, model.LevelInfo},
		{13, model.LevelWarn}, {16, model.LevelWarn},
		{17, model.LevelError}, {20, model.LevelError},
		{21, model.LevelFatal}, {24, model.LevelFatal},
	}

	for _, tt := range tests {
		got := OTLPSeverityNumber(tt.input)
		if got != tt.expected {
			t.Errorf("OTLPSeverityNumber(%d) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
