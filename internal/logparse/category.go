package logparse

import (
	"regexp"
	"strings"
)

// Category prefixes as apps commonly emit them: "[network] msg" or
// "http.client: msg". The colon form requires a plausible logger name so
// ordinary prose with a colon is left alone.
var (
	bracketCategory = regexp.MustCompile(`^\[([^\[\]\s]{1,64})\]\s*`)
	colonCategory   = regexp.MustCompile(`^([A-Za-z_][\w.\-/]{0,63}):\s+`)
)

// severityTokens are never categories even when they appear in category
// position ("ERROR: boom" carries a level, not a logger name).
var severityTokens = map[string]bool{
	"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true,
	"WARNING": true, "ERROR": true, "FATAL": true, "CRITICAL": true,
}

// ExtractCategory splits a leading category marker off the message.
// Without a recognizable marker the category is empty and the message is
// returned unchanged.
func ExtractCategory(message string) (category, rest string) {
	if m := bracketCategory.FindStringSubmatch(message); m != nil {
		if !severityTokens[strings.ToUpper(m[1])] {
			return m[1], message[len(m[0]):]
		}
		return "", message
	}
	if m := colonCategory.FindStringSubmatch(message); m != nil {
		if !severityTokens[strings.ToUpper(m[1])] {
			return m[1], message[len(m[0]):]
		}
	}
	return "", message
}
