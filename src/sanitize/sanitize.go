// Package sanitize provides utilities for cleaning job logs for machine consumers.
// It removes ANSI escape codes and Travis fold/timing markers to produce
// clean, readable text suitable for MCP tool responses.
//
// This package is specifically for MCP and plain output. For TUI rendering,
// use the tui package which has its own ANSI handling via charmbracelet/x/ansi.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// ANSI CSI sequences: colors (\x1b[31m) and line erasure (\x1b[0K)
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

	// Travis section markers: travis_fold:start:install\r, travis_time:end:abc:start=1,finish=2,duration=1\r
	travisMarker = regexp.MustCompile(`travis_(?:fold|time):(?:start|end):[^\r\n]*\r?`)
)

// StripANSI removes ANSI escape codes.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// StripTravisMarkers removes fold and timing markers the Travis worker
// writes around each build step.
func StripTravisMarkers(s string) string {
	return travisMarker.ReplaceAllString(s, "")
}

// Clean strips markers and escape codes, normalizes line endings and drops
// surrounding whitespace.
func Clean(s string) string {
	s = StripTravisMarkers(s)
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}

// Tail returns the last n lines of s.
func Tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
