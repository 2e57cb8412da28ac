package mcp

import (
	"fmt"
	"regexp"
	"strings"

	"travisjr/src/sanitize"
)

// timestampPattern matches leading timestamps in various formats:
// - 2024-05-21T10:00:05.123Z
// - 2024-05-21 10:00:05,123
// - 2024-05-21T10:00:05+00:00
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}[.,]?\d*[Z]?([+-]\d{2}:?\d{2})?\s*`)

func stripTimestamps(line string) string {
	return timestampPattern.ReplaceAllString(line, "")
}

// longPathPattern matches absolute paths with 3+ directories, such as the
// /home/travis/build/owner/repo checkout. The filename and line number stay.
var longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

func compressPath(line string) string {
	return longPathPattern.ReplaceAllString(line, ".../$1")
}

// minPrefixLength is the shortest prefix worth replacing with "...".
const minPrefixLength = 20

// findCommonPrefix finds the longest common prefix across lines, or "" when
// it is shorter than minPrefixLength.
func findCommonPrefix(lines []string) string {
	if len(lines) < 2 {
		return ""
	}

	prefix := lines[0]
	for _, line := range lines[1:] {
		for len(prefix) > 0 && !strings.HasPrefix(line, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			break
		}
	}

	if len(prefix) < minPrefixLength {
		return ""
	}
	return prefix
}

func removeCommonPrefix(lines []string) []string {
	prefix := findCommonPrefix(lines)
	if prefix == "" {
		return lines
	}

	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = "... " + line[len(prefix):]
	}
	return result
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func normalizeWhitespace(line string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

// collapseRepeats folds runs of identical lines, which progress output
// produces in bulk, into one line with a count.
func collapseRepeats(lines []string) []string {
	var out []string
	for i := 0; i < len(lines); {
		j := i + 1
		for j < len(lines) && lines[j] == lines[i] {
			j++
		}
		if n := j - i; n > 1 {
			out = append(out, fmt.Sprintf("%s (repeated %d times)", lines[i], n))
		} else {
			out = append(out, lines[i])
		}
		i = j
	}
	return out
}

// compactLog turns a raw job log into short, machine-readable lines: Travis
// markers and ANSI codes go, blank lines go, and each line is shortened.
func compactLog(raw string) []string {
	text := sanitize.Clean(raw)
	if text == "" {
		return []string{}
	}

	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for _, line := range strings.Split(text, "\n") {
		line = normalizeWhitespace(compressPath(stripTimestamps(line)))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return removeCommonPrefix(collapseRepeats(lines))
}

// tail returns the last n lines.
func tail(lines []string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
