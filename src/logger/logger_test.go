package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConsoleLogger_LevelGating(t *testing.T) {
	var out, errOut bytes.Buffer
	l := &ConsoleLogger{level: LevelInfo, out: &out, errOut: &errOut}

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	l.Error("failed %s", "x")

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("debug message should be suppressed at info level, got %q", out.String())
	}
	if !strings.Contains(out.String(), "[INFO] shown 2") {
		t.Errorf("stdout = %q, want info line", out.String())
	}
	if !strings.Contains(errOut.String(), "[ERROR] failed x") {
		t.Errorf("stderr = %q, want error line", errOut.String())
	}
}

func TestStructuredLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewStructuredLogger(&buf, "json", LevelInfo).With("component", "view")

	l.Debug("not emitted")
	l.Error("fetch %s failed", "42")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d records, want 1: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "fetch 42 failed" {
		t.Errorf("msg = %v, want %q", rec["msg"], "fetch 42 failed")
	}
	if rec["component"] != "view" {
		t.Errorf("component = %v, want view", rec["component"])
	}
	if rec["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", rec["level"])
	}
}

func TestOrSilent(t *testing.T) {
	if _, ok := OrSilent(nil).(*SilentLogger); !ok {
		t.Error("OrSilent(nil) should return a SilentLogger")
	}
	c := NewConsoleLogger()
	if OrSilent(c) != Logger(c) {
		t.Error("OrSilent should return a non-nil logger unchanged")
	}
}
