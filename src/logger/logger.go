package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, structured).
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// Level controls which messages a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ConsoleLogger writes human-readable logs to stdout/stderr.
// Used for normal operation and debugging.
type ConsoleLogger struct {
	level  Level
	out    io.Writer
	errOut io.Writer
}

func NewConsoleLogger() *ConsoleLogger {
	return NewConsoleLoggerWithLevel(LevelInfo)
}

func NewConsoleLoggerWithLevel(level Level) *ConsoleLogger {
	return &ConsoleLogger{level: level, out: os.Stdout, errOut: os.Stderr}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	if c.level > LevelInfo {
		return
	}
	fmt.Fprintf(c.out, "[INFO] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	fmt.Fprintf(c.errOut, "[ERROR] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if c.level > LevelDebug {
		return
	}
	fmt.Fprintf(c.out, "[DEBUG] "+msg+"\n", args...)
}

// SilentLogger discards all log messages.
// Used when running in TUI mode to prevent log output from interfering with the display.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}

// OrSilent returns l, or a SilentLogger when l is nil.
func OrSilent(l Logger) Logger {
	if l == nil {
		return NewSilentLogger()
	}
	return l
}
