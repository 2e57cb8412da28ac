package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// SlogLogger adapts the printf-style Logger interface onto log/slog so the
// same call sites can emit structured JSON or logfmt records.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps an existing slog.Logger.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewStructuredLogger builds a slog-backed logger writing to w.
// format is "json" or "text".
func NewStructuredLogger(w io.Writer, format string, level Level) *SlogLogger {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &SlogLogger{l: slog.New(h)}
}

// With returns a child logger that always includes the given key/value pairs.
func (s *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{l: s.l.With(args...)}
}

func (s *SlogLogger) Info(msg string, args ...interface{}) {
	s.l.Log(context.Background(), slog.LevelInfo, fmt.Sprintf(msg, args...))
}

func (s *SlogLogger) Error(msg string, args ...interface{}) {
	s.l.Log(context.Background(), slog.LevelError, fmt.Sprintf(msg, args...))
}

func (s *SlogLogger) Debug(msg string, args ...interface{}) {
	s.l.Log(context.Background(), slog.LevelDebug, fmt.Sprintf(msg, args...))
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
