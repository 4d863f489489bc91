package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a logger at the named level using the given handler factory.
func New(level string, handler func(level slog.Level) slog.Handler) *slog.Logger {
	return slog.New(handler(ParseLevel(level)))
}

// NewJSONLines is the handler factory used by the agent: one JSON object per line on stdout.
func NewJSONLines(level slog.Level) slog.Handler {
	return NewLineHandler(os.Stdout, level)
}

// NewTestHandler discards everything.
func NewTestHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
