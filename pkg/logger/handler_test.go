package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestLineHandlerWritesSeverityAndData(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewLineHandler(&buf, slog.LevelInfo)).With("uid", "u-1")

	log.Debug("dropped")
	log.Warn("cache miss", "error", errors.New("no snapshot"))

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if event["severity"] != "WARNING" || event["message"] != "cache miss" {
		t.Fatalf("unexpected event: %v", event)
	}
	data, _ := event["data"].(map[string]any)
	if data["uid"] != "u-1" || data["error"] != "no snapshot" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDetachKeepsLogger(t *testing.T) {
	log := New("debug", NewTestHandler)
	ctx, cancel := context.WithCancel(ToContext(context.Background(), log))
	cancel()

	detached := Detach(ctx)
	if detached.Err() != nil {
		t.Fatalf("detached context should not be cancelled")
	}
	if FromContext(detached) != log {
		t.Fatalf("detached context lost the logger")
	}
}
