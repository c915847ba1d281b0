package gravisim

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestCorrelationID(t *testing.T) {
	id := NewCorrelationID()
	if len(id) != 16 {
		t.Errorf("len(%q) = %d, want 16", id, len(id))
	}
	if id == NewCorrelationID() {
		t.Error("two IDs are equal")
	}

	ctx := context.Background()
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("empty context carries %q", got)
	}
	ctx = WithCorrelationID(ctx, "abc")
	if got := CorrelationIDFromContext(ctx); got != "abc" {
		t.Errorf("ID = %q, want abc", got)
	}
	if got := EnsureCorrelationID(ctx); got != ctx {
		t.Error("EnsureCorrelationID replaced an existing ID")
	}
	if got := CorrelationIDFromContext(EnsureCorrelationID(context.Background())); got == "" {
		t.Error("EnsureCorrelationID did not add an ID")
	}
	if got := CorrelationIDFromContext(WithCorrelationID(context.Background(), "")); got == "" {
		t.Error("empty ID not replaced")
	}
}

func TestCorrelatedLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithCorrelationID(context.Background(), "req-1")
	logger := NewCorrelatedLogger(ctx, JSONLogger(&buf, slog.LevelDebug))

	logger.Info("hello", "k", "v")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if rec["correlation_id"] != "req-1" || rec["k"] != "v" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	logger.WithContext(context.Background()).Warn("plain")
	if strings.Contains(buf.String(), "correlation_id") {
		t.Errorf("uncorrelated record carries an ID: %s", buf.String())
	}

	// A nil logger discards.
	NewCorrelatedLogger(ctx, nil).Error("dropped")
}

func TestCorrelatedSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := CorrelatedJSONLogger(&buf, slog.LevelInfo).With("component", "test")

	logger.InfoContext(WithCorrelationID(context.Background(), "sess-9"), "frame")
	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"sess-9"`) || !strings.Contains(out, `"component":"test"`) {
		t.Errorf("output = %s", out)
	}

	buf.Reset()
	logger.DebugContext(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %s", buf.String())
	}
}

func TestSlogFor(t *testing.T) {
	var buf bytes.Buffer
	l := slogFor(JSONLogger(&buf, slog.LevelInfo))
	l.InfoContext(WithCorrelationID(context.Background(), "x1"), "hi")
	if !strings.Contains(buf.String(), `"correlation_id":"x1"`) {
		t.Errorf("output = %s", buf.String())
	}

	// Loggers not backed by slog are discarded.
	slogFor(NopLogger()).Info("dropped")
}

func TestLoggers(t *testing.T) {
	for _, l := range []Logger{DefaultLogger(), DebugLogger(), NopLogger()} {
		if l == nil {
			t.Fatal("nil logger")
		}
	}
	if NewSlogAdapter(nil).Slog() == nil {
		t.Error("NewSlogAdapter(nil) has no logger")
	}
}
