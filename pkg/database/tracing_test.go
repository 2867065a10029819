package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTraceQuery_SlowQueryLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	SetSlowQueryLogging(time.Nanosecond, logger)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	_, end := TraceQuery(context.Background(), "GetGame", "SELECT id FROM games WHERE id = $1")
	time.Sleep(time.Millisecond)
	end(errors.New("query canceled"))

	out := buf.String()
	if !strings.Contains(out, "slow query detected") {
		t.Fatalf("expected slow query warning, got %q", out)
	}
	if !strings.Contains(out, "GetGame") || !strings.Contains(out, "query canceled") {
		t.Errorf("log entry missing operation or error: %q", out)
	}
}

func TestTraceQuery_SlowQueryLoggingDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	// Zero threshold disables logging entirely.
	SetSlowQueryLogging(0, logger)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	_, end := TraceQuery(context.Background(), "ListGames", "SELECT id FROM games")
	end(nil)

	if buf.Len() != 0 {
		t.Errorf("expected no log output, got %q", buf.String())
	}
}
