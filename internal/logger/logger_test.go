package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	newLogger(&buf, "info", true).Info("hello", "component", "test")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"component":"test"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, "warn", false).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record should be filtered at warn level, got %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("a long message body", 10); got != "a long ..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abcdef", 2); got != "..." {
		t.Errorf("got %q", got)
	}
}

func TestGocronLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := Gocron(newLogger(&buf, "info", false))

	l.Info("job scheduled", "name", "sql_maintenance")
	if buf.Len() != 0 {
		t.Fatalf("info from gocron should be demoted below the info level, got %q", buf.String())
	}

	l.Error("job failed", "name", "sql_maintenance")
	out := buf.String()
	if !strings.Contains(out, "job failed") || !strings.Contains(out, "source=gocron") {
		t.Fatalf("unexpected output %q", out)
	}
}
