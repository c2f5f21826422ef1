package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger = logger.With(String(FieldComponent, "ranker"))
	logger.Info("scored window", String(FieldWindowID, "window_003"), Float64("final", 0.42))

	line := buf.String()
	if !strings.Contains(line, "INFO ranker: scored window") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "window_id=window_003") {
		t.Fatalf("missing window attr: %q", line)
	}
	if !strings.Contains(line, "final=0.42") {
		t.Fatalf("missing float attr: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.Info("msg", String("detail", "two words"))
	if !strings.Contains(buf.String(), `detail="two words"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be suppressed, got %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "WARN kept") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewComponentLoggerWithNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "probe")
	if logger == nil {
		t.Fatal("expected logger")
	}
	// Must not panic when used.
	logger.Info("noop")
}
