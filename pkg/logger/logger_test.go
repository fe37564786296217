package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		result := ParseLevel(tt.input)
		if result != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "text", &buf)

	log.Info("hello", "key", "value")
	out := buf.String()
	if !strings.Contains(out, "msg=hello") {
		t.Errorf("expected text output to contain msg=hello, got %q", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected text output to contain key=value, got %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)

	log.Info("hello")
	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("error", "text", &buf)

	log.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("expected info message to be suppressed at error level, got %q", buf.String())
	}

	log.Error("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected error message to be logged, got %q", buf.String())
	}
}

func TestSetDefault(t *testing.T) {
	var buf bytes.Buffer
	original := Default
	defer SetDefault(original)

	SetDefault(New("debug", "text", &buf))
	Debug("through default")
	if !strings.Contains(buf.String(), "through default") {
		t.Errorf("expected default logger to receive message, got %q", buf.String())
	}
}
