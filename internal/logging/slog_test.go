package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
		isJSON  bool
	}{
		{name: "defaults", level: "", format: ""},
		{name: "json debug", level: "debug", format: "json", isJSON: true},
		{name: "upper case", level: "WARN", format: "TEXT"},
		{name: "bad level", level: "loud", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewWithWriter(&buf, tt.level, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			logger.Error("hello", RunID("r1"))
			if tt.isJSON {
				var entry map[string]any
				if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
					t.Fatalf("expected JSON output, got %q", buf.String())
				}
				if entry[KeyRunID] != "r1" {
					t.Errorf("run_id = %v, want r1", entry[KeyRunID])
				}
			} else if !strings.Contains(buf.String(), "run_id=r1") {
				t.Errorf("expected text output with run_id, got %q", buf.String())
			}
		})
	}
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "warn", "text")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	WithProvider(WithTool(WithRunID(base, "run-1"), "tasks.list"), "gemini").Info("x")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]string{
		KeyRunID:    "run-1",
		KeyTool:     "tasks.list",
		KeyProvider: "gemini",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %q", key, entry[key], want)
		}
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		attr     slog.Attr
		key      string
		expected string
	}{
		{Operation("list"), KeyOperation, "list"},
		{Provider("openai"), KeyProvider, "openai"},
		{Tool("tasks.create"), KeyTool, "tasks.create"},
		{Status(StatusSuccess), KeyStatus, "success"},
		{RunID("abc"), KeyRunID, "abc"},
		{Rounds(3), KeyRounds, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.key)
			}
			if tt.attr.Value.String() != tt.expected {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.expected)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("test error"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// Empty Group has empty key
	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string (empty group)", attr.Key)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[key:6 chars]"},
		{"AIzaSyA-very-long-api-key", "[key:25 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeKey(tt.key); got != tt.expected {
				t.Errorf("SanitizeKey(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate long = %q", got)
	}
	if got := Truncate("äöüäöü", 3); got != "äöü..." {
		t.Errorf("Truncate runes = %q", got)
	}
}
