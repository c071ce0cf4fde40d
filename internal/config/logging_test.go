package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLoggerJSONL(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := NewLogger(LoggingConfig{Level: "info", Format: LoggingFormatJSONL}, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Named("dispatcher").Info("registered script")
	logger.Debug("dropped below level")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one entry, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v", err)
	}
	if entry["message"] != "registered script" || entry["level"] != "info" || entry["logger"] != "dispatcher" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewLoggerPretty(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := NewLogger(LoggingConfig{Level: "debug", Format: LoggingFormatPretty}, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Debug("tick")
	_ = closeFn()

	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "tick") {
		t.Errorf("expected console output, got %q", buf.String())
	}
}

func TestNewLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hubhooks.log")
	cfg := LoggingConfig{Level: "info", Format: LoggingFormatJSONL, File: path, Rotation: DefaultLogRotationConfig()}

	var fallback bytes.Buffer
	logger, closeFn, err := NewLogger(cfg, &fallback)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Warn("to file")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file missing entry: %q", data)
	}
	if fallback.Len() != 0 {
		t.Errorf("fallback writer must stay empty, got %q", fallback.String())
	}
}

func TestNewLoggerRejectsBadConfig(t *testing.T) {
	if _, _, err := NewLogger(LoggingConfig{Level: "chatty", Format: LoggingFormatJSONL}, os.Stderr); err == nil {
		t.Error("expected error for an unknown level")
	}
	if _, _, err := NewLogger(LoggingConfig{Level: "info", Format: "xml"}, os.Stderr); err == nil {
		t.Error("expected error for an unknown format")
	}
}

func TestIsValidLoggingFormat(t *testing.T) {
	tests := map[string]bool{"jsonl": true, "pretty": true, "json": false, "": false}
	for format, want := range tests {
		if got := IsValidLoggingFormat(format); got != want {
			t.Errorf("IsValidLoggingFormat(%q) = %v, want %v", format, got, want)
		}
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().AddDate(0, 0, -10)

	files := map[string]bool{
		"old.log":    true,
		"old.log.gz": true,
		"old.txt":    false,
		"fresh.log":  false,
	}
	for name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		if strings.HasPrefix(name, "old") {
			if err := os.Chtimes(path, old, old); err != nil {
				t.Fatal(err)
			}
		}
	}

	removed, err := CleanupOldLogs(dir, 7)
	if err != nil {
		t.Fatalf("CleanupOldLogs: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("expected 2 removed files, got %v", removed)
	}
	for name, gone := range files {
		_, err := os.Stat(filepath.Join(dir, name))
		if gone != os.IsNotExist(err) {
			t.Errorf("%s: removed=%v, want %v", name, os.IsNotExist(err), gone)
		}
	}

	if removed, err := CleanupOldLogs(dir, 0); err != nil || removed != nil {
		t.Errorf("maxAge 0 must be a no-op, got %v %v", removed, err)
	}
}
