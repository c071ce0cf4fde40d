package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Dispatcher.AdminClass != 10 || cfg.Dispatcher.CommandMarker != "!" || cfg.Dispatcher.CommandWord != "dispatcher" {
		t.Errorf("unexpected dispatcher defaults: %+v", cfg.Dispatcher)
	}
	if cfg.Timer.Interval.Std() != time.Second {
		t.Errorf("expected 1s timer, got %s", cfg.Timer.Interval)
	}
}

func TestLoadFormats(t *testing.T) {
	five := 5
	want := []ScriptConfig{
		{Key: "floodguard", Priority: &five, Options: map[string]string{"limit": "3"}},
		{Key: "greeter", Disabled: true},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "hubhooks.yml",
			content: `dispatcher:
  admin_class: 5
logging:
  level: debug
  format: pretty
timer:
  interval: 250ms
scripts:
  - key: floodguard
    priority: 5
    options:
      limit: "3"
  - key: greeter
    disabled: true
`,
		},
		{
			name: "toml",
			file: "hubhooks.toml",
			content: `[dispatcher]
admin_class = 5

[logging]
level = "debug"
format = "pretty"

[timer]
interval = "250ms"

[[scripts]]
key = "floodguard"
priority = 5
[scripts.options]
limit = "3"

[[scripts]]
key = "greeter"
disabled = true
`,
		},
		{
			name: "json",
			file: "hubhooks.json",
			content: `{
  "dispatcher": {"admin_class": 5},
  "logging": {"level": "debug", "format": "pretty"},
  "timer": {"interval": "250ms"},
  "scripts": [
    {"key": "floodguard", "priority": 5, "options": {"limit": "3"}},
    {"key": "greeter", "disabled": true}
  ]
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Dispatcher.AdminClass != 5 {
				t.Errorf("admin_class = %d, want 5", cfg.Dispatcher.AdminClass)
			}
			// unspecified keys keep their defaults
			if cfg.Dispatcher.CommandWord != "dispatcher" {
				t.Errorf("command_word = %q, want default", cfg.Dispatcher.CommandWord)
			}
			if cfg.Logging.Format != LoggingFormatPretty || cfg.Logging.Level != "debug" {
				t.Errorf("unexpected logging config: %+v", cfg.Logging)
			}
			if cfg.Logging.Rotation != DefaultLogRotationConfig() {
				t.Errorf("rotation defaults lost: %+v", cfg.Logging.Rotation)
			}
			if cfg.Timer.Interval.Std() != 250*time.Millisecond {
				t.Errorf("interval = %s, want 250ms", cfg.Timer.Interval)
			}
			if diff := cmp.Diff(want, cfg.Scripts); diff != "" {
				t.Errorf("scripts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HUBHOOKS_ADMIN_CLASS", "3")
	t.Setenv("HUBHOOKS_COMMAND_MARKER", "+")
	t.Setenv("HUBHOOKS_LOG_LEVEL", "warn")
	t.Setenv("HUBHOOKS_LOG_MAX_BACKUPS", "9")
	t.Setenv("HUBHOOKS_STORE_PATH", ":memory:")
	t.Setenv("HUBHOOKS_TIMER_INTERVAL", "2s")

	cfg, err := Load(writeFile(t, "c.yml", "dispatcher:\n  admin_class: 7\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dispatcher.AdminClass != 3 {
		t.Errorf("env must override the file, got admin_class %d", cfg.Dispatcher.AdminClass)
	}
	if cfg.Dispatcher.CommandMarker != "+" {
		t.Errorf("command_marker = %q", cfg.Dispatcher.CommandMarker)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Rotation.MaxBackups != 9 {
		t.Errorf("unexpected logging: %+v", cfg.Logging)
	}
	if cfg.Store.Path != ":memory:" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Timer.Interval.Std() != 2*time.Second {
		t.Errorf("interval = %s", cfg.Timer.Interval)
	}
}

func TestLoadEnvError(t *testing.T) {
	t.Setenv("HUBHOOKS_ADMIN_CLASS", "master")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unsupported extension", "c.ini", "x=1", "unsupported config format"},
		{"unknown yaml field", "c.yml", "dispatcher:\n  admin_clas: 3\n", "failed to parse"},
		{"unknown json field", "c.json", `{"bogus": 1}`, "failed to parse"},
		{"bad duration", "c.yml", "timer:\n  interval: soon\n", "failed to parse"},
		{"invalid values", "c.yml", "logging:\n  format: xml\n", "invalid configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.Dispatcher.AdminClass = -1
	cfg.Dispatcher.CommandMarker = ""
	cfg.Dispatcher.CommandWord = "two words"
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"
	cfg.Logging.Rotation.MaxAge = -1
	cfg.Timer.Interval = 0
	cfg.Scripts = []ScriptConfig{{Key: "seen"}, {Key: ""}, {Key: "seen"}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if got := len(multierr.Errors(err)); got != 9 {
		t.Errorf("expected 9 errors, got %d: %v", got, err)
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yml", "config.toml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			if err := WriteDefault(path, false); err != nil {
				t.Fatalf("WriteDefault: %v", err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(Default(), cfg); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			if err := WriteDefault(path, false); err == nil {
				t.Error("expected an error when the file exists")
			}
			if err := WriteDefault(path, true); err != nil {
				t.Errorf("overwrite: %v", err)
			}
		})
	}
}
