// Package config loads the hubhooks configuration file, applies
// environment overrides and builds the operator logger.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	yaml "gopkg.in/yaml.v3"

	"github.com/klauern/hubhooks/internal/constants"
)

// Duration is a time.Duration written as a Go duration string ("1s", "250ms")
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DispatcherConfig holds dispatcher and admin command settings
type DispatcherConfig struct {
	AdminClass      int    `yaml:"admin_class" toml:"admin_class" json:"admin_class" env:"HUBHOOKS_ADMIN_CLASS"`
	CommandMarker   string `yaml:"command_marker" toml:"command_marker" json:"command_marker" env:"HUBHOOKS_COMMAND_MARKER"`
	CommandWord     string `yaml:"command_word" toml:"command_word" json:"command_word" env:"HUBHOOKS_COMMAND_WORD"`
	DefaultPriority int    `yaml:"default_priority" toml:"default_priority" json:"default_priority" env:"HUBHOOKS_DEFAULT_PRIORITY"`
}

// StoreConfig locates the key/value store used by bundled scripts
type StoreConfig struct {
	Path string `yaml:"path" toml:"path" json:"path" env:"HUBHOOKS_STORE_PATH"`
}

// TimerConfig controls the periodic OnTimer source
type TimerConfig struct {
	Interval Duration `yaml:"interval" toml:"interval" json:"interval" env:"HUBHOOKS_TIMER_INTERVAL"`
}

// ScriptConfig selects a bundled script and its registration parameters
type ScriptConfig struct {
	Key      string            `yaml:"key" toml:"key" json:"key"`
	Priority *int              `yaml:"priority,omitempty" toml:"priority,omitempty" json:"priority,omitempty"`
	Disabled bool              `yaml:"disabled,omitempty" toml:"disabled,omitempty" json:"disabled,omitempty"`
	Options  map[string]string `yaml:"options,omitempty" toml:"options,omitempty" json:"options,omitempty"`
}

// Config is the root configuration document
type Config struct {
	Dispatcher DispatcherConfig `yaml:"dispatcher" toml:"dispatcher" json:"dispatcher"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging" json:"logging"`
	Store      StoreConfig      `yaml:"store" toml:"store" json:"store"`
	Timer      TimerConfig      `yaml:"timer" toml:"timer" json:"timer"`
	Scripts    []ScriptConfig   `yaml:"scripts" toml:"scripts" json:"scripts"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Dispatcher: DispatcherConfig{
			AdminClass:      constants.DefaultAdminClass,
			CommandMarker:   constants.DefaultCommandMarker,
			CommandWord:     constants.DefaultCommandWord,
			DefaultPriority: constants.DefaultPriority,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   LoggingFormatJSONL,
			Rotation: DefaultLogRotationConfig(),
		},
		Store: StoreConfig{Path: constants.DefaultStoreFile},
		Timer: TimerConfig{Interval: Duration(time.Second)},
		Scripts: []ScriptConfig{
			{Key: "chatlog"},
			{Key: "floodguard"},
			{Key: "greeter"},
			{Key: "seen"},
			{Key: "uptime"},
		},
	}
}

// Format identifies a configuration file encoding
type Format string

// Supported configuration formats
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
}

// Load reads the file at path over the defaults, applies HUBHOOKS_*
// environment overrides and validates the result. An empty path loads the
// defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - path comes from the operator
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		format, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		if err := Decode(data, format, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Decode unmarshals data in the given format into cfg
func Decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatYAML:
		// a file listing scripts replaces the default list
		cfg.Scripts = nil
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	case FormatTOML:
		cfg.Scripts = nil
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return err
		}
	case FormatJSON:
		cfg.Scripts = nil
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported config format: %s", format)
	}
	return nil
}

// ParseEnv applies HUBHOOKS_* environment overrides to target
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv overrides scalar settings from HUBHOOKS_* variables. The script
// list is file-only.
func (c *Config) ApplyEnv() error {
	for _, section := range []any{&c.Dispatcher, &c.Logging, &c.Store, &c.Timer} {
		if err := ParseEnv(section); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports every problem found in the configuration
func (c *Config) Validate() error {
	var err error

	d := c.Dispatcher
	if d.AdminClass < 0 {
		err = multierr.Append(err, fmt.Errorf("dispatcher.admin_class must not be negative, got %d", d.AdminClass))
	}
	if d.CommandMarker == "" {
		err = multierr.Append(err, errors.New("dispatcher.command_marker must not be empty"))
	}
	if d.CommandWord == "" || strings.ContainsAny(d.CommandWord, " \t") {
		err = multierr.Append(err, fmt.Errorf("dispatcher.command_word must be a single word, got %q", d.CommandWord))
	}

	if _, lerr := zapcore.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("logging.level: %w", lerr))
	}
	if !IsValidLoggingFormat(c.Logging.Format) {
		err = multierr.Append(err, fmt.Errorf("logging.format must be %q or %q, got %q",
			LoggingFormatJSONL, LoggingFormatPretty, c.Logging.Format))
	}
	r := c.Logging.Rotation
	if r.MaxAge < 0 || r.MaxSize < 0 || r.MaxBackups < 0 {
		err = multierr.Append(err, errors.New("logging.rotation values must not be negative"))
	}

	if c.Timer.Interval.Std() <= 0 {
		err = multierr.Append(err, fmt.Errorf("timer.interval must be positive, got %s", c.Timer.Interval))
	}

	seen := make(map[string]bool, len(c.Scripts))
	for i, s := range c.Scripts {
		switch {
		case s.Key == "":
			err = multierr.Append(err, fmt.Errorf("scripts[%d].key must not be empty", i))
		case seen[s.Key]:
			err = multierr.Append(err, fmt.Errorf("scripts[%d]: script %q listed twice", i, s.Key))
		}
		seen[s.Key] = true
	}

	return err
}

// Marshal encodes cfg in the given format
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to marshal TOML config: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON config: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}
}

// WriteDefault writes the default configuration to path. An existing file
// is kept unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(Default(), format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
