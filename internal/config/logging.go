package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogRotationConfig holds configuration for log rotation
type LogRotationConfig struct {
	// Maximum number of days to retain log files
	MaxAge int `yaml:"max_age" toml:"max_age" json:"max_age" env:"HUBHOOKS_LOG_MAX_AGE"`
	// Maximum size in megabytes before rotation
	MaxSize int `yaml:"max_size" toml:"max_size" json:"max_size" env:"HUBHOOKS_LOG_MAX_SIZE"`
	// Maximum number of backup files to retain
	MaxBackups int `yaml:"max_backups" toml:"max_backups" json:"max_backups" env:"HUBHOOKS_LOG_MAX_BACKUPS"`
	// Whether to compress rotated files
	Compress bool `yaml:"compress" toml:"compress" json:"compress" env:"HUBHOOKS_LOG_COMPRESS"`
}

// DefaultLogRotationConfig returns sensible defaults for log rotation
func DefaultLogRotationConfig() LogRotationConfig {
	return LogRotationConfig{
		MaxAge:     30,   // 30 days default retention
		MaxSize:    10,   // 10MB per file
		MaxBackups: 5,    // Keep 5 backup files
		Compress:   true, // Compress old files
	}
}

// LoggingConfig configures the operator log
type LoggingConfig struct {
	Level    string            `yaml:"level" toml:"level" json:"level" env:"HUBHOOKS_LOG_LEVEL"`
	Format   string            `yaml:"format" toml:"format" json:"format" env:"HUBHOOKS_LOG_FORMAT"`
	File     string            `yaml:"file" toml:"file" json:"file" env:"HUBHOOKS_LOG_FILE"`
	Rotation LogRotationConfig `yaml:"rotation" toml:"rotation" json:"rotation"`
}

// SetupLogRotation configures log rotation for a given log file path
func SetupLogRotation(logPath string, config LogRotationConfig) *lumberjack.Logger {
	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		log.Printf("Failed to create log directory: %v", err)
		return nil
	}

	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	}
}

// CleanupOldLogs removes log files older than the specified number of days.
// Lumberjack only prunes backups of the file it owns; this also catches
// logs left behind by a previous log file setting.
func CleanupOldLogs(logDir string, maxAgeDays int) ([]string, error) {
	if maxAgeDays <= 0 {
		return nil, nil
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	var removed []string
	err := filepath.Walk(logDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		// Only consider .log files and compressed log files
		if ext := filepath.Ext(path); ext != ".log" && ext != ".gz" {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove old log file %s: %w", path, err)
			}
			removed = append(removed, path)
		}
		return nil
	})

	return removed, err
}

// Logging format constants
const (
	LoggingFormatJSONL  = "jsonl"
	LoggingFormatPretty = "pretty"
)

// IsValidLoggingFormat returns true if the provided format is supported.
func IsValidLoggingFormat(f string) bool {
	return f == LoggingFormatJSONL || f == LoggingFormatPretty
}

func encoderFor(format string) zapcore.Encoder {
	if format == LoggingFormatPretty {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	})
}

// NewLogger builds the operator logger. Entries go to a rotated file when
// cfg.File is set and to fallback otherwise. The returned close function
// flushes the logger and releases the file.
func NewLogger(cfg LoggingConfig, fallback io.Writer) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if !IsValidLoggingFormat(cfg.Format) {
		return nil, nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	var (
		sink    zapcore.WriteSyncer
		closers []io.Closer
	)
	if cfg.File != "" {
		rotated := SetupLogRotation(cfg.File, cfg.Rotation)
		if rotated == nil {
			return nil, nil, fmt.Errorf("cannot open log file %s", cfg.File)
		}
		sink = zapcore.AddSync(rotated)
		closers = append(closers, rotated)
	} else {
		sink = zapcore.AddSync(fallback)
	}

	logger := zap.New(zapcore.NewCore(encoderFor(cfg.Format), sink, level))
	closeFn := func() error {
		_ = logger.Sync()
		for _, c := range closers {
			if err := c.Close(); err != nil {
				return err
			}
		}
		return nil
	}
	return logger, closeFn, nil
}
