package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// LoggerConfig selects where log records go.
type LoggerConfig struct {
	Writer io.Writer
	Level  string

	FluentEnabled bool
	FluentHost    string
	FluentPort    int
}

// Logger provides leveled, printf-style logging throughout the application.
// Records go to a colored console handler and, optionally, to Fluent Bit.
type Logger struct {
	slog   *slog.Logger
	level  slog.Level
	fluent *fluent.Fluent
}

// NewLogger creates a Logger writing info and above to stdout.
func NewLogger() *Logger {
	l, _ := NewLoggerWithConfig(LoggerConfig{})
	return l
}

// NewLoggerWithConfig creates a Logger from cfg. A Fluent Bit connection
// failure is returned together with a console-only logger.
func NewLoggerWithConfig(cfg LoggerConfig) (*Logger, error) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	level := ParseLevel(cfg.Level)

	handler := tint.NewHandler(cfg.Writer, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
	})
	l := &Logger{slog: slog.New(handler), level: level}

	if !cfg.FluentEnabled {
		return l, nil
	}

	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.FluentHost,
		FluentPort: cfg.FluentPort,
		Async:      true,
	})
	if err != nil {
		return l, fmt.Errorf("logger: connect fluent bit %s:%d: %w", cfg.FluentHost, cfg.FluentPort, err)
	}
	l.fluent = client
	return l, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (l *Logger) log(level slog.Level, tag string, format string, args ...any) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.slog.Log(context.Background(), level, msg)

	if l.fluent != nil {
		_ = l.fluent.Post(tag, map[string]string{
			"level":     tag,
			"message":   msg,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, "info", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(slog.LevelWarn, "warn", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(slog.LevelError, "error", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, "debug", format, args...)
}

// Close flushes and closes the Fluent Bit connection, if any.
func (l *Logger) Close() error {
	if l.fluent == nil {
		return nil
	}
	return l.fluent.Close()
}
