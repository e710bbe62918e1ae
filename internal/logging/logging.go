// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"pinstock/internal/models"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "pinstock", "logs", "pinstock.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					switch ll {
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return ll
					}
				}
				return "???"
			},
		}
		writers = append(writers, consoleWriter)
	}

	// File writer with rotation
	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	if len(writers) == 0 {
		writer = os.Stdout
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithTarget binds target identity fields to the logger.
func WithTarget(logger zerolog.Logger, t models.Target) zerolog.Logger {
	return logger.With().
		Str("product", t.ProductID).
		Str("pincode", t.Pincode).
		Str("platform", string(t.Platform)).
		Logger()
}

// LogFetch logs the outcome of a single fetch attempt.
func LogFetch(logger zerolog.Logger, t models.Target, status models.StockStatus, attempt int, err error) {
	event := logger.Info()
	if err != nil {
		event = logger.Warn().Err(err)
	}
	event.
		Str("event", "fetch").
		Str("product", t.ProductID).
		Str("pincode", t.Pincode).
		Str("platform", string(t.Platform)).
		Str("status", status.String()).
		Int("attempt", attempt).
		Msg("Fetch completed")
}

// LogTransition logs a detected status transition.
func LogTransition(logger zerolog.Logger, t models.Target, kind models.AlertKind, previous, current models.StockStatus) {
	logger.Info().
		Str("event", "transition").
		Str("product", t.ProductID).
		Str("pincode", t.Pincode).
		Str("platform", string(t.Platform)).
		Str("kind", string(kind)).
		Str("previous", previous.String()).
		Str("current", current.String()).
		Msg("Status transition detected")
}

// LogDispatch logs an alert dispatch outcome.
func LogDispatch(logger zerolog.Logger, eventID string, kind models.AlertKind, err error) {
	if err != nil {
		logger.Error().
			Str("event", "dispatch").
			Str("alert_id", eventID).
			Str("kind", string(kind)).
			Err(err).
			Msg("Alert dispatch failed")
		return
	}
	logger.Info().
		Str("event", "dispatch").
		Str("alert_id", eventID).
		Str("kind", string(kind)).
		Msg("Alert dispatched")
}
