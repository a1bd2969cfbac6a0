// Package logger configures the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Level     slog.Level
	Format    string
	Output    io.Writer
	AddSource bool
}

func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelWarn,
		Format: "text",
		Output: os.Stderr,
	}
}

// Init installs a text or JSON handler as the default logger.
func Init(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	slog.SetDefault(slog.New(NewHandler(cfg)))
}

func NewHandler(cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(cfg.Output, opts)
	}
	return slog.NewTextHandler(cfg.Output, opts)
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func Debug(msg string, args ...any) { slog.Debug(msg, args...) }
func Info(msg string, args ...any)  { slog.Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Error(msg, args...) }

func ForComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
