// Package logging wraps log/slog with a component tag and the gin request logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger that always carries its component.
type Logger struct {
	*slog.Logger
	base      *slog.Logger
	component string
}

type Config struct {
	Level     string
	Format    string
	Component string
	Output    io.Writer
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "text", "":
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	component := cfg.Component
	if component == "" {
		component = ComponentApp
	}
	base := slog.New(handler)
	return &Logger{Logger: base.With(FieldComponent, component), base: base, component: component}, nil
}

// Nop discards everything. Services fall back to it when constructed without a logger.
func Nop() *Logger {
	base := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Logger{Logger: base, base: base, component: ComponentApp}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), base: l.base.With(args...), component: l.component}
}

// WithComponent returns a child logger tagged with component instead of the parent's.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.base.With(FieldComponent, component), base: l.base, component: component}
}

func (l *Logger) Component() string {
	return l.component
}

func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
