// Package log layers component-aware structured logging over log/slog.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a LOG_LEVEL value onto a slog level. Unknown or empty
// values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger is a *slog.Logger bound to a component name, so every line a
// subsystem emits carries the same component field.
type Logger struct {
	*slog.Logger
	component string
}

// New builds a text-handler logger writing to stdout at the given level.
func New(level slog.Level, component string) *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return FromSlog(slog.New(handler), component)
}

// FromSlog binds an existing logger to a component, inheriting its handler
// and therefore its level.
func FromSlog(l *slog.Logger, component string) *Logger {
	return &Logger{
		Logger:    l.With(FieldComponent, component),
		component: component,
	}
}

// WithComponent returns a logger for another subsystem sharing the same
// handler.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// Component returns the bound component name.
func (l *Logger) Component() string {
	return l.component
}
