package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Level is spaced so numeric values line up with slog's own level
// constants (slog.LevelInfo == 0, etc).
type Level int

const (
	LevelTrace Level = -8
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
	LevelFatal Level = 12
)

// ParseLevel parses a log level name (TRACE, DEBUG, INFO, WARN, ERROR,
// FATAL) as used by the CCND_DEBUG bitmask translation in core/config.go.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

// String renders the level name, or "UNKNOWN" for an unrecognized value.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger wraps slog with the component-as-first-argument convention used
// throughout the daemon: every loggable type implements fmt.Stringer and
// is passed as the "module" attribute.
type Logger struct {
	inner *slog.Logger
	level *slog.LevelVar
}

// NewLogger builds a Logger writing text-formatted records to w at the
// given starting level; SetLevel adjusts it afterward (CCND_DEBUG,
// ?l=<level>).
func NewLogger(level Level) *Logger {
	lv := &slog.LevelVar{}
	lv.Set(slog.Level(level))
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})
	return &Logger{inner: slog.New(h), level: lv}
}

// SetLevel adjusts the minimum level logged at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(slog.Level(level))
}

func (l *Logger) log(level Level, component fmt.Stringer, msg string, args ...any) {
	all := append([]any{"module", component.String()}, args...)
	l.inner.Log(context.Background(), slog.Level(level), msg, all...)
}

// Trace logs at LevelTrace.
func (l *Logger) Trace(component fmt.Stringer, msg string, args ...any) {
	l.log(LevelTrace, component, msg, args...)
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(component fmt.Stringer, msg string, args ...any) {
	l.log(LevelDebug, component, msg, args...)
}

// Info logs at LevelInfo.
func (l *Logger) Info(component fmt.Stringer, msg string, args ...any) {
	l.log(LevelInfo, component, msg, args...)
}

// Warn logs at LevelWarn.
func (l *Logger) Warn(component fmt.Stringer, msg string, args ...any) {
	l.log(LevelWarn, component, msg, args...)
}

// Error logs at LevelError.
func (l *Logger) Error(component fmt.Stringer, msg string, args ...any) {
	l.log(LevelError, component, msg, args...)
}

// Fatal logs at LevelFatal and exits the process with status 1.
func (l *Logger) Fatal(component fmt.Stringer, msg string, args ...any) {
	l.log(LevelFatal, component, msg, args...)
	os.Exit(1)
}

// Log is the package-global logger every component calls through.
var Log = NewLogger(LevelInfo)
