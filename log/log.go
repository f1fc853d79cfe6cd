package log

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the project-wide structured logging interface.
type Logger interface {
	// Log emits one event at the given level. The context carries request
	// or batch correlation (and, when present, an active trace span).
	Log(ctx context.Context, level Level, msg string, fields ...Field)
	// With returns a logger that attaches fields to every event.
	With(fields ...Field) Logger
	// WithGroup returns a logger that nests subsequent fields under name.
	WithGroup(name string) Logger
	// Enabled reports whether events at level would be emitted.
	Enabled(level Level) bool
	// Sync flushes any buffered events.
	Sync(ctx context.Context) error
}

// Level represents the severity of a log entry.
//
// Lower numeric values indicate higher severity (LevelError=0 is most
// severe, LevelDebug=3 is least), inverted from the zap convention. A
// logger's configured level acts as a verbosity ceiling: at LevelInfo it
// emits Error, Warn, and Info events and suppresses Debug.
type Level uint8

const (
	// LevelError enables only errors.
	LevelError Level = iota
	// LevelWarn enables errors and warnings.
	LevelWarn
	// LevelInfo enables errors, warnings, and informational events.
	LevelInfo
	// LevelDebug enables everything.
	LevelDebug
)

// String returns the lowercase name of the level.
func (level Level) String() string {
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel converts a textual level, case-insensitively, into a Level.
func ParseLevel(lvl string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}

	var l Level

	return l, fmt.Errorf("not a valid level: %q", lvl)
}

// Field is a strongly-typed key/value attribute attached to a log event.
type Field struct {
	Key   string
	Value any
}

// Any creates a field with an arbitrary value. Prefer the typed
// constructors where one fits.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Uint creates an unsigned integer field. Client and transaction
// identifiers log through this.
func Uint(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates the conventional `error` field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
