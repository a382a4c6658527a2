package event

import (
	"errors"
	"strings"
)

// Level is an ordered severity level. Lower values are more severe, so a
// threshold check passes when the event's level is less than or equal to the
// threshold.
type Level int

const (
	// LevelError is the most severe level.
	LevelError Level = iota + 1
	// LevelWarn indicates a recoverable problem.
	LevelWarn
	// LevelInfo is the default level for user-facing output.
	LevelInfo
	// LevelDebug is diagnostic output.
	LevelDebug
	// LevelTrace is the least severe, most verbose level.
	LevelTrace
)

// ErrUnknownLevel indicates an unrecognized severity level string.
var ErrUnknownLevel = errors.New("unknown severity level")

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	}

	return "UNKNOWN"
}

// Allows reports whether an event at level l passes a threshold of max.
// A threshold of [LevelWarn] allows WARN and ERROR, but not INFO.
func (l Level) Allows(max Level) bool {
	return l <= max
}

// ParseLevel parses a severity level string. Matching is case-insensitive
// and accepts "warning" as an alias for "warn".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	}

	return 0, ErrUnknownLevel
}

// GetAllLevelStrings returns the canonical parseable level names, most severe
// first.
func GetAllLevelStrings() []string {
	return []string{"error", "warn", "info", "debug", "trace"}
}
