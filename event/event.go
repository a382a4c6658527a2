package event

import (
	"fmt"
	"time"
)

// MessageKey is the distinguished field key holding an event's rendered
// message. Terminal and file sinks render only this field.
const MessageKey = "message"

// Field is one key/value pair attached to an [Event] or [Span].
type Field struct {
	Value any
	Key   string
}

// String creates a string-valued [Field].
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int-valued [Field].
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool-valued [Field].
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration-valued [Field].
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Any creates a [Field] holding an arbitrary value.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Event is one emitted log event. Events are value types; sinks must not
// retain references to the field slice beyond the emitting call.
type Event struct {
	Time   time.Time
	Target string
	Fields []Field
	Level  Level
}

// New creates an [Event] at the given level and target whose message field is
// msg, followed by any additional fields. The timestamp is left zero; the
// pipeline stamps it at emission.
func New(level Level, target, msg string, fields ...Field) Event {
	fs := make([]Field, 0, len(fields)+1)
	fs = append(fs, String(MessageKey, msg))
	fs = append(fs, fields...)

	return Event{
		Level:  level,
		Target: target,
		Fields: fs,
	}
}

// Message returns the value of the distinguished message field, rendered with
// fmt if it is not already a string. Returns "" when no message field exists.
func (e Event) Message() string {
	for _, f := range e.Fields {
		if f.Key != MessageKey {
			continue
		}

		if s, ok := f.Value.(string); ok {
			return s
		}

		return fmt.Sprint(f.Value)
	}

	return ""
}

// Span records one timed operation for span-aware sinks. End is zero until
// the span finishes.
type Span struct {
	Start  time.Time
	End    time.Time
	Name   string
	Target string
	File   string
	Fields []Field
	ID     uint64
	Line   int
}
