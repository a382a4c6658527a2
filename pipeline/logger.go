package pipeline

import (
	"context"
	"fmt"

	"go.jacobcolvin.com/turbotrace/event"
)

// Logger emits leveled events through a [Pipeline] under a fixed target.
//
// Create instances with [Pipeline.Logger].
type Logger struct {
	p      *Pipeline
	target string
}

// Target returns the logger's target.
func (l *Logger) Target() string {
	return l.target
}

// WithTarget returns a logger for a sub-target, joined with a dot.
func (l *Logger) WithTarget(name string) *Logger {
	return &Logger{p: l.p, target: l.target + "." + name}
}

// Log emits one event at the given level.
func (l *Logger) Log(ctx context.Context, level event.Level, msg string, fields ...event.Field) {
	l.p.EmitContext(ctx, event.New(level, l.target, msg, fields...))
}

// Error emits an ERROR event with no span context.
func (l *Logger) Error(msg string, fields ...event.Field) {
	l.Log(context.Background(), event.LevelError, msg, fields...)
}

// Errorf emits a formatted ERROR event.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Warn emits a WARN event with no span context.
func (l *Logger) Warn(msg string, fields ...event.Field) {
	l.Log(context.Background(), event.LevelWarn, msg, fields...)
}

// Warnf emits a formatted WARN event.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Info emits an INFO event with no span context.
func (l *Logger) Info(msg string, fields ...event.Field) {
	l.Log(context.Background(), event.LevelInfo, msg, fields...)
}

// Infof emits a formatted INFO event.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Debug emits a DEBUG event with no span context.
func (l *Logger) Debug(msg string, fields ...event.Field) {
	l.Log(context.Background(), event.LevelDebug, msg, fields...)
}

// Debugf emits a formatted DEBUG event.
func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}

// Trace emits a TRACE event with no span context.
func (l *Logger) Trace(msg string, fields ...event.Field) {
	l.Log(context.Background(), event.LevelTrace, msg, fields...)
}

// Tracef emits a formatted TRACE event.
func (l *Logger) Tracef(format string, args ...any) {
	l.Trace(fmt.Sprintf(format, args...))
}
