package chrometrace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.jacobcolvin.com/turbotrace/event"
)

const writerBufSize = 64 * 1024

// entry is one trace event in Chrome Trace Event Format.
type entry struct {
	Args  map[string]any `json:"args,omitempty"`
	Name  string         `json:"name"`
	Cat   string         `json:"cat"`
	Phase string         `json:"ph"`
	Scope string         `json:"s,omitempty"`
	TS    int64          `json:"ts"`
	PID   int            `json:"pid"`
	TID   int            `json:"tid"`
	ID    uint64         `json:"id,omitempty"`
}

// Writer streams trace entries to a JSON file. Safe for concurrent use.
//
// Create instances with [NewWriter].
type Writer struct {
	f           *os.File
	w           *bufio.Writer
	start       time.Time
	pid         int
	mu          sync.Mutex
	wrote       bool
	closed      bool
	includeArgs bool
}

// Option configures a [Writer].
type Option func(*Writer)

// WithArgs enables capturing span and event fields into entry args. Source
// locations are captured regardless.
func WithArgs(include bool) Option {
	return func(w *Writer) {
		w.includeArgs = include
	}
}

// NewWriter creates a [Writer] streaming to the file at path, truncating any
// existing file. Timestamps are microseconds relative to construction time.
func NewWriter(path string, opts ...Option) (*Writer, error) {
	f, err := os.Create(path) //nolint:gosec // Trace path from caller configuration is expected.
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}

	w := &Writer{
		f:     f,
		w:     bufio.NewWriterSize(f, writerBufSize),
		start: time.Now(),
		pid:   os.Getpid(),
	}
	for _, opt := range opts {
		opt(w)
	}

	_, err = w.w.WriteString("[")
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("writing trace header: %w", err)
	}

	return w, nil
}

// SpanBegin records the start of a span as an async "b" entry. The span's
// source location, and its fields when args are enabled, become entry args.
func (w *Writer) SpanBegin(s *event.Span) error {
	args := w.spanArgs(s, true)

	return w.emit(entry{
		Name:  s.Name,
		Cat:   s.Target,
		Phase: "b",
		TS:    w.micros(s.Start),
		PID:   w.pid,
		ID:    s.ID,
		Args:  args,
	})
}

// SpanEnd records the end of a span as an async "e" entry matching the
// corresponding SpanBegin by category, name, and ID.
func (w *Writer) SpanEnd(s *event.Span) error {
	return w.emit(entry{
		Name:  s.Name,
		Cat:   s.Target,
		Phase: "e",
		TS:    w.micros(s.End),
		PID:   w.pid,
		ID:    s.ID,
	})
}

// Emit records a log event as an instant "i" entry.
func (w *Writer) Emit(e event.Event) error {
	var args map[string]any

	if w.includeArgs {
		args = make(map[string]any, len(e.Fields))
		for _, f := range e.Fields {
			args[f.Key] = fmt.Sprint(f.Value)
		}
	}

	return w.emit(entry{
		Name:  e.Message(),
		Cat:   e.Target,
		Phase: "i",
		Scope: "t",
		TS:    w.micros(e.Time),
		PID:   w.pid,
		Args:  args,
	})
}

// Close writes the array terminator, flushes, and closes the file.
// Idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true

	_, err := w.w.WriteString("\n]\n")
	if err == nil {
		err = w.w.Flush()
	}

	closeErr := w.f.Close()
	if err != nil {
		return fmt.Errorf("finalizing trace file: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("closing trace file: %w", closeErr)
	}

	return nil
}

func (w *Writer) emit(ent entry) error {
	data, err := json.Marshal(ent)
	if err != nil {
		return fmt.Errorf("encoding trace entry: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	sep := "\n"
	if w.wrote {
		sep = ",\n"
	}

	w.wrote = true

	_, err = w.w.WriteString(sep)
	if err == nil {
		_, err = w.w.Write(data)
	}

	if err != nil {
		return fmt.Errorf("writing trace entry: %w", err)
	}

	return nil
}

func (w *Writer) spanArgs(s *event.Span, location bool) map[string]any {
	args := make(map[string]any)

	if location && s.File != "" {
		args["file"] = s.File
		args["line"] = s.Line
	}

	if w.includeArgs {
		for _, f := range s.Fields {
			args[f.Key] = fmt.Sprint(f.Value)
		}
	}

	if len(args) == 0 {
		return nil
	}

	return args
}

func (w *Writer) micros(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}

	return t.Sub(w.start).Microseconds()
}
