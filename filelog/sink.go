package filelog

import (
	"fmt"
	"io"

	"go.jacobcolvin.com/turbotrace/console"
	"go.jacobcolvin.com/turbotrace/event"
)

// Sink renders events as plain text lines and writes them to w, usually a
// [NonBlocking] writer. Every level uses the full
// "<timestamp> [<LEVEL>] <target>: <message>" layout, with no ANSI codes.
//
// Create instances with [NewSink].
type Sink struct {
	w io.Writer
}

// NewSink creates a [Sink] writing to w.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Emit writes one event as a single line. Concurrent emitters are serialized
// by the writer, which for [NonBlocking] is a single atomic enqueue per line.
func (s *Sink) Emit(e event.Event) error {
	_, err := fmt.Fprintf(s.w, "%s [%s] %s: %s\n",
		e.Time.Local().Format(console.TimeLayout), e.Level, e.Target, e.Message())

	return err
}
