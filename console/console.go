package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"go.jacobcolvin.com/turbotrace/event"
)

// TimeLayout is the timestamp layout used by the DEBUG/TRACE branch and by
// the file sink: RFC 3339 with millisecond precision and a numeric zone.
const TimeLayout = "2006-01-02T15:04:05.000-0700"

// SGR escape sequences. Labels combine a foreground and background color;
// messages use the foreground color only.
const (
	sgrReset   = "\x1b[0m"
	sgrRed     = "\x1b[31m"
	sgrYellow  = "\x1b[33m"
	sgrBlackBG = "\x1b[40m"
)

const (
	errorLabel = " ERROR "
	warnLabel  = " WARNING "
)

// ErrUnknownColorMode indicates an unrecognized color mode string.
var ErrUnknownColorMode = errors.New("unknown color mode")

// ColorMode controls whether ANSI colors are emitted.
type ColorMode string

const (
	// ColorAuto enables colors when the output stream is a terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways enables colors unconditionally.
	ColorAlways ColorMode = "always"
	// ColorNever disables colors unconditionally.
	ColorNever ColorMode = "never"
)

// ParseColorMode parses a color mode string, case-insensitively.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(strings.ToLower(s)) {
	case ColorAuto:
		return ColorAuto, nil
	case ColorAlways:
		return ColorAlways, nil
	case ColorNever:
		return ColorNever, nil
	}

	return "", ErrUnknownColorMode
}

// GetAllColorModeStrings returns the parseable color mode names.
func GetAllColorModeStrings() []string {
	return []string{string(ColorAuto), string(ColorAlways), string(ColorNever)}
}

// Enabled resolves the mode against the output stream. The decision is made
// once at pipeline construction, not per event.
func (m ColorMode) Enabled(f *os.File) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return f != nil && term.IsTerminal(int(f.Fd()))
	}
}

// Formatter renders one event as a terminal line. Stateless apart from the
// ANSI flag; safe for concurrent use.
type Formatter struct {
	// ANSI enables SGR color sequences for ERROR and WARN output.
	ANSI bool
}

// Format writes the rendered line for e, including the trailing newline, to
// w. I/O errors from w are propagated, not retried.
func (f Formatter) Format(w io.Writer, e event.Event) error {
	switch e.Level {
	case event.LevelError:
		return f.writeLabeled(w, errorLabel, sgrRed, e.Message())
	case event.LevelWarn:
		return f.writeLabeled(w, warnLabel, sgrYellow, e.Message())
	case event.LevelInfo:
		_, err := fmt.Fprintf(w, "%s\n", e.Message())
		return err
	default:
		_, err := fmt.Fprintf(w, "%s [%s] %s: %s\n",
			e.Time.Local().Format(TimeLayout), e.Level, e.Target, e.Message())

		return err
	}
}

// writeLabeled writes "<label> <message>\n". With ANSI enabled the label gets
// the foreground color over a black background and the message the foreground
// color alone.
func (f Formatter) writeLabeled(w io.Writer, label, fg, msg string) error {
	var err error
	if f.ANSI {
		_, err = fmt.Fprintf(w, "%s%s%s%s %s%s%s\n",
			fg, sgrBlackBG, label, sgrReset, fg, msg, sgrReset)
	} else {
		_, err = fmt.Fprintf(w, "%s %s\n", label, msg)
	}

	return err
}

// Sink writes formatted lines to a single writer, serializing concurrent
// emitters so lines never interleave.
//
// Create instances with [NewSink].
type Sink struct {
	w  io.Writer
	f  Formatter
	mu sync.Mutex
}

// NewSink creates a [Sink] writing to w, with or without ANSI colors.
func NewSink(w io.Writer, ansi bool) *Sink {
	return &Sink{
		w: w,
		f: Formatter{ANSI: ansi},
	}
}

// Emit renders and writes one event.
func (s *Sink) Emit(e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.f.Format(s.w, e)
}
