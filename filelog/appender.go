package filelog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const appenderBufSize = 64 * 1024

// ErrUnknownRotation indicates an unrecognized rotation string.
var ErrUnknownRotation = errors.New("unknown rotation")

// Rotation selects how often an [Appender] rolls to a new file.
type Rotation string

const (
	// RotationDaily rolls at local midnight.
	RotationDaily Rotation = "daily"
	// RotationHourly rolls at the top of each hour.
	RotationHourly Rotation = "hourly"
	// RotationNever writes to a single file.
	RotationNever Rotation = "never"
)

// ParseRotation parses a rotation string, case-insensitively.
func ParseRotation(s string) (Rotation, error) {
	switch Rotation(strings.ToLower(s)) {
	case RotationDaily:
		return RotationDaily, nil
	case RotationHourly:
		return RotationHourly, nil
	case RotationNever:
		return RotationNever, nil
	}

	return "", ErrUnknownRotation
}

// GetAllRotationStrings returns the parseable rotation names.
func GetAllRotationStrings() []string {
	return []string{string(RotationDaily), string(RotationHourly), string(RotationNever)}
}

// stamp returns the filename suffix for the period containing t, and the
// period's start for change detection. RotationNever has a constant period.
func (r Rotation) stamp(t time.Time) (string, time.Time) {
	switch r {
	case RotationHourly:
		return t.Format("2006-01-02-15"), t.Truncate(time.Hour)
	case RotationDaily:
		y, m, d := t.Date()
		return t.Format("2006-01-02"), time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	default:
		return "", time.Time{}
	}
}

// Appender is a rolling file writer. Writes are buffered; the file rolls when
// the rotation period changes between writes. Safe for concurrent use,
// although the pipeline always drives it from the single [NonBlocking]
// background goroutine.
//
// Create instances with [NewAppender].
type Appender struct {
	f      *os.File
	w      *bufio.Writer
	dir    string
	prefix string
	rot    Rotation
	period time.Time
	mu     sync.Mutex
}

// NewAppender creates an [Appender] writing files named
// "<prefix>.<period>.log" under dir, creating dir if needed. The first file
// is opened immediately so construction fails early on permission problems.
func NewAppender(dir, prefix string, rot Rotation) (*Appender, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	a := &Appender{
		dir:    dir,
		prefix: prefix,
		rot:    rot,
	}

	err = a.open(time.Now())
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Write appends b to the current file, rolling first if the rotation period
// changed.
func (a *Appender) Write(b []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, period := a.rot.stamp(time.Now())
	if !period.Equal(a.period) {
		err := a.roll()
		if err != nil {
			return 0, err
		}
	}

	n, err := a.w.Write(b)
	if err != nil {
		return n, fmt.Errorf("appending to %s: %w", a.f.Name(), err)
	}

	return n, nil
}

// Close flushes the buffer and closes the current file.
func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	flushErr := a.w.Flush()

	err := a.f.Close()
	if err != nil {
		return fmt.Errorf("closing %s: %w", a.f.Name(), err)
	}

	if flushErr != nil {
		return fmt.Errorf("flushing %s: %w", a.f.Name(), flushErr)
	}

	return nil
}

// Path returns the path of the file currently being written.
func (a *Appender) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.f.Name()
}

func (a *Appender) roll() error {
	err := a.w.Flush()
	if err != nil {
		return fmt.Errorf("flushing %s: %w", a.f.Name(), err)
	}

	err = a.f.Close()
	if err != nil {
		return fmt.Errorf("closing %s: %w", a.f.Name(), err)
	}

	return a.open(time.Now())
}

func (a *Appender) open(now time.Time) error {
	stamp, period := a.rot.stamp(now)

	name := a.prefix + ".log"
	if stamp != "" {
		name = a.prefix + "." + stamp + ".log"
	}

	path := filepath.Join(a.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // Log path from caller configuration is expected.
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	a.f = f
	a.w = bufio.NewWriterSize(f, appenderBufSize)
	a.period = period

	return nil
}
