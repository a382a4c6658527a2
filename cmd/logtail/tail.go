package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
)

const pollInterval = 200 * time.Millisecond

// linesMsg carries newly read log lines, possibly none.
type linesMsg struct {
	lines []string
}

// tailErrMsg signals an unrecoverable read error.
type tailErrMsg struct {
	err error
}

// tailer incrementally reads lines appended to a file, reopening it when it
// is rotated out from underneath us.
type tailer struct {
	f      *os.File
	r      *bufio.Reader
	path   string
	offset int64
}

// newTailer opens the file and positions at its end, or at the beginning when
// fromStart is set.
func newTailer(path string, fromStart bool) (*tailer, error) {
	t := &tailer{path: path}

	err := t.open()
	if err != nil {
		return nil, err
	}

	if !fromStart {
		t.offset, err = t.f.Seek(0, io.SeekEnd)
		if err != nil {
			_ = t.f.Close()

			return nil, fmt.Errorf("seeking %s: %w", path, err)
		}

		t.r.Reset(t.f)
	}

	return t, nil
}

func (t *tailer) open() error {
	f, err := os.Open(t.path) //nolint:gosec // Log path is a user-provided CLI argument.
	if err != nil {
		return fmt.Errorf("opening %s: %w", t.path, err)
	}

	t.f = f
	t.r = bufio.NewReader(f)
	t.offset = 0

	return nil
}

// poll returns a tea.Cmd that waits one interval, then reads any complete
// lines appended since the last read.
func (t *tailer) poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		lines, err := t.read()
		if err != nil {
			return tailErrMsg{err: err}
		}

		return linesMsg{lines: lines}
	})
}

// read drains complete lines from the file. A partial final line stays
// buffered in the file until its newline arrives. The file is reopened when
// it shrinks, which is how rotation looks from here.
func (t *tailer) read() ([]string, error) {
	info, err := os.Stat(t.path)
	if err == nil && info.Size() < t.offset {
		_ = t.f.Close()

		err = t.open()
		if err != nil {
			return nil, err
		}
	}

	var lines []string

	for {
		line, err := t.r.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// Push the partial line back by seeking to where it started.
			if line != "" {
				_, seekErr := t.f.Seek(t.offset, io.SeekStart)
				if seekErr != nil {
					return nil, fmt.Errorf("seeking %s: %w", t.path, seekErr)
				}

				t.r.Reset(t.f)
			}

			return lines, nil
		}

		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", t.path, err)
		}

		t.offset += int64(len(line))
		lines = append(lines, line[:len(line)-1])
	}
}

func (t *tailer) close() {
	_ = t.f.Close()
}
