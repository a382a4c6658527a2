// Command logtail follows a turbotrace log file in the terminal.
//
// It tails the file like `tail -f`, colorizing lines by their level token,
// and keeps a bounded scrollback. Rotation is handled by reopening the file
// when it shrinks or is replaced.
//
// # Usage
//
//	logtail [flags] <file.log>
//
// # Flags
//
//	-n int       number of scrollback lines to keep (default 10000)
//	-from-start  read the file from the beginning instead of the end
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
)

func main() {
	os.Exit(run0())
}

func run0() int {
	scrollback := flag.Int("n", 10000, "number of scrollback lines to keep")
	fromStart := flag.Bool("from-start", false, "read the file from the beginning instead of the end")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: logtail [flags] <file.log>\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()

		return 1
	}

	tail, err := newTailer(flag.Arg(0), *fromStart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}
	defer tail.close()

	p := tea.NewProgram(newModel(tail, *scrollback))

	_, err = p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

// model is the bubbletea model for the log viewer.
type model struct {
	tail       *tailer
	lines      []string
	readErr    error
	scrollback int
	cols       int
	rows       int
	offset     int
	follow     bool
}

func newModel(tail *tailer, scrollback int) *model {
	return &model{
		tail:       tail,
		scrollback: scrollback,
		follow:     true,
	}
}

// Init kicks off the first poll.
func (m *model) Init() tea.Cmd {
	return m.tail.poll()
}

// Update handles new lines, key presses, and resizes.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "f":
			m.follow = !m.follow
			if m.follow {
				m.offset = 0
			}
		case "up", "k":
			m.follow = false
			if m.offset < len(m.lines)-1 {
				m.offset++
			}
		case "down", "j":
			if m.offset > 0 {
				m.offset--
			}

			if m.offset == 0 {
				m.follow = true
			}
		case "g":
			m.follow = false
			m.offset = max(0, len(m.lines)-1)
		case "G":
			m.follow = true
			m.offset = 0
		}

	case tea.WindowSizeMsg:
		m.cols = msg.Width
		m.rows = msg.Height

	case linesMsg:
		m.lines = append(m.lines, msg.lines...)
		if len(m.lines) > m.scrollback {
			m.lines = m.lines[len(m.lines)-m.scrollback:]
		}

		return m, m.tail.poll()

	case tailErrMsg:
		m.readErr = msg.err

		return m, tea.Quit
	}

	return m, nil
}

// View renders the visible window of lines, newest at the bottom.
func (m *model) View() tea.View {
	rows := m.rows - 1
	if rows < 1 {
		rows = 1
	}

	end := len(m.lines) - m.offset
	if end < 0 {
		end = 0
	}

	start := end - rows
	if start < 0 {
		start = 0
	}

	var sb strings.Builder
	for _, line := range m.lines[start:end] {
		sb.WriteString(colorize(line))
		sb.WriteByte('\n')
	}

	sb.WriteString(m.statusLine())

	v := tea.NewView(sb.String())
	v.AltScreen = true

	return v
}

func (m *model) statusLine() string {
	mode := "following"
	if !m.follow {
		mode = fmt.Sprintf("paused (+%d)", m.offset)
	}

	return fmt.Sprintf("\x1b[7m %s — %d lines — %s — q quit, f follow, j/k scroll \x1b[0m",
		m.tail.path, len(m.lines), mode)
}

// colorize applies an SGR color to a line based on its level token.
func colorize(line string) string {
	switch {
	case strings.Contains(line, "[ERROR]"):
		return "\x1b[31m" + line + "\x1b[0m"
	case strings.Contains(line, "[WARN]"):
		return "\x1b[33m" + line + "\x1b[0m"
	case strings.Contains(line, "[DEBUG]"), strings.Contains(line, "[TRACE]"):
		return "\x1b[2m" + line + "\x1b[0m"
	default:
		return line
	}
}
