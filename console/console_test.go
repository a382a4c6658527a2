package console_test

import (
	"bytes"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/turbotrace/console"
	"go.jacobcolvin.com/turbotrace/event"
	"go.jacobcolvin.com/turbotrace/stringtest"
)

func TestFormatter_Plain(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 4, 5, 6, 7, 8, 90_000_000, time.UTC)
	stamp := ts.Local().Format(console.TimeLayout)

	tcs := map[string]struct {
		event    event.Event
		expected string
	}{
		"error has padded label": {
			event:    event.New(event.LevelError, "turbo.run", "task failed"),
			expected: " ERROR  task failed\n",
		},
		"warn has padded label": {
			event:    event.New(event.LevelWarn, "turbo.run", "task slow"),
			expected: " WARNING  task slow\n",
		},
		"info is message only": {
			event:    event.New(event.LevelInfo, "turbo.run", "build finished"),
			expected: "build finished\n",
		},
		"debug has timestamp prefix": {
			event: withTime(event.New(event.LevelDebug, "turbo.daemon", "connected"), ts),
			expected: fmt.Sprintf("%s [DEBUG] turbo.daemon: connected\n",
				stamp),
		},
		"trace has timestamp prefix": {
			event: withTime(event.New(event.LevelTrace, "turbo.cache.fs", "probe"), ts),
			expected: fmt.Sprintf("%s [TRACE] turbo.cache.fs: probe\n",
				stamp),
		},
		"structured fields ignored": {
			event: event.New(event.LevelInfo, "turbo.run", "done",
				event.Int("tasks", 9), event.String("hash", "abc")),
			expected: "done\n",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			err := console.Formatter{ANSI: false}.Format(&buf, tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestFormatter_ANSI(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		event    event.Event
		expected string
	}{
		"error label red on black": {
			event:    event.New(event.LevelError, "turbo.run", "task failed"),
			expected: "\x1b[31m\x1b[40m ERROR \x1b[0m \x1b[31mtask failed\x1b[0m\n",
		},
		"warn label yellow on black": {
			event:    event.New(event.LevelWarn, "turbo.run", "task slow"),
			expected: "\x1b[33m\x1b[40m WARNING \x1b[0m \x1b[33mtask slow\x1b[0m\n",
		},
		"info stays uncolored": {
			event:    event.New(event.LevelInfo, "turbo.run", "build finished"),
			expected: "build finished\n",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			err := console.Formatter{ANSI: true}.Format(&buf, tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestFormatter_NoEscapesWhenDisabled(t *testing.T) {
	t.Parallel()

	f := console.Formatter{ANSI: false}

	for _, lvl := range []event.Level{
		event.LevelError, event.LevelWarn, event.LevelInfo,
		event.LevelDebug, event.LevelTrace,
	} {
		var buf bytes.Buffer

		err := f.Format(&buf, event.New(lvl, "turbo.run", "msg"))
		require.NoError(t, err)
		assert.NotContains(t, buf.String(), "\x1b", "level %s", lvl)
	}
}

func TestSink_Emit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	s := console.NewSink(&buf, false)

	require.NoError(t, s.Emit(event.New(event.LevelInfo, "turbo.run", "build finished")))
	require.NoError(t, s.Emit(event.New(event.LevelError, "turbo.run", "task failed")))

	want := stringtest.JoinLF(
		"build finished",
		" ERROR  task failed",
		"",
	)
	assert.Equal(t, want, buf.String())
}

func TestParseColorMode(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input       string
		expected    console.ColorMode
		expectError bool
	}{
		"auto":             {input: "auto", expected: console.ColorAuto},
		"always":           {input: "always", expected: console.ColorAlways},
		"never":            {input: "never", expected: console.ColorNever},
		"case insensitive": {input: "NEVER", expected: console.ColorNever},
		"unknown":          {input: "sometimes", expectError: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mode, err := console.ParseColorMode(tc.input)
			if tc.expectError {
				require.ErrorIs(t, err, console.ErrUnknownColorMode)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, mode)
			}
		})
	}
}

func TestColorMode_Enabled(t *testing.T) {
	t.Parallel()

	// A pipe is never a terminal, so auto must resolve to false.
	r, w, err := os.Pipe()
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	assert.True(t, console.ColorAlways.Enabled(w))
	assert.False(t, console.ColorNever.Enabled(w))
	assert.False(t, console.ColorAuto.Enabled(w))
	assert.False(t, console.ColorAuto.Enabled(nil))
}

func withTime(e event.Event, ts time.Time) event.Event {
	e.Time = ts
	return e
}
