package filelog

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

const defaultQueueSize = 4096

// NonBlocking is an [io.Writer] that hands written bytes to a single
// background goroutine over a bounded queue. Write copies its input and never
// blocks: when the queue is full the oldest pending entry is dropped to make
// room. Safe for concurrent use.
//
// Create instances with [NewNonBlocking].
type NonBlocking struct {
	wc       io.WriteCloser
	ch       chan []byte
	done     chan struct{}
	writeErr error
	queue    int
	dropped  atomic.Uint64
	mu       sync.Mutex
	closed   bool
}

// Option configures a [NonBlocking].
type Option func(*NonBlocking)

// WithQueueSize sets the queue capacity in entries. The default is 4096.
// Values less than 1 are clamped to 1.
func WithQueueSize(n int) Option {
	return func(nb *NonBlocking) {
		if n < 1 {
			n = 1
		}

		nb.queue = n
	}
}

// NewNonBlocking creates a [NonBlocking] writer over wc and starts its
// background goroutine. The returned [Guard] keeps the goroutine alive;
// closing it drains the queue, flushes wc via its Close, and stops the
// goroutine.
func NewNonBlocking(wc io.WriteCloser, opts ...Option) (*NonBlocking, *Guard) {
	nb := &NonBlocking{
		wc:    wc,
		queue: defaultQueueSize,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(nb)
	}

	nb.ch = make(chan []byte, nb.queue)

	go nb.run()

	return nb, &Guard{nb: nb}
}

// Write enqueues a copy of b. When the queue is full the oldest pending entry
// is dropped to make room. Writes after the guard is closed are discarded.
// Write always returns len(b), nil.
func (nb *NonBlocking) Write(b []byte) (int, error) {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	if nb.closed {
		return len(b), nil
	}

	entry := make([]byte, len(b))
	copy(entry, b)

	select {
	case nb.ch <- entry:
		return len(b), nil
	default:
	}

	// Queue full: evict the oldest entry, unless the background goroutine
	// drained the queue in the meantime.
	select {
	case <-nb.ch:
		nb.dropped.Add(1)
	default:
	}

	select {
	case nb.ch <- entry:
	default:
		// The consumer raced ahead of the eviction; count this entry
		// instead and move on rather than block.
		nb.dropped.Add(1)
	}

	return len(b), nil
}

// Dropped returns the number of entries discarded because the queue was full.
func (nb *NonBlocking) Dropped() uint64 {
	return nb.dropped.Load()
}

// run is the background goroutine: it owns all writes to the underlying
// writer and keeps only the first write error.
func (nb *NonBlocking) run() {
	defer close(nb.done)

	for entry := range nb.ch {
		_, err := nb.wc.Write(entry)
		if err != nil && nb.writeErr == nil {
			nb.writeErr = err
		}
	}

	if n := nb.dropped.Load(); n > 0 {
		fmt.Fprintf(nb.wc, "non-blocking writer dropped %d lines\n", n)
	}
}

// Guard keeps a [NonBlocking] writer's background goroutine alive. Closing it
// stops intake, drains the queue, and closes the underlying writer.
// Idempotent.
type Guard struct {
	nb   *NonBlocking
	err  error
	once sync.Once
}

// Close drains and shuts down the writer, returning the first write error
// encountered by the background goroutine or the underlying Close error.
func (g *Guard) Close() error {
	g.once.Do(func() {
		nb := g.nb

		nb.mu.Lock()
		nb.closed = true
		close(nb.ch)
		nb.mu.Unlock()

		<-nb.done

		closeErr := nb.wc.Close()

		switch {
		case nb.writeErr != nil:
			g.err = fmt.Errorf("background write: %w", nb.writeErr)
		case closeErr != nil:
			g.err = closeErr
		}
	})

	return g.err
}
