package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPipelineClosed indicates a reload was attempted after the owning
// pipeline was shut down.
var ErrPipelineClosed = errors.New("pipeline already shut down")

// Slot is a thread-safe holder for an optional sink of type T. A slot starts
// disabled (holding nothing) and can be atomically replaced through its
// [ReloadHandle] at any time. Emitters read the slot once per event, so a
// reload racing an emission resolves to exactly one of the old or new sink
// observing that event, never both and never neither.
//
// Create instances with [NewSlot].
type Slot[T any] struct {
	v      atomic.Pointer[T]
	mu     sync.Mutex
	closed bool
}

// NewSlot creates a disabled [Slot] and the [ReloadHandle] that reconfigures
// it.
func NewSlot[T any]() (*Slot[T], *ReloadHandle[T]) {
	s := &Slot[T]{}

	return s, &ReloadHandle[T]{slot: s}
}

// Get returns the active sink, or nil while the slot is disabled.
func (s *Slot[T]) Get() *T {
	return s.v.Load()
}

// close permanently disables the slot; subsequent reloads fail. The mutex
// makes close and [ReloadHandle.Reload] mutually exclusive, so once close
// returns, no racing reload can have reported success and left a sink in a
// closed slot.
func (s *Slot[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.v.Store(nil)
}

// ReloadHandle atomically replaces the sink held by its [Slot]. Safe to call
// from any goroutine at any time, including concurrently with emission.
type ReloadHandle[T any] struct {
	slot *Slot[T]
}

// Reload swaps the active sink. Passing nil disables the slot. Returns
// [ErrPipelineClosed] once the owning pipeline has been shut down.
func (h *ReloadHandle[T]) Reload(v *T) error {
	h.slot.mu.Lock()
	defer h.slot.mu.Unlock()

	if h.slot.closed {
		return ErrPipelineClosed
	}

	h.slot.v.Store(v)

	return nil
}
