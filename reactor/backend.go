// File: reactor/backend.go
// Author: momentics <momentics@gmail.com>
//
// Abstract interface for readiness multiplexing backends. Two variants
// exist: the edge-style kqueue backend (one-shot kernel event queue
// with native timer/process/signal filters) and the level-style select
// backend (descriptor sets rebuilt each cycle, timers layered in
// software).

package reactor

import "time"

// Filter identifies which interest a ready event satisfied.
type Filter int

const (
	FilterRead Filter = iota + 1
	FilterWrite
	FilterTimer
	FilterProcess
	FilterSignal
)

// Ready is one readiness notification produced by a backend wait.
type Ready struct {
	// Handle is the registration the notification belongs to.
	Handle *Handle

	// Filter names the satisfied interest.
	Filter Filter

	// Ident is the descriptor, PID, or signal number; -1 for timers.
	Ident int

	// EOF marks that the peer closed its write side; reported together
	// with a read filter by backends that detect it.
	EOF bool
}

// Backend multiplexes readiness for the dispatch loop. Implementations
// are not safe for concurrent use; the reactor drives them from one
// goroutine.
type Backend interface {
	// Name identifies the backend in logs and state dumps.
	Name() string

	// ArmRead registers one-shot read interest for the handle.
	ArmRead(h *Handle) error

	// ArmWrite registers one-shot write interest for the handle.
	ArmWrite(h *Handle) error

	// Disarm removes every interest registered for the handle,
	// including process and signal filters.
	Disarm(h *Handle)

	// AddTimer arms the timer handle to fire once after the given
	// number of milliseconds.
	AddTimer(h *Handle, milliseconds uint32) error

	// CancelTimer disarms a pending timer. Returns ErrTimerNotArmed if
	// the timer is not pending.
	CancelTimer(h *Handle) error

	// AddProcess registers a one-shot process-exit watch.
	AddProcess(h *Handle, pid int) error

	// AddSignal registers a one-shot signal watch.
	AddSignal(h *Handle, signum int) error

	// Wait blocks until readiness, the timeout, or an armed timer
	// deadline, whichever comes first, and returns the ready batch.
	// A negative timeout blocks indefinitely. An empty batch with a
	// nil error means the caller-supplied timeout expired.
	Wait(timeout time.Duration) ([]Ready, error)

	// WaitDescriptor exposes the descriptor the wait primitive blocks
	// on, for embedding into a host run loop; -1 when the backend has
	// no such descriptor.
	WaitDescriptor() int

	// NativeTimers reports whether timers are serviced by the kernel
	// event queue rather than the software timer list.
	NativeTimers() bool

	// Close releases backend resources.
	Close() error
}
