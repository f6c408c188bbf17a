// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Reactor instance state and functional options. All state that the
// original design kept process-wide (active backend, in-progress
// marker, timer list) lives on one Reactor value so multiple
// independent reactors can coexist, one per logical thread.

package reactor

import (
	"code.cloudfoundry.org/lager/v3"
	"github.com/eapache/queue"
	"go.uber.org/atomic"

	"github.com/momentics/asyncio/api"
	"github.com/momentics/asyncio/control"
)

// Reactor multiplexes readiness notifications into callback dispatch.
// It is single-threaded by contract: all handle operations and the
// dispatch loop must run on the same goroutine. Only Stop and the
// debug surface may be touched from outside.
type Reactor struct {
	backend Backend
	logger  lager.Logger
	clock   api.Clock
	probes  *control.DebugProbes

	// pending holds the ready batch being dispatched; releases during a
	// pass are re-checked as each entry is dequeued.
	pending    *queue.Queue
	inProgress *Handle

	running      atomic.Bool
	handles      int
	ownedBackend bool

	debuggerCheck func() bool
}

// Option customizes reactor initialization.
type Option func(*Reactor)

// WithLogger supplies the diagnostic logger. Without it, diagnostics
// are discarded.
func WithLogger(logger lager.Logger) Option {
	return func(r *Reactor) {
		r.logger = logger
	}
}

// WithClock supplies the monotonic millisecond clock used for timer
// arithmetic.
func WithClock(clock api.Clock) Option {
	return func(r *Reactor) {
		r.clock = clock
	}
}

// WithBackend supplies an explicit multiplexing backend instead of the
// platform default. The caller retains ownership: Close will not close
// an injected backend.
func WithBackend(b Backend) Option {
	return func(r *Reactor) {
		r.backend = b
	}
}

// WithDebuggerCheck installs the hook consulted when a wait is
// interrupted: if it reports true (a tracer is attached, so the EINTR
// is a breakpoint artifact) the wait is retried instead of failing.
func WithDebuggerCheck(fn func() bool) Option {
	return func(r *Reactor) {
		r.debuggerCheck = fn
	}
}

// New creates a reactor. The platform default backend is kqueue where
// available and select elsewhere.
func New(opts ...Option) (*Reactor, error) {
	r := &Reactor{
		pending: queue.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = lager.NewLogger("asyncio")
	}
	if r.clock == nil {
		r.clock = api.NewMonotonicClock()
	}
	if r.backend == nil {
		b, err := newDefaultBackend(r.clock, r.logger)
		if err != nil {
			return nil, err
		}
		r.backend = b
		r.ownedBackend = true
	}

	r.probes = control.NewDebugProbes()
	r.probes.RegisterProbe("backend", func() any { return r.backend.Name() })
	r.probes.RegisterProbe("handles", func() any { return r.handles })
	r.probes.RegisterProbe("dispatching", func() any { return r.inProgress != nil })
	if tc, ok := r.backend.(interface{ TimerCount() int }); ok {
		r.probes.RegisterProbe("armed-timers", func() any { return tc.TimerCount() })
	}

	return r, nil
}

// Close releases the backend if the reactor created it. Handles remain
// the caller's responsibility.
func (r *Reactor) Close() error {
	if !r.ownedBackend {
		return nil
	}
	return r.backend.Close()
}

// Backend exposes the active multiplexing backend.
func (r *Reactor) Backend() Backend { return r.backend }

// Clock exposes the reactor's monotonic clock.
func (r *Reactor) Clock() api.Clock { return r.clock }

// Logger exposes the reactor's diagnostic logger so composed
// components can log under their own sessions.
func (r *Reactor) Logger() lager.Logger { return r.logger }

// DumpState implements api.Debug.
func (r *Reactor) DumpState() map[string]any {
	return r.probes.DumpState()
}

// RegisterProbe implements api.Debug.
func (r *Reactor) RegisterProbe(name string, fn func() any) {
	r.probes.RegisterProbe(name, fn)
}

func (r *Reactor) addHandle(h *Handle)  { r.handles++ }
func (r *Reactor) dropHandle(h *Handle) { r.handles-- }

var _ api.Debug = (*Reactor)(nil)
