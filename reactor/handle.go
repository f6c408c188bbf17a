// File: reactor/handle.go
// Author: momentics <momentics@gmail.com>
//
// Handle table and lifecycle: one opaque record per monitored
// interest. Constructors force descriptors into non-blocking mode;
// Release unregisters every backend interest and is safe to call from
// within the handle's own callback.

package reactor

import (
	"code.cloudfoundry.org/lager/v3"
	"go.uber.org/atomic"
	"golang.org/x/sys/unix"

	"github.com/momentics/asyncio/api"
)

// HandleKind discriminates what a handle monitors.
type HandleKind int

const (
	KindListener HandleKind = iota + 1
	KindConnection
	KindTimer
	KindProcessWatch
	KindSignalWatch
)

// String returns the kind's name for log output.
func (k HandleKind) String() string {
	switch k {
	case KindListener:
		return "listener"
	case KindConnection:
		return "connection"
	case KindTimer:
		return "timer"
	case KindProcessWatch:
		return "process-watch"
	case KindSignalWatch:
		return "signal-watch"
	}
	return "unknown"
}

// Event is the payload delivered to a handle callback.
type Event struct {
	Kind   api.EventKind
	Handle *Handle

	// Ident is the descriptor the event concerns; the PID for
	// process-exit events, the signal number for signal events, and
	// -1 for timers.
	Ident int

	// Context is the opaque value supplied at construction.
	Context any
}

// Callback is invoked by the dispatch loop, always on the reactor's
// goroutine, never concurrently with another callback.
type Callback func(Event)

// Handle is one registered monitor. Handles are created through the
// reactor's constructors and must be disposed of with Release.
type Handle struct {
	r        *Reactor
	fd       int
	kind     HandleKind
	callback Callback
	context  any

	notifyRead  bool
	notifyWrite bool

	released atomic.Bool

	// Software timer state, used only by the level-style backend.
	fireAt     int64
	nextTimer  *Handle
	armedTimer bool

	// Kernel filter idents on the edge-style backend.
	timerToken uint64
	pid        int
	signum     int
}

// FD returns the monitored descriptor, or -1 for timer, process, and
// signal handles.
func (h *Handle) FD() int { return h.fd }

// Kind returns what the handle monitors.
func (h *Handle) Kind() HandleKind { return h.kind }

// Context returns the opaque value supplied at construction.
func (h *Handle) Context() any { return h.context }

// Released reports whether the handle has been released.
func (h *Handle) Released() bool { return h.released.Load() }

// NewListener registers a listening descriptor. The descriptor is
// forced non-blocking and read interest is armed immediately; each
// delivered new-connection event consumes the arming, so the callback
// re-arms with NotifyOnReadability to keep accepting.
func (r *Reactor) NewListener(fd int, cb Callback, ctx any) (*Handle, error) {
	h, err := r.newFDHandle(fd, KindListener, cb, ctx)
	if err != nil {
		return nil, err
	}
	if err := h.NotifyOnReadability(); err != nil {
		r.dropHandle(h)
		return nil, err
	}
	return h, nil
}

// NewConnection registers a stream descriptor (socket, pipe, serial
// line). The descriptor is forced non-blocking; no interest is armed
// until the owner asks for it.
func (r *Reactor) NewConnection(fd int, cb Callback, ctx any) (*Handle, error) {
	return r.newFDHandle(fd, KindConnection, cb, ctx)
}

func (r *Reactor) newFDHandle(fd int, kind HandleKind, cb Callback, ctx any) (*Handle, error) {
	if fd < 0 || cb == nil {
		return nil, api.ErrInvalidArgument
	}
	if err := setNonblock(fd); err != nil {
		r.logger.Error("set-nonblock-failed", err, lager.Data{"fd": fd, "kind": kind.String()})
		return nil, err
	}
	h := &Handle{r: r, fd: fd, kind: kind, callback: cb, context: ctx}
	r.addHandle(h)
	return h, nil
}

// NewTimer creates an unarmed one-shot timer handle; EnableTimer arms
// it.
func (r *Reactor) NewTimer(cb Callback, ctx any) (*Handle, error) {
	if cb == nil {
		return nil, api.ErrInvalidArgument
	}
	h := &Handle{r: r, fd: -1, kind: KindTimer, callback: cb, context: ctx}
	r.addHandle(h)
	return h, nil
}

// NewProcessWatch arms a one-shot watch for the exit of pid. Only
// supported by the edge-style backend.
func (r *Reactor) NewProcessWatch(pid int, cb Callback, ctx any) (*Handle, error) {
	if pid <= 0 || cb == nil {
		return nil, api.ErrInvalidArgument
	}
	h := &Handle{r: r, fd: -1, kind: KindProcessWatch, callback: cb, context: ctx, pid: pid}
	if err := r.backend.AddProcess(h, pid); err != nil {
		r.logger.Error("add-process-watch-failed", err, lager.Data{"pid": pid})
		return nil, err
	}
	r.addHandle(h)
	return h, nil
}

// NewSignalWatch arms a one-shot watch for delivery of signum. The
// signal's default disposition is replaced with ignore so the event
// queue observes it. Only supported by the edge-style backend.
func (r *Reactor) NewSignalWatch(signum int, cb Callback, ctx any) (*Handle, error) {
	if signum <= 0 || cb == nil {
		return nil, api.ErrInvalidArgument
	}
	h := &Handle{r: r, fd: -1, kind: KindSignalWatch, callback: cb, context: ctx, signum: signum}
	if err := r.backend.AddSignal(h, signum); err != nil {
		r.logger.Error("add-signal-watch-failed", err, lager.Data{"signal": signum})
		return nil, err
	}
	r.addHandle(h)
	return h, nil
}

// NotifyOnReadability arms one-shot read interest. The next
// data-available (or new-connection) event consumes it.
func (h *Handle) NotifyOnReadability() error {
	if h.released.Load() {
		return api.ErrHandleReleased
	}
	if err := h.r.backend.ArmRead(h); err != nil {
		return err
	}
	h.notifyRead = true
	return nil
}

// NotifyOnWritability arms one-shot write interest.
func (h *Handle) NotifyOnWritability() error {
	if h.released.Load() {
		return api.ErrHandleReleased
	}
	if err := h.r.backend.ArmWrite(h); err != nil {
		return err
	}
	h.notifyWrite = true
	return nil
}

// NotifyWhenConnected reports completion of an asynchronous connect,
// which the kernel signals as write readiness.
func (h *Handle) NotifyWhenConnected() error {
	return h.NotifyOnWritability()
}

// Release unregisters every armed interest, optionally closes the
// descriptor, and invalidates the handle. Releasing the handle whose
// callback is currently executing is permitted: the dispatch loop's
// in-progress marker is cleared so no further synthetic events reach
// the handle within the same pass.
func (r *Reactor) Release(h *Handle, closeDescriptor bool) error {
	if h == nil {
		r.logger.Error("release-nil-handle", api.ErrInvalidArgument)
		return api.ErrInvalidArgument
	}
	if h.released.Swap(true) {
		return api.ErrHandleReleased
	}

	if h.kind == KindTimer {
		// A released timer may simply never have been armed.
		if err := r.backend.CancelTimer(h); err != nil && err != api.ErrTimerNotArmed {
			r.logger.Error("cancel-timer-failed", err)
		}
	}
	r.backend.Disarm(h)

	if closeDescriptor && h.fd >= 0 {
		if err := unix.Close(h.fd); err != nil {
			r.logger.Error("close-descriptor-failed", err, lager.Data{"fd": h.fd})
		}
		h.fd = -1
	}

	if r.inProgress == h {
		r.inProgress = nil
	}

	h.notifyRead = false
	h.notifyWrite = false
	r.dropHandle(h)
	return nil
}

// EnableTimer arms a timer handle to fire once after the given number
// of milliseconds. Re-arming an already-armed timer replaces its
// deadline.
func (r *Reactor) EnableTimer(h *Handle, milliseconds uint32) error {
	if h == nil || h.kind != KindTimer {
		return api.ErrInvalidArgument
	}
	if h.released.Load() {
		return api.ErrHandleReleased
	}
	if err := r.backend.AddTimer(h, milliseconds); err != nil {
		r.logger.Error("enable-timer-failed", err, lager.Data{"milliseconds": milliseconds})
		return err
	}
	return nil
}

// DisableTimer cancels a pending timer. Disabling a timer that is not
// armed returns ErrTimerNotArmed.
func (r *Reactor) DisableTimer(h *Handle) error {
	if h == nil || h.kind != KindTimer {
		return api.ErrInvalidArgument
	}
	return r.backend.CancelTimer(h)
}
