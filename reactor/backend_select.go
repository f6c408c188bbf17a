//go:build linux || darwin

// File: reactor/backend_select.go
// Author: momentics <momentics@gmail.com>
//
// Level-style backend: read and write interest sets rebuilt into
// descriptor sets on every wait cycle. Timers are layered in software
// through the timer list; process-exit and signal watches are not
// supported. Peer closure is not detected on read interest — owners
// see it as a zero-length read instead of a connection-closed event.
// That limitation is inherited and deliberate.

package reactor

import (
	"time"

	"code.cloudfoundry.org/lager/v3"
	"golang.org/x/sys/unix"

	"github.com/momentics/asyncio/api"
)

// SelectBackend is the level-style multiplexer. Readiness is reported
// on every cycle while the condition holds, so interest is dropped
// from the sets before each callback to preserve one-shot semantics.
type SelectBackend struct {
	logger lager.Logger
	clock  api.Clock

	reads  map[int]*Handle
	writes map[int]*Handle

	timers timerList
	// primed is the timer bounding the current wait; a zero ready
	// count fires it if its deadline is actually due.
	primed *Handle
}

// NewSelectBackend creates the level-style backend. The clock drives
// the software timer list.
func NewSelectBackend(clock api.Clock, logger lager.Logger) *SelectBackend {
	return &SelectBackend{
		logger: logger.Session("select-backend"),
		clock:  clock,
		reads:  make(map[int]*Handle),
		writes: make(map[int]*Handle),
	}
}

// Name implements Backend.
func (b *SelectBackend) Name() string { return "select" }

// ArmRead implements Backend.
func (b *SelectBackend) ArmRead(h *Handle) error {
	if h.fd < 0 || h.fd >= unix.FD_SETSIZE {
		return api.ErrInvalidArgument
	}
	b.reads[h.fd] = h
	return nil
}

// ArmWrite implements Backend.
func (b *SelectBackend) ArmWrite(h *Handle) error {
	if h.fd < 0 || h.fd >= unix.FD_SETSIZE {
		return api.ErrInvalidArgument
	}
	b.writes[h.fd] = h
	return nil
}

// Disarm implements Backend.
func (b *SelectBackend) Disarm(h *Handle) {
	if h.fd >= 0 {
		delete(b.reads, h.fd)
		delete(b.writes, h.fd)
	}
}

// AddTimer implements Backend.
func (b *SelectBackend) AddTimer(h *Handle, milliseconds uint32) error {
	b.timers.push(h, b.clock.Milliseconds()+int64(milliseconds))
	return nil
}

// CancelTimer implements Backend.
func (b *SelectBackend) CancelTimer(h *Handle) error {
	if b.primed == h {
		b.primed = nil
	}
	return b.timers.remove(h)
}

// AddProcess implements Backend. Process watches need the kernel event
// queue.
func (b *SelectBackend) AddProcess(h *Handle, pid int) error {
	return api.ErrNotSupported
}

// AddSignal implements Backend. Signal watches need the kernel event
// queue.
func (b *SelectBackend) AddSignal(h *Handle, signum int) error {
	return api.ErrNotSupported
}

// WaitDescriptor implements Backend; select exposes no waitable
// descriptor.
func (b *SelectBackend) WaitDescriptor() int { return -1 }

// NativeTimers implements Backend.
func (b *SelectBackend) NativeTimers() bool { return false }

// TimerCount reports the number of armed software timers.
func (b *SelectBackend) TimerCount() int { return b.timers.length() }

// Close implements Backend. The backend holds no kernel state of its
// own.
func (b *SelectBackend) Close() error { return nil }

// Wait implements Backend. The effective timeout is the smaller of the
// caller's bound and the next timer deadline; with no descriptors, no
// armed timer, and no caller bound there is nothing to suspend on and
// ErrNothingToWatch is returned.
func (b *SelectBackend) Wait(timeout time.Duration) ([]Ready, error) {
	var rset, wset unix.FdSet
	maxFd := -1
	for fd := range b.reads {
		rset.Set(fd)
		if fd > maxFd {
			maxFd = fd
		}
	}
	for fd := range b.writes {
		wset.Set(fd)
		if fd > maxFd {
			maxFd = fd
		}
	}

	eff := timeout
	b.primed = nil
	if h, remaining, ok := b.timers.next(b.clock.Milliseconds()); ok {
		b.primed = h
		if d := time.Duration(remaining) * time.Millisecond; eff < 0 || d < eff {
			eff = d
		}
	}
	if maxFd < 0 && eff < 0 {
		return nil, api.ErrNothingToWatch
	}

	var tvp *unix.Timeval
	if eff >= 0 {
		tv := unix.NsecToTimeval(eff.Nanoseconds())
		tvp = &tv
	}

	var rp, wp *unix.FdSet
	if maxFd >= 0 {
		rp, wp = &rset, &wset
	}
	n, err := unix.Select(maxFd+1, rp, wp, nil, tvp)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		if h := b.primed; h != nil && h.fireAt <= b.clock.Milliseconds() {
			// One-shot: unlink before the dispatch loop runs the
			// callback.
			b.primed = nil
			_ = b.timers.remove(h)
			return []Ready{{Handle: h, Filter: FilterTimer, Ident: -1}}, nil
		}
		if b.primed != nil {
			// The caller's shorter bound expired first; the timer
			// stays armed for a later cycle.
			b.logger.Debug("timer-not-yet-due", lager.Data{"remaining-ms": b.primed.fireAt - b.clock.Milliseconds()})
		}
		return nil, nil
	}

	batch := make([]Ready, 0, n)
	for fd, h := range b.reads {
		if rset.IsSet(fd) {
			// Interest is consumed before the callback so it can be
			// re-requested during dispatch.
			delete(b.reads, fd)
			batch = append(batch, Ready{Handle: h, Filter: FilterRead, Ident: fd})
		}
	}
	for fd, h := range b.writes {
		if wset.IsSet(fd) {
			delete(b.writes, fd)
			batch = append(batch, Ready{Handle: h, Filter: FilterWrite, Ident: fd})
		}
	}
	return batch, nil
}

var _ Backend = (*SelectBackend)(nil)
