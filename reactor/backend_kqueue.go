//go:build darwin || freebsd

// File: reactor/backend_kqueue.go
// Author: momentics <momentics@gmail.com>
//
// Edge-style backend: a kernel event queue with one-shot registration
// per interest and native timer, process-exit, and signal filters.
// Peer closure arrives as an EOF flag on the read filter and is
// surfaced as an extra ready event after the ordinary data event.

package reactor

import (
	"os/signal"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"golang.org/x/sys/unix"

	"github.com/momentics/asyncio/api"
)

// maxKqueueEvents bounds the ready batch collected per wait.
const maxKqueueEvents = 16

// KqueueBackend is the edge-style multiplexer. Handles are tracked in
// ident-keyed registries rather than kernel udata so the collector
// never sees reactor pointers.
type KqueueBackend struct {
	logger lager.Logger
	kq     int

	reads  map[int]*Handle
	writes map[int]*Handle
	timers map[uint64]*Handle
	procs  map[int]*Handle
	sigs   map[int]*Handle

	nextToken uint64
}

// NewKqueueBackend creates the edge-style backend.
func NewKqueueBackend(logger lager.Logger) (*KqueueBackend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &KqueueBackend{
		logger: logger.Session("kqueue-backend"),
		kq:     kq,
		reads:  make(map[int]*Handle),
		writes: make(map[int]*Handle),
		timers: make(map[uint64]*Handle),
		procs:  make(map[int]*Handle),
		sigs:   make(map[int]*Handle),
	}, nil
}

// Name implements Backend.
func (b *KqueueBackend) Name() string { return "kqueue" }

func (b *KqueueBackend) change(ident int, filter int, flags int, fflags uint32, data int64) error {
	var kv unix.Kevent_t
	unix.SetKevent(&kv, ident, filter, flags)
	kv.Fflags = fflags
	kv.Data = data
	_, err := unix.Kevent(b.kq, []unix.Kevent_t{kv}, nil, nil)
	return err
}

// ArmRead implements Backend: one-shot read filter.
func (b *KqueueBackend) ArmRead(h *Handle) error {
	if h.fd < 0 {
		return api.ErrInvalidArgument
	}
	if err := b.change(h.fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ONESHOT, 0, 0); err != nil {
		b.logger.Error("arm-read-failed", err, lager.Data{"fd": h.fd})
		return err
	}
	b.reads[h.fd] = h
	return nil
}

// ArmWrite implements Backend: one-shot write filter.
func (b *KqueueBackend) ArmWrite(h *Handle) error {
	if h.fd < 0 {
		return api.ErrInvalidArgument
	}
	if err := b.change(h.fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ONESHOT, 0, 0); err != nil {
		b.logger.Error("arm-write-failed", err, lager.Data{"fd": h.fd})
		return err
	}
	b.writes[h.fd] = h
	return nil
}

// Disarm implements Backend. One-shot filters may already be gone from
// the kernel queue, so ENOENT is expected and ignored.
func (b *KqueueBackend) Disarm(h *Handle) {
	if h.notifyRead && h.fd >= 0 {
		if err := b.change(h.fd, unix.EVFILT_READ, unix.EV_DELETE, 0, 0); err != nil && err != unix.ENOENT {
			b.logger.Error("remove-read-filter-failed", err, lager.Data{"fd": h.fd})
		}
	}
	if h.notifyWrite && h.fd >= 0 {
		if err := b.change(h.fd, unix.EVFILT_WRITE, unix.EV_DELETE, 0, 0); err != nil && err != unix.ENOENT {
			b.logger.Error("remove-write-filter-failed", err, lager.Data{"fd": h.fd})
		}
	}
	if h.fd >= 0 {
		delete(b.reads, h.fd)
		delete(b.writes, h.fd)
	}

	switch h.kind {
	case KindProcessWatch:
		if err := b.change(h.pid, unix.EVFILT_PROC, unix.EV_DELETE, 0, 0); err != nil && err != unix.ENOENT {
			b.logger.Error("remove-proc-filter-failed", err, lager.Data{"pid": h.pid})
		}
		delete(b.procs, h.pid)
	case KindSignalWatch:
		if err := b.change(h.signum, unix.EVFILT_SIGNAL, unix.EV_DELETE, 0, 0); err != nil && err != unix.ENOENT {
			b.logger.Error("remove-signal-filter-failed", err, lager.Data{"signal": h.signum})
		}
		delete(b.sigs, h.signum)
	}
}

// AddTimer implements Backend: a native one-shot EVFILT_TIMER keyed by
// a per-handle token.
func (b *KqueueBackend) AddTimer(h *Handle, milliseconds uint32) error {
	if h.timerToken == 0 {
		b.nextToken++
		h.timerToken = b.nextToken
	}
	err := b.change(int(h.timerToken), unix.EVFILT_TIMER, unix.EV_ADD|unix.EV_ENABLE|unix.EV_ONESHOT, 0, int64(milliseconds))
	if err != nil {
		b.logger.Error("add-timer-failed", err, lager.Data{"milliseconds": milliseconds})
		return err
	}
	b.timers[h.timerToken] = h
	return nil
}

// CancelTimer implements Backend.
func (b *KqueueBackend) CancelTimer(h *Handle) error {
	if h.timerToken == 0 {
		return api.ErrTimerNotArmed
	}
	if _, ok := b.timers[h.timerToken]; !ok {
		return api.ErrTimerNotArmed
	}
	if err := b.change(int(h.timerToken), unix.EVFILT_TIMER, unix.EV_DELETE, 0, 0); err != nil && err != unix.ENOENT {
		return err
	}
	delete(b.timers, h.timerToken)
	return nil
}

// AddProcess implements Backend: NOTE_EXIT on the process filter.
func (b *KqueueBackend) AddProcess(h *Handle, pid int) error {
	if err := b.change(pid, unix.EVFILT_PROC, unix.EV_ADD|unix.EV_ENABLE|unix.EV_ONESHOT, unix.NOTE_EXIT, 0); err != nil {
		return err
	}
	b.procs[pid] = h
	return nil
}

// AddSignal implements Backend. The signal is first set to ignored so
// delivery reaches the event queue instead of the default disposition.
func (b *KqueueBackend) AddSignal(h *Handle, signum int) error {
	signal.Ignore(unix.Signal(signum))
	if err := b.change(signum, unix.EVFILT_SIGNAL, unix.EV_ADD|unix.EV_ENABLE|unix.EV_ONESHOT, 0, 0); err != nil {
		return err
	}
	b.sigs[signum] = h
	return nil
}

// WaitDescriptor implements Backend; the kqueue descriptor itself is
// selectable and feeds the run-loop bridge.
func (b *KqueueBackend) WaitDescriptor() int { return b.kq }

// NativeTimers implements Backend.
func (b *KqueueBackend) NativeTimers() bool { return true }

// Close implements Backend.
func (b *KqueueBackend) Close() error { return unix.Close(b.kq) }

// Wait implements Backend: a single kevent collection of at most
// maxKqueueEvents entries.
func (b *KqueueBackend) Wait(timeout time.Duration) ([]Ready, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	var evs [maxKqueueEvents]unix.Kevent_t
	n, err := unix.Kevent(b.kq, nil, evs[:], ts)
	if err != nil {
		return nil, err
	}

	batch := make([]Ready, 0, n)
	for i := 0; i < n; i++ {
		ev := evs[i]
		switch ev.Filter {
		case unix.EVFILT_READ:
			fd := int(ev.Ident)
			h := b.reads[fd]
			delete(b.reads, fd)
			if h == nil {
				b.logger.Debug("stale-read-event", lager.Data{"fd": fd})
				continue
			}
			batch = append(batch, Ready{Handle: h, Filter: FilterRead, Ident: fd, EOF: ev.Flags&unix.EV_EOF != 0})
		case unix.EVFILT_WRITE:
			fd := int(ev.Ident)
			h := b.writes[fd]
			delete(b.writes, fd)
			if h == nil {
				b.logger.Debug("stale-write-event", lager.Data{"fd": fd})
				continue
			}
			batch = append(batch, Ready{Handle: h, Filter: FilterWrite, Ident: fd})
		case unix.EVFILT_TIMER:
			h := b.timers[ev.Ident]
			delete(b.timers, ev.Ident)
			if h == nil {
				continue
			}
			batch = append(batch, Ready{Handle: h, Filter: FilterTimer, Ident: -1})
		case unix.EVFILT_PROC:
			pid := int(ev.Ident)
			h := b.procs[pid]
			delete(b.procs, pid)
			if h == nil {
				continue
			}
			batch = append(batch, Ready{Handle: h, Filter: FilterProcess, Ident: pid})
		case unix.EVFILT_SIGNAL:
			sig := int(ev.Ident)
			h := b.sigs[sig]
			delete(b.sigs, sig)
			if h == nil {
				continue
			}
			batch = append(batch, Ready{Handle: h, Filter: FilterSignal, Ident: sig})
		}
	}
	return batch, nil
}

var _ Backend = (*KqueueBackend)(nil)
