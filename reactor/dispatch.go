// File: reactor/dispatch.go
// Author: momentics <momentics@gmail.com>
//
// Event dispatch loop. The backend wait is the system's only
// suspension point; everything else is non-blocking by construction.
// Each ready interest yields exactly one callback per pass, with the
// in-progress marker guarding freed handles against the synthetic
// events that can follow them in the same pass.

package reactor

import (
	"time"

	"code.cloudfoundry.org/lager/v3"
	"golang.org/x/sys/unix"

	"github.com/momentics/asyncio/api"
)

// RunOnce performs a single dispatch pass: wait at most timeout
// (negative blocks indefinitely; an armed timer deadline always bounds
// the wait further), then deliver the ready batch. It returns after
// the batch is processed or the timeout expires with nothing ready.
func (r *Reactor) RunOnce(timeout time.Duration) error {
	batch, err := r.wait(timeout)
	if err != nil {
		return err
	}
	for i := range batch {
		r.pending.Add(batch[i])
	}
	for r.pending.Length() > 0 {
		rd := r.pending.Remove().(Ready)
		r.deliver(rd)
	}
	return nil
}

// Run dispatches continuously until Stop is called or the backend wait
// fails; the wait error ends the loop and is returned to the caller.
// Stop may be called from within a callback.
func (r *Reactor) Run() error {
	r.running.Store(true)
	defer r.running.Store(false)
	for r.running.Load() {
		if err := r.RunOnce(-1); err != nil {
			r.logger.Error("run-loop-wait-failed", err)
			return err
		}
	}
	return nil
}

// Stop makes a continuous Run return after the current pass.
func (r *Reactor) Stop() {
	r.running.Store(false)
}

func (r *Reactor) wait(timeout time.Duration) ([]Ready, error) {
	for {
		batch, err := r.backend.Wait(timeout)
		if err == unix.EINTR && r.debuggerCheck != nil && r.debuggerCheck() {
			// Breakpoint artifact, not a real interruption.
			r.logger.Debug("wait-interrupted-by-debugger")
			continue
		}
		return batch, err
	}
}

// deliver invokes the callback for one ready interest. The interest's
// arming is cleared before the callback runs so the callback can
// re-request it, and the in-progress marker is consulted before any
// follow-up event so a handle released by its own callback is never
// touched again.
func (r *Reactor) deliver(rd Ready) {
	h := rd.Handle
	if h == nil || h.released.Load() {
		r.logger.Debug("skip-released-handle", lager.Data{"ident": rd.Ident})
		return
	}

	r.inProgress = h

	switch rd.Filter {
	case FilterRead:
		h.notifyRead = false
		if h.kind == KindListener {
			h.callback(Event{Kind: api.EventNewConnectionPending, Handle: h, Ident: rd.Ident, Context: h.context})
		} else {
			h.callback(Event{Kind: api.EventDataAvailable, Handle: h, Ident: rd.Ident, Context: h.context})
		}
	case FilterWrite:
		h.notifyWrite = false
		h.callback(Event{Kind: api.EventReadyForWrite, Handle: h, Ident: rd.Ident, Context: h.context})
	case FilterTimer:
		h.callback(Event{Kind: api.EventTimerFired, Handle: h, Ident: -1, Context: h.context})
	case FilterProcess:
		h.callback(Event{Kind: api.EventProcessExited, Handle: h, Ident: rd.Ident, Context: h.context})
	case FilterSignal:
		h.callback(Event{Kind: api.EventSignalDelivered, Handle: h, Ident: rd.Ident, Context: h.context})
	}

	if rd.EOF && rd.Filter == FilterRead {
		if r.inProgress == h {
			h.callback(Event{Kind: api.EventConnectionClosed, Handle: h, Ident: rd.Ident, Context: h.context})
		} else {
			// The callback released its own handle; the closure
			// notification dies with it.
			r.logger.Debug("eof-after-release", lager.Data{"ident": rd.Ident})
		}
	}

	r.inProgress = nil
}
