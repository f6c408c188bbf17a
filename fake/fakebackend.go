// Author: momentics <momentics@gmail.com>

// Package fake provides test doubles: a scripted multiplexing backend
// and a settable clock, so dispatch behavior can be driven
// deterministically without kernel descriptors.
package fake

import (
	"time"

	"github.com/momentics/asyncio/api"
	"github.com/momentics/asyncio/reactor"
)

// Backend is a scripted reactor.Backend. Test code enqueues ready
// batches with PushBatch; each Wait call pops one batch, or reports a
// timeout (empty batch) when the script is exhausted.
type Backend struct {
	// WaitFD is what WaitDescriptor returns; -1 by default.
	WaitFD int

	// Native is what NativeTimers returns.
	Native bool

	// WaitErr, when set, is returned by every Wait call.
	WaitErr error

	// Recorded activity.
	WaitCalls   int
	ArmedReads  map[int]*reactor.Handle
	ArmedWrites map[int]*reactor.Handle
	Timers      map[*reactor.Handle]uint32
	Disarmed    []*reactor.Handle
	Closed      bool

	batches [][]reactor.Ready
}

// NewBackend creates an empty scripted backend.
func NewBackend() *Backend {
	return &Backend{
		WaitFD:      -1,
		ArmedReads:  make(map[int]*reactor.Handle),
		ArmedWrites: make(map[int]*reactor.Handle),
		Timers:      make(map[*reactor.Handle]uint32),
	}
}

// PushBatch schedules one ready batch for a future Wait call.
func (b *Backend) PushBatch(rs ...reactor.Ready) {
	b.batches = append(b.batches, rs)
}

// Name implements reactor.Backend.
func (b *Backend) Name() string { return "fake" }

// ArmRead implements reactor.Backend.
func (b *Backend) ArmRead(h *reactor.Handle) error {
	b.ArmedReads[h.FD()] = h
	return nil
}

// ArmWrite implements reactor.Backend.
func (b *Backend) ArmWrite(h *reactor.Handle) error {
	b.ArmedWrites[h.FD()] = h
	return nil
}

// Disarm implements reactor.Backend.
func (b *Backend) Disarm(h *reactor.Handle) {
	delete(b.ArmedReads, h.FD())
	delete(b.ArmedWrites, h.FD())
	b.Disarmed = append(b.Disarmed, h)
}

// AddTimer implements reactor.Backend.
func (b *Backend) AddTimer(h *reactor.Handle, milliseconds uint32) error {
	b.Timers[h] = milliseconds
	return nil
}

// CancelTimer implements reactor.Backend.
func (b *Backend) CancelTimer(h *reactor.Handle) error {
	if _, ok := b.Timers[h]; !ok {
		return api.ErrTimerNotArmed
	}
	delete(b.Timers, h)
	return nil
}

// AddProcess implements reactor.Backend.
func (b *Backend) AddProcess(h *reactor.Handle, pid int) error { return nil }

// AddSignal implements reactor.Backend.
func (b *Backend) AddSignal(h *reactor.Handle, signum int) error { return nil }

// Wait implements reactor.Backend.
func (b *Backend) Wait(timeout time.Duration) ([]reactor.Ready, error) {
	b.WaitCalls++
	if b.WaitErr != nil {
		return nil, b.WaitErr
	}
	if len(b.batches) == 0 {
		return nil, nil
	}
	batch := b.batches[0]
	b.batches = b.batches[1:]
	return batch, nil
}

// WaitDescriptor implements reactor.Backend.
func (b *Backend) WaitDescriptor() int { return b.WaitFD }

// NativeTimers implements reactor.Backend.
func (b *Backend) NativeTimers() bool { return b.Native }

// Close implements reactor.Backend.
func (b *Backend) Close() error {
	b.Closed = true
	return nil
}

var _ reactor.Backend = (*Backend)(nil)
