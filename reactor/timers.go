// File: reactor/timers.go
// Author: momentics <momentics@gmail.com>
//
// Software timer list for the level-style backend: an intrusive
// singly-linked list of armed one-shot timers. The edge-style backend
// never touches it; its timers are kernel-native.

package reactor

import (
	"math"

	"github.com/momentics/asyncio/api"
)

// timerList tracks armed timer handles. Membership in the list is what
// "armed" means on the level-style backend.
type timerList struct {
	head *Handle
}

// push arms the timer with an absolute deadline in clock milliseconds.
// An already-armed timer is unlinked first, so re-arming replaces the
// deadline instead of duplicating the intrusive link.
func (l *timerList) push(h *Handle, fireAt int64) {
	if h.armedTimer {
		_ = l.remove(h)
	}
	h.fireAt = fireAt
	h.nextTimer = l.head
	l.head = h
	h.armedTimer = true
}

// remove unlinks the timer by identity. Absent timers yield
// ErrTimerNotArmed.
func (l *timerList) remove(h *Handle) error {
	if l.head == h {
		l.head = h.nextTimer
	} else {
		prev := l.head
		for prev != nil && prev.nextTimer != h {
			prev = prev.nextTimer
		}
		if prev == nil {
			return api.ErrTimerNotArmed
		}
		prev.nextTimer = h.nextTimer
	}
	h.nextTimer = nil
	h.armedTimer = false
	return nil
}

// next scans for the earliest deadline. The remaining duration is
// clamped to zero for deadlines already past due.
func (l *timerList) next(now int64) (h *Handle, remainingMS int64, ok bool) {
	best := int64(math.MaxInt64)
	for t := l.head; t != nil; t = t.nextTimer {
		if t.fireAt < best {
			best = t.fireAt
			h = t
		}
	}
	if h == nil {
		return nil, 0, false
	}
	remainingMS = best - now
	if remainingMS < 0 {
		remainingMS = 0
	}
	return h, remainingMS, true
}

// length reports the number of armed timers, for state dumps.
func (l *timerList) length() int {
	n := 0
	for t := l.head; t != nil; t = t.nextTimer {
		n++
	}
	return n
}
