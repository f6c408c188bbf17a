// File: api/clock.go
// Author: momentics <momentics@gmail.com>
//
// Monotonic millisecond clock consumed by the reactor for timer
// arithmetic. The reactor never reads wall time.

package api

import "time"

// Clock supplies a monotonic millisecond counter. Implementations must
// never go backwards; the absolute origin is irrelevant.
type Clock interface {
	// Milliseconds returns elapsed monotonic time in milliseconds.
	Milliseconds() int64
}

type monotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a Clock backed by the runtime's monotonic
// reading, anchored at the moment of creation.
func NewMonotonicClock() Clock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) Milliseconds() int64 {
	return time.Since(c.start).Milliseconds()
}
