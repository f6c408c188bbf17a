// Author: momentics <momentics@gmail.com>

package fake

import "github.com/momentics/asyncio/api"

// Clock is a settable api.Clock for hermetic timer tests.
type Clock struct {
	MS int64
}

// Milliseconds implements api.Clock.
func (c *Clock) Milliseconds() int64 { return c.MS }

// Advance moves the clock forward.
func (c *Clock) Advance(ms int64) { c.MS += ms }

var _ api.Clock = (*Clock)(nil)
