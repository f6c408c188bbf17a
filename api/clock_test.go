// File: api/clock_test.go
// Author: momentics <momentics@gmail.com>

package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonotonicClockNeverGoesBackwards(t *testing.T) {
	c := NewMonotonicClock()

	a := c.Milliseconds()
	time.Sleep(2 * time.Millisecond)
	b := c.Milliseconds()

	require.GreaterOrEqual(t, a, int64(0))
	require.GreaterOrEqual(t, b, a)
}
