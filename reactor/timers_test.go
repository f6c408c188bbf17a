// File: reactor/timers_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/asyncio/api"
)

func newTimerHandle() *Handle {
	return &Handle{fd: -1, kind: KindTimer}
}

func TestTimerListNextPicksEarliestDeadline(t *testing.T) {
	var l timerList
	a, b, c := newTimerHandle(), newTimerHandle(), newTimerHandle()

	now := int64(1000)
	l.push(a, now+50)
	l.push(b, now+10)
	l.push(c, now+30)

	h, remaining, ok := l.next(now)
	require.True(t, ok)
	require.Same(t, b, h)
	require.Equal(t, int64(10), remaining)
	require.Equal(t, 3, l.length())
}

func TestTimerListNextClampsPastDueToZero(t *testing.T) {
	var l timerList
	a := newTimerHandle()
	l.push(a, 100)

	h, remaining, ok := l.next(250)
	require.True(t, ok)
	require.Same(t, a, h)
	require.Equal(t, int64(0), remaining)
}

func TestTimerListNextEmpty(t *testing.T) {
	var l timerList
	_, _, ok := l.next(0)
	require.False(t, ok)
	require.Equal(t, 0, l.length())
}

func TestTimerListRemoveHeadAndMiddle(t *testing.T) {
	var l timerList
	a, b, c := newTimerHandle(), newTimerHandle(), newTimerHandle()
	l.push(a, 10)
	l.push(b, 20)
	l.push(c, 30)

	// c is the head after the last push.
	require.NoError(t, l.remove(c))
	require.Equal(t, 2, l.length())
	require.False(t, c.armedTimer)

	require.NoError(t, l.remove(a))
	require.Equal(t, 1, l.length())

	h, _, ok := l.next(0)
	require.True(t, ok)
	require.Same(t, b, h)
}

func TestTimerListRemoveAbsent(t *testing.T) {
	var l timerList
	a, b := newTimerHandle(), newTimerHandle()
	l.push(a, 10)

	require.ErrorIs(t, l.remove(b), api.ErrTimerNotArmed)
	require.Equal(t, 1, l.length())
}

func TestTimerListRearmReplacesDeadline(t *testing.T) {
	var l timerList
	a := newTimerHandle()
	l.push(a, 100)
	l.push(a, 40)

	require.Equal(t, 1, l.length())
	h, remaining, ok := l.next(0)
	require.True(t, ok)
	require.Same(t, a, h)
	require.Equal(t, int64(40), remaining)
}
