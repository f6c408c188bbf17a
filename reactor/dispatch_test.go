// File: reactor/dispatch_test.go
// Author: momentics <momentics@gmail.com>

package reactor_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/asyncio/api"
	"github.com/momentics/asyncio/fake"
	"github.com/momentics/asyncio/reactor"
)

func newTestReactor(t *testing.T) (*reactor.Reactor, *fake.Backend) {
	t.Helper()
	b := fake.NewBackend()
	r, err := reactor.New(reactor.WithBackend(b), reactor.WithClock(&fake.Clock{}))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, b
}

func pipeFDs(t *testing.T) (rfd, wfd int) {
	t.Helper()
	fds := make([]int, 2)
	require.NoError(t, unix.Pipe(fds))
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestDispatchMapsFiltersToEvents(t *testing.T) {
	r, b := newTestReactor(t)
	rfd, _ := pipeFDs(t)

	var got []api.EventKind
	record := func(e reactor.Event) { got = append(got, e.Kind) }

	conn, err := r.NewConnection(rfd, record, nil)
	require.NoError(t, err)
	timer, err := r.NewTimer(record, nil)
	require.NoError(t, err)
	proc, err := r.NewProcessWatch(12345, record, nil)
	require.NoError(t, err)
	sig, err := r.NewSignalWatch(int(unix.SIGUSR1), record, nil)
	require.NoError(t, err)

	b.PushBatch(
		reactor.Ready{Handle: conn, Filter: reactor.FilterRead, Ident: rfd},
		reactor.Ready{Handle: conn, Filter: reactor.FilterWrite, Ident: rfd},
		reactor.Ready{Handle: timer, Filter: reactor.FilterTimer, Ident: -1},
		reactor.Ready{Handle: proc, Filter: reactor.FilterProcess, Ident: 12345},
		reactor.Ready{Handle: sig, Filter: reactor.FilterSignal, Ident: int(unix.SIGUSR1)},
	)
	require.NoError(t, r.RunOnce(0))

	require.Equal(t, []api.EventKind{
		api.EventDataAvailable,
		api.EventReadyForWrite,
		api.EventTimerFired,
		api.EventProcessExited,
		api.EventSignalDelivered,
	}, got)
}

func TestDispatchListenerReadBecomesNewConnectionPending(t *testing.T) {
	r, b := newTestReactor(t)
	rfd, _ := pipeFDs(t)

	var events []reactor.Event
	h, err := r.NewListener(rfd, func(e reactor.Event) { events = append(events, e) }, "lctx")
	require.NoError(t, err)

	// Listener construction arms read interest up front.
	require.Contains(t, b.ArmedReads, rfd)

	b.PushBatch(reactor.Ready{Handle: h, Filter: reactor.FilterRead, Ident: rfd})
	require.NoError(t, r.RunOnce(0))

	require.Len(t, events, 1)
	require.Equal(t, api.EventNewConnectionPending, events[0].Kind)
	require.Equal(t, rfd, events[0].Ident)
	require.Equal(t, "lctx", events[0].Context)
}

func TestDispatchCallbackCanRearmItself(t *testing.T) {
	r, b := newTestReactor(t)
	rfd, _ := pipeFDs(t)

	calls := 0
	var h *reactor.Handle
	h, err := r.NewConnection(rfd, func(e reactor.Event) {
		calls++
		require.NoError(t, h.NotifyOnReadability())
	}, nil)
	require.NoError(t, err)
	require.NoError(t, h.NotifyOnReadability())

	b.PushBatch(reactor.Ready{Handle: h, Filter: reactor.FilterRead, Ident: rfd})
	require.NoError(t, r.RunOnce(0))
	require.Equal(t, 1, calls)
	require.Contains(t, b.ArmedReads, rfd)

	b.PushBatch(reactor.Ready{Handle: h, Filter: reactor.FilterRead, Ident: rfd})
	require.NoError(t, r.RunOnce(0))
	require.Equal(t, 2, calls)
}

func TestDispatchEOFAppendsConnectionClosed(t *testing.T) {
	r, b := newTestReactor(t)
	rfd, _ := pipeFDs(t)

	var got []api.EventKind
	h, err := r.NewConnection(rfd, func(e reactor.Event) { got = append(got, e.Kind) }, nil)
	require.NoError(t, err)

	b.PushBatch(reactor.Ready{Handle: h, Filter: reactor.FilterRead, Ident: rfd, EOF: true})
	require.NoError(t, r.RunOnce(0))

	require.Equal(t, []api.EventKind{api.EventDataAvailable, api.EventConnectionClosed}, got)
}

func TestDispatchEOFSuppressedAfterSelfRelease(t *testing.T) {
	r, b := newTestReactor(t)
	rfd, _ := pipeFDs(t)

	var got []api.EventKind
	var h *reactor.Handle
	h, err := r.NewConnection(rfd, func(e reactor.Event) {
		got = append(got, e.Kind)
		require.NoError(t, r.Release(h, false))
	}, nil)
	require.NoError(t, err)

	b.PushBatch(reactor.Ready{Handle: h, Filter: reactor.FilterRead, Ident: rfd, EOF: true})
	require.NoError(t, r.RunOnce(0))

	// The handle died inside its own callback; the closure follow-up
	// must not reach it.
	require.Equal(t, []api.EventKind{api.EventDataAvailable}, got)
	require.True(t, h.Released())
}

func TestDispatchSkipsReleasedHandles(t *testing.T) {
	r, b := newTestReactor(t)
	rfd, _ := pipeFDs(t)

	calls := 0
	h, err := r.NewConnection(rfd, func(reactor.Event) { calls++ }, nil)
	require.NoError(t, err)

	b.PushBatch(reactor.Ready{Handle: h, Filter: reactor.FilterRead, Ident: rfd})
	require.NoError(t, r.Release(h, false))
	require.NoError(t, r.RunOnce(0))

	require.Zero(t, calls)
}

func TestRunStopsFromCallback(t *testing.T) {
	r, b := newTestReactor(t)

	h, err := r.NewTimer(func(reactor.Event) { r.Stop() }, nil)
	require.NoError(t, err)

	b.PushBatch(reactor.Ready{Handle: h, Filter: reactor.FilterTimer, Ident: -1})
	require.NoError(t, r.Run())
	require.Equal(t, 1, b.WaitCalls)
}

func TestRunReturnsWaitError(t *testing.T) {
	r, b := newTestReactor(t)
	b.WaitErr = errors.New("wait exploded")

	err := r.Run()
	require.EqualError(t, err, "wait exploded")
}

func TestRunOnceTimeoutDeliversNothing(t *testing.T) {
	r, _ := newTestReactor(t)
	require.NoError(t, r.RunOnce(0))
	require.NoError(t, r.RunOnce(10*time.Millisecond))
}

func TestDebuggerCheckRetriesEINTR(t *testing.T) {
	b := fake.NewBackend()
	b.WaitErr = unix.EINTR

	attached := true
	r, err := reactor.New(
		reactor.WithBackend(b),
		reactor.WithDebuggerCheck(func() bool {
			if b.WaitCalls >= 3 {
				attached = false
			}
			return attached
		}),
	)
	require.NoError(t, err)
	defer r.Close()

	// Retried while "attached", surfaced once the check turns false.
	require.ErrorIs(t, r.RunOnce(0), unix.EINTR)
	require.Equal(t, 3, b.WaitCalls)
}

func TestEINTRPropagatesWithoutDebuggerCheck(t *testing.T) {
	r, b := newTestReactor(t)
	b.WaitErr = unix.EINTR

	require.ErrorIs(t, r.RunOnce(0), unix.EINTR)
	require.Equal(t, 1, b.WaitCalls)
}
