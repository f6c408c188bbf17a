// File: api/events_test.go
// Author: momentics <momentics@gmail.com>

package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventKindValuesAreStable(t *testing.T) {
	require.Equal(t, EventKind(1), EventNewConnectionPending)
	require.Equal(t, EventKind(2), EventConnectionClosed)
	require.Equal(t, EventKind(3), EventReadyForWrite)
	require.Equal(t, EventKind(4), EventDataAvailable)
	require.Equal(t, EventKind(5), EventTimerFired)
	require.Equal(t, EventKind(6), EventProcessExited)
	require.Equal(t, EventKind(7), EventSignalDelivered)

	require.Equal(t, EventReadyForWrite, EventConnected)
}

func TestEventKindString(t *testing.T) {
	require.Equal(t, "data-available", EventDataAvailable.String())
	require.Equal(t, "timer-fired", EventTimerFired.String())
	require.Equal(t, "unknown", EventKind(42).String())
}
