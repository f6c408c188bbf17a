// File: api/events.go
// Author: momentics <momentics@gmail.com>
//
// Event kinds delivered to handle callbacks by the dispatch loop.

package api

// EventKind identifies the readiness condition a callback is invoked
// for. The numbering is stable; owners may persist or switch on it.
type EventKind int

const (
	// EventNewConnectionPending fires on a listener handle when a peer
	// is waiting to be accepted. The callback receives the listening
	// descriptor; accepting is the owner's job.
	EventNewConnectionPending EventKind = 1

	// EventConnectionClosed fires after EventDataAvailable in the same
	// pass when the peer has closed its write side. Only the edge-style
	// backend detects this condition.
	EventConnectionClosed EventKind = 2

	// EventReadyForWrite fires on a connection handle when a write
	// would no longer block.
	EventReadyForWrite EventKind = 3

	// EventConnected is delivered for an asynchronous connect
	// completing; it is the write-readiness event under another name.
	EventConnected EventKind = EventReadyForWrite

	// EventDataAvailable fires on a connection handle when a read
	// would not block.
	EventDataAvailable EventKind = 4

	// EventTimerFired fires once per EnableTimer call.
	EventTimerFired EventKind = 5

	// EventProcessExited fires when the watched process exits. The
	// event ident is the PID.
	EventProcessExited EventKind = 6

	// EventSignalDelivered fires when the watched signal arrives. The
	// event ident is the signal number.
	EventSignalDelivered EventKind = 7
)

// String returns the kind's name for log output.
func (k EventKind) String() string {
	switch k {
	case EventNewConnectionPending:
		return "new-connection-pending"
	case EventConnectionClosed:
		return "connection-closed"
	case EventReadyForWrite:
		return "ready-for-write"
	case EventDataAvailable:
		return "data-available"
	case EventTimerFired:
		return "timer-fired"
	case EventProcessExited:
		return "process-exited"
	case EventSignalDelivered:
		return "signal-delivered"
	}
	return "unknown"
}
