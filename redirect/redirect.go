// File: redirect/redirect.go
// Author: momentics <momentics@gmail.com>
//
// Two-handle byte pump: read from the input descriptor into a bounded
// buffer, write the buffered bytes to the output descriptor, suspend
// on would-block in either direction and resume from the matching
// readiness event. Partial writes compact the remainder to the front
// of the buffer and retry without leaving the sending state.

package redirect

import (
	"code.cloudfoundry.org/lager/v3"
	"golang.org/x/sys/unix"

	"github.com/momentics/asyncio/api"
	"github.com/momentics/asyncio/pool"
	"github.com/momentics/asyncio/reactor"
)

// Notification identifies what the pump is telling its owner. The
// numbering is stable.
type Notification int

const (
	// NotifyInputClosed: the input peer closed its write side; pumping
	// has stopped. Only backends that detect peer closure produce it;
	// elsewhere closure appears as a silent zero-length read.
	NotifyInputClosed Notification = 1

	// NotifyInputError: a read failure other than would-block; pumping
	// has stopped. Neither descriptor is closed on the owner's behalf.
	NotifyInputError Notification = 2

	// NotifyOutputError: a write failure other than would-block;
	// pumping has stopped.
	NotifyOutputError Notification = 3

	// NotifyDataReady: input became readable and the pump is about to
	// copy.
	NotifyDataReady Notification = 4

	// NotifyDataWritten: one buffered chunk was fully drained to the
	// output.
	NotifyDataWritten Notification = 5
)

// String returns the notification's name for log output.
func (n Notification) String() string {
	switch n {
	case NotifyInputClosed:
		return "input-closed"
	case NotifyInputError:
		return "input-error"
	case NotifyOutputError:
		return "output-error"
	case NotifyDataReady:
		return "data-ready"
	case NotifyDataWritten:
		return "data-written"
	}
	return "unknown"
}

// NotifyFunc receives pump notifications on the reactor goroutine.
type NotifyFunc func(n Notification, p *Pump, ctx any)

// BufferSize is the pump's copy-buffer capacity; no read ever fetches
// more than this many bytes.
const BufferSize = 512

var bufPool = pool.NewBytePool(BufferSize)

type pumpState int

const (
	stateWaitingForData pumpState = iota + 1
	stateSending
)

// pumpIO is the pump's seam to the kernel; tests script it.
type pumpIO interface {
	Read(fd int, p []byte) (int, error)
	Write(fd int, p []byte) (int, error)
}

type sysIO struct{}

func (sysIO) Read(fd int, p []byte) (int, error)  { return unix.Read(fd, p) }
func (sysIO) Write(fd int, p []byte) (int, error) { return unix.Write(fd, p) }

// Pump copies bytes from an input descriptor to an output descriptor
// under flow control. It is in exactly one state at a time and never
// waits on read and write readiness simultaneously.
type Pump struct {
	logger lager.Logger

	state  pumpState
	halted bool

	fdIn  int
	in    *reactor.Handle
	fdOut int
	out   *reactor.Handle

	buf    []byte
	filled int

	io     pumpIO
	notify NotifyFunc
	ctx    any

	r *reactor.Reactor
}

// New wires a pump between fdIn and fdOut on the given reactor. Both
// descriptors are forced non-blocking; read interest on the input is
// armed immediately. The pump owns the two handles it creates; the
// caller still owns the raw descriptors until Release is told to close
// them.
func New(r *reactor.Reactor, fdIn, fdOut int, notify NotifyFunc, ctx any) (*Pump, error) {
	if notify == nil {
		return nil, api.ErrInvalidArgument
	}
	p := &Pump{
		logger: r.Logger().Session("redirect", lager.Data{"fd-in": fdIn, "fd-out": fdOut}),
		state:  stateWaitingForData,
		fdIn:   fdIn,
		fdOut:  fdOut,
		buf:    bufPool.GetBuffer(),
		io:     sysIO{},
		notify: notify,
		ctx:    ctx,
		r:      r,
	}

	in, err := r.NewConnection(fdIn, p.onEvent, nil)
	if err != nil {
		p.giveBack()
		return nil, err
	}
	p.in = in

	if err := in.NotifyOnReadability(); err != nil {
		_ = r.Release(in, false)
		p.giveBack()
		return nil, err
	}

	out, err := r.NewConnection(fdOut, p.onEvent, nil)
	if err != nil {
		_ = r.Release(in, false)
		p.giveBack()
		return nil, err
	}
	p.out = out

	return p, nil
}

// Release tears down both handles, each optionally closing its
// descriptor, and retires the pump.
func (p *Pump) Release(closeIn, closeOut bool) {
	p.halted = true
	if p.in != nil {
		_ = p.r.Release(p.in, closeIn)
		p.in = nil
	}
	if p.out != nil {
		_ = p.r.Release(p.out, closeOut)
		p.out = nil
	}
	p.giveBack()
}

func (p *Pump) giveBack() {
	if p.buf != nil {
		bufPool.PutBuffer(p.buf)
		p.buf = nil
	}
}

func (p *Pump) emit(n Notification) {
	p.notify(n, p, p.ctx)
}

// onEvent is the internal callback installed on both handles; owners
// never see raw reactor events.
func (p *Pump) onEvent(e reactor.Event) {
	switch e.Kind {
	case api.EventDataAvailable:
		p.emit(NotifyDataReady)
		p.pump()
	case api.EventReadyForWrite:
		p.pump()
	case api.EventConnectionClosed:
		p.emit(NotifyInputClosed)
	}
}

// pump advances the state machine until it has to suspend on
// would-block or stops for good.
func (p *Pump) pump() {
	for !p.halted {
		switch p.state {
		case stateWaitingForData:
			n, err := p.io.Read(p.fdIn, p.buf)
			if isWouldBlock(err) {
				if armErr := p.in.NotifyOnReadability(); armErr != nil {
					p.fail(NotifyInputError, "arm-read-failed", armErr)
				}
				return
			}
			if err != nil {
				p.fail(NotifyInputError, "input-read-failed", err)
				return
			}
			if n == 0 {
				// Orderly closure; the owner hears about it through
				// the input-closed event where the backend detects it.
				p.logger.Debug("input-eof")
				p.halted = true
				return
			}
			p.filled = n
			p.state = stateSending

		case stateSending:
			n, err := p.io.Write(p.fdOut, p.buf[:p.filled])
			if isWouldBlock(err) {
				if armErr := p.out.NotifyOnWritability(); armErr != nil {
					p.fail(NotifyOutputError, "arm-write-failed", armErr)
				}
				return
			}
			if err != nil {
				p.fail(NotifyOutputError, "output-write-failed", err)
				return
			}
			if n < p.filled {
				// Compact the unsent remainder and keep sending.
				copy(p.buf, p.buf[n:p.filled])
				p.filled -= n
				continue
			}
			p.filled = 0
			p.emit(NotifyDataWritten)
			p.state = stateWaitingForData
		}
	}
}

func (p *Pump) fail(n Notification, action string, err error) {
	p.logger.Error(action, err)
	p.halted = true
	p.emit(n)
}

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
