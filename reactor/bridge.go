// File: reactor/bridge.go
// Author: momentics <momentics@gmail.com>
//
// Run-loop bridge: adapts the edge-style backend's wait descriptor
// into a readiness source for a host cooperative loop. The host
// watches the descriptor, calls ServiceReadiness when it fires, and
// the bridge performs exactly one single-pass dispatch before asking
// the host to re-arm its notification.

package reactor

import "github.com/momentics/asyncio/api"

// LoopBridge embeds a reactor into a host run loop.
type LoopBridge struct {
	r     *Reactor
	fd    int
	prime func()
}

// NewLoopBridge wraps the reactor's backend wait descriptor. prime, if
// non-nil, is invoked after every serviced pass so the host can
// re-enable its readiness callback. Backends without a wait descriptor
// (the level-style select backend) yield ErrNotSupported.
func NewLoopBridge(r *Reactor, prime func()) (*LoopBridge, error) {
	fd := r.backend.WaitDescriptor()
	if fd < 0 {
		return nil, api.ErrNotSupported
	}
	return &LoopBridge{r: r, fd: fd, prime: prime}, nil
}

// WaitDescriptor is the descriptor the host loop should watch for read
// readiness.
func (b *LoopBridge) WaitDescriptor() int { return b.fd }

// ServiceReadiness runs one zero-timeout dispatch pass and re-arms the
// host notification. Call it whenever the host loop reports the wait
// descriptor readable.
func (b *LoopBridge) ServiceReadiness() error {
	err := b.r.RunOnce(0)
	if b.prime != nil {
		b.prime()
	}
	return err
}
