// Package api
// Author: momentics <momentics@gmail.com>
//
// Live debug and state inspection support.

package api

// Debug exposes runtime introspection for a reactor instance.
type Debug interface {
	// DumpState emits a snapshot of system state for diagnostics.
	DumpState() map[string]any

	// RegisterProbe dynamically registers new debug probes.
	RegisterProbe(name string, fn func() any)
}
