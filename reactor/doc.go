// Package reactor
// Author: momentics <momentics@gmail.com>

// Package reactor implements a single-threaded readiness reactor: an
// opaque handle per monitored interest (listener, connection, timer,
// process, signal), a pluggable multiplexing backend (edge-style
// kqueue or level-style select), and a callback dispatch loop with
// one-shot arming semantics. Descriptors are always caller-supplied;
// the reactor never creates endpoints.
package reactor
