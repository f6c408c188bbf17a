// Package control
// Author: momentics <momentics@gmail.com>
//
// Debug introspection layer for asyncio. Provides the probe registry
// backing the reactor's state dumps: components register named hook
// functions and DumpState collects their output on demand.
package control
