// Author: momentics <momentics@gmail.com>

// Package api holds the contract types shared by every asyncio
// component: the event-kind enumeration delivered by the dispatch
// loop, the monotonic clock the reactor consumes, common error values,
// and the debug introspection surface.
package api
