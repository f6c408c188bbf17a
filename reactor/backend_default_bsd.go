//go:build darwin || freebsd

// File: reactor/backend_default_bsd.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"code.cloudfoundry.org/lager/v3"

	"github.com/momentics/asyncio/api"
)

// newDefaultBackend picks the edge-style kqueue backend where the
// kernel provides one.
func newDefaultBackend(clock api.Clock, logger lager.Logger) (Backend, error) {
	return NewKqueueBackend(logger)
}
