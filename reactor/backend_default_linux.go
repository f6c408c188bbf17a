//go:build linux

// File: reactor/backend_default_linux.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"code.cloudfoundry.org/lager/v3"

	"github.com/momentics/asyncio/api"
)

// newDefaultBackend falls back to the level-style select backend on
// targets without a kqueue.
func newDefaultBackend(clock api.Clock, logger lager.Logger) (Backend, error) {
	return NewSelectBackend(clock, logger), nil
}
