// File: control/debug_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebugProbesDumpState(t *testing.T) {
	dp := NewDebugProbes()
	require.Empty(t, dp.DumpState())

	dp.RegisterProbe("depth", func() any { return 3 })
	dp.RegisterProbe("name", func() any { return "reactor" })

	state := dp.DumpState()
	require.Equal(t, 3, state["depth"])
	require.Equal(t, "reactor", state["name"])
}

func TestDebugProbesReplaceAndUnregister(t *testing.T) {
	dp := NewDebugProbes()

	dp.RegisterProbe("depth", func() any { return 1 })
	dp.RegisterProbe("depth", func() any { return 2 })
	require.Equal(t, 2, dp.DumpState()["depth"])

	dp.UnregisterProbe("depth")
	dp.UnregisterProbe("missing")
	require.Empty(t, dp.DumpState())
}
