// File: pool/bytepool_test.go
// Author: momentics <momentics@gmail.com>

package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytePoolHandsOutFixedSizeBuffers(t *testing.T) {
	bp := NewBytePool(512)
	require.Equal(t, 512, bp.Size())

	buf := bp.GetBuffer()
	require.Len(t, buf, 512)
	bp.PutBuffer(buf)

	again := bp.GetBuffer()
	require.Len(t, again, 512)
}

func TestBytePoolDropsWrongSizeBuffers(t *testing.T) {
	bp := NewBytePool(64)

	bp.PutBuffer(make([]byte, 16))
	bp.PutBuffer(nil)

	require.Len(t, bp.GetBuffer(), 64)
}
