// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool hands out byte slices of one fixed size.
type BytePool struct {
	size int
	p    sync.Pool
}

// NewBytePool creates a pool of buffers that are exactly size bytes
// long.
func NewBytePool(size int) *BytePool {
	bp := &BytePool{size: size}
	bp.p.New = func() any {
		return make([]byte, size)
	}
	return bp
}

// Size returns the length of every buffer the pool hands out.
func (b *BytePool) Size() int {
	return b.size
}

// GetBuffer returns a buffer from the pool.
func (b *BytePool) GetBuffer() []byte {
	return b.p.Get().([]byte)
}

// PutBuffer returns a buffer to the pool. Buffers of the wrong size
// are dropped rather than poisoning the pool.
func (b *BytePool) PutBuffer(buf []byte) {
	if len(buf) != b.size {
		return
	}
	b.p.Put(buf)
}
