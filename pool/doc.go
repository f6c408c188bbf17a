// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-size byte buffer pooling for asyncio. The redirect pump leases
// its copy buffers here so short-lived pumps do not churn the
// allocator. See bytepool.go for the implementation.
package pool
