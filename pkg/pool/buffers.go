// Package pool reuses render buffers. Every page view and every live diff
// renders the full page into a buffer, so the allocations are worth pooling.
package pool

import (
	"bytes"
	"sync"
)

// MaxPooledBuffer is the largest buffer capacity returned to the pool.
// A rendered homepage is well under this; anything bigger is dropped so
// one oversized render does not pin memory.
const MaxPooledBuffer = 256 * 1024

// BufferPool is a pool of bytes.Buffer for reducing allocations.
var BufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a buffer from the pool, resetting it for use.
func GetBuffer() *bytes.Buffer {
	buf := BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	if buf.Cap() > MaxPooledBuffer {
		return
	}
	BufferPool.Put(buf)
}
