package transport

import (
	"sync"

	"github.com/ashgrove-labs/dnscamo/internal/protocol"
)

// bufferPool recycles receive buffers sized to the single-datagram
// limit (spec.md §5 Buffer limits), avoiding a fresh allocation on
// every Receive call.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, protocol.MaxDatagramSize)
		return &buf
	},
}

// GetBuffer returns a pointer to a MaxDatagramSize-byte buffer from
// the pool. Callers must return it with PutBuffer (typically via
// defer immediately after GetBuffer).
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer zeroes and returns a buffer to the pool. The caller must
// not use the buffer after this call.
func PutBuffer(bufPtr *[]byte) {
	buf := *bufPtr
	for i := range buf {
		buf[i] = 0
	}
	bufferPool.Put(bufPtr)
}
