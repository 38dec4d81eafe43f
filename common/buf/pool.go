package buf

import "sync"

const (
	// ChunkSize is the default read size of a stream pump.
	ChunkSize = 4096
	// BufferSize is the largest pooled chunk; bigger writes are split.
	BufferSize = 16 * 1024
)

var bufferPool = sync.Pool{
	New: func() any {
		return new(Buffer)
	},
}

func getBuffer() *Buffer {
	return bufferPool.Get().(*Buffer)
}

func putBuffer(buffer *Buffer) {
	bufferPool.Put(buffer)
}

func Get(size int) []byte {
	return DefaultAllocator.Get(size)
}

func Put(buffer []byte) error {
	return DefaultAllocator.Put(buffer)
}
