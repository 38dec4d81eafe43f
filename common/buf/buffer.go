package buf

import (
	"io"
)

// Buffer is a pooled byte window [start, end) over data.
type Buffer struct {
	data     []byte
	start    int
	end      int
	capacity int
	managed  bool
}

func New() *Buffer {
	return NewSize(ChunkSize)
}

func NewSize(size int) *Buffer {
	buffer := getBuffer()
	if size <= 0 {
		*buffer = Buffer{}
		return buffer
	}
	data := Get(size)
	if data == nil {
		*buffer = Buffer{
			data:     make([]byte, size),
			capacity: size,
		}
		return buffer
	}
	*buffer = Buffer{
		data:     data,
		capacity: size,
		managed:  true,
	}
	return buffer
}

func (b *Buffer) Write(data []byte) (n int, err error) {
	if len(data) == 0 {
		return
	}
	if b.IsFull() {
		return 0, io.ErrShortBuffer
	}
	n = copy(b.data[b.end:b.capacity], data)
	b.end += n
	return
}

func (b *Buffer) ReadOnceFrom(r io.Reader) (int, error) {
	if b.IsFull() {
		return 0, io.ErrShortBuffer
	}
	n, err := r.Read(b.FreeBytes())
	if n > 0 {
		b.end += n
	}
	return n, err
}

func (b *Buffer) Advance(from int) {
	b.start += from
}

func (b *Buffer) Release() {
	if b == nil {
		return
	}
	if b.managed {
		_ = Put(b.data)
	}
	*b = Buffer{}
	putBuffer(b)
}

func (b *Buffer) Len() int {
	return b.end - b.start
}

func (b *Buffer) Cap() int {
	return b.capacity
}

func (b *Buffer) Bytes() []byte {
	return b.data[b.start:b.end]
}

func (b *Buffer) FreeLen() int {
	return b.capacity - b.end
}

func (b *Buffer) FreeBytes() []byte {
	return b.data[b.end:b.capacity]
}

func (b *Buffer) IsEmpty() bool {
	return b.end-b.start == 0
}

func (b *Buffer) IsFull() bool {
	return b.end == b.capacity
}
