package stream

import (
	"github.com/iwai/evstream/common/buf"
	"github.com/iwai/evstream/common/eventloop"
	E "github.com/iwai/evstream/common/exceptions"
	"github.com/iwai/evstream/common/handle"

	"code.hybscloud.com/iox"
	"github.com/eapache/queue"
)

const DefaultSoftLimit = 2048

// Buffer is the outbound side of a stream: writes are queued and flushed to
// the handle whenever the loop reports it writable, one write per readiness.
type Buffer struct {
	handle       handle.Handle
	fd           int
	loop         eventloop.Loop
	softLimit    int
	chunks       *queue.Queue
	length       int
	listening    bool
	writable     bool
	closed       bool
	backpressure bool
	closeOnDrain bool

	drainListeners []func()
	errorListeners []func(err error)
	closeListeners []func()
}

func NewBuffer(h handle.Handle, loop eventloop.Loop) *Buffer {
	b := &Buffer{
		fd:        -1,
		loop:      loop,
		softLimit: DefaultSoftLimit,
		chunks:    queue.New(),
		writable:  true,
	}
	b.bind(h)
	return b
}

func (b *Buffer) bind(h handle.Handle) {
	if b.listening && b.fd >= 0 && b.fd != h.Fd() {
		b.loop.RemoveWriteStream(b.fd)
		b.listening = false
	}
	b.handle = h
	b.fd = h.Fd()
	if b.length > 0 && b.writable {
		b.listen()
	}
}

func (b *Buffer) SetSoftLimit(limit int) {
	b.softLimit = limit
}

func (b *Buffer) SoftLimit() int {
	return b.softLimit
}

func (b *Buffer) IsWritable() bool {
	return b.writable
}

// Len returns the number of queued bytes not yet written to the handle.
func (b *Buffer) Len() int {
	return b.length
}

func (b *Buffer) OnDrain(listener func()) {
	b.drainListeners = append(b.drainListeners, listener)
}

func (b *Buffer) OnError(listener func(err error)) {
	b.errorListeners = append(b.errorListeners, listener)
}

func (b *Buffer) OnClose(listener func()) {
	b.closeListeners = append(b.closeListeners, listener)
}

func (b *Buffer) RemoveAllListeners() {
	b.drainListeners = nil
	b.errorListeners = nil
	b.closeListeners = nil
}

// Write copies p into the backlog. It returns false once the backlog has
// reached the soft limit.
func (b *Buffer) Write(p []byte) (int, bool) {
	if !b.writable {
		return 0, false
	}
	var written int
	for len(p) > 0 {
		chunk := buf.NewSize(min(len(p), buf.BufferSize))
		n, _ := chunk.Write(p)
		b.chunks.Add(chunk)
		b.length += n
		written += n
		p = p[n:]
	}
	if b.length > 0 && !b.listening {
		if !b.listen() {
			return written, false
		}
	}
	if b.length >= b.softLimit {
		b.backpressure = true
		return written, false
	}
	return written, true
}

func (b *Buffer) listen() bool {
	err := b.loop.AddWriteStream(b.fd, b.handleWrite)
	if err != nil {
		b.fail(E.Cause(err, "watch write"))
		return false
	}
	b.listening = true
	return true
}

// End writes data if any, then closes once the backlog is flushed.
func (b *Buffer) End(data []byte) {
	if !b.writable {
		return
	}
	if len(data) > 0 {
		b.Write(data)
	}
	b.writable = false
	if b.listening {
		b.closeOnDrain = true
	} else {
		b.Close()
	}
}

func (b *Buffer) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.writable = false
	if b.listening {
		b.loop.RemoveWriteStream(b.fd)
		b.listening = false
	}
	b.discard()
	for i := 0; i < len(b.closeListeners); i++ {
		b.closeListeners[i]()
	}
}

func (b *Buffer) handleWrite(int) {
	if b.chunks.Length() == 0 {
		b.flushed()
		return
	}
	chunk := b.chunks.Peek().(*buf.Buffer)
	n, err := b.handle.Write(chunk.Bytes())
	if err != nil {
		if iox.IsWouldBlock(err) {
			return
		}
		b.fail(E.Cause(err, "write stream"))
		return
	}
	if n == 0 {
		b.fail(E.New("write stream: no progress"))
		return
	}
	chunk.Advance(n)
	b.length -= n
	if chunk.IsEmpty() {
		b.chunks.Remove()
		chunk.Release()
	}
	if b.length == 0 {
		b.flushed()
	}
}

func (b *Buffer) flushed() {
	b.loop.RemoveWriteStream(b.fd)
	b.listening = false
	if b.backpressure {
		b.backpressure = false
		for i := 0; i < len(b.drainListeners); i++ {
			b.drainListeners[i]()
		}
	}
	if b.closeOnDrain && !b.listening {
		b.Close()
	}
}

func (b *Buffer) fail(err error) {
	if b.listening {
		b.loop.RemoveWriteStream(b.fd)
		b.listening = false
	}
	b.writable = false
	b.discard()
	for i := 0; i < len(b.errorListeners); i++ {
		b.errorListeners[i](err)
	}
	b.Close()
}

func (b *Buffer) discard() {
	for b.chunks.Length() > 0 {
		b.chunks.Remove().(*buf.Buffer).Release()
	}
	b.length = 0
	b.backpressure = false
}
