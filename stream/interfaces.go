package stream

import (
	"io"

	"github.com/iwai/evstream/common/handle"
)

// SyncStream is the pull side: a plain synchronous stream.
type SyncStream interface {
	io.Closer
	Attach(h handle.Handle) error
	Detach() handle.Handle
	Size() (int64, bool)
	Tell() (int64, bool)
	EOF() bool
	IsSeekable() bool
	Seek(offset int64, whence int) bool
	IsReadable() bool
	IsWritable() bool
	Read(length int) ([]byte, bool)
	Write(p []byte) (int, bool)
	Contents() string
	String() string
	Metadata(key string) (any, bool)
	AllMetadata() map[string]any
}

type ReadableStream interface {
	IsReadable() bool
	Pause()
	Resume()
	OnData(listener DataListener)
	OnEnd(listener Listener)
}

// WritableStream accepts writes. Write reports the number of bytes accepted
// and false once the writer wants the caller to wait.
type WritableStream interface {
	IsWritable() bool
	Write(p []byte) (int, bool)
	End(data []byte)
}

// DrainEmitter is implemented by writable streams that announce when a
// backed-up writer can take more data.
type DrainEmitter interface {
	OnDrain(listener Listener)
}

// EventStream is the push side: an event source with backpressure-aware
// writes.
type EventStream interface {
	ReadableStream
	WritableStream
	DrainEmitter
	OnError(listener ErrorListener)
	OnClose(listener Listener)
	Close() error
	Pipe(destination WritableStream, options ...PipeOptions) WritableStream
}
