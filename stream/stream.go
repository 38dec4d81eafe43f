// Package stream adapts an OS-level stream handle into a stream that can be
// used synchronously (Read, Seek, Contents) and, once a listener is attached or
// the first Write happens, as a non-blocking event source driven by an
// eventloop.Loop.
//
// A Stream is not safe for concurrent use. After the switch to non-blocking
// mode it must only be used from the goroutine running its loop.
package stream

import (
	"maps"
	"runtime"
	"weak"

	"github.com/iwai/evstream/common/eventloop"
	E "github.com/iwai/evstream/common/exceptions"
	"github.com/iwai/evstream/common/handle"
	"github.com/iwai/evstream/common/log"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidHandle = E.WithSentinel(E.ErrInvalidArgument, E.New("first parameter must be a valid stream handle"))
	ErrNilLoop       = E.WithSentinel(E.ErrInvalidArgument, E.New("event loop is required"))
)

var (
	_ SyncStream  = (*Stream)(nil)
	_ EventStream = (*Stream)(nil)
)

type Mode uint8

const (
	ModeBlocking Mode = iota
	ModeNonBlocking
)

func (m Mode) String() string {
	switch m {
	case ModeBlocking:
		return "blocking"
	case ModeNonBlocking:
		return "non-blocking"
	default:
		return "unknown"
	}
}

// Options configures a Stream. The JSON form is accepted by the evcat
// configuration file.
type Options struct {
	// Size is the known length of a stream whose size cannot be determined
	// otherwise.
	Size *int64 `json:"size,omitempty"`
	// Metadata is returned alongside, and takes precedence over, the handle's
	// own metadata.
	Metadata  map[string]any         `json:"metadata,omitempty"`
	ChunkSize int                    `json:"chunk_size,omitempty"`
	SoftLimit int                    `json:"soft_limit,omitempty"`
	StatCache *handle.StatCache      `json:"-"`
	Logger    logrus.Ext1FieldLogger `json:"-"`
}

type Stream struct {
	loop      eventloop.Loop
	handle    handle.Handle
	fd        int
	buffer    *Buffer
	mode      Mode
	readable  bool
	writable  bool
	closing   bool
	seekable  bool
	pumpable  bool
	watching  bool
	size      int64
	sizeKnown bool
	uri       string
	metadata  map[string]any
	chunkSize int
	statCache *handle.StatCache
	listeners listeners
	logger    logrus.Ext1FieldLogger
}

// New takes ownership of h. The stream starts in blocking mode.
func New(h handle.Handle, loop eventloop.Loop, options Options) (*Stream, error) {
	if h == nil || !h.Valid() {
		return nil, ErrInvalidHandle
	}
	if loop == nil {
		return nil, ErrNilLoop
	}
	s := &Stream{
		loop:      loop,
		fd:        -1,
		mode:      ModeBlocking,
		readable:  true,
		writable:  true,
		metadata:  make(map[string]any),
		chunkSize: options.ChunkSize,
		statCache: options.StatCache,
		logger:    options.Logger,
	}
	if options.Size != nil {
		s.size = *options.Size
		s.sizeKnown = true
	}
	maps.Copy(s.metadata, options.Metadata)
	if s.chunkSize <= 0 {
		s.chunkSize = DefaultChunkSize
	}
	if s.logger == nil {
		s.logger = log.NewLogger("stream")
	}
	s.buffer = NewBuffer(h, loop)
	if options.SoftLimit > 0 {
		s.buffer.SetSoftLimit(options.SoftLimit)
	}
	// The buffer must not keep s alive, or the finalizer never runs.
	ref := weak.Make(s)
	s.buffer.OnError(func(err error) {
		if s := ref.Value(); s != nil {
			s.emitError(err)
			s.Close()
		}
	})
	s.buffer.OnDrain(func() {
		if s := ref.Value(); s != nil {
			s.emitDrain()
		}
	})
	s.bind(h)
	if s.statCache == nil {
		s.statCache = handle.DefaultStatCache
	}
	runtime.SetFinalizer(s, (*Stream).finalize)
	return s, nil
}

// finalize stands in for a destructor. A blocking stream has no loop watches
// and is closed right away; a non-blocking one is closed on its loop goroutine.
func (s *Stream) finalize() {
	if s.mode == ModeBlocking {
		s.Close()
		return
	}
	s.loop.FutureTick(func() {
		s.Close()
	})
}

func (s *Stream) Loop() eventloop.Loop {
	return s.loop
}

// Buffer returns the write buffer owned by s.
func (s *Stream) Buffer() *Buffer {
	return s.buffer
}

func (s *Stream) Mode() Mode {
	return s.mode
}

func (s *Stream) IsReadable() bool {
	return s.readable
}

func (s *Stream) IsWritable() bool {
	return s.writable
}

func (s *Stream) IsSeekable() bool {
	return s.seekable
}

// IsClosing reports whether End was called and the write buffer is still
// flushing.
func (s *Stream) IsClosing() bool {
	return s.closing
}
