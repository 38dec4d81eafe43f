// Package handle wraps OS-level stream resources (files, pipes, sockets and
// in-memory temp streams) behind raw descriptor I/O that can be switched
// between blocking and non-blocking mode.
package handle

import (
	"os"
	"strconv"
	"time"

	E "github.com/iwai/evstream/common/exceptions"
)

var (
	ErrInvalidMode = E.WithSentinel(E.ErrInvalidArgument, E.New("invalid open mode"))
	ErrNilFile     = E.WithSentinel(E.ErrInvalidArgument, E.New("nil file"))
)

// Handle is an exclusively owned stream resource.
//
// Read returns io.EOF once the end of the stream is reached and
// iox.ErrWouldBlock when the descriptor is non-blocking and no data is
// available. Write reports iox.ErrWouldBlock the same way.
type Handle interface {
	Fd() int
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Tell() (int64, error)
	Stat() (Stat, error)
	SetNonblock(nonblocking bool) error
	EOF() bool
	Valid() bool
	Metadata() Metadata
	Close() error
}

// StatCacher is implemented by handles whose Stat answers from a StatCache.
type StatCacher interface {
	StatCache() *StatCache
	SetStatCache(cache *StatCache)
}

type Stat struct {
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
}

// Metadata mirrors the fields a stream reports about itself.
type Metadata struct {
	TimedOut    bool
	Blocked     bool
	EOF         bool
	WrapperType string
	StreamType  string
	Mode        string
	UnreadBytes int
	Seekable    bool
	URI         string
}

const (
	KeyTimedOut    = "timed_out"
	KeyBlocked     = "blocked"
	KeyEOF         = "eof"
	KeyWrapperType = "wrapper_type"
	KeyStreamType  = "stream_type"
	KeyMode        = "mode"
	KeyUnreadBytes = "unread_bytes"
	KeySeekable    = "seekable"
	KeyURI         = "uri"
)

func (m Metadata) Map() map[string]any {
	return map[string]any{
		KeyTimedOut:    m.TimedOut,
		KeyBlocked:     m.Blocked,
		KeyEOF:         m.EOF,
		KeyWrapperType: m.WrapperType,
		KeyStreamType:  m.StreamType,
		KeyMode:        m.Mode,
		KeyUnreadBytes: m.UnreadBytes,
		KeySeekable:    m.Seekable,
		KeyURI:         m.URI,
	}
}

func (m Metadata) Get(key string) (any, bool) {
	switch key {
	case KeyTimedOut:
		return m.TimedOut, true
	case KeyBlocked:
		return m.Blocked, true
	case KeyEOF:
		return m.EOF, true
	case KeyWrapperType:
		return m.WrapperType, true
	case KeyStreamType:
		return m.StreamType, true
	case KeyMode:
		return m.Mode, true
	case KeyUnreadBytes:
		return m.UnreadBytes, true
	case KeySeekable:
		return m.Seekable, true
	case KeyURI:
		if m.URI == "" {
			return nil, false
		}
		return m.URI, true
	}
	return nil, false
}

func (m Metadata) String() string {
	return m.WrapperType + "/" + m.StreamType + " mode=" + m.Mode + " seekable=" + strconv.FormatBool(m.Seekable) + " uri=" + m.URI
}
