//go:build unix

package handle

import (
	"io"
	"os"
	"path/filepath"

	E "github.com/iwai/evstream/common/exceptions"

	"code.hybscloud.com/iox"
	"golang.org/x/sys/unix"
)

var (
	_ Handle     = (*File)(nil)
	_ StatCacher = (*File)(nil)
)

const (
	WrapperPlainFile = "plainfile"
	WrapperPipe      = "pipe"
	WrapperSocket    = "socket"
	WrapperDevice    = "device"
	WrapperMemory    = "memory"

	StreamTypeSTDIO  = "STDIO"
	StreamTypeSocket = "SOCKET"
	StreamTypeMemory = "MEMORY"
)

// File performs raw descriptor I/O on an *os.File, bypassing the Go runtime
// poller, so that non-blocking reads and writes return iox.ErrWouldBlock
// instead of parking the calling goroutine.
type File struct {
	file        *os.File
	fd          int
	name        string
	uri         string
	mode        string
	wrapperType string
	streamType  string
	seekable    bool
	position    int64
	blocking    bool
	eof         bool
	closed      bool
	statCache   *StatCache
}

// Open opens path with an fopen-style mode ("r", "r+", "w", "w+", "a", "a+",
// "x", "x+", "c", "c+", optionally suffixed with "b" or "t").
func Open(path string, mode string) (*File, error) {
	flags, err := openFlags(mode)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, flags, 0o666)
	if err != nil {
		return nil, E.Cause(err, "open ", path)
	}
	handle, err := FromFile(file, mode)
	if err != nil {
		file.Close()
		return nil, err
	}
	if absPath, err := filepath.Abs(path); err == nil {
		handle.uri = absPath
	} else {
		handle.uri = path
	}
	return handle, nil
}

// FromFile takes ownership of file. An empty mode is derived from the
// descriptor's access flags.
func FromFile(file *os.File, mode string) (*File, error) {
	if file == nil {
		return nil, ErrNilFile
	}
	// Fd switches the descriptor back to blocking mode.
	fd := int(file.Fd())
	info, err := file.Stat()
	if err != nil {
		return nil, E.Cause(err, "fstat ", file.Name())
	}
	if mode == "" {
		flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
		if err != nil {
			return nil, E.Cause(err, "fcntl ", file.Name())
		}
		mode = modeFromFlags(flags)
	}
	handle := &File{
		file:       file,
		fd:         fd,
		name:       file.Name(),
		mode:       mode,
		blocking:   true,
		streamType: StreamTypeSTDIO,
		statCache:  DefaultStatCache,
	}
	switch fileMode := info.Mode(); {
	case fileMode.IsRegular():
		handle.wrapperType = WrapperPlainFile
		handle.seekable = true
	case fileMode&os.ModeNamedPipe != 0:
		handle.wrapperType = WrapperPipe
	case fileMode&os.ModeSocket != 0:
		handle.wrapperType = WrapperSocket
		handle.streamType = StreamTypeSocket
	default:
		handle.wrapperType = WrapperDevice
	}
	return handle, nil
}

func (f *File) Fd() int {
	if f.closed {
		return -1
	}
	return f.fd
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(f.fd, p)
		if err != nil {
			switch err {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				return 0, iox.ErrWouldBlock
			}
			return 0, E.Cause(err, "read ", f.name)
		}
		if n == 0 {
			f.eof = true
			return 0, io.EOF
		}
		f.position += int64(n)
		return n, nil
	}
}

func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Write(f.fd, p)
		if err != nil {
			switch err {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				return 0, iox.ErrWouldBlock
			}
			return 0, E.Cause(err, "write ", f.name)
		}
		f.position += int64(n)
		return n, nil
	}
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if !f.seekable {
		return 0, E.New("seek ", f.name, ": not seekable")
	}
	position, err := unix.Seek(f.fd, offset, whence)
	if err != nil {
		return 0, E.Cause(err, "seek ", f.name)
	}
	f.eof = false
	f.position = position
	return position, nil
}

// Tell reports the descriptor offset, or for unseekable handles the number of
// bytes transferred so far.
func (f *File) Tell() (int64, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if !f.seekable {
		return f.position, nil
	}
	position, err := unix.Seek(f.fd, 0, io.SeekCurrent)
	if err != nil {
		return 0, E.Cause(err, "tell ", f.name)
	}
	return position, nil
}

// Stat answers from the stat cache when the handle has a uri.
func (f *File) Stat() (Stat, error) {
	if f.closed {
		return Stat{}, os.ErrClosed
	}
	if stat, loaded := f.statCache.Load(f.uri); loaded {
		return stat, nil
	}
	info, err := f.file.Stat()
	if err != nil {
		return Stat{}, E.Cause(err, "fstat ", f.name)
	}
	stat := Stat{
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
	f.statCache.Store(f.uri, stat)
	return stat, nil
}

func (f *File) SetNonblock(nonblocking bool) error {
	if f.closed {
		return os.ErrClosed
	}
	err := unix.SetNonblock(f.fd, nonblocking)
	if err != nil {
		return E.Cause(err, "set nonblock ", f.name)
	}
	f.blocking = !nonblocking
	return nil
}

func (f *File) EOF() bool {
	return f.closed || f.eof
}

func (f *File) Valid() bool {
	return !f.closed
}

func (f *File) Metadata() Metadata {
	return Metadata{
		Blocked:     f.blocking,
		EOF:         f.EOF(),
		WrapperType: f.wrapperType,
		StreamType:  f.streamType,
		Mode:        f.mode,
		Seekable:    f.seekable,
		URI:         f.uri,
	}
}

func (f *File) StatCache() *StatCache {
	return f.statCache
}

// SetStatCache replaces the cache consulted by Stat; nil disables caching.
func (f *File) SetStatCache(cache *StatCache) {
	f.statCache = cache
}

func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}
