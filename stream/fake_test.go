package stream

import (
	"bytes"
	"io"
	"maps"
	"os"
	"slices"
	"sync/atomic"

	"github.com/iwai/evstream/common/eventloop"
	E "github.com/iwai/evstream/common/exceptions"
	"github.com/iwai/evstream/common/handle"

	"code.hybscloud.com/iox"
)

var _ eventloop.Loop = (*fakeLoop)(nil)

// fakeLoop records watches and only dispatches when told to.
type fakeLoop struct {
	reads   map[int]eventloop.Listener
	writes  map[int]eventloop.Listener
	ticks   []func()
	addErr  error
	stopped bool
}

func newFakeLoop() *fakeLoop {
	return &fakeLoop{
		reads:  make(map[int]eventloop.Listener),
		writes: make(map[int]eventloop.Listener),
	}
}

func (l *fakeLoop) AddReadStream(fd int, listener eventloop.Listener) error {
	if l.addErr != nil {
		return l.addErr
	}
	if _, loaded := l.reads[fd]; !loaded {
		l.reads[fd] = listener
	}
	return nil
}

func (l *fakeLoop) AddWriteStream(fd int, listener eventloop.Listener) error {
	if l.addErr != nil {
		return l.addErr
	}
	if _, loaded := l.writes[fd]; !loaded {
		l.writes[fd] = listener
	}
	return nil
}

func (l *fakeLoop) RemoveReadStream(fd int) {
	delete(l.reads, fd)
}

func (l *fakeLoop) RemoveWriteStream(fd int) {
	delete(l.writes, fd)
}

func (l *fakeLoop) RemoveStream(fd int) {
	delete(l.reads, fd)
	delete(l.writes, fd)
}

func (l *fakeLoop) FutureTick(fn func()) {
	l.ticks = append(l.ticks, fn)
}

// Run dispatches every watch once per iteration until nothing is left.
func (l *fakeLoop) Run() error {
	for iteration := 0; iteration < 10000; iteration++ {
		if l.stopped {
			return nil
		}
		ticks := l.ticks
		l.ticks = nil
		for _, tick := range ticks {
			tick()
		}
		if len(l.reads) == 0 && len(l.writes) == 0 && len(l.ticks) == 0 {
			return nil
		}
		for _, fd := range slices.Sorted(maps.Keys(l.reads)) {
			l.fireRead(fd)
		}
		for _, fd := range slices.Sorted(maps.Keys(l.writes)) {
			l.fireWrite(fd)
		}
	}
	return E.New("fake loop did not settle")
}

func (l *fakeLoop) Stop() {
	l.stopped = true
}

func (l *fakeLoop) Close() error {
	clear(l.reads)
	clear(l.writes)
	return nil
}

func (l *fakeLoop) fireRead(fd int) bool {
	listener, loaded := l.reads[fd]
	if !loaded {
		return false
	}
	listener(fd)
	return true
}

func (l *fakeLoop) fireWrite(fd int) bool {
	listener, loaded := l.writes[fd]
	if !loaded {
		return false
	}
	listener(fd)
	return true
}

func (l *fakeLoop) watchingRead(fd int) bool {
	_, loaded := l.reads[fd]
	return loaded
}

func (l *fakeLoop) watchingWrite(fd int) bool {
	_, loaded := l.writes[fd]
	return loaded
}

var _ handle.Handle = (*fakeHandle)(nil)

var fakeFD atomic.Int32

type fakeRead struct {
	data []byte
	err  error
}

// fakeHandle serves queued reads and collects writes. Once the queue is
// empty, reads report io.EOF.
type fakeHandle struct {
	fd          int
	mode        string
	uri         string
	seekable    bool
	reads       []fakeRead
	position    int64
	written     bytes.Buffer
	writeLimit  int
	writeErr    error
	blockWrites bool
	size        int64
	statCalls   int
	nonblocking bool
	eof         bool
	closed      bool
	closeCalls  int
}

func newFakeHandle(chunks ...string) *fakeHandle {
	h := &fakeHandle{
		fd:   int(fakeFD.Add(1)) + 100,
		mode: "r+",
	}
	for _, chunk := range chunks {
		h.reads = append(h.reads, fakeRead{data: []byte(chunk)})
	}
	return h
}

func (h *fakeHandle) Fd() int {
	if h.closed {
		return -1
	}
	return h.fd
}

func (h *fakeHandle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, os.ErrClosed
	}
	if len(h.reads) == 0 {
		h.eof = true
		return 0, io.EOF
	}
	next := h.reads[0]
	if next.err != nil {
		h.reads = h.reads[1:]
		return 0, next.err
	}
	n := copy(p, next.data)
	if n < len(next.data) {
		h.reads[0].data = next.data[n:]
	} else {
		h.reads = h.reads[1:]
	}
	h.position += int64(n)
	return n, nil
}

func (h *fakeHandle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, os.ErrClosed
	}
	if h.writeErr != nil {
		return 0, h.writeErr
	}
	if h.blockWrites {
		return 0, iox.ErrWouldBlock
	}
	n := len(p)
	if h.writeLimit > 0 && n > h.writeLimit {
		n = h.writeLimit
	}
	h.written.Write(p[:n])
	return n, nil
}

func (h *fakeHandle) Seek(offset int64, whence int) (int64, error) {
	if !h.seekable {
		return 0, E.New("not seekable")
	}
	switch whence {
	case io.SeekStart:
		h.position = offset
	case io.SeekCurrent:
		h.position += offset
	case io.SeekEnd:
		h.position = h.size + offset
	}
	h.eof = false
	return h.position, nil
}

func (h *fakeHandle) Tell() (int64, error) {
	if h.closed {
		return 0, os.ErrClosed
	}
	return h.position, nil
}

func (h *fakeHandle) Stat() (handle.Stat, error) {
	h.statCalls++
	return handle.Stat{Size: h.size}, nil
}

func (h *fakeHandle) SetNonblock(nonblocking bool) error {
	h.nonblocking = nonblocking
	return nil
}

func (h *fakeHandle) EOF() bool {
	return h.closed || h.eof
}

func (h *fakeHandle) Valid() bool {
	return !h.closed
}

func (h *fakeHandle) Metadata() handle.Metadata {
	return handle.Metadata{
		Blocked:     !h.nonblocking,
		EOF:         h.EOF(),
		WrapperType: "fake",
		StreamType:  "FAKE",
		Mode:        h.mode,
		Seekable:    h.seekable,
		URI:         h.uri,
	}
}

func (h *fakeHandle) Close() error {
	h.closeCalls++
	h.closed = true
	return nil
}

// recorder collects stream events as strings.
type recorder struct {
	events []string
	errors []error
}

func (r *recorder) attach(s *Stream) {
	s.OnData(func(data []byte, _ *Stream) {
		r.events = append(r.events, "data:"+string(data))
	})
	s.OnDrain(func(*Stream) {
		r.events = append(r.events, "drain")
	})
	s.OnError(func(err error, _ *Stream) {
		r.events = append(r.events, "error")
		r.errors = append(r.errors, err)
	})
	s.OnEnd(func(*Stream) {
		r.events = append(r.events, "end")
	})
	s.OnClose(func(*Stream) {
		r.events = append(r.events, "close")
	})
}
