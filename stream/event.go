package stream

import (
	"io"
	"runtime"

	"github.com/iwai/evstream/common/buf"
	E "github.com/iwai/evstream/common/exceptions"

	"code.hybscloud.com/iox"
)

const DefaultChunkSize = buf.ChunkSize

// activate moves the stream into non-blocking mode. It happens at most once.
func (s *Stream) activate() {
	if s.mode == ModeNonBlocking {
		return
	}
	s.mode = ModeNonBlocking
	if s.handle != nil && s.handle.Valid() {
		err := s.handle.SetNonblock(true)
		if err != nil {
			s.logger.Debug("switch to non-blocking mode: ", err)
		}
	}
	s.logger.Debug("non-blocking mode fd=", s.fd)
	s.Resume()
}

// Pause stops delivery of data events until Resume.
func (s *Stream) Pause() {
	if s.fd < 0 {
		return
	}
	s.loop.RemoveReadStream(s.fd)
	s.watching = false
}

func (s *Stream) Resume() {
	if !s.readable || !s.pumpable || s.handle == nil {
		return
	}
	err := s.loop.AddReadStream(s.fd, s.handleData)
	if err != nil {
		s.emitError(E.Cause(err, "watch read"))
		return
	}
	s.watching = true
}

func (s *Stream) handleData(int) {
	if !s.readable || s.handle == nil {
		s.Pause()
		return
	}
	buffer := buf.NewSize(s.chunkSize)
	defer buffer.Release()
	_, err := buffer.ReadOnceFrom(s.handle)
	if !buffer.IsEmpty() {
		s.logger.Trace("read ", buffer.Len(), " bytes")
		s.emitData(buffer.Bytes())
	}
	switch {
	case err == nil:
	case iox.IsWouldBlock(err):
		return
	case err == io.EOF:
	default:
		s.emitError(E.Cause(err, "read stream"))
		s.Close()
		return
	}
	if s.handle == nil || !s.handle.Valid() || s.handle.EOF() {
		s.End(nil)
	}
}

// Write queues p on the write buffer. The second result turns false once the
// buffered backlog reaches the soft limit; a drain event follows when it has
// been flushed. The first write switches the stream to non-blocking mode.
func (s *Stream) Write(p []byte) (int, bool) {
	if !s.writable {
		return 0, false
	}
	s.activate()
	return s.buffer.Write(p)
}

// End stops reading, writes data if any and closes the stream once the write
// buffer has been flushed.
func (s *Stream) End(data []byte) {
	if !s.writable {
		return
	}
	s.closing = true
	s.readable = false
	s.writable = false
	if len(data) > 0 {
		s.activate()
	}
	s.buffer.OnClose(func() {
		s.Close()
	})
	s.buffer.End(data)
}

// Close emits end and close, releases the loop watches and closes the
// handle. Later calls do nothing.
func (s *Stream) Close() error {
	if !s.writable && !s.closing {
		return nil
	}
	s.closing = false
	s.readable = false
	s.writable = false
	s.logger.Debug("close ", s.uri)

	s.emitEnd()
	s.emitClose()
	if s.fd >= 0 && s.watching {
		s.loop.RemoveReadStream(s.fd)
		s.watching = false
	}
	s.buffer.RemoveAllListeners()
	s.buffer.Close()
	s.RemoveAllListeners()
	runtime.SetFinalizer(s, nil)
	return s.handleClose()
}

func (s *Stream) handleClose() error {
	if s.handle == nil || !s.handle.Valid() {
		return nil
	}
	err := s.handle.Close()
	if err != nil {
		return E.Cause(err, "close stream")
	}
	return nil
}

func (s *Stream) Pipe(destination WritableStream, options ...PipeOptions) WritableStream {
	return Pipe(s, destination, options...)
}
