package stream

import (
	"io"
	"maps"
	"runtime"

	E "github.com/iwai/evstream/common/exceptions"
	"github.com/iwai/evstream/common/handle"
)

// bind points the stream at h and refreshes everything derived from it.
func (s *Stream) bind(h handle.Handle) {
	s.handle = h
	s.fd = h.Fd()
	metadata := h.Metadata()
	s.seekable = metadata.Seekable
	s.pumpable = metadata.Mode == "" || handle.IsReadableMode(metadata.Mode)
	s.uri = ""
	if uri, loaded := s.Metadata(handle.KeyURI); loaded {
		s.uri, _ = uri.(string)
	}
	if cacher, isCacher := h.(handle.StatCacher); isCacher {
		if s.statCache != nil {
			cacher.SetStatCache(s.statCache)
		} else {
			s.statCache = cacher.StatCache()
		}
	}
	s.buffer.bind(h)
}

// Attach rebinds the stream to h. A cached size is kept; callers attaching a
// different resource should reset it with UnsetSize or SetSize.
func (s *Stream) Attach(h handle.Handle) error {
	if h == nil || !h.Valid() {
		return ErrInvalidHandle
	}
	if s.fd >= 0 && s.fd != h.Fd() {
		s.loop.RemoveStream(s.fd)
		s.watching = false
	}
	s.bind(h)
	if s.mode == ModeNonBlocking {
		err := h.SetNonblock(true)
		if err != nil {
			s.logger.Debug("switch to non-blocking mode: ", err)
		}
		s.Resume()
	}
	return nil
}

// Detach hands the handle back to the caller and leaves the stream unusable.
func (s *Stream) Detach() handle.Handle {
	result := s.handle
	if s.fd >= 0 {
		s.loop.RemoveStream(s.fd)
	}
	s.watching = false
	s.buffer.RemoveAllListeners()
	s.buffer.Close()
	s.handle = nil
	s.fd = -1
	s.size = 0
	s.sizeKnown = false
	s.uri = ""
	s.readable = false
	s.writable = false
	s.seekable = false
	runtime.SetFinalizer(s, nil)
	return result
}

func (s *Stream) Seek(offset int64, whence int) bool {
	if !s.seekable || s.handle == nil {
		return false
	}
	_, err := s.handle.Seek(offset, whence)
	return err == nil
}

func (s *Stream) Rewind() bool {
	return s.Seek(0, io.SeekStart)
}

func (s *Stream) Tell() (int64, bool) {
	if s.handle == nil || !s.handle.Valid() {
		return 0, false
	}
	position, err := s.handle.Tell()
	if err != nil {
		return 0, false
	}
	return position, true
}

func (s *Stream) EOF() bool {
	return s.handle == nil || s.handle.EOF()
}

// Read performs one synchronous read of at most length bytes. It fails once
// the stream is in non-blocking mode, where data arrives as events instead.
func (s *Stream) Read(length int) ([]byte, bool) {
	if !s.readable || s.mode != ModeBlocking || s.handle == nil || length < 0 {
		return nil, false
	}
	data := make([]byte, length)
	n, err := s.handle.Read(data)
	if err != nil && err != io.EOF {
		s.logger.Debug("read: ", err)
		return nil, false
	}
	return data[:n], true
}

// Contents reads the remainder of the stream.
func (s *Stream) Contents() string {
	if s.handle == nil || !s.handle.Valid() || s.mode != ModeBlocking {
		return ""
	}
	content, err := io.ReadAll(s.handle)
	if err != nil && !E.IsClosed(err) {
		s.logger.Debug("read contents: ", err)
	}
	return string(content)
}

// String rewinds the stream and returns everything in it.
func (s *Stream) String() string {
	if s.handle == nil || !s.handle.Valid() || s.mode != ModeBlocking {
		return ""
	}
	s.Seek(0, io.SeekStart)
	return s.Contents()
}

// Size reports the stream length, asking the handle for a fresh stat the
// first time. Non-blocking streams never query the handle.
func (s *Stream) Size() (int64, bool) {
	if s.sizeKnown {
		return s.size, true
	}
	if s.handle == nil || !s.handle.Valid() || s.mode != ModeBlocking {
		return 0, false
	}
	s.statCache.Invalidate(s.uri)
	stat, err := s.handle.Stat()
	if err != nil {
		s.logger.Debug("stat: ", err)
		return 0, false
	}
	s.size = stat.Size
	s.sizeKnown = true
	return s.size, true
}

func (s *Stream) SetSize(size int64) {
	s.size = size
	s.sizeKnown = true
}

func (s *Stream) UnsetSize() {
	s.size = 0
	s.sizeKnown = false
}

// Metadata looks key up in the custom metadata first, then in the handle's.
func (s *Stream) Metadata(key string) (any, bool) {
	if s.handle == nil {
		return nil, false
	}
	if value, loaded := s.metadata[key]; loaded {
		return value, true
	}
	return s.handle.Metadata().Get(key)
}

func (s *Stream) AllMetadata() map[string]any {
	if s.handle == nil {
		return map[string]any{}
	}
	metadata := s.handle.Metadata().Map()
	maps.Copy(metadata, s.metadata)
	return metadata
}
