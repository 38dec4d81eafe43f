package stream

import (
	"maps"

	E "github.com/iwai/evstream/common/exceptions"
	"github.com/iwai/evstream/common/handle"
)

var ErrCannotAttach = E.New("pump stream cannot be attached to a handle")

var _ SyncStream = (*PumpStream)(nil)

// PumpFunc produces up to length bytes per call and returns false once it is
// exhausted.
type PumpFunc func(length int) ([]byte, bool)

// PumpStream is a read-only, unseekable stream pulling from a PumpFunc.
type PumpStream struct {
	source    PumpFunc
	stop      func()
	buffer    []byte
	position  int64
	size      int64
	sizeKnown bool
	metadata  map[string]any
}

func NewPumpStream(source PumpFunc, options Options) *PumpStream {
	s := &PumpStream{
		source:   source,
		metadata: make(map[string]any),
	}
	if options.Size != nil {
		s.size = *options.Size
		s.sizeKnown = true
	}
	maps.Copy(s.metadata, options.Metadata)
	return s
}

func (s *PumpStream) pump(length int) {
	for s.source != nil && length > 0 {
		data, ok := s.source(length)
		if !ok {
			s.release()
			return
		}
		s.buffer = append(s.buffer, data...)
		length -= len(data)
	}
}

func (s *PumpStream) release() {
	s.source = nil
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *PumpStream) Read(length int) ([]byte, bool) {
	if length < 0 {
		return nil, false
	}
	if len(s.buffer) < length {
		s.pump(length - len(s.buffer))
	}
	n := min(length, len(s.buffer))
	data := make([]byte, n)
	copy(data, s.buffer)
	s.buffer = s.buffer[n:]
	s.position += int64(n)
	return data, true
}

func (s *PumpStream) Contents() string {
	var content []byte
	for !s.EOF() {
		data, _ := s.Read(1 << 20)
		content = append(content, data...)
	}
	return string(content)
}

func (s *PumpStream) String() string {
	return s.Contents()
}

func (s *PumpStream) Close() error {
	s.Detach()
	return nil
}

func (s *PumpStream) Detach() handle.Handle {
	s.release()
	s.buffer = nil
	s.position = 0
	return nil
}

func (s *PumpStream) Attach(handle.Handle) error {
	return ErrCannotAttach
}

func (s *PumpStream) Size() (int64, bool) {
	return s.size, s.sizeKnown
}

func (s *PumpStream) Tell() (int64, bool) {
	return s.position, true
}

func (s *PumpStream) EOF() bool {
	return s.source == nil && len(s.buffer) == 0
}

func (s *PumpStream) IsSeekable() bool {
	return false
}

func (s *PumpStream) Seek(int64, int) bool {
	return false
}

func (s *PumpStream) IsReadable() bool {
	return true
}

func (s *PumpStream) IsWritable() bool {
	return false
}

func (s *PumpStream) Write([]byte) (int, bool) {
	return 0, false
}

func (s *PumpStream) Metadata(key string) (any, bool) {
	value, loaded := s.metadata[key]
	return value, loaded
}

func (s *PumpStream) AllMetadata() map[string]any {
	return maps.Clone(s.metadata)
}
