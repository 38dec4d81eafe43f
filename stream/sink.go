package stream

import (
	"io"

	E "github.com/iwai/evstream/common/exceptions"
)

var _ WritableStream = (*WriterSink)(nil)

// WriterSink is a pipe destination backed by an io.Writer. Writes are
// synchronous, so it never reports backpressure.
type WriterSink struct {
	Writer io.Writer
	// Closer, if set, is closed by End.
	Closer io.Closer

	closed bool
	err    error
}

func NewWriterSink(writer io.Writer, closer io.Closer) *WriterSink {
	return &WriterSink{
		Writer: writer,
		Closer: closer,
	}
}

func (s *WriterSink) IsWritable() bool {
	return !s.closed && s.err == nil
}

func (s *WriterSink) Write(p []byte) (int, bool) {
	if !s.IsWritable() {
		return 0, false
	}
	n, err := s.Writer.Write(p)
	if err != nil {
		s.err = E.Cause(err, "write sink")
		return n, false
	}
	return n, true
}

func (s *WriterSink) End(data []byte) {
	if s.closed {
		return
	}
	if len(data) > 0 {
		s.Write(data)
	}
	s.closed = true
	if s.Closer != nil {
		err := s.Closer.Close()
		if err != nil && s.err == nil {
			s.err = E.Cause(err, "close sink")
		}
	}
}

// Closed reports whether End has been called.
func (s *WriterSink) Closed() bool {
	return s.closed
}

// Err returns the first write or close error.
func (s *WriterSink) Err() error {
	return s.err
}
