package stream

import (
	"fmt"
	"iter"
	"os"

	"github.com/iwai/evstream/common/eventloop"
	E "github.com/iwai/evstream/common/exceptions"
	"github.com/iwai/evstream/common/handle"
)

var ErrInvalidResource = E.WithSentinel(E.ErrInvalidArgument, E.New("invalid resource type"))

// Factory builds a stream from resource:
//
//   - string, []byte and fmt.Stringer become a seekable in-memory stream
//   - handle.Handle and *os.File are wrapped, taking ownership
//   - a SyncStream is returned unchanged
//   - PumpFunc, iter.Seq[[]byte] and iter.Seq[string] become a PumpStream
func Factory(resource any, loop eventloop.Loop, options Options) (SyncStream, error) {
	switch r := resource.(type) {
	case string:
		return newMemoryStream([]byte(r), loop, options)
	case []byte:
		return newMemoryStream(r, loop, options)
	case SyncStream:
		return r, nil
	case handle.Handle:
		return New(r, loop, options)
	case *os.File:
		h, err := handle.FromFile(r, "")
		if err != nil {
			return nil, err
		}
		return New(h, loop, options)
	case fmt.Stringer:
		return newMemoryStream([]byte(r.String()), loop, options)
	case PumpFunc:
		return NewPumpStream(r, options), nil
	case func(length int) ([]byte, bool):
		return NewPumpStream(r, options), nil
	case iter.Seq[[]byte]:
		next, stop := iter.Pull(r)
		s := NewPumpStream(func(int) ([]byte, bool) {
			return next()
		}, options)
		s.stop = stop
		return s, nil
	case func(yield func([]byte) bool):
		return Factory(iter.Seq[[]byte](r), loop, options)
	case func(yield func(string) bool):
		return Factory(iter.Seq[string](r), loop, options)
	case iter.Seq[string]:
		next, stop := iter.Pull(r)
		s := NewPumpStream(func(int) ([]byte, bool) {
			data, ok := next()
			return []byte(data), ok
		}, options)
		s.stop = stop
		return s, nil
	default:
		return nil, E.Extend(ErrInvalidResource, fmt.Sprintf("%T", resource))
	}
}

func newMemoryStream(data []byte, loop eventloop.Loop, options Options) (*Stream, error) {
	h, err := handle.NewMemory(data)
	if err != nil {
		return nil, err
	}
	s, err := New(h, loop, options)
	if err != nil {
		h.Close()
		return nil, err
	}
	return s, nil
}
