package stream

import (
	"strings"
	"syscall"
	"testing"

	"github.com/iwai/evstream/common/buf"

	"github.com/stretchr/testify/require"
)

type bufferEvents struct {
	drains int
	closes int
	errors []error
}

func newTestBuffer(h *fakeHandle) (*Buffer, *fakeLoop, *bufferEvents) {
	loop := newFakeLoop()
	buffer := NewBuffer(h, loop)
	events := new(bufferEvents)
	buffer.OnDrain(func() {
		events.drains++
	})
	buffer.OnClose(func() {
		events.closes++
	})
	buffer.OnError(func(err error) {
		events.errors = append(events.errors, err)
	})
	return buffer, loop, events
}

func TestBuffer_SoftLimit(t *testing.T) {
	t.Parallel()
	h := newFakeHandle()
	buffer, loop, events := newTestBuffer(h)
	buffer.SetSoftLimit(8)

	n, ok := buffer.Write([]byte("1234567"))
	require.Equal(t, 7, n)
	require.True(t, ok)
	_, ok = buffer.Write([]byte("8"))
	require.False(t, ok)
	require.Equal(t, 8, buffer.Len())
	require.True(t, loop.watchingWrite(h.fd))

	loop.fireWrite(h.fd)
	require.Equal(t, "1234567", h.written.String())
	require.Zero(t, events.drains)
	loop.fireWrite(h.fd)
	require.Equal(t, "12345678", h.written.String())
	require.Equal(t, 1, events.drains)
	require.False(t, loop.watchingWrite(h.fd))
	require.Zero(t, events.closes)
	require.True(t, buffer.IsWritable())
}

func TestBuffer_LargeWriteIsChunked(t *testing.T) {
	t.Parallel()
	h := newFakeHandle()
	buffer, loop, _ := newTestBuffer(h)
	payload := strings.Repeat("x", buf.BufferSize*2+1)

	_, ok := buffer.Write([]byte(payload))
	require.False(t, ok)
	require.Equal(t, len(payload), buffer.Len())

	for range 3 {
		require.True(t, loop.fireWrite(h.fd))
	}
	require.Equal(t, payload, h.written.String())
	require.Zero(t, buffer.Len())
	require.False(t, loop.watchingWrite(h.fd))
}

func TestBuffer_EndWithoutBacklog(t *testing.T) {
	t.Parallel()
	h := newFakeHandle()
	buffer, loop, events := newTestBuffer(h)
	buffer.End(nil)
	require.Equal(t, 1, events.closes)
	require.False(t, buffer.IsWritable())
	require.Empty(t, loop.writes)

	n, ok := buffer.Write([]byte("x"))
	require.Zero(t, n)
	require.False(t, ok)
	buffer.Close()
	require.Equal(t, 1, events.closes)
}

func TestBuffer_EndAfterFlush(t *testing.T) {
	t.Parallel()
	h := newFakeHandle()
	buffer, loop, events := newTestBuffer(h)
	buffer.End([]byte("bye"))
	require.Zero(t, events.closes)
	require.False(t, buffer.IsWritable())

	loop.fireWrite(h.fd)
	require.Equal(t, "bye", h.written.String())
	require.Equal(t, 1, events.closes)
	require.Empty(t, loop.writes)
}

func TestBuffer_Error(t *testing.T) {
	t.Parallel()
	h := newFakeHandle()
	h.writeErr = syscall.ECONNRESET
	buffer, loop, events := newTestBuffer(h)
	buffer.Write([]byte("data"))
	loop.fireWrite(h.fd)

	require.Len(t, events.errors, 1)
	require.ErrorIs(t, events.errors[0], syscall.ECONNRESET)
	require.Equal(t, 1, events.closes)
	require.Zero(t, buffer.Len())
	require.Empty(t, loop.writes)
	require.False(t, buffer.IsWritable())
}

func TestBuffer_NoProgress(t *testing.T) {
	t.Parallel()
	h := newFakeHandle()
	buffer, loop, events := newTestBuffer(h)
	buffer.Write([]byte("data"))
	buffer.bind(&zeroWriter{fakeHandle: h})
	loop.fireWrite(h.fd)
	require.Len(t, events.errors, 1)
	require.Equal(t, 1, events.closes)
}

type zeroWriter struct {
	*fakeHandle
}

func (w *zeroWriter) Write([]byte) (int, error) {
	return 0, nil
}

func TestBuffer_RemoveAllListeners(t *testing.T) {
	t.Parallel()
	h := newFakeHandle()
	buffer, _, events := newTestBuffer(h)
	buffer.RemoveAllListeners()
	buffer.Close()
	require.Zero(t, events.closes)
}
