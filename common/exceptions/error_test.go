package exceptions

import (
	"errors"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCause(t *testing.T) {
	t.Parallel()
	require.Nil(t, Cause(nil, "read"))

	err := Cause(io.ErrUnexpectedEOF, "read ", "file")
	require.EqualError(t, err, "read file: unexpected EOF")
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	exception, isException := Cast[Exception](err)
	require.True(t, isException)
	require.Equal(t, io.ErrUnexpectedEOF, exception.Cause())
}

func TestExtend(t *testing.T) {
	t.Parallel()
	require.Nil(t, Extend(nil, "mode"))

	err := Extend(ErrInvalidArgument, "rw+q")
	require.EqualError(t, err, "invalid argument: rw+q")
	require.True(t, IsInvalidArgument(err))
}

func TestWithSentinel(t *testing.T) {
	t.Parallel()
	cause := New("bad handle")
	require.Equal(t, ErrInvalidArgument, WithSentinel(ErrInvalidArgument, nil))

	err := WithSentinel(ErrInvalidArgument, cause)
	require.EqualError(t, err, "invalid argument: bad handle")
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, err, cause)
}

func TestErrors(t *testing.T) {
	t.Parallel()
	require.NoError(t, Errors(nil, nil))

	first := New("first")
	require.Equal(t, first, Errors(nil, first))

	second := New("second")
	err := Errors(first, nil, second)
	multi, isMulti := Cast[MultiError](err)
	require.True(t, isMulti)
	require.Len(t, multi.Unwrap(), 2)
	require.ErrorIs(t, err, second)
}

func TestIsClosed(t *testing.T) {
	t.Parallel()
	for _, err := range []error{
		io.EOF,
		os.ErrClosed,
		Cause(syscall.EPIPE, "write"),
		Cause(syscall.EBADF, "read"),
	} {
		assert.True(t, IsClosed(err), err)
	}
	assert.False(t, IsClosed(errors.New("other")))
	assert.False(t, IsClosed(nil))
}
