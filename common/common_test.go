package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testCloser struct {
	err    error
	closed bool
}

func (c *testCloser) Close() error {
	c.closed = true
	return c.err
}

func TestClose(t *testing.T) {
	t.Parallel()
	first := new(testCloser)
	second := &testCloser{err: errors.New("busy")}
	err := Close(first, nil, "not a closer", second)
	require.True(t, first.closed)
	require.True(t, second.closed)
	require.EqualError(t, err, "busy")
	require.NoError(t, Close())
}

func TestError(t *testing.T) {
	t.Parallel()
	cause := errors.New("cause")
	require.Equal(t, cause, Error(42, cause))
	require.NoError(t, Error(42, nil))
}

func TestMust(t *testing.T) {
	t.Parallel()
	require.NotPanics(t, func() {
		Must(nil)
	})
}
