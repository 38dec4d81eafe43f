package exceptions

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// IsClosed reports whether err means the peer or the descriptor is gone.
func IsClosed(err error) bool {
	return IsMulti(err, io.EOF, io.ErrClosedPipe, net.ErrClosed, os.ErrClosed, syscall.EPIPE, syscall.ECONNRESET, syscall.EBADF)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
