//go:build unix

package handle

import (
	"os"

	"github.com/iwai/evstream/common"
	E "github.com/iwai/evstream/common/exceptions"

	"golang.org/x/sys/unix"
)

// Pipe returns the read and write ends of an anonymous pipe.
func Pipe() (reader *File, writer *File, err error) {
	readFile, writeFile, err := os.Pipe()
	if err != nil {
		return nil, nil, E.Cause(err, "create pipe")
	}
	reader, err = FromFile(readFile, "r")
	if err != nil {
		common.Close(readFile, writeFile)
		return nil, nil, err
	}
	writer, err = FromFile(writeFile, "w")
	if err != nil {
		common.Close(reader, writeFile)
		return nil, nil, err
	}
	return reader, writer, nil
}

// Socketpair returns two connected unix stream sockets.
func Socketpair() (*File, *File, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, E.Cause(err, "create socketpair")
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	left, err := FromFile(os.NewFile(uintptr(fds[0]), "socketpair:0"), "r+")
	if err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, nil, err
	}
	right, err := FromFile(os.NewFile(uintptr(fds[1]), "socketpair:1"), "r+")
	if err != nil {
		left.Close()
		unix.Close(fds[1])
		return nil, nil, err
	}
	return left, right, nil
}
