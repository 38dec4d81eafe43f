package handle

import (
	"os"

	"golang.org/x/sys/unix"
)

func createMemoryFile() (*os.File, error) {
	fd, err := unix.MemfdCreate("evstream", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), "memfd:evstream"), nil
}
