//go:build unix

package handle

import (
	"io"
	"strconv"
	"sync/atomic"

	E "github.com/iwai/evstream/common/exceptions"
)

var memoryCounter atomic.Uint64

// NewMemory returns a seekable read-write handle holding data, positioned at
// the start. The backing storage never appears in the filesystem.
func NewMemory(data []byte) (*File, error) {
	file, err := createMemoryFile()
	if err != nil {
		return nil, E.Cause(err, "create memory stream")
	}
	handle, err := FromFile(file, "w+b")
	if err != nil {
		file.Close()
		return nil, err
	}
	handle.wrapperType = WrapperMemory
	handle.streamType = StreamTypeMemory
	handle.uri = "memory://" + strconv.FormatUint(memoryCounter.Add(1), 10)
	for written := 0; written < len(data); {
		n, err := handle.Write(data[written:])
		if err != nil {
			handle.Close()
			return nil, err
		}
		written += n
	}
	if len(data) > 0 {
		_, err = handle.Seek(0, io.SeekStart)
		if err != nil {
			handle.Close()
			return nil, err
		}
	}
	return handle, nil
}

func NewMemoryString(data string) (*File, error) {
	return NewMemory([]byte(data))
}
