//go:build unix && !linux

package handle

import (
	"os"
)

func createMemoryFile() (*os.File, error) {
	file, err := os.CreateTemp("", "evstream-*")
	if err != nil {
		return nil, err
	}
	err = os.Remove(file.Name())
	if err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}
