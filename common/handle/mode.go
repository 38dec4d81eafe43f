package handle

import (
	"os"
	"strings"

	E "github.com/iwai/evstream/common/exceptions"
)

var readableModes = map[string]bool{
	"r": true, "w+": true, "r+": true, "x+": true, "c+": true,
	"rb": true, "w+b": true, "r+b": true, "x+b": true,
	"c+b": true, "rt": true, "w+t": true, "r+t": true,
	"x+t": true, "c+t": true, "a+": true,
}

var writableModes = map[string]bool{
	"w": true, "w+": true, "rw": true, "r+": true, "x+": true,
	"c+": true, "wb": true, "w+b": true, "r+b": true,
	"x+b": true, "c+b": true, "w+t": true, "r+t": true,
	"x+t": true, "c+t": true, "a": true, "a+": true,
}

func IsReadableMode(mode string) bool {
	return readableModes[mode]
}

func IsWritableMode(mode string) bool {
	return writableModes[mode]
}

// openFlags translates an fopen-style mode into os.OpenFile flags.
func openFlags(mode string) (int, error) {
	normalized := strings.NewReplacer("b", "", "t", "").Replace(mode)
	switch normalized {
	case "r":
		return os.O_RDONLY, nil
	case "r+":
		return os.O_RDWR, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case "a+":
		return os.O_RDWR | os.O_CREATE | os.O_APPEND, nil
	case "x":
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL, nil
	case "x+":
		return os.O_RDWR | os.O_CREATE | os.O_EXCL, nil
	case "c":
		return os.O_WRONLY | os.O_CREATE, nil
	case "c+":
		return os.O_RDWR | os.O_CREATE, nil
	}
	return 0, E.Extend(ErrInvalidMode, mode)
}

func modeFromFlags(flags int) string {
	switch flags & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_WRONLY:
		if flags&os.O_APPEND != 0 {
			return "a"
		}
		return "w"
	case os.O_RDWR:
		if flags&os.O_APPEND != 0 {
			return "a+"
		}
		return "r+"
	}
	return "r"
}
