package common

import (
	"io"

	E "github.com/iwai/evstream/common/exceptions"

	"github.com/sirupsen/logrus"
)

func Error(_ any, err error) error {
	return err
}

func Must(err error) {
	if err != nil {
		logrus.Fatal(err)
	}
}

// Close closes every io.Closer in closers, skipping nil entries, and returns
// the collected errors.
func Close(closers ...any) error {
	var errorList []error
	for _, closer := range closers {
		if closer == nil {
			continue
		}
		if c, isCloser := closer.(io.Closer); isCloser {
			errorList = append(errorList, c.Close())
		}
	}
	return E.Errors(errorList...)
}
