package exceptions

import (
	"strings"
)

type MultiError interface {
	error
	Unwrap() []error
}

type multiError struct {
	errors []error
}

func (e *multiError) Error() string {
	messages := make([]string, 0, len(e.errors))
	for _, err := range e.errors {
		messages = append(messages, err.Error())
	}
	return "multi error: (" + strings.Join(messages, " | ") + ")"
}

func (e *multiError) Unwrap() []error {
	return e.errors
}

// Errors drops nil entries and returns nil, the single error, or a MultiError.
func Errors(errors ...error) error {
	var errorList []error
	for _, err := range errors {
		if err != nil {
			errorList = append(errorList, err)
		}
	}
	switch len(errorList) {
	case 0:
		return nil
	case 1:
		return errorList[0]
	}
	return &multiError{errorList}
}
