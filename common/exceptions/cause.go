package exceptions

// causeError pairs a sentinel with the underlying failure so that errors.Is
// matches both.
type causeError struct {
	error
	cause error
}

func (e *causeError) Error() string {
	return e.error.Error() + ": " + e.cause.Error()
}

func (e *causeError) Unwrap() []error {
	return []error{e.error, e.cause}
}

func WithSentinel(sentinel error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &causeError{sentinel, cause}
}
