package matcher

import "errors"

// ErrNotReady is matched by every error returned while no condition index is published.
var ErrNotReady = errors.New("condition index not ready")

// ErrEmptyCorpus is returned when building an index from no conditions.
var ErrEmptyCorpus = errors.New("condition corpus is empty")

// NotReadyError reports that matching was attempted before an index was published, or
// after the last reload failed. Cause holds the reload failure, if any.
type NotReadyError struct {
	Cause error
}

func (e *NotReadyError) Error() string {
	if e.Cause != nil {
		return ErrNotReady.Error() + ": " + e.Cause.Error()
	}
	return ErrNotReady.Error()
}

func (e *NotReadyError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrNotReady) hold for any NotReadyError.
func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}
