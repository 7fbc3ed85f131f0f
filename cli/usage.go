package cli

import (
	"fmt"
)

// UsageError signals that the command was invoked incorrectly, and usage should be shown.
// Any UsageError matches another with [errors.Is].
type UsageError struct {
	wrapped error
}

// NewUsageError creates a [UsageError] wrapping an error created with [fmt.Errorf].
func NewUsageError(format string, args ...any) error {
	return &UsageError{wrapped: fmt.Errorf(format, args...)}
}

func (e *UsageError) Error() string {
	if e.wrapped == nil {
		return "usage error"
	}
	return "usage error: " + e.wrapped.Error()
}

func (e *UsageError) Is(target error) bool {
	_, ok := target.(*UsageError)
	return ok
}

func (e *UsageError) Unwrap() error {
	return e.wrapped
}
