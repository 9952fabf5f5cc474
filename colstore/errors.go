package colstore

import "fmt"

/*
StatusError wraps one of the Status codes as a Go error: a typed value with
an Is method so callers can errors.Is against a bare Status-derived sentinel
instead of string-matching.
*/

////////////////////////////////////////////////////////////////////////////////

// StatusError is an error carrying one of the Status codes.
type StatusError struct {
	Status Status
	Reason string
}

func (e StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("colstore: %s", e.Status)
	}
	return fmt.Sprintf("colstore: %s: %s", e.Status, e.Reason)
}

func (e StatusError) Is(target error) bool {
	t, ok := target.(StatusError)
	if !ok {
		return false
	}
	return t.Status == e.Status
}

// newStatusError builds a StatusError for status with a formatted reason.
func newStatusError(status Status, format string, args ...any) StatusError {
	return StatusError{Status: status, Reason: fmt.Sprintf(format, args...)}
}
