package watchdog

import (
	"errors"
	"fmt"
)

// WatchdogError represents an expected, recoverable watchdog condition:
// device unavailable, invalid timeout argument, device not open, or a
// negotiated timeout that cannot guarantee safe termination. It always
// carries a human-readable reason.
//
// Anything else coming out of the device layer is a low-level I/O failure
// and is passed through unwrapped, so genuinely unanticipated failures stay
// visible instead of being masked as routine device conditions.
type WatchdogError struct {
	Reason string // Human-readable description of the condition
	Err    error  // Underlying error (if any)
}

// Error implements the error interface
func (e *WatchdogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

// Unwrap returns the underlying error for error chain inspection
func (e *WatchdogError) Unwrap() error {
	return e.Err
}

// newError creates a WatchdogError with a formatted reason.
func newError(format string, args ...any) *WatchdogError {
	return &WatchdogError{Reason: fmt.Sprintf(format, args...)}
}

// wrapError creates a WatchdogError around an underlying error.
func wrapError(err error, format string, args ...any) *WatchdogError {
	return &WatchdogError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// IsWatchdogError reports whether err is (or wraps) a WatchdogError.
func IsWatchdogError(err error) bool {
	var we *WatchdogError
	return errors.As(err, &we)
}
