package api

import "fmt"

// Error is the Go error view of an Error envelope, produced by Envelope.Err.
// Title and Detail are human-readable and suitable for direct display.
type Error struct {
	StatusCode int
	Type       string
	Title      string
	Detail     string
	Fields     []FieldError
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Title, e.Detail, e.Type)
	}
	return fmt.Sprintf("%s (%s)", e.Title, e.Type)
}

// IsTimeout reports whether the error represents an aborted request.
func (e *Error) IsTimeout() bool {
	return e != nil && e.Type == TypeTimeout
}

// IsNetwork reports whether the error represents a transport-level failure.
func (e *Error) IsNetwork() bool {
	return e != nil && e.Type == TypeNetwork
}
