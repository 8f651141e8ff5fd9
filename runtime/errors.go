package runtime

import (
	"errors"
	"fmt"
)

// StreamErrorKind classifies fatal stream failures.
type StreamErrorKind int

const (
	// StreamErrorConnection indicates the request failed, the server answered
	// non-2xx, or the body could not be read.
	StreamErrorConnection StreamErrorKind = iota
	// StreamErrorFraming indicates the frame buffer exceeded its limit.
	StreamErrorFraming
	// StreamErrorCanceled indicates the caller canceled the invocation.
	StreamErrorCanceled
)

// String returns a short label used in logs.
func (k StreamErrorKind) String() string {
	switch k {
	case StreamErrorConnection:
		return "connection"
	case StreamErrorFraming:
		return "framing"
	case StreamErrorCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// StreamError is a fatal failure that aborts an invocation. It is returned
// to the caller and never emitted to the sink.
type StreamError struct {
	Kind StreamErrorKind
	Err  error
}

func (e *StreamError) Error() string {
	switch e.Kind {
	case StreamErrorConnection:
		return fmt.Sprintf("connection failed: %v", e.Err)
	case StreamErrorFraming:
		return fmt.Sprintf("stream framing failed: %v", e.Err)
	case StreamErrorCanceled:
		return fmt.Sprintf("canceled: %v", e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

func isKind(err error, kind StreamErrorKind) bool {
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr.Kind == kind
	}
	return false
}

// IsConnectionError returns true if err is a connection-level stream error.
func IsConnectionError(err error) bool {
	return isKind(err, StreamErrorConnection)
}

// IsFramingError returns true if err is a framing stream error.
func IsFramingError(err error) bool {
	return isKind(err, StreamErrorFraming)
}

// IsCanceledError returns true if err is due to context cancellation.
func IsCanceledError(err error) bool {
	return isKind(err, StreamErrorCanceled)
}
