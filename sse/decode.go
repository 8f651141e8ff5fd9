package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pithecene-io/rnagent/types"
)

// DataPrefix is the literal prefix every event frame must start with.
const DataPrefix = "data:"

// DecodeErrorKind classifies decode errors.
type DecodeErrorKind int

const (
	// DecodeErrorNoPrefix indicates the frame does not start with DataPrefix.
	DecodeErrorNoPrefix DecodeErrorKind = iota
	// DecodeErrorJSON indicates the payload is not a valid JSON object.
	DecodeErrorJSON
	// DecodeErrorUnknownType indicates an unknown or missing discriminator.
	DecodeErrorUnknownType
	// DecodeErrorMissingField indicates a required field is absent or null.
	DecodeErrorMissingField
)

// String returns a short label used in logs and metrics.
func (k DecodeErrorKind) String() string {
	switch k {
	case DecodeErrorNoPrefix:
		return "no_prefix"
	case DecodeErrorJSON:
		return "json"
	case DecodeErrorUnknownType:
		return "unknown_type"
	case DecodeErrorMissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

// DecodeError reports a frame that could not be decoded into an event.
// Decode errors are never fatal: the frame is dropped and the stream continues.
type DecodeError struct {
	Kind DecodeErrorKind
	Msg  string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is a *DecodeError.
func IsDecodeError(err error) bool {
	var decErr *DecodeError
	return errors.As(err, &decErr)
}

// wireEvent mirrors the JSON payload. Pointer fields distinguish absent
// from empty so required fields can be enforced.
type wireEvent struct {
	Type    types.EventType `json:"type"`
	Path    *string         `json:"path"`
	Content *string         `json:"content"`
	Message *string         `json:"message"`
	Summary *string         `json:"summary"`
	Files   *[]string       `json:"files"`
}

// DecodeEvent decodes a trimmed frame into a typed event.
func DecodeEvent(frame string) (types.Event, error) {
	if !strings.HasPrefix(frame, DataPrefix) {
		return nil, &DecodeError{
			Kind: DecodeErrorNoPrefix,
			Msg:  "frame does not start with " + DataPrefix,
		}
	}

	payload := strings.TrimSpace(frame[len(DataPrefix):])

	var w wireEvent
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return nil, &DecodeError{
			Kind: DecodeErrorJSON,
			Msg:  "failed to decode event payload",
			Err:  err,
		}
	}

	switch w.Type {
	case types.EventTypeFileWrite:
		if w.Path == nil {
			return nil, missingField(w.Type, "path")
		}
		if w.Content == nil {
			return nil, missingField(w.Type, "content")
		}
		return types.FileWriteEvent{Path: *w.Path, Content: *w.Content}, nil

	case types.EventTypeStatus:
		if w.Message == nil {
			return nil, missingField(w.Type, "message")
		}
		return types.StatusEvent{Message: *w.Message}, nil

	case types.EventTypeDone:
		if w.Summary == nil {
			return nil, missingField(w.Type, "summary")
		}
		if w.Files == nil {
			return nil, missingField(w.Type, "files")
		}
		return types.DoneEvent{Summary: *w.Summary, Files: *w.Files}, nil

	case types.EventTypeError:
		if w.Message == nil {
			return nil, missingField(w.Type, "message")
		}
		return types.ErrorEvent{Message: *w.Message}, nil

	default:
		return nil, &DecodeError{
			Kind: DecodeErrorUnknownType,
			Msg:  fmt.Sprintf("unknown event type %q", w.Type),
		}
	}
}

func missingField(t types.EventType, field string) *DecodeError {
	return &DecodeError{
		Kind: DecodeErrorMissingField,
		Msg:  fmt.Sprintf("%s event missing required field %q", t, field),
	}
}
