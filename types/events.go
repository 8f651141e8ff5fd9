package types

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// EventName is the sink event name under which agent events are emitted.
const EventName = "agent_event"

// EventType is the discriminator carried in the "type" field of every event.
type EventType string

// Event type constants as they appear on the wire.
const (
	EventTypeFileWrite EventType = "file_write"
	EventTypeStatus    EventType = "status"
	EventTypeDone      EventType = "done"
	EventTypeError     EventType = "error"
)

// IsTerminal returns true if this event type ends the logical operation.
func (e EventType) IsTerminal() bool {
	return e == EventTypeDone || e == EventTypeError
}

// Valid returns true if e is one of the known event types.
func (e EventType) Valid() bool {
	switch e {
	case EventTypeFileWrite, EventTypeStatus, EventTypeDone, EventTypeError:
		return true
	default:
		return false
	}
}

// Event is an agent event decoded from the generation stream.
// The concrete variants are FileWriteEvent, StatusEvent, DoneEvent and
// ErrorEvent. Events are transient: consumed on decode, never persisted.
type Event interface {
	// Type returns the wire discriminator of the variant.
	Type() EventType
	isEvent()
}

// FileWriteEvent instructs the client to write a full file body at a path
// relative to the project root.
type FileWriteEvent struct {
	// Path is relative to the sandbox root.
	Path string
	// Content is the full UTF-8 file body (overwrite, not patch).
	Content string
}

// StatusEvent is a progress message.
type StatusEvent struct {
	Message string
}

// DoneEvent is the terminal success event.
type DoneEvent struct {
	// Summary is the agent's final summary.
	Summary string
	// Files lists the relative paths written during the operation.
	Files []string
}

// ErrorEvent reports a failure. Emitted by the server as a terminal event,
// or synthesized by the client for per-step failures.
type ErrorEvent struct {
	Message string
}

// Type implements Event.
func (FileWriteEvent) Type() EventType { return EventTypeFileWrite }

// Type implements Event.
func (StatusEvent) Type() EventType { return EventTypeStatus }

// Type implements Event.
func (DoneEvent) Type() EventType { return EventTypeDone }

// Type implements Event.
func (ErrorEvent) Type() EventType { return EventTypeError }

func (FileWriteEvent) isEvent() {}
func (StatusEvent) isEvent()    {}
func (DoneEvent) isEvent()      {}
func (ErrorEvent) isEvent()     {}

// Tagged wire shapes. Field order matches the documented payload table.
type (
	fileWireEvent struct {
		Type    EventType `json:"type" msgpack:"type"`
		Path    string    `json:"path" msgpack:"path"`
		Content string    `json:"content" msgpack:"content"`
	}
	statusWireEvent struct {
		Type    EventType `json:"type" msgpack:"type"`
		Message string    `json:"message" msgpack:"message"`
	}
	doneWireEvent struct {
		Type    EventType `json:"type" msgpack:"type"`
		Summary string    `json:"summary" msgpack:"summary"`
		Files   []string  `json:"files" msgpack:"files"`
	}
	errorWireEvent struct {
		Type    EventType `json:"type" msgpack:"type"`
		Message string    `json:"message" msgpack:"message"`
	}
)

// Tagged returns the discriminated wire form of ev, suitable for any
// struct-tag based encoder. Returns nil for a nil event.
func Tagged(ev Event) any {
	switch e := ev.(type) {
	case FileWriteEvent:
		return fileWireEvent{Type: EventTypeFileWrite, Path: e.Path, Content: e.Content}
	case *FileWriteEvent:
		return Tagged(*e)
	case StatusEvent:
		return statusWireEvent{Type: EventTypeStatus, Message: e.Message}
	case *StatusEvent:
		return Tagged(*e)
	case DoneEvent:
		files := e.Files
		if files == nil {
			files = []string{}
		}
		return doneWireEvent{Type: EventTypeDone, Summary: e.Summary, Files: files}
	case *DoneEvent:
		return Tagged(*e)
	case ErrorEvent:
		return errorWireEvent{Type: EventTypeError, Message: e.Message}
	case *ErrorEvent:
		return Tagged(*e)
	default:
		return nil
	}
}

// MarshalJSON encodes the event with its "type" discriminator.
func (e FileWriteEvent) MarshalJSON() ([]byte, error) { return json.Marshal(Tagged(e)) }

// MarshalJSON encodes the event with its "type" discriminator.
func (e StatusEvent) MarshalJSON() ([]byte, error) { return json.Marshal(Tagged(e)) }

// MarshalJSON encodes the event with its "type" discriminator.
func (e DoneEvent) MarshalJSON() ([]byte, error) { return json.Marshal(Tagged(e)) }

// MarshalJSON encodes the event with its "type" discriminator.
func (e ErrorEvent) MarshalJSON() ([]byte, error) { return json.Marshal(Tagged(e)) }

// EncodeMsgpack implements msgpack.CustomEncoder.
func (e FileWriteEvent) EncodeMsgpack(enc *msgpack.Encoder) error { return enc.Encode(Tagged(e)) }

// EncodeMsgpack implements msgpack.CustomEncoder.
func (e StatusEvent) EncodeMsgpack(enc *msgpack.Encoder) error { return enc.Encode(Tagged(e)) }

// EncodeMsgpack implements msgpack.CustomEncoder.
func (e DoneEvent) EncodeMsgpack(enc *msgpack.Encoder) error { return enc.Encode(Tagged(e)) }

// EncodeMsgpack implements msgpack.CustomEncoder.
func (e ErrorEvent) EncodeMsgpack(enc *msgpack.Encoder) error { return enc.Encode(Tagged(e)) }

// Compile-time interface checks.
var (
	_ Event = FileWriteEvent{}
	_ Event = StatusEvent{}
	_ Event = DoneEvent{}
	_ Event = ErrorEvent{}

	_ msgpack.CustomEncoder = FileWriteEvent{}
	_ msgpack.CustomEncoder = StatusEvent{}
	_ msgpack.CustomEncoder = DoneEvent{}
	_ msgpack.CustomEncoder = ErrorEvent{}
)
