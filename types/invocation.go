// Package types defines core domain types for the rnagent engine.
// Wire shapes match the generation service's event stream and request bodies.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
)

// InvocationMeta identifies a single scaffold or edit invocation.
// It is attached to every log entry and to the invocation result.
type InvocationMeta struct {
	// InvocationID is unique per invocation.
	InvocationID string
	// Operation is the remote operation being performed.
	Operation Operation
	// ProjectPath is the canonical sandbox root.
	ProjectPath string
}

// Validate checks that the metadata is complete.
func (m *InvocationMeta) Validate() error {
	if m.InvocationID == "" {
		return errors.New("invocation_id must be non-empty")
	}
	if m.Operation.Endpoint() == "" {
		return fmt.Errorf("unknown operation %q", m.Operation)
	}
	if m.ProjectPath == "" {
		return errors.New("project_path must be non-empty")
	}
	return nil
}

// StreamState is the state of the stream orchestrator.
type StreamState string

const (
	// StreamActive means chunks are still being read.
	StreamActive StreamState = "active"
	// StreamDone means a done event was received (terminal success).
	StreamDone StreamState = "done"
	// StreamFailed means an error event was received or the stream was
	// abandoned after a fatal framing error.
	StreamFailed StreamState = "failed"
	// StreamClosed means the body ended without a terminal event.
	StreamClosed StreamState = "closed"
)

// IsTerminal returns true for every state except active.
func (s StreamState) IsTerminal() bool {
	return s != StreamActive
}
