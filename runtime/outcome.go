package runtime

import (
	"github.com/pithecene-io/rnagent/types"
)

// Exit codes for a finished invocation.
const (
	ExitCodeDone       = 0 // done event received
	ExitCodeAgentError = 1 // error event received, or stream closed without terminal
	ExitCodeConnection = 2 // request, status, read or cancellation failure
	ExitCodeFraming    = 3 // frame buffer overflow
	ExitCodeInvalid    = 4 // rejected before the stream opened
)

// Outcome is a human-readable summary of an invocation's end.
type Outcome struct {
	ExitCode int
	Message  string
}

// DetermineOutcome maps an invocation result and error to an exit code.
//
// Mapping:
//   - framing error: 3
//   - connection or cancellation error: 2
//   - any other error (settings, project path, request validation): 4
//   - done: 0
//   - error event or closed stream: 1
func DetermineOutcome(result *RunResult, err error) Outcome {
	if err != nil {
		if IsFramingError(err) {
			return Outcome{ExitCode: ExitCodeFraming, Message: err.Error()}
		}
		if IsConnectionError(err) || IsCanceledError(err) {
			return Outcome{ExitCode: ExitCodeConnection, Message: err.Error()}
		}
		return Outcome{ExitCode: ExitCodeInvalid, Message: err.Error()}
	}

	if result == nil {
		return Outcome{ExitCode: ExitCodeAgentError, Message: "no result"}
	}

	switch result.State {
	case types.StreamDone:
		msg := "done"
		if done, ok := result.Terminal.(types.DoneEvent); ok && done.Summary != "" {
			msg = done.Summary
		}
		return Outcome{ExitCode: ExitCodeDone, Message: msg}
	case types.StreamFailed, types.StreamClosed:
		msg := "agent error"
		if ev, ok := result.Terminal.(types.ErrorEvent); ok {
			msg = ev.Message
		}
		return Outcome{ExitCode: ExitCodeAgentError, Message: msg}
	default:
		return Outcome{ExitCode: ExitCodeAgentError, Message: "stream did not finish"}
	}
}
