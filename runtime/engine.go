// Package runtime drives a single generation invocation: it opens the event
// stream, assembles and decodes frames, applies file writes through the
// sandbox and forwards every event to the UI sink.
package runtime

import (
	"context"
	"errors"
	"io"

	"github.com/pithecene-io/rnagent/log"
	"github.com/pithecene-io/rnagent/metrics"
	"github.com/pithecene-io/rnagent/sandbox"
	"github.com/pithecene-io/rnagent/sink"
	"github.com/pithecene-io/rnagent/sse"
	"github.com/pithecene-io/rnagent/types"
)

// ChunkSize is the read size for the response body.
const ChunkSize = 32 * 1024

// ClosedMessage is emitted when the body ends without a terminal event.
const ClosedMessage = "Stream closed unexpectedly"

// traversalMessage is shown to the user when a write is refused.
const traversalMessage = "Security violation: path traversal detected"

// FileWriter applies a file_write event. *sandbox.Root implements it.
type FileWriter interface {
	WriteFile(rel, content string) error
}

// EngineConfig configures a StreamEngine.
type EngineConfig struct {
	// Writer applies file writes (required).
	Writer FileWriter
	// Sink receives every emitted event. Defaults to sink.Nop.
	Sink sink.Sink
	// Logger defaults to a no-op logger.
	Logger *log.Logger
	// Collector is optional; all Collector methods are nil-safe.
	Collector *metrics.Collector
	// MaxBufferSize overrides sse.MaxBufferSize. Zero keeps the default.
	MaxBufferSize int
}

// StreamResult summarizes a processed stream.
type StreamResult struct {
	// State is the final engine state.
	State types.StreamState
	// Terminal is the done or error event that ended the stream, or the
	// synthesized error for a closed stream. Nil when aborted.
	Terminal types.Event
	// FilesWritten lists successfully written paths in arrival order.
	FilesWritten []string
	// WriteFailures counts file writes that were refused or failed.
	WriteFailures int
}

// StreamEngine processes one response body. States move from active to
// exactly one of done, failed or closed. Not safe for concurrent use.
type StreamEngine struct {
	config    EngineConfig
	assembler *sse.FrameAssembler
	logger    *log.Logger
	result    StreamResult
}

// NewStreamEngine creates an engine in the active state.
func NewStreamEngine(cfg EngineConfig) *StreamEngine {
	if cfg.Sink == nil {
		cfg.Sink = sink.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	return &StreamEngine{
		config:    cfg,
		assembler: sse.NewFrameAssemblerWithLimit(cfg.MaxBufferSize),
		logger:    cfg.Logger,
		result:    StreamResult{State: types.StreamActive},
	}
}

// State returns the current state.
func (e *StreamEngine) State() types.StreamState {
	return e.result.State
}

// Run reads body until a terminal event, EOF or a fatal failure.
// Returns:
//   - result, nil: done, failed (error event) or closed (EOF without terminal)
//   - result, *StreamError{Kind: StreamErrorFraming}: buffer overflow
//   - result, *StreamError{Kind: StreamErrorConnection}: body read failure
//   - result, *StreamError{Kind: StreamErrorCanceled}: ctx canceled
//
// Aborted streams leave the state failed and emit nothing further.
func (e *StreamEngine) Run(ctx context.Context, body io.Reader) (*StreamResult, error) {
	e.config.Collector.IncStreamStarted()
	buf := make([]byte, ChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return e.abort(StreamErrorCanceled, err)
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			e.config.Collector.RecordChunk(n)
			if done, err := e.processChunk(buf[:n]); done || err != nil {
				return e.finish(err)
			}
		}

		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			e.close()
			return e.finish(nil)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return e.abort(StreamErrorCanceled, ctxErr)
		}
		return e.abort(StreamErrorConnection, readErr)
	}
}

func (e *StreamEngine) finish(err error) (*StreamResult, error) {
	result := e.result
	return &result, err
}

// processChunk feeds one chunk through the assembler and dispatches every
// completed frame. Returns done=true once a terminal event was handled.
func (e *StreamEngine) processChunk(chunk []byte) (bool, error) {
	frames, err := e.assembler.Append(chunk)
	e.config.Collector.SetFramesDropped(e.assembler.Dropped())
	if err != nil {
		_, abortErr := e.abort(StreamErrorFraming, err)
		return false, abortErr
	}

	e.config.Collector.AddFramesReceived(len(frames))
	for _, frame := range frames {
		if e.dispatch(frame) {
			return true, nil
		}
	}
	return false, nil
}

// dispatch handles one frame. Returns true if the frame was terminal.
func (e *StreamEngine) dispatch(frame string) bool {
	ev, err := sse.DecodeEvent(frame)
	if err != nil {
		kind := "unknown"
		var decErr *sse.DecodeError
		if errors.As(err, &decErr) {
			kind = decErr.Kind.String()
		}
		e.config.Collector.IncDecodeError(kind)
		e.logger.Warn("dropping undecodable frame", map[string]any{
			"kind":        kind,
			"error":       err.Error(),
			"frame_bytes": len(frame),
		})
		return false
	}

	switch ev := ev.(type) {
	case types.FileWriteEvent:
		e.applyFileWrite(ev)
		return false

	case types.StatusEvent:
		e.emit(ev)
		return false

	case types.DoneEvent:
		e.result.State = types.StreamDone
		e.result.Terminal = ev
		e.config.Collector.IncStreamDone()
		e.logger.Info("stream done", map[string]any{
			"summary": ev.Summary,
			"files":   len(ev.Files),
		})
		e.emit(ev)
		return true

	case types.ErrorEvent:
		e.result.State = types.StreamFailed
		e.result.Terminal = ev
		e.config.Collector.IncStreamFailed()
		e.logger.Warn("agent reported error", map[string]any{
			"message": ev.Message,
		})
		e.emit(ev)
		return true

	default:
		return false
	}
}

func (e *StreamEngine) applyFileWrite(ev types.FileWriteEvent) {
	err := e.config.Writer.WriteFile(ev.Path, ev.Content)
	if err == nil {
		e.config.Collector.IncFileWriteOK()
		e.result.FilesWritten = append(e.result.FilesWritten, ev.Path)
		e.logger.Debug("file written", map[string]any{
			"path":  ev.Path,
			"bytes": len(ev.Content),
		})
		e.emit(ev)
		return
	}

	e.config.Collector.IncFileWriteFailed()
	e.result.WriteFailures++

	message := err.Error()
	if errors.Is(err, sandbox.ErrPathTraversal) {
		e.config.Collector.IncSecurityViolation()
		message = traversalMessage
		e.logger.Error("refused write outside project", map[string]any{
			"path":  ev.Path,
			"error": err.Error(),
		})
	} else {
		e.logger.Error("file write failed", map[string]any{
			"path":  ev.Path,
			"error": err.Error(),
		})
	}
	e.emit(types.ErrorEvent{Message: message})
}

// close handles EOF while active.
func (e *StreamEngine) close() {
	terminal := types.ErrorEvent{Message: ClosedMessage}
	e.result.State = types.StreamClosed
	e.result.Terminal = terminal
	e.config.Collector.IncStreamClosed()
	e.logger.Warn("stream closed without terminal event", map[string]any{
		"buffered": e.assembler.Buffered(),
	})
	e.emit(terminal)
}

func (e *StreamEngine) abort(kind StreamErrorKind, err error) (*StreamResult, error) {
	e.result.State = types.StreamFailed
	e.config.Collector.IncStreamAborted()
	e.logger.Error("stream aborted", map[string]any{
		"kind":  kind.String(),
		"error": err.Error(),
	})
	result := e.result
	return &result, &StreamError{Kind: kind, Err: err}
}

func (e *StreamEngine) emit(ev types.Event) {
	e.config.Sink.Emit(types.EventName, ev)
	e.config.Collector.IncEventsEmitted()
}
