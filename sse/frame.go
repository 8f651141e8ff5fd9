// Package sse implements incremental framing and decoding of the agent
// event stream.
//
// The stream is a chunked HTTP body of frames, each terminated by a blank
// line (two consecutive newline bytes):
//
//	data:{"type":"status","message":"start"}\n\n
//
// Chunk boundaries carry no meaning; FrameAssembler buffers bytes until a
// terminator is seen. Unconsumed bytes are bounded by MaxBufferSize.
package sse

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxBufferSize is the maximum number of buffered but unconsumed bytes (10 MiB).
const MaxBufferSize = 10 * 1024 * 1024

// frameTerminator separates frames on the wire.
var frameTerminator = []byte("\n\n")

// FrameErrorKind classifies framing errors.
type FrameErrorKind int

const (
	// FrameErrorTooLarge indicates the buffer cap was exceeded.
	FrameErrorTooLarge FrameErrorKind = iota
)

// FrameError represents a framing error. All framing errors are fatal:
// the stream is abandoned, not just the offending frame.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if this error terminates the stream.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// FrameAssembler turns an arbitrarily chunked byte stream into frames.
// It is created per stream and is not safe for concurrent use.
type FrameAssembler struct {
	buf     []byte
	limit   int
	scanned int // bytes of buf already known not to start a terminator
	dropped int64
	err     error
}

// NewFrameAssembler creates an assembler bounded by MaxBufferSize.
func NewFrameAssembler() *FrameAssembler {
	return NewFrameAssemblerWithLimit(MaxBufferSize)
}

// NewFrameAssemblerWithLimit creates an assembler with a custom buffer cap.
// Non-positive limits fall back to MaxBufferSize.
func NewFrameAssemblerWithLimit(limit int) *FrameAssembler {
	if limit <= 0 {
		limit = MaxBufferSize
	}
	return &FrameAssembler{limit: limit}
}

// Append adds a chunk and returns every frame it completes, in order.
// Returned frames have the terminator removed and surrounding whitespace
// trimmed. Frames that are not valid UTF-8, or are empty, are dropped.
//
// If the unconsumed remainder exceeds the cap, Append returns a
// *FrameError with Kind=FrameErrorTooLarge and no frames. The error is
// sticky: every later call returns it.
func (a *FrameAssembler) Append(chunk []byte) ([]string, error) {
	if a.err != nil {
		return nil, a.err
	}

	a.buf = append(a.buf, chunk...)

	var frames []string
	consumed := 0
	for {
		idx := bytes.Index(a.buf[a.scanned:], frameTerminator)
		if idx < 0 {
			break
		}
		end := a.scanned + idx
		if frame, ok := a.toFrame(a.buf[consumed:end]); ok {
			frames = append(frames, frame)
		}
		consumed = end + len(frameTerminator)
		a.scanned = consumed
	}

	if consumed > 0 {
		n := copy(a.buf, a.buf[consumed:])
		a.buf = a.buf[:n]
	}

	// A trailing '\n' may be the first half of a terminator split across chunks.
	a.scanned = max(len(a.buf)-1, 0)

	if len(a.buf) > a.limit {
		a.err = &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("buffered stream data %d bytes exceeds maximum %d", len(a.buf), a.limit),
		}
		a.buf = nil
		return nil, a.err
	}

	return frames, nil
}

func (a *FrameAssembler) toFrame(raw []byte) (string, bool) {
	if !utf8.Valid(raw) {
		a.dropped++
		return "", false
	}
	frame := strings.TrimSpace(string(raw))
	if frame == "" {
		a.dropped++
		return "", false
	}
	return frame, true
}

// Buffered returns the number of buffered but unconsumed bytes.
func (a *FrameAssembler) Buffered() int {
	return len(a.buf)
}

// Dropped returns the number of frames dropped for invalid UTF-8 or emptiness.
func (a *FrameAssembler) Dropped() int64 {
	return a.dropped
}

// Err returns the sticky fatal error, if any.
func (a *FrameAssembler) Err() error {
	return a.err
}
