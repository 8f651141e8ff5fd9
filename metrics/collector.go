// Package metrics provides per-invocation stream metrics.
//
// The Collector accumulates counters while a single stream is processed. It is
// a leaf package with no internal dependencies so the engine, sinks and CLI can
// all share one instance.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all stream metrics.
type Snapshot struct {
	// Stream lifecycle
	StreamsStarted int64
	StreamsDone    int64
	StreamsFailed  int64
	StreamsClosed  int64
	StreamsAborted int64

	// Transport
	ChunksReceived int64
	BytesReceived  int64

	// Framing / decoding
	FramesReceived int64
	FramesDropped  int64
	DecodeErrors   int64
	DecodeByKind   map[string]int64

	// Dispatch
	EventsEmitted      int64
	SinkDropped        int64
	FileWritesOK       int64
	FileWritesFailed   int64
	SecurityViolations int64

	// Dimensions
	Operation    string
	InvocationID string
	SinkType     string
}

// Collector accumulates metrics during a single invocation.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	streamsStarted int64
	streamsDone    int64
	streamsFailed  int64
	streamsClosed  int64
	streamsAborted int64

	chunksReceived int64
	bytesReceived  int64

	framesReceived int64
	framesDropped  int64
	decodeErrors   int64
	decodeByKind   map[string]int64

	eventsEmitted      int64
	sinkDropped        int64
	fileWritesOK       int64
	fileWritesFailed   int64
	securityViolations int64

	operation    string
	invocationID string
	sinkType     string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(operation, invocationID, sinkType string) *Collector {
	return &Collector{
		decodeByKind: make(map[string]int64),
		operation:    operation,
		invocationID: invocationID,
		sinkType:     sinkType,
	}
}

func (c *Collector) add(field *int64, n int64) {
	c.mu.Lock()
	*field += n
	c.mu.Unlock()
}

// --- Stream lifecycle ---

// IncStreamStarted records a stream whose response body began to be read.
func (c *Collector) IncStreamStarted() {
	if c == nil {
		return
	}
	c.add(&c.streamsStarted, 1)
}

// IncStreamDone records a stream that ended with a done event.
func (c *Collector) IncStreamDone() {
	if c == nil {
		return
	}
	c.add(&c.streamsDone, 1)
}

// IncStreamFailed records a stream that ended with an error event.
func (c *Collector) IncStreamFailed() {
	if c == nil {
		return
	}
	c.add(&c.streamsFailed, 1)
}

// IncStreamClosed records a body that ended without a terminal event.
func (c *Collector) IncStreamClosed() {
	if c == nil {
		return
	}
	c.add(&c.streamsClosed, 1)
}

// IncStreamAborted records a stream abandoned on a fatal framing,
// connection or cancellation failure.
func (c *Collector) IncStreamAborted() {
	if c == nil {
		return
	}
	c.add(&c.streamsAborted, 1)
}

// --- Transport ---

// RecordChunk records one body read of n bytes.
func (c *Collector) RecordChunk(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksReceived++
	c.bytesReceived += int64(n)
	c.mu.Unlock()
}

// --- Framing / decoding ---

// AddFramesReceived records n complete frames handed to the decoder.
func (c *Collector) AddFramesReceived(n int) {
	if c == nil {
		return
	}
	c.add(&c.framesReceived, int64(n))
}

// SetFramesDropped records the assembler's running count of dropped frames.
func (c *Collector) SetFramesDropped(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.framesDropped = n
	c.mu.Unlock()
}

// IncDecodeError records a frame that failed to decode. kind is a short
// label such as "json" or "unknown_type".
func (c *Collector) IncDecodeError(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.decodeByKind[kind]++
	c.mu.Unlock()
}

// --- Dispatch ---

// IncEventsEmitted records an event handed to the sink.
func (c *Collector) IncEventsEmitted() {
	if c == nil {
		return
	}
	c.add(&c.eventsEmitted, 1)
}

// IncSinkDropped records an event a sink discarded (full buffer, failed delivery).
func (c *Collector) IncSinkDropped() {
	if c == nil {
		return
	}
	c.add(&c.sinkDropped, 1)
}

// IncFileWriteOK records a successful sandboxed write.
func (c *Collector) IncFileWriteOK() {
	if c == nil {
		return
	}
	c.add(&c.fileWritesOK, 1)
}

// IncFileWriteFailed records a failed sandboxed write.
func (c *Collector) IncFileWriteFailed() {
	if c == nil {
		return
	}
	c.add(&c.fileWritesFailed, 1)
}

// IncSecurityViolation records a write refused for escaping the sandbox.
func (c *Collector) IncSecurityViolation() {
	if c == nil {
		return
	}
	c.add(&c.securityViolations, 1)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.decodeByKind))
	for k, v := range c.decodeByKind {
		byKind[k] = v
	}

	return Snapshot{
		StreamsStarted: c.streamsStarted,
		StreamsDone:    c.streamsDone,
		StreamsFailed:  c.streamsFailed,
		StreamsClosed:  c.streamsClosed,
		StreamsAborted: c.streamsAborted,

		ChunksReceived: c.chunksReceived,
		BytesReceived:  c.bytesReceived,

		FramesReceived: c.framesReceived,
		FramesDropped:  c.framesDropped,
		DecodeErrors:   c.decodeErrors,
		DecodeByKind:   byKind,

		EventsEmitted:      c.eventsEmitted,
		SinkDropped:        c.sinkDropped,
		FileWritesOK:       c.fileWritesOK,
		FileWritesFailed:   c.fileWritesFailed,
		SecurityViolations: c.securityViolations,

		Operation:    c.operation,
		InvocationID: c.invocationID,
		SinkType:     c.sinkType,
	}
}
