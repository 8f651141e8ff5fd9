package sink

import (
	"sync"
	"sync/atomic"

	"github.com/pithecene-io/rnagent/metrics"
)

// DefaultBuffer is the default queue depth for buffered sinks.
const DefaultBuffer = 256

// Channel is a bounded in-process sink. Messages are read from C().
// When the buffer is full the message is dropped rather than blocking the
// stream.
type Channel struct {
	ch        chan Message
	collector *metrics.Collector

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewChannel creates a channel sink holding up to size pending messages.
// A non-positive size selects DefaultBuffer. collector may be nil.
func NewChannel(size int, collector *metrics.Collector) *Channel {
	if size <= 0 {
		size = DefaultBuffer
	}
	return &Channel{ch: make(chan Message, size), collector: collector}
}

// Emit enqueues the message without blocking.
func (c *Channel) Emit(name string, payload any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.drop()
		return
	}
	select {
	case c.ch <- Message{Event: name, Payload: payload}:
	default:
		c.drop()
	}
}

func (c *Channel) drop() {
	c.dropped.Add(1)
	c.collector.IncSinkDropped()
}

// C returns the receive side. It is closed by Close.
func (c *Channel) C() <-chan Message {
	return c.ch
}

// Dropped returns how many messages were discarded.
func (c *Channel) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting messages and closes C(). Pending messages remain
// readable. Safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	return nil
}

var _ Sink = (*Channel)(nil)
