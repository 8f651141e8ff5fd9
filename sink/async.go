package sink

import (
	"context"
	"sync"
	"time"

	"github.com/pithecene-io/rnagent/log"
	"github.com/pithecene-io/rnagent/metrics"
)

// DefaultDeliveryTimeout bounds a single delivery attempt.
const DefaultDeliveryTimeout = 5 * time.Second

// DeliverFunc delivers one message. It must respect ctx.
type DeliverFunc func(ctx context.Context, msg Message) error

// AsyncConfig configures an Async dispatcher.
type AsyncConfig struct {
	// Name labels log entries (e.g. "webhook").
	Name string
	// Buffer is the queue depth (default DefaultBuffer).
	Buffer int
	// Timeout bounds each delivery (default DefaultDeliveryTimeout).
	Timeout time.Duration
	// Logger receives delivery failures. Optional.
	Logger *log.Logger
	// Collector counts dropped messages. Optional.
	Collector *metrics.Collector
}

// Async queues messages and delivers them from a single worker goroutine,
// preserving emission order. A full queue drops the message. Failed
// deliveries are logged and dropped.
type Async struct {
	config  AsyncConfig
	deliver DeliverFunc
	queue   chan Message
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts the delivery worker.
func NewAsync(cfg AsyncConfig, deliver DeliverFunc) *Async {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultDeliveryTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	a := &Async{
		config:  cfg,
		deliver: deliver,
		queue:   make(chan Message, cfg.Buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Emit enqueues the message without blocking.
func (a *Async) Emit(name string, payload any) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped(name, "sink closed")
		return
	}
	select {
	case a.queue <- Message{Event: name, Payload: payload}:
	default:
		a.dropped(name, "queue full")
	}
}

func (a *Async) run() {
	defer close(a.done)
	for msg := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.config.Timeout)
		err := a.deliver(ctx, msg)
		cancel()
		if err != nil {
			a.dropped(msg.Event, err.Error())
		}
	}
}

func (a *Async) dropped(name, reason string) {
	a.config.Collector.IncSinkDropped()
	a.config.Logger.Warn("sink delivery dropped", map[string]any{
		"sink":   a.config.Name,
		"event":  name,
		"reason": reason,
	})
}

// Close stops accepting messages and waits for queued ones to be delivered.
// Safe to call more than once.
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
	return nil
}

var _ Sink = (*Async)(nil)
