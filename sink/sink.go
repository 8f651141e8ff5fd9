// Package sink delivers agent events to the host UI.
//
// A Sink receives named payloads and must not block stream processing:
// Emit has no return value, and implementations that can fail (network
// sinks) log and count failures instead of reporting them. Delivery is
// never retried.
package sink

import (
	"sync"

	"github.com/pithecene-io/rnagent/types"
)

// Sink is a fire-and-forget event destination.
type Sink interface {
	Emit(name string, payload any)
}

// Message is a single emitted event, as delivered to external sinks.
type Message struct {
	Event   string `json:"event" msgpack:"event"`
	Payload any    `json:"payload" msgpack:"payload"`
}

// Func adapts a function to Sink.
type Func func(name string, payload any)

// Emit calls f.
func (f Func) Emit(name string, payload any) { f(name, payload) }

// Multi fans an event out to every sink in order.
type Multi []Sink

// Emit forwards to each sink.
func (m Multi) Emit(name string, payload any) {
	for _, s := range m {
		s.Emit(name, payload)
	}
}

// Nop discards every event.
type Nop struct{}

// Emit does nothing.
func (Nop) Emit(string, any) {}

// Recorder keeps every emitted message in memory. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Emit records the message.
func (r *Recorder) Emit(name string, payload any) {
	r.mu.Lock()
	r.messages = append(r.messages, Message{Event: name, Payload: payload})
	r.mu.Unlock()
}

// Messages returns a copy of all recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Events returns the payloads that are agent events, in emission order.
func (r *Recorder) Events() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Event
	for _, m := range r.messages {
		if ev, ok := m.Payload.(types.Event); ok {
			out = append(out, ev)
		}
	}
	return out
}

var (
	_ Sink = Func(nil)
	_ Sink = Multi(nil)
	_ Sink = Nop{}
	_ Sink = (*Recorder)(nil)
)
