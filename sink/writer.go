package sink

import (
	"io"
	"sync"

	"github.com/pithecene-io/rnagent/log"
)

// Writer emits each message as one JSON line. It is the default CLI sink.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	logger *log.Logger
}

// NewWriter creates a JSON-lines sink. logger may be nil.
func NewWriter(w io.Writer, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Writer{w: w, logger: logger}
}

// Emit writes the message followed by a newline. Failures are logged.
func (s *Writer) Emit(name string, payload any) {
	data, err := Encode(EncodingJSON, Message{Event: name, Payload: payload})
	if err != nil {
		s.logger.Warn("sink encode failed", map[string]any{"sink": "stdout", "error": err.Error()})
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		s.logger.Warn("sink write failed", map[string]any{"sink": "stdout", "error": err.Error()})
	}
}

var _ Sink = (*Writer)(nil)
