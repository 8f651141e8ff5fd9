// Package webhook implements a sink that POSTs each agent event to a URL.
//
// Events are queued and delivered in order by a background worker. A failed
// delivery is logged and dropped; there are no retries.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pithecene-io/rnagent/iox"
	"github.com/pithecene-io/rnagent/log"
	"github.com/pithecene-io/rnagent/metrics"
	"github.com/pithecene-io/rnagent/sink"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 10 * time.Second

// Config configures the webhook sink.
type Config struct {
	// URL is the HTTP endpoint to POST to (required).
	URL string
	// Headers are custom HTTP headers added to each request.
	Headers map[string]string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
	// Encoding is the body format (default json).
	Encoding sink.Encoding
	// Buffer is the queue depth (default sink.DefaultBuffer).
	Buffer int
}

// Sink delivers events via HTTP POST.
type Sink struct {
	config Config
	client *http.Client
	async  *sink.Async
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// New creates a webhook sink and starts its delivery worker.
// logger and collector may be nil.
func New(cfg Config, logger *log.Logger, collector *metrics.Collector) (*Sink, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook sink requires a URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	enc, err := sink.ParseEncoding(string(cfg.Encoding))
	if err != nil {
		return nil, err
	}
	cfg.Encoding = enc

	s := &Sink{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	s.async = sink.NewAsync(sink.AsyncConfig{
		Name:      "webhook",
		Buffer:    cfg.Buffer,
		Timeout:   cfg.Timeout,
		Logger:    logger,
		Collector: collector,
	}, s.Publish)
	return s, nil
}

// Emit queues the event for delivery.
func (s *Sink) Emit(name string, payload any) {
	s.async.Emit(name, payload)
}

// Publish POSTs a single message synchronously and returns nil on 2xx.
func (s *Sink) Publish(ctx context.Context, msg sink.Message) error {
	body, err := sink.Encode(s.config.Encoding, msg)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", s.config.Encoding.ContentType())
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: %w", &StatusError{Code: resp.StatusCode})
	}
	return nil
}

// Close flushes queued events and releases idle connections.
func (s *Sink) Close() error {
	err := s.async.Close()
	s.client.CloseIdleConnections()
	return err
}

var _ sink.Sink = (*Sink)(nil)
