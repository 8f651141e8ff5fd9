// Package redis implements a sink that PUBLISHes each agent event to a
// Redis pub/sub channel.
//
// Delivery is asynchronous and ordered. Failed publishes are logged and
// dropped.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/rnagent/log"
	"github.com/pithecene-io/rnagent/metrics"
	"github.com/pithecene-io/rnagent/sink"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "rnagent:agent_event"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// Config configures the Redis sink.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: rnagent:agent_event).
	Channel string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Encoding is the message format (default json).
	Encoding sink.Encoding
	// Buffer is the queue depth (default sink.DefaultBuffer).
	Buffer int
}

// Sink delivers events via Redis PUBLISH.
type Sink struct {
	config Config
	client *goredis.Client
	async  *sink.Async
}

// New creates a Redis sink and starts its delivery worker.
// logger and collector may be nil.
func New(cfg Config, logger *log.Logger, collector *metrics.Collector) (*Sink, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis sink requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis sink: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
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
		client: goredis.NewClient(opts),
	}
	s.async = sink.NewAsync(sink.AsyncConfig{
		Name:      "redis",
		Buffer:    cfg.Buffer,
		Timeout:   cfg.Timeout,
		Logger:    logger,
		Collector: collector,
	}, s.Publish)
	return s, nil
}

// Emit queues the event for publishing.
func (s *Sink) Emit(name string, payload any) {
	s.async.Emit(name, payload)
}

// Publish sends a single message synchronously to the configured channel.
func (s *Sink) Publish(ctx context.Context, msg sink.Message) error {
	body, err := sink.Encode(s.config.Encoding, msg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := s.client.Publish(ctx, s.config.Channel, body).Err(); err != nil {
		return fmt.Errorf("redis: publish to %s: %w", s.config.Channel, err)
	}
	return nil
}

// Close flushes queued events and closes the connection.
func (s *Sink) Close() error {
	_ = s.async.Close()
	return s.client.Close()
}

var _ sink.Sink = (*Sink)(nil)
