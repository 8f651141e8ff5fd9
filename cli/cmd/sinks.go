package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pithecene-io/rnagent/assets"
	rnconfig "github.com/pithecene-io/rnagent/cli/config"
	"github.com/pithecene-io/rnagent/log"
	"github.com/pithecene-io/rnagent/metrics"
	"github.com/pithecene-io/rnagent/sink"
	"github.com/pithecene-io/rnagent/sink/redis"
	"github.com/pithecene-io/rnagent/sink/webhook"
)

// sinkSet is the fan-out of sinks for one invocation and the closers that
// flush them.
type sinkSet struct {
	sinks   sink.Multi
	channel *sink.Channel
	closers []io.Closer
}

// Sink returns the combined sink.
func (s *sinkSet) Sink() sink.Sink {
	if len(s.sinks) == 1 {
		return s.sinks[0]
	}
	return s.sinks
}

// Close flushes external sinks first, then closes the live-view channel.
func (s *sinkSet) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type sinkOptions struct {
	stdout io.Writer // JSON-lines events; nil disables
	tui    bool      // feed a channel for the live view
}

// buildSinks assembles the sinks for an invocation from cfg.Sink.
func buildSinks(cfg rnconfig.SinkConfig, opts sinkOptions, logger *log.Logger, collector *metrics.Collector) (*sinkSet, error) {
	set := &sinkSet{}

	if opts.tui {
		set.channel = sink.NewChannel(sink.DefaultBuffer, collector)
		set.sinks = append(set.sinks, set.channel)
	} else if opts.stdout != nil {
		set.sinks = append(set.sinks, sink.NewWriter(opts.stdout, logger))
	}

	encoding, err := sink.ParseEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "", rnconfig.SinkStdout:
	case rnconfig.SinkWebhook:
		s, err := webhook.New(webhook.Config{
			URL:      cfg.URL,
			Headers:  cfg.Headers,
			Timeout:  cfg.Timeout.Duration,
			Encoding: encoding,
			Buffer:   cfg.Buffer,
		}, logger, collector)
		if err != nil {
			return nil, fmt.Errorf("failed to create webhook sink: %w", err)
		}
		set.sinks = append(set.sinks, s)
		set.closers = append(set.closers, s)
	case rnconfig.SinkRedis:
		s, err := redis.New(redis.Config{
			URL:      cfg.URL,
			Channel:  cfg.Channel,
			Timeout:  cfg.Timeout.Duration,
			Encoding: encoding,
			Buffer:   cfg.Buffer,
		}, logger, collector)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis sink: %w", err)
		}
		set.sinks = append(set.sinks, s)
		set.closers = append(set.closers, s)
	default:
		return nil, fmt.Errorf("unknown sink type: %s (must be stdout, webhook or redis)", cfg.Type)
	}

	if set.channel != nil {
		set.closers = append(set.closers, set.channel)
	}
	if len(set.sinks) == 0 {
		set.sinks = append(set.sinks, sink.Nop{})
	}
	return set, nil
}

// buildAssetStore creates the upload store for cfg. An unset backend
// defaults to fs under .rnagent/assets.
func buildAssetStore(ctx context.Context, cfg rnconfig.StorageConfig, logger *log.Logger) (*assets.Store, error) {
	switch cfg.Backend {
	case "", "fs":
		path := cfg.Path
		if path == "" {
			path = defaultAssetPath
		}
		return assets.NewFS(path, logger)
	case "s3":
		return assets.NewS3(ctx, assets.S3Config{
			Bucket:       cfg.Bucket,
			Prefix:       cfg.Prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.S3PathStyle,
			PresignTTL:   cfg.PresignTTL.Duration,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (must be fs or s3)", cfg.Backend)
	}
}

const defaultAssetPath = ".rnagent/assets"
