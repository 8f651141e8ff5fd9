package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pithecene-io/rnagent/runtime"
)

// Default HTTP timeouts applied when the config leaves them unset.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultTimeout        = 300 * time.Second
)

// Config represents an rnagent.yaml configuration file.
// All values are optional and act as defaults for rnagent flags.
// CLI flags always override config values.
type Config struct {
	APIURL  string        `yaml:"api_url"`
	HTTP    HTTPConfig    `yaml:"http"`
	Sink    SinkConfig    `yaml:"sink"`
	Storage StorageConfig `yaml:"storage"`
}

// HTTPConfig holds timeouts for the generation service client.
type HTTPConfig struct {
	ConnectTimeout Duration `yaml:"connect_timeout"`
	Timeout        Duration `yaml:"timeout"`
}

// SinkConfig selects where agent events are delivered besides the terminal.
type SinkConfig struct {
	Type     string            `yaml:"type"`
	URL      string            `yaml:"url"`
	Channel  string            `yaml:"channel,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Timeout  Duration          `yaml:"timeout,omitempty"`
	Encoding string            `yaml:"encoding,omitempty"`
	Buffer   int               `yaml:"buffer,omitempty"`
}

// StorageConfig holds asset storage settings.
type StorageConfig struct {
	Backend     string   `yaml:"backend"`
	Path        string   `yaml:"path"`
	Bucket      string   `yaml:"bucket"`
	Prefix      string   `yaml:"prefix"`
	Region      string   `yaml:"region"`
	Endpoint    string   `yaml:"endpoint"`
	S3PathStyle bool     `yaml:"s3_path_style"`
	PresignTTL  Duration `yaml:"presign_ttl"`
}

// Sink types accepted in sink.type.
const (
	SinkStdout  = "stdout"
	SinkWebhook = "webhook"
	SinkRedis   = "redis"
)

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	d.Duration = parsed
	return nil
}

// Validate checks enumerated fields. Empty values are allowed and fall
// back to defaults.
func (c *Config) Validate() error {
	switch c.Sink.Type {
	case "", SinkStdout, SinkWebhook, SinkRedis:
	default:
		return fmt.Errorf("sink.type must be one of stdout, webhook, redis; got %q", c.Sink.Type)
	}
	if (c.Sink.Type == SinkWebhook || c.Sink.Type == SinkRedis) && c.Sink.URL == "" {
		return fmt.Errorf("sink.url is required for sink.type %s", c.Sink.Type)
	}
	switch c.Sink.Encoding {
	case "", "json", "msgpack":
	default:
		return fmt.Errorf("sink.encoding must be json or msgpack; got %q", c.Sink.Encoding)
	}
	switch c.Storage.Backend {
	case "", "fs", "s3":
	default:
		return fmt.Errorf("storage.backend must be fs or s3; got %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required for the s3 backend")
	}
	return nil
}

// Settings implements runtime.SettingsProvider. The API URL is required;
// unset timeouts take the package defaults.
func (c *Config) Settings(context.Context) (runtime.Settings, error) {
	apiURL := strings.TrimSpace(c.APIURL)
	if apiURL == "" {
		return runtime.Settings{}, errors.New("api_url is not configured")
	}
	s := runtime.Settings{
		APIURL:         apiURL,
		ConnectTimeout: c.HTTP.ConnectTimeout.Duration,
		Timeout:        c.HTTP.Timeout.Duration,
	}
	if s.ConnectTimeout == 0 {
		s.ConnectTimeout = DefaultConnectTimeout
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultTimeout
	}
	return s, nil
}
