// Package api implements the HTTP client for the code-generation service.
//
// The service answers a JSON POST with a chunked text/event-stream body.
// The client only opens the stream; framing and decoding belong to the
// sse package and the stream engine.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pithecene-io/rnagent/iox"
)

const (
	// DefaultConnectTimeout bounds dialing the service.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultTimeout bounds the whole request, including reading the stream.
	// Generation runs are long, so this is generous.
	DefaultTimeout = 300 * time.Second
)

// maxErrorBody caps how much of a non-2xx body is kept for the error message.
const maxErrorBody = 4 << 10

// Config configures the client.
type Config struct {
	// ConnectTimeout bounds TCP connect (default 10s).
	ConnectTimeout time.Duration
	// Timeout bounds the whole request including the body (default 300s).
	Timeout time.Duration
	// Headers are added to every request.
	Headers map[string]string
}

// Client posts generation requests and returns the open stream.
type Client struct {
	config Config
	http   *http.Client
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	// Body holds the start of the response body, if any.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// RequestError is returned when the request could not be sent or no
// response was received.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StreamResponse is an open 2xx response. The caller must close Body.
type StreamResponse struct {
	StatusCode int
	Body       io.ReadCloser
}

// New creates a client. Zero durations select the defaults.
func New(cfg Config) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	// Compressed event streams would be buffered by the decompressor.
	transport.DisableCompression = true

	return &Client{
		config: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// PostStreaming sends body as JSON to url and returns the open response
// stream. Non-2xx responses are drained, closed and returned as *StatusError.
// Transport failures are returned as *RequestError.
func (c *Client) PostStreaming(ctx context.Context, url string, body any) (*StreamResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer iox.DrainClose(resp.Body)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	return &StreamResponse{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// IsStatusError reports whether err is a *StatusError and returns it.
func IsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
