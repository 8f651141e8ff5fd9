package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/rnagent/api"
	"github.com/pithecene-io/rnagent/iox"
	"github.com/pithecene-io/rnagent/log"
	"github.com/pithecene-io/rnagent/metrics"
	"github.com/pithecene-io/rnagent/sandbox"
	"github.com/pithecene-io/rnagent/sink"
	"github.com/pithecene-io/rnagent/types"
)

// Settings are the values an invocation reads from the settings provider.
type Settings struct {
	// APIURL is the base URL of the generation service.
	APIURL string
	// ConnectTimeout bounds connecting to the service. Zero uses the client default.
	ConnectTimeout time.Duration
	// Timeout bounds the whole request. Zero uses the client default.
	Timeout time.Duration
}

// SettingsProvider loads settings at the start of each invocation.
type SettingsProvider interface {
	Settings(ctx context.Context) (Settings, error)
}

// StaticSettings is a SettingsProvider returning fixed values.
type StaticSettings Settings

// Settings implements SettingsProvider.
func (s StaticSettings) Settings(context.Context) (Settings, error) {
	return Settings(s), nil
}

// StreamClient opens the event stream. *api.Client implements it.
type StreamClient interface {
	PostStreaming(ctx context.Context, url string, body any) (*api.StreamResponse, error)
}

// AgentConfig configures an Agent.
type AgentConfig struct {
	// Settings is required.
	Settings SettingsProvider
	// Client overrides the HTTP client. If nil, one is built per invocation
	// from the loaded settings.
	Client StreamClient
	// Sink receives agent events. Defaults to sink.Nop.
	Sink sink.Sink
	// NewLogger builds the per-invocation logger. Defaults to log.NewLogger.
	NewLogger func(meta *types.InvocationMeta) *log.Logger
	// Collector is shared across invocations when set. If nil, each
	// invocation gets its own.
	Collector *metrics.Collector
	// MaxBufferSize overrides the frame buffer limit (tests).
	MaxBufferSize int
}

// ScaffoldParams are the inputs of a scaffold invocation.
type ScaffoldParams struct {
	ProjectPath string
	Prompt      string
	AppName     string
	BrandColor  string
	ImageURLs   []string
}

// EditParams are the inputs of an edit invocation.
type EditParams struct {
	ProjectPath  string
	RelativePath string
	Content      string
	Prompt       string
}

// RunResult represents the result of an invocation.
type RunResult struct {
	// Meta is the invocation identity.
	Meta *types.InvocationMeta
	// State is the final stream state. Empty if the stream never opened.
	State types.StreamState
	// Terminal is the event that ended the stream, if any.
	Terminal types.Event
	// FilesWritten lists written paths in arrival order.
	FilesWritten []string
	// WriteFailures counts refused or failed writes.
	WriteFailures int
	// Duration is the total invocation duration.
	Duration time.Duration
	// Metrics is the collector snapshot at completion.
	Metrics metrics.Snapshot
}

// Agent runs scaffold and edit invocations against the generation service.
// Invocations are independent; concurrent invocations against the same
// project directory are not coordinated.
type Agent struct {
	config AgentConfig
}

// NewAgent creates an agent.
func NewAgent(cfg AgentConfig) (*Agent, error) {
	if cfg.Settings == nil {
		return nil, errors.New("settings provider is required")
	}
	if cfg.Sink == nil {
		cfg.Sink = sink.Nop{}
	}
	if cfg.NewLogger == nil {
		cfg.NewLogger = log.NewLogger
	}
	return &Agent{config: cfg}, nil
}

// Scaffold asks the service to generate an app into p.ProjectPath.
//
// Errors before the stream opens (settings, project path, request
// validation) are returned with a nil result. Connection, framing and
// cancellation failures are returned as *StreamError alongside a result.
// An agent error event or an unexpected close is not an error: inspect
// RunResult.State.
func (a *Agent) Scaffold(ctx context.Context, p ScaffoldParams) (*RunResult, error) {
	return a.invoke(ctx, types.OperationScaffold, p.ProjectPath, func() (types.Request, error) {
		return types.NewScaffoldRequest(p.ProjectPath, p.Prompt, p.AppName, p.BrandColor, p.ImageURLs)
	})
}

// Edit asks the service to modify one file. Error semantics match Scaffold.
func (a *Agent) Edit(ctx context.Context, p EditParams) (*RunResult, error) {
	return a.invoke(ctx, types.OperationEdit, p.ProjectPath, func() (types.Request, error) {
		return types.NewEditRequest(p.ProjectPath, p.RelativePath, p.Content, p.Prompt)
	})
}

func (a *Agent) invoke(
	ctx context.Context,
	op types.Operation,
	projectPath string,
	build func() (types.Request, error),
) (*RunResult, error) {
	start := time.Now()

	settings, err := a.config.Settings.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	url, err := types.EndpointURL(settings.APIURL, op)
	if err != nil {
		return nil, err
	}

	root, err := sandbox.Open(projectPath)
	if err != nil {
		return nil, err
	}

	req, err := build()
	if err != nil {
		return nil, fmt.Errorf("invalid %s request: %w", op, err)
	}

	meta := &types.InvocationMeta{
		InvocationID: uuid.NewString(),
		Operation:    op,
		ProjectPath:  root.Path(),
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invocation metadata: %w", err)
	}
	logger := a.config.NewLogger(meta)
	defer iox.DiscardErr(logger.Sync)

	collector := a.config.Collector
	if collector == nil {
		collector = metrics.NewCollector(string(op), meta.InvocationID, "")
	}

	result := &RunResult{Meta: meta}
	finish := func() *RunResult {
		result.Duration = time.Since(start)
		result.Metrics = collector.Snapshot()
		return result
	}

	client := a.config.Client
	if client == nil {
		c := api.New(api.Config{
			ConnectTimeout: settings.ConnectTimeout,
			Timeout:        settings.Timeout,
		})
		defer iox.DiscardClose(c)
		client = c
	}

	logger.Info("opening stream", map[string]any{"url": url})

	resp, err := client.PostStreaming(ctx, url, req)
	if err != nil {
		streamErr := connectionError(ctx, err)
		logger.Error("stream request failed", map[string]any{
			"kind":  streamErr.Kind.String(),
			"error": err.Error(),
		})
		return finish(), streamErr
	}
	defer iox.DiscardClose(resp.Body)

	engine := NewStreamEngine(EngineConfig{
		Writer:        root,
		Sink:          a.config.Sink,
		Logger:        logger,
		Collector:     collector,
		MaxBufferSize: a.config.MaxBufferSize,
	})
	streamResult, runErr := engine.Run(ctx, resp.Body)

	result.State = streamResult.State
	result.Terminal = streamResult.Terminal
	result.FilesWritten = streamResult.FilesWritten
	result.WriteFailures = streamResult.WriteFailures
	finish()

	logger.Info("invocation finished", map[string]any{
		"state":          result.State,
		"files_written":  len(result.FilesWritten),
		"write_failures": result.WriteFailures,
		"duration_ms":    result.Duration.Milliseconds(),
	})
	return result, runErr
}

// connectionError classifies a failure to open the stream.
func connectionError(ctx context.Context, err error) *StreamError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &StreamError{Kind: StreamErrorCanceled, Err: err}
	}
	if statusErr, ok := api.IsStatusError(err); ok {
		return &StreamError{
			Kind: StreamErrorConnection,
			Err:  fmt.Errorf("server returned an error (%d): %w", statusErr.Code, err),
		}
	}
	return &StreamError{Kind: StreamErrorConnection, Err: err}
}
