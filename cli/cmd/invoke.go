package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	rnconfig "github.com/pithecene-io/rnagent/cli/config"
	"github.com/pithecene-io/rnagent/cli/render"
	"github.com/pithecene-io/rnagent/cli/tui"
	"github.com/pithecene-io/rnagent/log"
	"github.com/pithecene-io/rnagent/metrics"
	"github.com/pithecene-io/rnagent/runtime"
	"github.com/pithecene-io/rnagent/types"
)

// invokeFunc runs one agent operation.
type invokeFunc func(ctx context.Context, agent *runtime.Agent) (*runtime.RunResult, error)

// prepared holds what an invocation command resolved before it streams.
type prepared struct {
	cfg      *rnconfig.Config
	renderer *render.Renderer
	logger   *log.Logger
}

// prepare loads config, applies flag overrides and builds the renderer.
// Failures map to the pre-stream exit code.
func prepare(c *cli.Context) (*prepared, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), runtime.ExitCodeInvalid)
	}
	if err := applyOverrides(c, cfg); err != nil {
		return nil, cli.Exit(err.Error(), runtime.ExitCodeInvalid)
	}
	r, err := render.NewRenderer(c, c.App.Writer)
	if err != nil {
		return nil, cli.Exit(err.Error(), runtime.ExitCodeInvalid)
	}
	return &prepared{cfg: cfg, renderer: r, logger: log.NewLogger(nil)}, nil
}

// runInvocation wires sinks and an agent for op, runs call, renders the
// report and converts the outcome into a cli.Exit code.
func runInvocation(c *cli.Context, p *prepared, op types.Operation, call invokeFunc) error {
	useTUI := c.Bool("tui")
	logger := p.logger
	newLogger := log.NewLogger
	if useTUI {
		logger = logger.WithOutput(io.Discard)
		newLogger = func(meta *types.InvocationMeta) *log.Logger {
			return log.NewLogger(meta).WithOutput(io.Discard)
		}
	}

	collector := metrics.NewCollector(string(op), "", sinkType(p.cfg.Sink.Type))

	opts := sinkOptions{tui: useTUI}
	if !c.Bool("quiet") {
		opts.stdout = c.App.Writer
	}
	sinks, err := buildSinks(p.cfg.Sink, opts, logger, collector)
	if err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeInvalid)
	}

	agent, err := runtime.NewAgent(runtime.AgentConfig{
		Settings:  p.cfg,
		Sink:      sinks.Sink(),
		NewLogger: newLogger,
		Collector: collector,
	})
	if err != nil {
		_ = sinks.Close()
		return cli.Exit(err.Error(), runtime.ExitCodeInvalid)
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var result *runtime.RunResult
	invoke := func(ctx context.Context) runtime.Outcome {
		var runErr error
		result, runErr = call(ctx, agent)
		if err := sinks.Close(); err != nil {
			logger.Warn("sink close failed", map[string]any{"error": err.Error()})
		}
		return runtime.DetermineOutcome(result, runErr)
	}

	var outcome runtime.Outcome
	if useTUI {
		outcome, err = tui.RunProgress(ctx, string(op), sinks.channel.C(), cancel, invoke)
		if err != nil {
			logger.Warn("live view failed", map[string]any{"error": err.Error()})
		}
	} else {
		outcome = invoke(ctx)
	}

	if err := p.renderer.Render(render.NewReport(result, outcome)); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if outcome.ExitCode != runtime.ExitCodeDone {
		return cli.Exit(outcome.Message, outcome.ExitCode)
	}
	return nil
}

func sinkType(t string) string {
	if t == "" {
		return rnconfig.SinkStdout
	}
	return t
}
