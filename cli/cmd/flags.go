// Package cmd provides CLI commands for the rnagent binary.
package cmd

import (
	"time"

	"github.com/urfave/cli/v2"
)

// Shared flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// TUIFlag enables the Bubble Tea live view.
	// Only valid for commands that open a stream (scaffold, edit).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Show a live progress view (scaffold, edit only)",
	}

	// ConfigFlag points at an rnagent.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file",
		Value:   defaultConfigPath,
		EnvVars: []string{"RNAGENT_CONFIG"},
	}
)

// ReadOnlyFlags returns the shared flags for commands that do not stream.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		TUIFlag,
	}
}

// InvocationFlags returns the flags shared by scaffold and edit.
func InvocationFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		FormatFlag,
		TUIFlag,
		&cli.StringFlag{
			Name:     "project",
			Aliases:  []string{"p"},
			Usage:    "Project directory (must exist)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "Generation service base URL (overrides api_url)",
			EnvVars: []string{"RNAGENT_API_URL"},
		},
		&cli.DurationFlag{
			Name:  "connect-timeout",
			Usage: "Connect timeout (overrides http.connect_timeout)",
			Value: 10 * time.Second,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Overall request timeout (overrides http.timeout)",
			Value: 300 * time.Second,
		},
		&cli.StringFlag{
			Name:  "sink",
			Usage: "Extra event sink: webhook or redis (overrides sink.type)",
		},
		&cli.StringFlag{
			Name:  "sink-url",
			Usage: "Webhook endpoint or Redis URL (overrides sink.url)",
		},
		&cli.StringFlag{
			Name:  "sink-channel",
			Usage: "Redis channel (overrides sink.channel)",
		},
		&cli.StringFlag{
			Name:  "sink-encoding",
			Usage: "Sink encoding: json or msgpack (overrides sink.encoding)",
		},
		&cli.IntFlag{
			Name:  "sink-buffer",
			Usage: "Sink queue depth (overrides sink.buffer)",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Do not stream events to stdout",
		},
	}
}

// StorageFlags returns the asset storage flags.
func StorageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Asset storage backend: fs or s3 (overrides storage.backend)",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Asset storage path (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for S3 backend (optional, uses default chain)",
		},
	}
}
