package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/rnagent/assets"
	rnconfig "github.com/pithecene-io/rnagent/cli/config"
)

// defaultConfigPath is read when present; an explicit --config must exist.
const defaultConfigPath = "rnagent.yaml"

// loadConfig loads the config file named by --config. A missing default
// file yields an empty config.
func loadConfig(c *cli.Context) (*rnconfig.Config, error) {
	path := c.String("config")
	if path == "" {
		return &rnconfig.Config{}, nil
	}
	if !c.IsSet("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return &rnconfig.Config{}, nil
		}
	}
	return rnconfig.Load(path)
}

// applyOverrides folds explicitly set CLI flags into cfg. CLI flags always
// win over config values; config values win over flag defaults.
func applyOverrides(c *cli.Context, cfg *rnconfig.Config) error {
	cfg.APIURL = resolveString(c, "api-url", cfg.APIURL)
	cfg.HTTP.ConnectTimeout.Duration = resolveDuration(c, "connect-timeout", cfg.HTTP.ConnectTimeout.Duration)
	cfg.HTTP.Timeout.Duration = resolveDuration(c, "timeout", cfg.HTTP.Timeout.Duration)

	cfg.Sink.Type = resolveString(c, "sink", cfg.Sink.Type)
	cfg.Sink.URL = resolveString(c, "sink-url", cfg.Sink.URL)
	cfg.Sink.Channel = resolveString(c, "sink-channel", cfg.Sink.Channel)
	cfg.Sink.Encoding = resolveString(c, "sink-encoding", cfg.Sink.Encoding)
	cfg.Sink.Buffer = resolveInt(c, "sink-buffer", cfg.Sink.Buffer)

	cfg.Storage.Backend = resolveString(c, "storage-backend", cfg.Storage.Backend)
	cfg.Storage.Path = resolveString(c, "storage-path", cfg.Storage.Path)
	cfg.Storage.Region = resolveString(c, "storage-region", cfg.Storage.Region)
	if cfg.Storage.Backend == "s3" && cfg.Storage.Bucket == "" && cfg.Storage.Path != "" {
		cfg.Storage.Bucket, cfg.Storage.Prefix = assets.ParseS3Path(cfg.Storage.Path)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// resolveString returns the CLI value if the flag was set, else the config
// value if non-empty, else the flag default.
func resolveString(c *cli.Context, name, configValue string) string {
	if c.IsSet(name) || configValue == "" {
		return c.String(name)
	}
	return configValue
}

// resolveInt follows resolveString precedence; zero means unset in config.
func resolveInt(c *cli.Context, name string, configValue int) int {
	if c.IsSet(name) || configValue == 0 {
		return c.Int(name)
	}
	return configValue
}

// resolveDuration follows resolveString precedence; zero means unset in config.
func resolveDuration(c *cli.Context, name string, configValue time.Duration) time.Duration {
	if c.IsSet(name) || configValue == 0 {
		return c.Duration(name)
	}
	return configValue
}
