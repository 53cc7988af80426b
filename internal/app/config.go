package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/specialistvlad/assetgrid/internal/builder"
	"github.com/specialistvlad/assetgrid/internal/params"
)

// Tracker store formats.
const (
	TrackerHCL    = "hcl"
	TrackerSQLite = "sqlite"
)

// Config holds all the necessary configuration for an App instance to run.
// Environment variables fill it first; command line flags override them.
type Config struct {
	ManifestPath  string   `env:"ASSETGRID_MANIFEST" envDefault:"assets.hcl"`
	ContentRoot   string   `env:"ASSETGRID_CONTENT_ROOT"`
	OutputPath    string   `env:"ASSETGRID_OUTPUT" envDefault:"build"`
	TrackerPath   string   `env:"ASSETGRID_TRACKER"`
	TrackerFormat string   `env:"ASSETGRID_TRACKER_FORMAT" envDefault:"hcl"`
	Platform      string   `env:"ASSETGRID_PLATFORM"`
	Parameters    []string `env:"ASSETGRID_PARAMETERS" envSeparator:","`

	Workers             int  `env:"ASSETGRID_WORKERS"`
	FailFast            bool `env:"ASSETGRID_FAIL_FAST"`
	Force               bool `env:"ASSETGRID_FORCE"`
	LegacyParameterHash bool `env:"ASSETGRID_LEGACY_PARAMETER_HASH"`

	LogFormat    string `env:"ASSETGRID_LOG_FORMAT" envDefault:"text"`
	LogLevel     string `env:"ASSETGRID_LOG_LEVEL" envDefault:"info"`
	StatusPort   int    `env:"ASSETGRID_STATUS_PORT"`
	FeedURL      string `env:"ASSETGRID_FEED_URL"`
	OTelEndpoint string `env:"ASSETGRID_OTEL_ENDPOINT"`
}

// ConfigFromEnv loads configuration from environment variables.
func ConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.ManifestPath == "" {
		errs = append(errs, errors.New("manifest path must not be empty"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, errors.New("invalid log-format: must be 'text' or 'json'"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "verbose", "info", "warn", "error":
	default:
		errs = append(errs, errors.New("invalid log-level: must be 'debug', 'verbose', 'info', 'warn', or 'error'"))
	}
	switch c.TrackerFormat {
	case TrackerHCL, TrackerSQLite:
	default:
		errs = append(errs, fmt.Errorf("invalid tracker-format %q: must be '%s' or '%s'", c.TrackerFormat, TrackerHCL, TrackerSQLite))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must not be negative"))
	}
	if c.StatusPort < 0 || c.StatusPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid status-port %d", c.StatusPort))
	}
	if _, err := c.BuildParameters(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BuildParameters turns the "key=value" parameter list and the platform into
// the flat build parameter set. Platform wins over a Platform=... entry.
func (c *Config) BuildParameters() (*params.Set, error) {
	set := params.NewSet()
	for _, kv := range c.Parameters {
		if strings.TrimSpace(kv) == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid build parameter %q: expected key=value", kv)
		}
		set.Set(k, params.String(strings.TrimSpace(v)))
	}
	if c.Platform != "" {
		set.Set(builder.DefaultBundleKey, params.String(c.Platform))
	}
	return set, nil
}

// HashMode returns the parameter hash mode selected by the configuration.
func (c *Config) HashMode() params.HashMode {
	if c.LegacyParameterHash {
		return params.HashInsertionOrder
	}
	return params.HashSorted
}

// trackerPath returns the configured tracker location or the default one
// inside the content root.
func (c *Config) trackerPath(contentRoot string) string {
	if c.TrackerPath != "" {
		return c.TrackerPath
	}
	name := "tracker.hcl"
	if c.TrackerFormat == TrackerSQLite {
		name = "tracker.db"
	}
	return filepath.Join(contentRoot, ".assetgrid", name)
}
