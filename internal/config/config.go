package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen          = ":8080"
	DefaultURL             = "http://192.168.1.146:8888/abfuhrtermine.ics"
	DefaultStartDay        = 0
	DefaultEndDay          = 2
	DefaultFetchTimeout    = 15
	DefaultShutdownTimeout = 5
	DefaultLogLevel        = "info"
	DefaultMetricsPath     = "/metrics"

	// MetricsDisabled as metrics_path turns the /metrics endpoint off.
	MetricsDisabled = "-"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address. An empty host binds all interfaces.
	Listen string `yaml:"listen" json:"listen"`

	// DefaultURL is the calendar feed used when a request has no url parameter.
	DefaultURL string `yaml:"default_url" json:"default_url"`

	// DefaultStartDay / DefaultEndDay are the day offsets used when a request
	// omits start / end.
	DefaultStartDay int `yaml:"default_start_day" json:"default_start_day"`
	DefaultEndDay   int `yaml:"default_end_day" json:"default_end_day"`

	// FetchTimeoutSeconds bounds a single upstream calendar fetch.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" json:"fetch_timeout_seconds"`

	// ShutdownTimeoutSeconds is the grace period for in-flight requests on
	// SIGINT/SIGTERM.
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds" json:"shutdown_timeout_seconds"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// MetricsPath is where Prometheus metrics are served. "-" disables it.
	MetricsPath string `yaml:"metrics_path" json:"metrics_path"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                 DefaultListen,
		DefaultURL:             DefaultURL,
		DefaultStartDay:        DefaultStartDay,
		DefaultEndDay:          DefaultEndDay,
		FetchTimeoutSeconds:    DefaultFetchTimeout,
		ShutdownTimeoutSeconds: DefaultShutdownTimeout,
		LogLevel:               DefaultLogLevel,
		MetricsPath:            DefaultMetricsPath,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly. The default window gets
// the same clamping a request does.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.DefaultURL == "" {
		c.DefaultURL = DefaultURL
	}
	if c.DefaultStartDay < 0 {
		c.DefaultStartDay = 0
	}
	if c.DefaultEndDay <= c.DefaultStartDay {
		c.DefaultEndDay = c.DefaultStartDay + 1
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = DefaultFetchTimeout
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = DefaultShutdownTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
}

// FetchTimeout returns FetchTimeoutSeconds as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns ShutdownTimeoutSeconds as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// MetricsEnabled reports whether the metrics endpoint should be mounted.
func (c *Config) MetricsEnabled() bool {
	return c.MetricsPath != MetricsDisabled
}

// SetPort replaces the port of Listen, keeping its host part.
func (c *Config) SetPort(port string) error {
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("invalid port %q: %w", port, err)
	}
	host, _, err := net.SplitHostPort(c.Listen)
	if err != nil {
		host = ""
	}
	c.Listen = net.JoinHostPort(host, port)
	return nil
}

// ApplyEnv overrides fields from the environment:
//   - PORT replaces the listen port
//   - CALFILTER_DEFAULT_URL replaces DefaultURL
//   - CALFILTER_LOG_LEVEL replaces LogLevel
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		if err := c.SetPort(port); err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
	}
	if u := os.Getenv("CALFILTER_DEFAULT_URL"); u != "" {
		c.DefaultURL = u
	}
	if lvl := os.Getenv("CALFILTER_LOG_LEVEL"); lvl != "" {
		c.LogLevel = lvl
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If path is empty, the defaults are returned and nothing is written.
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal over DefaultConfig
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Keys missing from the file keep their defaults.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calfilter-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
