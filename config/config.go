// Package config loads jsrun settings from a YAML file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/jsbridge/errors"
	httpcall "github.com/wippyai/jsbridge/hostcall/http"
)

const (
	// DefaultBaseDir is the configuration directory under $HOME
	DefaultBaseDir = ".jsbridge"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config holds runtime and CLI settings.
type Config struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFormat is console or json
	LogFormat string `yaml:"log_format,omitempty"`

	// UserAgent replaces the default User-Agent header value
	UserAgent string `yaml:"user_agent,omitempty"`

	// DefaultTimeoutMs applies to requests without timeoutMs
	DefaultTimeoutMs uint64 `yaml:"default_timeout_ms,omitempty"`

	// MaxIdleConns caps idle connections kept by the transport
	MaxIdleConns int `yaml:"max_idle_conns,omitempty"`

	HTTP2              bool `yaml:"http2,omitempty"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty"`

	path string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:         "warn",
		LogFormat:        "console",
		UserAgent:        httpcall.DefaultUserAgent,
		DefaultTimeoutMs: httpcall.DefaultTimeoutMs,
	}
}

// DefaultPath returns $HOME/.jsbridge/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Config("failed to get home directory", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// Load reads the config at path, or at DefaultPath when path is empty.
// A missing file yields the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Config("failed to read config", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Config("failed to parse config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to its path.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.Config("config has no path", nil)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Config("failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return errors.Config("failed to create config directory", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return errors.Config("failed to write config", err)
	}
	return nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Validate rejects unknown log levels and formats.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.Config("invalid log_level "+c.LogLevel, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return errors.Config("invalid log_format "+c.LogFormat+" (want console or json)", nil)
	}
	return nil
}

// DefaultTimeout returns DefaultTimeoutMs as a duration.
func (c *Config) DefaultTimeout() time.Duration {
	return httpcall.MillisDuration(c.DefaultTimeoutMs)
}

// Transport returns the transport settings.
func (c *Config) Transport() httpcall.TransportConfig {
	return httpcall.TransportConfig{
		MaxIdleConns:       c.MaxIdleConns,
		HTTP2:              c.HTTP2,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

// Logger builds a zap logger writing to stderr.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Config("invalid log_level "+c.LogLevel, err)
	}

	var zc zap.Config
	if c.LogFormat == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	l, err := zc.Build()
	if err != nil {
		return nil, errors.Config("failed to build logger", err)
	}
	return l, nil
}
