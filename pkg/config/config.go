// Package config loads and validates the preview service configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration for the preview service.
//
// Example:
//
//	server:
//	  host: 0.0.0.0
//	  port: 8085
//	dispatch:
//	  timeout: 30s
//	  health_failure_threshold: 3
//	backend:
//	  url: http://localhost:8002/api/v1/documents/preview
//	logger:
//	  level: info
//	  format: simple
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Dispatch DispatchConfig `yaml:"dispatch,omitempty"`
	Backend  BackendConfig  `yaml:"backend,omitempty"`
	Logger   LoggerConfig   `yaml:"logger,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Host to bind to.
	Host string `yaml:"host,omitempty"`

	// Port to listen on.
	Port int `yaml:"port,omitempty"`

	// MaxUploadBytes caps the request body accepted by the preview endpoint.
	// Default: 100 MiB.
	MaxUploadBytes int64 `yaml:"max_upload_bytes,omitempty"`
}

// DispatchConfig tunes the preview dispatcher and handler pipelines.
type DispatchConfig struct {
	// Timeout bounds a single preview attempt. Default: 30s.
	Timeout Duration `yaml:"timeout,omitempty"`

	// HealthFailureThreshold is the failure count a handler must exceed
	// before it is disabled. Default: 3.
	HealthFailureThreshold int `yaml:"health_failure_threshold,omitempty"`

	// MinUsableContent is the minimum extracted content length a strategy
	// result needs to count as usable. Default: 50.
	MinUsableContent int `yaml:"min_usable_content,omitempty"`

	// SoftSizeLimit is the blob size above which dispatch logs a slow
	// processing warning. Default: 25 MiB.
	SoftSizeLimit int64 `yaml:"soft_size_limit,omitempty"`
}

// BackendConfig configures the optional server-side processing endpoint.
type BackendConfig struct {
	// URL of the processing endpoint. Empty disables remote extraction.
	URL string `yaml:"url,omitempty"`

	// MaxRetries for transient upload failures. Default: 2.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// Timeout for a single upload. Default: 60s.
	Timeout Duration `yaml:"timeout,omitempty"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	// Level specifies the log level (debug, info, warn, error).
	Level string `yaml:"level,omitempty"`

	// File specifies the log file path. Empty logs to stderr.
	File string `yaml:"file,omitempty"`

	// Format is "simple" (level + message) or "verbose" (time + level + message).
	Format string `yaml:"format,omitempty"`
}

// SetDefaults applies default values to the full configuration.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Backend.SetDefaults()
	c.Logger.SetDefaults()
}

// SetDefaults applies server defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8085
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 100 << 20
	}
}

// SetDefaults applies dispatcher defaults.
func (c *DispatchConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = Duration(30 * time.Second)
	}
	if c.HealthFailureThreshold == 0 {
		c.HealthFailureThreshold = 3
	}
	if c.MinUsableContent == 0 {
		c.MinUsableContent = 50
	}
	if c.SoftSizeLimit == 0 {
		c.SoftSizeLimit = 25 << 20
	}
}

// SetDefaults applies backend client defaults.
func (c *BackendConfig) SetDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(60 * time.Second)
	}
}

// SetDefaults applies logger defaults.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// Validate checks the full configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	return nil
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("max_upload_bytes must not be negative")
	}
	return nil
}

// Validate checks the dispatcher configuration.
func (c *DispatchConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.HealthFailureThreshold < 1 {
		return fmt.Errorf("health_failure_threshold must be at least 1, got %d", c.HealthFailureThreshold)
	}
	if c.MinUsableContent < 0 {
		return fmt.Errorf("min_usable_content must not be negative")
	}
	return nil
}

// Validate checks the backend client configuration.
func (c *BackendConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// Validate checks the logger configuration.
func (c *LoggerConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Level)
	}
	switch c.Format {
	case "simple", "verbose":
	default:
		return fmt.Errorf("invalid log format %q", c.Format)
	}
	return nil
}

// Load reads, defaults, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes, applying defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}
