// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/whisper-client/internal/schemas"
)

// Environment variables that override the config file.
const (
	EnvServiceURL   = "WHISPER_SERVICE_URL"
	EnvPollInterval = "WHISPER_POLL_INTERVAL"
	EnvLogLevel     = "WHISPER_LOG_LEVEL"
	EnvMaxAttempts  = "WHISPER_RETRY_MAX_ATTEMPTS"
)

// RetryConfig mirrors the transport retry policy. BaseDelay is a pointer so an
// explicit zero (retry immediately) is told apart from an omitted value.
type RetryConfig struct {
	MaxAttempts int       `json:"max_attempts" validate:"gte=1,lte=10"`
	BaseDelay   *Duration `json:"base_delay,omitempty"`
	Multiplier  float64   `json:"multiplier" validate:"gte=1"`
}

// Delay returns the configured base delay, zero when unset.
func (r RetryConfig) Delay() time.Duration {
	if r.BaseDelay == nil {
		return 0
	}
	return r.BaseDelay.Duration
}

// Config represents the CLI configuration stored as JSON in the user's config directory.
// Missing values are filled from DefaultConfig.
type Config struct {
	ServiceURL      string      `json:"service_url" validate:"required,url"`
	PollInterval    Duration    `json:"poll_interval"`
	MaxPollDuration Duration    `json:"max_poll_duration"` // zero means poll until a terminal state
	RequestTimeout  Duration    `json:"request_timeout"`
	UploadTimeout   Duration    `json:"upload_timeout"`
	Retry           RetryConfig `json:"retry"`

	Downloader     string `json:"downloader" validate:"required"`
	Converter      string `json:"converter" validate:"required"`
	AudioFormat    string `json:"audio_format" validate:"required,oneof=mp3 wav m4a ogg flac"`
	ReportTemplate string `json:"report_template,omitempty"` // optional text/template file for reports

	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() Config {
	return Config{
		ServiceURL:     "http://localhost:9673",
		PollInterval:   Seconds(5),
		RequestTimeout: Seconds(30),
		UploadTimeout:  Duration{time.Hour},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   &Duration{time.Second},
			Multiplier:  2,
		},
		Downloader:  "yt-dlp",
		Converter:   "ffmpeg",
		AudioFormat: "mp3",
		LogLevel:    "info",
	}
}

// DefaultPath returns ~/.config/whisper-client/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "whisper-client", "config.json"), nil
}

// Load reads the config at path, creating it with defaults when it does not
// exist. An empty path uses DefaultPath. The result is merged with defaults
// and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(DefaultConfig())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read, parsed, or does not match the schema.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := schemas.ValidateConfig(data); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the configuration as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.PollInterval.Duration <= 0 {
		return fmt.Errorf("config error: 'poll_interval' must be positive")
	}
	if c.MaxPollDuration.Duration < 0 {
		return fmt.Errorf("config error: 'max_poll_duration' must be non-negative")
	}
	if c.RequestTimeout.Duration < 0 || c.UploadTimeout.Duration < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}
	if c.Retry.Delay() < 0 {
		return fmt.Errorf("config error: 'retry.base_delay' must be non-negative")
	}

	if c.ReportTemplate != "" {
		if _, err := os.Stat(c.ReportTemplate); os.IsNotExist(err) {
			return fmt.Errorf("config error: report template not found: %s", c.ReportTemplate)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
// MaxPollDuration is left alone since zero is meaningful, and Retry.BaseDelay is
// only filled when it was omitted.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.ServiceURL == "" {
		result.ServiceURL = defaults.ServiceURL
	}
	if result.Downloader == "" {
		result.Downloader = defaults.Downloader
	}
	if result.Converter == "" {
		result.Converter = defaults.Converter
	}
	if result.AudioFormat == "" {
		result.AudioFormat = defaults.AudioFormat
	}
	if result.ReportTemplate == "" {
		result.ReportTemplate = defaults.ReportTemplate
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Durations: use default if zero
	if result.PollInterval.Duration == 0 {
		result.PollInterval = defaults.PollInterval
	}
	if result.RequestTimeout.Duration == 0 {
		result.RequestTimeout = defaults.RequestTimeout
	}
	if result.UploadTimeout.Duration == 0 {
		result.UploadTimeout = defaults.UploadTimeout
	}

	// Retry policy
	if result.Retry.MaxAttempts == 0 {
		result.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if result.Retry.BaseDelay == nil && defaults.Retry.BaseDelay != nil {
		delay := *defaults.Retry.BaseDelay
		result.Retry.BaseDelay = &delay
	}
	if result.Retry.Multiplier == 0 {
		result.Retry.Multiplier = defaults.Retry.Multiplier
	}

	return result
}

// ApplyEnv overrides fields from environment variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvServiceURL); v != "" {
		c.ServiceURL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvPollInterval, err)
		}
		c.PollInterval = Duration{d}
	}
	if v := getenv(EnvMaxAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvMaxAttempts, err)
		}
		c.Retry.MaxAttempts = n
	}
	return nil
}
