package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/whisper-client/internal/schemas"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"service_url": "http://transcriber.internal:8080",
		"poll_interval": "2s",
		"max_poll_duration": "30m",
		"retry": {"max_attempts": 5, "base_delay": 0.5, "multiplier": 1.5},
		"audio_format": "wav"
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "http://transcriber.internal:8080", cfg.ServiceURL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval.Duration)
	assert.Equal(t, 30*time.Minute, cfg.MaxPollDuration.Duration)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Delay())
	assert.Equal(t, "wav", cfg.AudioFormat)
	assert.Empty(t, cfg.Downloader)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"audio_format": "aiff", "colour": "blue"}`), 0644))

	_, err := LoadConfig(tmpFile)
	require.Error(t, err)
	var validationErr *schemas.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
	require.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NoError(t, schemas.ValidateConfig(data), "written defaults must satisfy the schema")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "5s", raw["poll_interval"])
	assert.Equal(t, "1h0m0s", raw["upload_timeout"])

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, *cfg, *again)
}

func TestLoad_MergesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"service_url": "https://asr.example.com"}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://asr.example.com", cfg.ServiceURL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval.Duration)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "ffmpeg", cfg.Converter)
	assert.Zero(t, cfg.MaxPollDuration.Duration)
	assert.Equal(t, time.Second, cfg.Retry.Delay())
}

func TestLoad_ZeroBaseDelayIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"service_url": "https://asr.example.com", "retry": {"max_attempts": 4, "base_delay": 0, "multiplier": 2}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Retry.BaseDelay)
	assert.Zero(t, cfg.Retry.Delay())
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing url", func(c *Config) { c.ServiceURL = "" }, "ServiceURL"},
		{"bad url", func(c *Config) { c.ServiceURL = "not a url" }, "ServiceURL"},
		{"zero poll interval", func(c *Config) { c.PollInterval = Duration{} }, "poll_interval"},
		{"negative deadline", func(c *Config) { c.MaxPollDuration = Duration{-time.Second} }, "max_poll_duration"},
		{"retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "MaxAttempts"},
		{"multiplier", func(c *Config) { c.Retry.Multiplier = 0.5 }, "Multiplier"},
		{"negative base delay", func(c *Config) { c.Retry.BaseDelay = &Duration{-time.Second} }, "retry.base_delay"},
		{"format", func(c *Config) { c.AudioFormat = "aiff" }, "AudioFormat"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"template", func(c *Config) { c.ReportTemplate = "/nonexistent/report.tmpl" }, "report template not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{
		ServiceURL:   "http://other:1234",
		PollInterval: Seconds(1),
	}

	result := cfg.MergeWithDefaults(DefaultConfig())

	assert.Equal(t, "http://other:1234", result.ServiceURL)
	assert.Equal(t, time.Second, result.PollInterval.Duration)
	assert.Equal(t, 30*time.Second, result.RequestTimeout.Duration)
	assert.Equal(t, 2.0, result.Retry.Multiplier)
	assert.Equal(t, time.Second, result.Retry.Delay())
	assert.Equal(t, "yt-dlp", result.Downloader)
	assert.Equal(t, "info", result.LogLevel)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{ServiceURL: "http://x"}
	result := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, "http://x", result.ServiceURL)
	assert.Empty(t, result.Downloader)
	assert.Zero(t, result.Retry.MaxAttempts)
	assert.Nil(t, result.Retry.BaseDelay)
}

func TestMergeWithDefaults_ExplicitZeroBaseDelay(t *testing.T) {
	cfg := Config{Retry: RetryConfig{BaseDelay: &Duration{}}}
	defaults := DefaultConfig()

	result := cfg.MergeWithDefaults(defaults)
	require.NotNil(t, result.Retry.BaseDelay)
	assert.Zero(t, result.Retry.Delay())
	assert.Equal(t, time.Second, defaults.Retry.Delay(), "defaults must not be aliased")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvServiceURL:   "http://gpu-box:9673",
		EnvPollInterval: "250ms",
		EnvLogLevel:     "debug",
		EnvMaxAttempts:  "7",
	}
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "http://gpu-box:9673", cfg.ServiceURL)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval.Duration)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(func(k string) string {
		if k == EnvPollInterval {
			return "soon"
		}
		return ""
	})
	assert.ErrorContains(t, err, EnvPollInterval)
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Duration)

	require.NoError(t, json.Unmarshal([]byte(`2.5`), &d))
	assert.Equal(t, 2500*time.Millisecond, d.Duration)

	assert.Error(t, json.Unmarshal([]byte(`"later"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Seconds(5))
	require.NoError(t, err)
	assert.Equal(t, `"5s"`, string(out))
}
