package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSchema_IsValidJSON(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal(ConfigSchema(), &doc))
	assert.Equal(t, "object", doc["type"])
}

func TestValidateConfig_Valid(t *testing.T) {
	doc := `{
		"service_url": "http://localhost:9673",
		"poll_interval": "5s",
		"max_poll_duration": 0,
		"request_timeout": "30s",
		"upload_timeout": "1h",
		"retry": {"max_attempts": 3, "base_delay": "1s", "multiplier": 2},
		"downloader": "yt-dlp",
		"converter": "ffmpeg",
		"audio_format": "mp3",
		"log_level": "info"
	}`
	assert.NoError(t, ValidateConfig([]byte(doc)))
}

func TestValidateConfig_EmptyObject(t *testing.T) {
	assert.NoError(t, ValidateConfig([]byte(`{}`)))
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"wrong scheme", `{"service_url": "ftp://host"}`, "service_url"},
		{"bad duration", `{"poll_interval": "five seconds"}`, "poll_interval"},
		{"negative duration", `{"poll_interval": -1}`, "poll_interval"},
		{"unknown format", `{"audio_format": "aiff"}`, "audio_format"},
		{"retry attempts", `{"retry": {"max_attempts": 0}}`, "retry.max_attempts"},
		{"unknown key", `{"servce_url": "http://x"}`, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig([]byte(tt.doc))
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.NotEmpty(t, validationErr.Errors)

			fields := make([]string, len(validationErr.Errors))
			for i, fe := range validationErr.Errors {
				fields[i] = fe.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidateConfig_Malformed(t *testing.T) {
	err := ValidateConfig([]byte(`{ invalid json }`))
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "x"}`))

	err := ValidateJSONString(schema, `{"name": 1}`)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Errors[0].Field)
	assert.Contains(t, err.Error(), "validation failed")
}
