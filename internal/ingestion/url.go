// Package ingestion resolves command-line inputs into transcription work items:
// remote media URLs, single audio files, or directories of audio files.
package ingestion

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidURL is returned when a media URL is malformed or not http(s)
	ErrInvalidURL = fmt.Errorf("invalid URL")
	// ErrUnsupportedFormat is returned when a file is not a supported audio format
	ErrUnsupportedFormat = fmt.Errorf("unsupported audio format")
)

// IsRemoteMedia reports whether input looks like a remote media URL rather than a local path.
func IsRemoteMedia(input string) bool {
	return ValidateMediaURL(input) == nil
}

// ValidateMediaURL checks that raw is an absolute http or https URL with a host.
func ValidateMediaURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https: %q", ErrInvalidURL, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host: %q", ErrInvalidURL, raw)
	}
	return nil
}
