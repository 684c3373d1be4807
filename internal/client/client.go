// Package client is the typed HTTP client for the remote transcription job API.
// Every call retries connection-class failures under a RetryPolicy and is
// cancellable through its context.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/whisper-client/internal/ingestion"
	"github.com/jonathan/whisper-client/internal/interrupt"
	"github.com/jonathan/whisper-client/internal/observability"
	"github.com/jonathan/whisper-client/internal/types"
)

// DefaultTimeout bounds status, list and terminate requests.
const DefaultTimeout = 30 * time.Second

// DefaultUploadTimeout bounds a single upload attempt.
const DefaultUploadTimeout = time.Hour

// HealthTimeout bounds the health check.
const HealthTimeout = 5 * time.Second

// maxErrorBody caps how much of an error response is quoted in messages.
const maxErrorBody = 512

// Options configures the client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	UploadTimeout time.Duration
	Retry         RetryPolicy
	HTTPClient    *http.Client
	Logger        logrus.FieldLogger
}

// DefaultOptions returns sensible defaults for talking to a local service.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:       "http://localhost:9673",
		Timeout:       DefaultTimeout,
		UploadTimeout: DefaultUploadTimeout,
		Retry:         DefaultRetryPolicy(),
	}
}

// Client talks to the transcription service.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	timeout       time.Duration
	uploadTimeout time.Duration
	retry         RetryPolicy
	log           logrus.FieldLogger
	sleep         sleepFunc
}

// New creates a client. A nil opts uses DefaultOptions.
func New(opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}

	return &Client{
		baseURL:       base,
		http:          httpClient,
		timeout:       timeout,
		uploadTimeout: uploadTimeout,
		retry:         opts.Retry,
		log:           observability.OrDiscard(opts.Logger),
		sleep:         interrupt.Sleep,
	}, nil
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	u := *c.baseURL
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.Join(parts, "/")
	return u.String()
}

// Health checks that the service answers. It makes a single attempt.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, "health", HealthTimeout, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("health"), nil)
	}, nil)
}

// Submit uploads the audio file at path and returns the service's first view of the new job.
func (c *Client) Submit(ctx context.Context, path string) (*types.JobSnapshot, error) {
	const op = "submit"

	mimeType, err := validateUpload(path)
	if err != nil {
		return nil, &RequestError{Op: op, Kind: ErrValidation, Message: err.Error()}
	}

	var snap types.JobSnapshot
	err = withRetry(ctx, c.retry, c.sleep, c.log, op, func(ctx context.Context) error {
		return c.call(ctx, op, c.uploadTimeout, func(ctx context.Context) (*http.Request, error) {
			return c.newUploadRequest(ctx, path, mimeType)
		}, &snap)
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(snap.JobID) == "" {
		return nil, &RequestError{Op: op, Kind: ErrUnexpectedResponse, Message: "response carried no job id"}
	}

	c.log.WithFields(logrus.Fields{"job_id": snap.JobID, "file": filepath.Base(path)}).Debug("Submitted job")
	return &snap, nil
}

// Status returns the current snapshot of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*types.JobSnapshot, error) {
	var snap types.JobSnapshot
	err := c.do(ctx, "status", http.MethodGet, c.endpoint("status", jobID), &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Terminate asks the service to stop a job.
func (c *Client) Terminate(ctx context.Context, jobID string) (*types.JobSnapshot, error) {
	var snap types.JobSnapshot
	err := c.do(ctx, "terminate", http.MethodDelete, c.endpoint("jobs", jobID), &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// List returns every job the service knows about.
func (c *Client) List(ctx context.Context) ([]types.JobSnapshot, error) {
	var jobs []types.JobSnapshot
	err := c.do(ctx, "list", http.MethodGet, c.endpoint("jobs"), &jobs)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// do performs a body-less request under the retry policy.
func (c *Client) do(ctx context.Context, op, method, target string, out any) error {
	return withRetry(ctx, c.retry, c.sleep, c.log, op, func(ctx context.Context) error {
		return c.call(ctx, op, c.timeout, func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, method, target, nil)
		}, out)
	})
}

// call performs exactly one HTTP exchange and classifies its failure.
func (c *Client) call(ctx context.Context, op string, timeout time.Duration, build func(context.Context) (*http.Request, error), out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := build(reqCtx)
	if err != nil {
		return &RequestError{Op: op, Kind: ErrValidation, Message: "failed to create request", Cause: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")

	c.log.WithFields(logrus.Fields{"op": op, "request_id": requestID}).Debugf("%s %s", req.Method, req.URL)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w: %w", op, types.ErrCancelled, ctx.Err())
		}
		return &RequestError{Op: op, Kind: ErrServiceUnreachable, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w: %w", op, types.ErrCancelled, ctx.Err())
		}
		return &RequestError{Op: op, Kind: ErrServiceUnreachable, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if kind := classifyStatus(resp.StatusCode); kind != nil {
		return &RequestError{Op: op, Kind: kind, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{Op: op, Kind: ErrUnexpectedResponse, StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// classifyStatus maps a non-success HTTP status onto an error kind; nil means success.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrJobNotFound
	case code == http.StatusBadGateway, code == http.StatusServiceUnavailable, code == http.StatusGatewayTimeout:
		return ErrServiceUnreachable
	case code >= 400 && code < 500:
		return ErrValidation
	default:
		return ErrUnexpectedResponse
	}
}

// errorMessage extracts a readable message from an error body, preferring a JSON "detail" or "message".
func errorMessage(body []byte) string {
	var payload struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}

// validateUpload checks the file locally before any network traffic.
func validateUpload(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file does not exist: %s", path)
		}
		return "", fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", path)
	}
	return ingestion.AudioMIMEType(path)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// newUploadRequest streams path as the multipart field "file". The file is reopened per attempt.
func (c *Client) newUploadRequest(ctx context.Context, path, mimeType string) (*http.Request, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer func() { _ = file.Close() }()

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(path))))
		header.Set("Content-Type", mimeType)

		part, err := mw.CreatePart(header)
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("transcribe")+"/", pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}
