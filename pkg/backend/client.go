// Package backend talks to the server-side preview processing endpoint. The
// endpoint is an opaque secondary extractor: handlers use it through
// RemoteStrategy when client-side extraction fails.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Response type values returned by the processing endpoint.
const (
	TypeText                  = "text"
	TypeInfo                  = "info"
	TypeError                 = "error"
	TypeProcessingUnavailable = "processing_unavailable"
)

// Response is the endpoint's JSON reply.
type Response struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusError reports a non-2xx reply from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Client uploads blobs to the processing endpoint with bounded retries on
// transient failures.
type Client struct {
	client     *http.Client
	baseURL    string
	maxRetries int
	baseDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithMaxRetries sets the retry budget for transient failures. Negative
// values are treated as zero so the initial attempt always runs.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max < 0 {
			max = 0
		}
		c.maxRetries = max
	}
}

// WithBaseDelay sets the initial retry backoff.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = delay
	}
}

// New creates a Client for the given endpoint URL.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		client:     &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		maxRetries: 2,
		baseDelay:  500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Process uploads the blob and returns the endpoint's typed response. Only
// transport errors and retriable status codes are retried; a well-formed
// error response is returned as-is for the caller to interpret.
func (c *Client) Process(ctx context.Context, blob []byte, fileName, mimeType string) (*Response, error) {
	body, contentType, err := buildForm(blob, fileName, mimeType)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.attempt(ctx, body, contentType)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retriable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("backend unavailable after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) attempt(ctx context.Context, body []byte, contentType string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode backend response: %w", err)
	}

	switch parsed.Type {
	case TypeText, TypeInfo, TypeError, TypeProcessingUnavailable:
		return &parsed, nil
	default:
		return nil, fmt.Errorf("unexpected backend response type %q", parsed.Type)
	}
}

func retriable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	// Transport-level failures are worth one more try.
	return true
}

// buildForm writes the multipart body with the file and mime_type fields.
func buildForm(blob []byte, fileName, mimeType string) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(blob); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("mime_type", mimeType); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}
