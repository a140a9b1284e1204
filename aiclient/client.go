// Package aiclient talks to the SourceMind AI service: project indexing for
// retrieval-augmented generation, inline edits and project questions.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"sourcemind/logging"
)

// DefaultBaseURL is where the service listens by default
const DefaultBaseURL = "http://localhost:8000"

// maxErrorBody bounds how much of an error response is kept in the error text
const maxErrorBody = 512

// ErrUnavailable marks every transport, status and decoding failure. Callers
// surface it uniformly as "AI offline".
var ErrUnavailable = errors.New("AI service unavailable")

// EditRequest is the body of POST /edit_inline
type EditRequest struct {
	Instruction  string `json:"instruction"`
	SelectedCode string `json:"selected_code"`
	FileContext  string `json:"file_context"`
}

type editResponse struct {
	ModifiedCode *string `json:"modified_code"`
}

type indexRequest struct {
	Path string `json:"path"`
}

// IndexResult is the optional body returned by POST /index_project
type IndexResult struct {
	Status       string `json:"status"`
	FilesIndexed int    `json:"files_indexed"`
}

type askRequest struct {
	Prompt      string `json:"prompt"`
	ContextCode string `json:"context_code"`
}

type askResponse struct {
	Response string `json:"response"`
}

// Client is an HTTP client for the AI service
type Client struct {
	baseURL string
	client  *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IndexProject asks the service to (re)index the project at path. The
// response body is informational; a zero IndexResult is returned when the
// service sends none.
func (c *Client) IndexProject(ctx context.Context, path string) (IndexResult, error) {
	var result IndexResult
	if err := c.post(ctx, "/index_project", indexRequest{Path: path}, &result, true); err != nil {
		return IndexResult{}, err
	}
	return result, nil
}

// EditInline sends a selection and instruction, returning the replacement code
func (c *Client) EditInline(ctx context.Context, req EditRequest) (string, error) {
	var resp editResponse
	if err := c.post(ctx, "/edit_inline", req, &resp, false); err != nil {
		return "", err
	}
	if resp.ModifiedCode == nil {
		return "", fmt.Errorf("%w: response has no modified_code", ErrUnavailable)
	}
	return *resp.ModifiedCode, nil
}

// Ask sends a free-form question with the current editor code as context
func (c *Client) Ask(ctx context.Context, prompt, contextCode string) (string, error) {
	var resp askResponse
	if err := c.post(ctx, "/ask", askRequest{Prompt: prompt, ContextCode: contextCode}, &resp, false); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// post sends body as JSON and decodes a 2xx response into out. With
// lenientBody, an empty or undecodable body is accepted.
func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}, lenientBody bool) error {
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx)
	start := time.Now()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("AI service request failed", logging.String("endpoint", endpoint), logging.Err(err))
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Warn("AI service returned error status",
			logging.String("endpoint", endpoint),
			logging.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s returned status %d: %s", ErrUnavailable, endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !lenientBody {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}

	logger.Debug("AI service request completed",
		logging.String("endpoint", endpoint),
		logging.Duration("duration", time.Since(start)))
	return nil
}
