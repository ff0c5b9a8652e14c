// Package backend is the HTTP client for the research backend API. All
// heavy lifting (embeddings search, LLM chat, session persistence) lives
// behind this API; the gateway only shapes requests and responses.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/casefold-ai/lexgate/internal/telemetry"
)

// Per-call timeouts. No call is retried; a failure surfaces once.
const (
	defaultTimeout       = 30 * time.Second
	statusTimeout        = 5 * time.Second
	summaryTimeout       = 45 * time.Second
	uploadTimeout        = 45 * time.Second
	resourceCountTimeout = 15 * time.Second
)

// Client issues authenticated calls to the backend API. It is explicitly
// constructed and threaded into handlers; there is no package-level
// state.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	// streamClient has no timeout: the chat stream is unbounded by design.
	streamClient *http.Client
}

// NewClient creates a Client for the given base URL. The static API key,
// when non-empty, is sent as X-API-Key on every request; a per-request
// bearer token is attached by the individual calls.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{},
		streamClient: &http.Client{},
	}
}

// APIError represents a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
}

type requestOptions struct {
	method      string
	path        string
	bearerToken string
	body        interface{}
	query       url.Values
	timeout     time.Duration
}

func (c *Client) do(ctx context.Context, opts requestOptions, out interface{}) error {
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "backend."+opts.path, telemetry.SpanAttributes{
		Operation: opts.method,
	})
	defer span.End()

	req, err := c.newRequest(ctx, opts)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		span.SetStatus(sentry.HTTPtoSpanStatus(resp.StatusCode))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, opts requestOptions) (*http.Request, error) {
	u := c.baseURL + "/" + opts.path
	if len(opts.query) > 0 {
		u += "?" + opts.query.Encode()
	}

	var reqBody io.Reader
	if opts.body != nil {
		jsonData, err := json.Marshal(opts.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, opts.method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if opts.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if opts.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+opts.bearerToken)
	}
	return req, nil
}
