// Package backend provides the HTTP client for the analytics backend API.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/repovista/repovista/internal/config"
	"github.com/repovista/repovista/internal/log"
)

// TokenSource supplies the current bearer token. The token is read at call
// time on every request, never cached across calls, so a login or logout
// takes effect immediately.
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func() string

// Token returns the current bearer token.
func (f TokenSourceFunc) Token() string { return f() }

// noToken is the TokenSource used when none is configured.
var noToken = TokenSourceFunc(func() string { return "" })

// APIError is a non-2xx backend response, carrying the human-readable
// message extracted from the body (or a synthesized fallback).
type APIError struct {
	status  int
	message string
}

// Error returns the extracted message.
func (e *APIError) Error() string { return e.message }

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int { return e.status }

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.status == http.StatusNotFound
}

// errorBody is the backend's error envelope. Either field may carry the
// message; "error" wins when both are present.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client issues authenticated JSON requests against the backend API.
// Failures are logged and returned; no retries happen at this layer —
// resilience lives in the caller's polling and cache-freshness policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) { c.tokens = ts }
}

// WithRateLimit caps outbound requests per second. This dampens refetch
// storms from interleaved pollers; it is not a retry mechanism.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: config.DefaultRequestTimeout},
		tokens:     noToken,
		limiter:    rate.NewLimiter(rate.Limit(config.DefaultRateLimitPerSec), int(config.DefaultRateLimitPerSec)+1),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
// Both body and out may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	requestID := log.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	// Read the token at call time so login/logout between calls is honored.
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.errorFromResponse(resp)
		c.logger.Error("backend request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}

	// Empty and non-JSON bodies (204 and friends) resolve to the zero value.
	if resp.StatusCode == http.StatusNoContent || !isJSON(resp.Header.Get("Content-Type")) {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorFromResponse extracts the failure message from the body's "error" or
// "message" field, falling back to "HTTP {status}".
func (c *Client) errorFromResponse(resp *http.Response) *APIError {
	message := fmt.Sprintf("HTTP %d", resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(raw) > 0 {
		var body errorBody
		if json.Unmarshal(raw, &body) == nil {
			if body.Error != "" {
				message = body.Error
			} else if body.Message != "" {
				message = body.Message
			}
		}
	}

	return &APIError{status: resp.StatusCode, message: message}
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}
