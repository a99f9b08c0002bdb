// Package api is the client for the vocabulary backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kittclouds/constellation/internal/constellation"
	"github.com/kittclouds/constellation/pkg/graph"
)

const (
	// BaseURL is the default backend location.
	BaseURL = "http://localhost:8000/api/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit caps requests per second.
	RateLimit = 5.0

	// GraphPath serves the word/sentence graph.
	GraphPath = "/graph/"

	// ConstellationPath serves the weighted word map.
	ConstellationPath = "/constellation"
)

// TokenSource yields the bearer token for a request; "" sends none.
type TokenSource func(ctx context.Context) (string, error)

// Client is a rate-limited HTTP client for the vocabulary API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	token      TokenSource
	logger     *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sends a fixed bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = func(context.Context) (string, error) { return token, nil }
	}
}

// WithTokenSource sends a token fetched per request.
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) {
		c.token = ts
	}
}

// WithRateLimit overrides RateLimit. Zero or less disables throttling.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new vocabulary API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// GetGraph fetches and validates the full graph.
func (c *Client) GetGraph(ctx context.Context) (graph.Payload, error) {
	body, err := c.get(ctx, GraphPath, nil)
	if err != nil {
		return graph.Payload{}, err
	}

	var p graph.Payload
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &p); err != nil {
			return graph.Payload{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	if err := p.Validate(); err != nil {
		return graph.Payload{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return p, nil
}

// GetConstellation fetches the weighted word map.
func (c *Client) GetConstellation(ctx context.Context, limit, minWeight int) (constellation.Response, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("minWeight", strconv.Itoa(minWeight))

	body, err := c.get(ctx, ConstellationPath, q)
	if err != nil {
		return constellation.Response{}, err
	}
	var resp constellation.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return constellation.Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	c.logger.Printf("GET %s -> %d (%d bytes, %s)", path, resp.StatusCode, len(body), time.Since(start).Round(time.Millisecond))

	if err := checkHTTPErrors(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPErrors turns a non-2xx answer into an APIError, preferring the
// server's "message", then "detail", then a generic status line.
func checkHTTPErrors(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: status, Message: defaultMessage(status)}
	var payload struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &payload) == nil {
		detail := rawText(payload.Detail)
		apiErr.Detail = detail
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case detail != "":
			apiErr.Message = detail
		}
	}
	return apiErr
}

// rawText renders a detail that may be a string or structured JSON.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// UserMessage is the text the view shows for a failed fetch.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
