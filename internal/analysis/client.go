// Package analysis is the HTTP client for the remote resume analysis service.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultEndpoint is the public analysis service.
const DefaultEndpoint = "https://career-co-pilot-1.onrender.com/analyze"

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "ats-checker/1.0"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Response is a raw reply from the service. Any status code is a Response, not an error.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	RequestID   string
	Elapsed     time.Duration
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode/100 == 2
}

// Error represents a transport-level failure talking to the service.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analysis request to %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("analysis request to %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Client.
type Options struct {
	Endpoint   string
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client posts submissions to the analysis endpoint.
type Client struct {
	endpoint  *url.URL
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient validates the endpoint and returns a Client. The underlying http.Client has
// no timeout of its own; callers bound requests through the context.
func NewClient(opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: endpoint, Message: "invalid endpoint URL", Cause: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &Error{URL: endpoint, Message: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}

	c := &Client{
		endpoint:  parsed,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		logger:    opts.Logger,
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Endpoint returns the analysis URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Post sends one encoded submission and returns the raw response.
func (c *Client) Post(ctx context.Context, contentType string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.endpoint.String(), contentType, body)
}

// Health is the result of a liveness probe.
type Health struct {
	URL        string
	StatusCode int
	Message    string
	Elapsed    time.Duration
}

// Ping probes the service's home route, which answers with a short liveness text.
// Free-tier hosts sleep when idle, so a slow first Ping is expected.
func (c *Client) Ping(ctx context.Context) (*Health, error) {
	home := *c.endpoint
	home.Path = "/"
	home.RawQuery = ""

	resp, err := c.do(ctx, http.MethodGet, home.String(), "", nil)
	if err != nil {
		return nil, err
	}

	h := &Health{
		URL:        home.String(),
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(resp.Body)),
		Elapsed:    resp.Elapsed,
	}
	if !resp.OK() {
		return h, &Error{URL: h.URL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return h, nil
}

func (c *Client) do(ctx context.Context, method, target, contentType string, body []byte) (*Response, error) {
	reqID := uuid.New().String()
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &Error{URL: target, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Info("analysis.http.request",
		"req_id", reqID,
		"method", method,
		"url", target,
		"content_length", len(body),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("analysis.http.send_error",
			"req_id", reqID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, &Error{URL: target, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Error("analysis.http.read_error", "req_id", reqID, "error", err)
		return nil, &Error{URL: target, Message: "failed to read response body", Cause: err}
	}

	elapsed := time.Since(start)
	c.logger.Info("analysis.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", elapsed.Milliseconds(),
	)

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
		RequestID:   reqID,
		Elapsed:     elapsed,
	}, nil
}
