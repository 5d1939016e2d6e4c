// Package transport provides the HTTP primitive used by the polling client.
//
// It knows the two wire operations of the job server (create job, get
// status) and nothing about retries, breakers, or events; those policies
// live in the jobpulse package. Transport-level failures (connection errors,
// timeouts) are reported in the Response rather than as return values, which
// keeps the caller's classification logic in one place.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits to prevent resource exhaustion under sustained polling
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Response holds the outcome of a single HTTP call to the job server.
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any transport-level failure (connection failure,
	// timeout, body read error). nil indicates the request completed,
	// though StatusCode may still indicate an HTTP-level error.
	Error error
}

// Client is an HTTP client bound to one job server base URL.
//
// The client applies a per-request timeout via context and limits response
// bodies to 1MB. The underlying transport pools connections so repeated
// polls reuse them.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// NewClient creates a transport [Client] for the given base URL.
//
// The timeout bounds each individual request; the overall polling deadline
// is enforced by the caller across iterations. The base URL should not
// include a trailing slash, but one is tolerated.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			// no global timeout - per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
				DisableKeepAlives:   false,
			},
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
	}
}

// CreateJob performs POST /job and returns the raw response.
func (c *Client) CreateJob(ctx context.Context) Response {
	return c.do(ctx, http.MethodPost, c.baseURL+"/job")
}

// GetStatus performs GET /status/{jobID} and returns the raw response.
func (c *Client) GetStatus(ctx context.Context, jobID string) Response {
	return c.do(ctx, http.MethodGet, c.baseURL+"/status/"+url.PathEscape(jobID))
}

// do performs a single HTTP request and returns a structured [Response].
//
// Errors are captured in the Error field rather than returned separately,
// so the caller can always read latency and partial results.
func (c *Client) do(ctx context.Context, method, target string) Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// read body with size limit
	limitedReader := io.LimitReader(resp.Body, maxResponseBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
