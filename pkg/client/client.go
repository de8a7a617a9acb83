// Package client provides the upstream blog posts HTTP client with rate
// limiting, retries and error classification.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hatchways-assessment/posts-api/pkg/logging"
	"github.com/hatchways-assessment/posts-api/pkg/metrics"
	"github.com/hatchways-assessment/posts-api/pkg/posts"
	"github.com/hatchways-assessment/posts-api/pkg/ratelimit"
)

// Prometheus metrics for upstream client operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "upstream_requests_total",
		Help:      "Total upstream requests by status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream request duration in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "upstream_errors_total",
		Help:      "Total upstream errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public blog posts endpoint.
const DefaultBaseURL = "https://api.hatchways.io/assessment/blog/posts"

// maxErrorBody caps how much of a failed response is read into the error.
const maxErrorBody = 512

// Config holds the client configuration.
type Config struct {
	// BaseURL of the posts endpoint; the tag is added as ?tag=<tag>
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Timeout per attempt (0 = no timeout)
	Timeout time.Duration

	// Retry policy for server, rate limit and network failures
	Retry RetryConfig

	// Limiter gates outgoing requests (nil = unlimited)
	Limiter *ratelimit.Limiter
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   10 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// Client fetches posts from the upstream API. It implements posts.Fetcher.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

var _ posts.Fetcher = (*Client)(nil)

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}
	if baseURL.Host == "" {
		return nil, fmt.Errorf("base url must include a host (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	logger := logging.NewLogger("upstream-client")

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
		config:  cfg,
		logger:  logger,
	}, nil
}

// FetchPosts returns the posts the upstream labels with tag.
func (c *Client) FetchPosts(ctx context.Context, tag string) ([]posts.Post, error) {
	endpoint := c.endpoint(tag)

	var result []posts.Post
	err := retryWithBackoff(ctx, c.config.Retry, c.logger.With().Str("tag", tag).Logger(), func() error {
		var fetchErr error
		result, fetchErr = c.fetchOnce(ctx, endpoint, tag)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	if result == nil {
		result = []posts.Post{}
	}
	return result, nil
}

// endpoint builds the request URL for tag, preserving any query the base URL carries.
func (c *Client) endpoint(tag string) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("tag", tag)
	u.RawQuery = q.Encode()
	return u.String()
}

// fetchOnce performs a single attempt.
func (c *Client) fetchOnce(ctx context.Context, endpoint, tag string) ([]posts.Post, error) {
	// Step 1: Wait for a rate limit token
	if err := c.config.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Step 2: Build the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("tag", tag).
		Str("url", endpoint).
		Msg("Executing upstream request")

	// Step 3: Execute
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	upstreamRequestDuration.Observe(time.Since(startTime).Seconds())

	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		c.logger.Error().Err(err).Str("tag", tag).Msg("Upstream request failed")
		return nil, &UpstreamError{
			Tag:        tag,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	// Step 4: Classify HTTP errors
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errClass := classifyStatus(resp.StatusCode)
		upstreamErrorsTotal.WithLabelValues(string(errClass)).Inc()

		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		c.logger.Warn().
			Str("tag", tag).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Upstream request error")

		message := resp.Status
		if len(snippet) > 0 {
			message = fmt.Sprintf("%s: %s", resp.Status, snippet)
		}
		return nil, &UpstreamError{
			Tag:        tag,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    message,
		}
	}

	// Step 5: Decode; the posts envelope must be present and non-null
	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &UpstreamError{
			Tag:        tag,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "invalid response body",
			Err:        err,
		}
	}
	if body.Posts == nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &UpstreamError{
			Tag:        tag,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "response has no posts field",
		}
	}

	return *body.Posts, nil
}

// envelope distinguishes a missing or null posts field from an empty list.
type envelope struct {
	Posts *[]posts.Post `json:"posts"`
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
