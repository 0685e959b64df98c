// Package client fetches JSON pages from the launch data API with a per-attempt
// timeout, bounded retries, rate limit gating and an optional Redis cache.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/launch-export/pkg/cache"
	"github.com/Sternrassler/launch-export/pkg/logging"
	"github.com/Sternrassler/launch-export/pkg/ratelimit"
)

// Prometheus metrics for API client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launch_export_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "launch_export_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launch_export_errors_total",
		Help: "Total failed API attempts by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launch_export_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "launch_export_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launch_export_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// ErrorClass represents a classification of failed attempts.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 2xx body that is not valid JSON.
	ErrorClassDecode ErrorClass = "decode"
)

// Query parameter names understood by the API.
const (
	ParamKey  = "key"
	ParamPage = "page"
)

// DefaultBaseURL is the public API base.
const DefaultBaseURL = "https://fdo.rocketlaunch.live/json"

// Config holds the client configuration.
type Config struct {
	// BaseURL is prefixed to every endpoint path
	BaseURL string

	// APIKey is sent as the "key" query parameter
	APIKey string

	// UserAgent header value
	UserAgent string

	// Timeout bounds each attempt
	Timeout time.Duration

	// Retry policy
	Retry RetryConfig

	// Cache stores page bodies that decoded as JSON (optional)
	Cache *cache.Manager
}

// DefaultConfig returns the configuration used by the exporter.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		APIKey:    apiKey,
		UserAgent: "launch-export/1.0",
		Timeout:   10 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// Result is the outcome of fetching one page. Err is nil when Body holds a
// valid JSON document; otherwise it wraps ErrRetryExhausted,
// ErrContextCancelled or a non-retriable *APIError.
type Result struct {
	Body      []byte
	Attempts  int
	FromCache bool
	Err       error
}

// OK reports whether the page was fetched.
func (r Result) OK() bool {
	return r.Err == nil
}

// Client is the API client. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	logger := logging.NewLogger("api-client")

	return &Client{
		httpClient:  &http.Client{},
		rateLimiter: ratelimit.NewTracker(logger),
		cache:       cfg.Cache,
		config:      cfg,
		logger:      logger,
	}, nil
}

// FetchPage GETs one page of an endpoint. Endpoint parameters are merged with
// the access key and page number. The returned Result never carries a body
// that failed to decode as JSON.
func (c *Client) FetchPage(ctx context.Context, path string, params url.Values, page int) Result {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	query.Set(ParamKey, c.config.APIKey)
	query.Set(ParamPage, strconv.Itoa(page))

	cacheKey := cache.NewPageKey(path, query)
	if c.cache != nil {
		entry, err := c.cache.Lookup(ctx, cacheKey)
		if err == nil {
			c.logger.Debug().
				Str("endpoint", path).
				Int("page", page).
				Dur("age", entry.Age()).
				Msg("Page served from cache")
			return Result{Body: entry.Body, FromCache: true}
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", path).Msg("Cache lookup error")
		}
	}

	target := strings.TrimRight(c.config.BaseURL, "/") + path + "?" + query.Encode()

	var body []byte
	attempts, err := retryWithBackoff(ctx, c.logger, c.config.Retry, func() error {
		var attemptErr error
		body, attemptErr = c.attempt(ctx, path, target)
		return attemptErr
	}, classOf)

	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("endpoint", path).
			Int("page", page).
			Int("attempts", attempts).
			Msg("Page fetch failed")
		return Result{Attempts: attempts, Err: err}
	}

	if c.cache != nil {
		if err := c.cache.Store(ctx, cacheKey, body); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", path).Msg("Failed to cache page")
		}
	}

	return Result{Body: body, Attempts: attempts}
}

// attempt performs a single GET under its own timeout.
func (c *Client) attempt(ctx context.Context, endpoint, target string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &APIError{ErrorClass: ErrorClassClient, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: redact(err)}
	}
	defer resp.Body.Close()

	c.rateLimiter.UpdateFromResponse(resp.StatusCode, resp.Header)
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "read body", Err: redact(err)}
	}

	if resp.StatusCode >= 400 {
		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("API request error")
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorClass: errClass, Message: resp.Status}
	}

	if !json.Valid(body) {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorClass: ErrorClassDecode, Message: "response is not valid JSON"}
	}

	return body, nil
}

// classifyStatus maps an HTTP error status to an ErrorClass.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// redact strips the request URL, which carries the access key, from
// transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
