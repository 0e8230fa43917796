// Package httpclient provides the HTTP client used by API collectors: retry with
// exponential backoff, client-side rate limiting and JSON helpers.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"phineas/internal/platform/cache"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/logx"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "PHINEAS-OSINT"

// Client is an HTTP client with retry logic, rate limiting, and timeout support.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      logx.Logger
	config      Config
	cache       *cache.LRU[[]byte]
}

// Config holds the configuration for the HTTP client.
type Config struct {
	// Timeout is the per-request timeout duration.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for transient failures.
	// Default: 2
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries.
	// Backoff increases exponentially with each retry.
	// Default: 1 second
	RetryBackoff time.Duration

	// MaxRetryBackoff is the maximum backoff duration between retries.
	// Default: 30 seconds
	MaxRetryBackoff time.Duration

	// UserAgent is the User-Agent header value.
	// Default: "PHINEAS-OSINT"
	UserAgent string

	// RateLimit is the maximum requests per second.
	// 0 means no rate limiting.
	RateLimit float64

	// RateLimitBurst is the burst size for rate limiting.
	// Default: 1
	RateLimitBurst int

	// CacheTTL keeps successful GetJSON bodies in memory for this long.
	// 0 disables the response cache.
	CacheTTL time.Duration

	// CacheSize is the maximum number of cached responses.
	// Default: cache.DefaultCapacity
	CacheSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    1 * time.Second,
		MaxRetryBackoff: 30 * time.Second,
		UserAgent:       DefaultUserAgent,
		RateLimitBurst:  1,
	}
}

// New creates a new HTTP client with the given configuration.
func New(config Config, logger logx.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 1 * time.Second
	}
	if config.MaxRetryBackoff == 0 {
		config.MaxRetryBackoff = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = 1
	}
	if logger == nil {
		logger = logx.NewNop()
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimitBurst)
	}

	var responses *cache.LRU[[]byte]
	if config.CacheTTL > 0 {
		responses = cache.New[[]byte](config.CacheSize, config.CacheTTL)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: limiter,
		logger:      logger.With("component", "httpclient"),
		config:      config,
		cache:       responses,
	}
}

// Request performs an HTTP request with retry logic and rate limiting.
// body must be nil for requests that may be retried with a payload; retries
// re-send only bodiless requests.
func (c *Client) Request(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	var lastErr error

	maxRetries := c.config.MaxRetries
	if body != nil {
		maxRetries = 0
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return nil, errors.Wrap(err, "rate limit wait failed")
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "build request %s %s: %v", method, url, err)
		}

		req.Header.Set("User-Agent", c.config.UserAgent)
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		c.logger.Debug("HTTP request", "method", method, "url", url, "attempt", attempt+1)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("HTTP request failed",
				"method", method,
				"url", url,
				"attempt", attempt+1,
				"error", err.Error(),
				"duration_ms", duration.Milliseconds(),
			)
			lastErr = errors.Wrap(errors.ErrConnectionFailed, err.Error())
		} else {
			c.logger.Debug("HTTP response received",
				"url", url,
				"status", resp.StatusCode,
				"duration_ms", duration.Milliseconds(),
			)
			if !isRetryableStatus(resp.StatusCode) {
				return resp, nil
			}
			resp.Body.Close()
			lastErr = &errors.StatusError{Code: resp.StatusCode, URL: url}
			c.logger.Warn("HTTP request returned retryable status", "url", url, "status", resp.StatusCode, "attempt", attempt+1)
		}

		if attempt == maxRetries {
			break
		}
		if err := c.backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}

	return nil, errors.Wrapf(lastErr, "request failed after %d attempts", maxRetries+1)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, url, nil, headers)
}

// GetJSON performs a GET request and decodes a 2xx JSON body into out.
// Non-2xx responses return a *errors.StatusError. With a response cache
// configured, successful bodies are reused for identical URLs.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	if c.cache != nil {
		if body, ok := c.cache.Get(url); ok {
			c.logger.Debug("HTTP cache hit", "url", url)
			return decodeJSON(url, body, out)
		}
	}

	h := map[string]string{"Accept": "application/json"}
	for k, v := range headers {
		h[k] = v
	}

	resp, err := c.Get(ctx, url, h)
	if err != nil {
		return err
	}
	if err := CheckStatus(resp); err != nil {
		resp.Body.Close()
		return err
	}

	body, err := ReadBody(resp)
	if err != nil {
		return err
	}
	if err := decodeJSON(url, body, out); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Set(url, body)
	}
	return nil
}

func decodeJSON(url string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(errors.ErrInvalidResponse, "decode %s: %v", url, err)
	}
	return nil
}

// isRetryableStatus checks if an HTTP status code should trigger a retry.
func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// backoff implements exponential backoff.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := time.Duration(float64(c.config.RetryBackoff) * math.Pow(2, float64(attempt)))
	if backoff > c.config.MaxRetryBackoff {
		backoff = c.config.MaxRetryBackoff
	}

	c.logger.Debug("backing off before retry", "attempt", attempt+1, "backoff_ms", backoff.Milliseconds())

	timer := time.NewTimer(backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ReadBody reads the response body and closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	if resp == nil {
		return nil, errors.New("response is nil")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return body, nil
}

// CheckStatus returns a *errors.StatusError for non-2xx responses.
func CheckStatus(resp *http.Response) error {
	if resp == nil {
		return errors.New("response is nil")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	u := ""
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL.String()
	}
	return &errors.StatusError{Code: resp.StatusCode, URL: u}
}

// String returns a human-readable representation of the client configuration.
func (c *Client) String() string {
	return fmt.Sprintf("HTTPClient{timeout=%s, max_retries=%d, rate_limit=%.1f/s, cache_ttl=%s}",
		c.config.Timeout,
		c.config.MaxRetries,
		c.config.RateLimit,
		c.config.CacheTTL,
	)
}
