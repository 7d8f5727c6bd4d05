package papersources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Circuit breaker defaults. The breaker trips when at least
// defaultBreakerMinRequests have been observed in the current interval
// and defaultBreakerFailureRatio of them failed.
const (
	defaultBreakerMinRequests  = 10
	defaultBreakerFailureRatio = 0.6
	defaultBreakerCooldown     = 30 * time.Second
	defaultBreakerInterval     = time.Minute
)

// RequestObserver receives per-attempt observations from the HTTP
// client. *observability.Metrics satisfies it.
type RequestObserver interface {
	RecordSourceRequest(source, endpoint string, durationSeconds float64)
	RecordSourceRequestFailed(source, endpoint, errorType string)
	RecordSourceRateLimited(source string)
}

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g., "X-API-Key", "Authorization").
	APIKeyHeader string

	// Source labels this client's requests in metrics and names its
	// circuit breaker.
	Source string

	// Observer receives per-attempt request observations. Nil disables
	// instrumentation.
	Observer RequestObserver

	// BreakerMinRequests is the minimum number of requests in the
	// breaker's interval before the failure ratio is evaluated.
	BreakerMinRequests uint32

	// BreakerFailureRatio is the failure ratio at which the breaker
	// opens.
	BreakerFailureRatio float64

	// BreakerCooldown is how long the breaker stays open before letting
	// a trial request through.
	BreakerCooldown time.Duration
}

// HTTPClient wraps http.Client with rate limiting, retries, and a
// circuit breaker. It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	breaker     *gobreaker.CircuitBreaker
	config      HTTPClientConfig
}

// statusError marks a retryable provider status so the circuit breaker
// counts it as a failure and the retry loop can honor Retry-After.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.code)
}

// NewHTTPClient creates a new HTTP client with rate limiting.
// The client applies rate limiting before each request, automatically
// retries on 429 (Too Many Requests) and 5xx server errors, and stops
// sending while its circuit breaker is open.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	// Apply defaults
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 10
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "ResearchPaperFinder/1.0"
	}
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = defaultBreakerMinRequests
	}
	if cfg.BreakerFailureRatio == 0 {
		cfg.BreakerFailureRatio = defaultBreakerFailureRatio
	}
	if cfg.BreakerCooldown == 0 {
		cfg.BreakerCooldown = defaultBreakerCooldown
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Source,
		MaxRequests: 1,
		Interval:    defaultBreakerInterval,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellations say nothing about provider health.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return err == nil
		},
	})

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		breaker:     breaker,
		config:      cfg,
	}
}

// Do executes an HTTP request with rate limiting, retries, and circuit
// breaking. It waits for the rate limiter before each attempt, sets the
// User-Agent and optional API key headers, retries on 429 (Too Many
// Requests, with Retry-After support) and on 5xx server errors, and
// fails immediately while the breaker is open.
//
// The request body is not preserved across retries; callers must provide
// requests with GetBody set if the body needs to be resent on retry.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	// Set default headers
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	// Set API key if configured
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	endpoint := endpointLabel(req.URL)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.transport(req, endpoint)
		if err == nil {
			return resp, nil
		}

		var se *statusError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			// Retrying against an open breaker is pointless.
			if c.config.Observer != nil {
				c.config.Observer.RecordSourceRequestFailed(c.config.Source, endpoint, "circuit_open")
			}
			return nil, fmt.Errorf("circuit breaker: %w", err)

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err

		case errors.As(err, &se):
			// Retryable status; the response is still open.
			retryDelay := c.getRetryDelay(resp)
			if resp.Body != nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
			if attempt < c.config.MaxRetries {
				lastErr = err
				if err := c.waitForRetry(req.Context(), retryDelay); err != nil {
					return nil, err
				}
				if err := c.resetRequestBody(req); err != nil {
					return nil, fmt.Errorf("cannot retry request: %w", err)
				}
				continue
			}
			return nil, fmt.Errorf("max retries exhausted after %d attempts, last status: %d", c.config.MaxRetries+1, se.code)

		default:
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.config.MaxRetries {
				if err := c.waitForRetry(req.Context(), c.config.RetryDelay); err != nil {
					return nil, err
				}
				if err := c.resetRequestBody(req); err != nil {
					return nil, fmt.Errorf("cannot retry request: %w", err)
				}
				continue
			}
			return nil, lastErr
		}
	}

	// Should not reach here, but handle edge case
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("unexpected error: no response received")
}

// transport runs one breaker-guarded attempt. A retryable status comes
// back as a *statusError with the response still attached.
func (c *HTTPClient) transport(req *http.Request, endpoint string) (*http.Response, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		start := time.Now()
		resp, doErr := c.client.Do(req)
		c.observe(endpoint, start, resp, doErr)
		if doErr != nil {
			return nil, doErr
		}
		if c.shouldRetry(resp.StatusCode) {
			return resp, &statusError{code: resp.StatusCode}
		}
		return resp, nil
	})
	resp, _ := res.(*http.Response)
	return resp, err
}

// observe reports one attempt to the configured observer.
func (c *HTTPClient) observe(endpoint string, start time.Time, resp *http.Response, err error) {
	obs := c.config.Observer
	if obs == nil {
		return
	}
	obs.RecordSourceRequest(c.config.Source, endpoint, time.Since(start).Seconds())

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		obs.RecordSourceRequestFailed(c.config.Source, endpoint, "timeout")
	case err != nil:
		obs.RecordSourceRequestFailed(c.config.Source, endpoint, "network")
	case resp.StatusCode == http.StatusTooManyRequests:
		obs.RecordSourceRateLimited(c.config.Source)
		obs.RecordSourceRequestFailed(c.config.Source, endpoint, "rate_limited")
	case resp.StatusCode >= 500:
		obs.RecordSourceRequestFailed(c.config.Source, endpoint, "server_error")
	}
}

// endpointLabel reduces a request path to its first segment to keep
// metric label cardinality bounded.
func endpointLabel(u *url.URL) string {
	p := strings.Trim(u.Path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "root"
	}
	return p
}

// shouldRetry returns true if the status code indicates we should retry.
func (c *HTTPClient) shouldRetry(statusCode int) bool {
	// Retry on 429 Too Many Requests
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	// Retry on 5xx server errors
	return statusCode >= 500 && statusCode < 600
}

// getRetryDelay determines how long to wait before retrying.
// It respects the Retry-After header if present, otherwise uses the configured retry delay.
func (c *HTTPClient) getRetryDelay(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return c.config.RetryDelay
	}

	// Try to parse as seconds
	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return c.config.RetryDelay
	}

	// Try to parse as HTTP date
	if t, err := http.ParseTime(retryAfter); err == nil {
		delay := time.Until(t)
		if delay > 0 {
			return delay
		}
	}

	return c.config.RetryDelay
}

// waitForRetry waits for the specified duration, respecting context cancellation.
func (c *HTTPClient) waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resetRequestBody resets the request body for retry if possible.
func (c *HTTPClient) resetRequestBody(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}

	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("failed to get request body for retry: %w", err)
	}
	req.Body = body
	return nil
}
