package scm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
)

// RetryConfig configures retry behavior for GitHub API calls.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries int

	// InitialBackoff is the initial backoff duration.
	// Default: 1 second
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	// Default: 30 seconds
	MaxBackoff time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}
}

// withRetry retries a GitHub API operation with exponential backoff.
// Only transient conditions (no response, 5xx, rate limit) are
// retried; other 4xx failures return immediately.
func (c *Client) withRetry(ctx context.Context, op string, operation func() (*github.Response, error)) (*github.Response, error) {
	backoff := c.cfg.Retry.InitialBackoff

	var lastResp *github.Response
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retry.MaxRetries; attempt++ {
		resp, err := operation()
		if err == nil {
			return resp, nil
		}

		lastResp = resp
		lastErr = err

		if !isRetryable(err, resp) {
			return resp, err
		}
		if attempt == c.cfg.Retry.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return lastResp, fmt.Errorf("%s canceled: %w", op, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
			if backoff > c.cfg.Retry.MaxBackoff {
				backoff = c.cfg.Retry.MaxBackoff
			}
		}
	}

	return lastResp, fmt.Errorf("%s failed after %d retries: %w", op, c.cfg.Retry.MaxRetries, lastErr)
}

// isRetryable classifies an error as transient.
func isRetryable(err error, resp *github.Response) bool {
	if _, ok := err.(*github.RateLimitError); ok {
		return true
	}
	if _, ok := err.(*github.AbuseRateLimitError); ok {
		return true
	}

	status := statusCode(resp)
	if status == 0 {
		// No response: network error, timeout, connection refused.
		return true
	}
	switch {
	case status >= http.StatusInternalServerError:
		return true
	case status == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}
