// Package httpretry retries transient provider API failures with jittered
// exponential backoff. Permanent client errors pass straight through.
package httpretry

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/hoylabs/hoy-analytics/internal/pkg/logger"
)

// HTTPDoer executes a single HTTP request. *http.Client and *RetryClient
// both satisfy it, so callers can be handed either.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	defaultTimeout = 30 * time.Second
	minDelay       = 100 * time.Millisecond
)

// RetryClient wraps an HTTPDoer and re-issues requests that fail with a
// network error or a retryable status (429, 500, 502, 503, 504).
type RetryClient struct {
	inner      HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryClient wraps client with up to maxRetries re-attempts after the
// initial request. A nil client gets a default 30s-timeout http.Client;
// maxRetries <= 0 means 3.
func NewRetryClient(client HTTPDoer, maxRetries int) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RetryClient{
		inner:      client,
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
	}
}

// Do executes the request, retrying transient failures. Context cancellation
// stops retrying immediately. The last attempt's response is returned as-is,
// even with a retryable status, so the caller can read the body.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if err := req.Context().Err(); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		if attempt > 0 {
			// A consumed body must be rewound before re-sending.
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewinding request body: %w", err)
				}
				req.Body = body
			}

			wait := rc.backoff(attempt)
			logger.Warn("retrying request",
				"attempt", attempt,
				"max", rc.maxRetries,
				"method", req.Method,
				"host", req.URL.Host,
				"wait", wait.String())

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := rc.inner.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}

		if !retryable(resp.StatusCode) || attempt == rc.maxRetries {
			return resp, nil
		}

		// Drain so the connection can be reused, then go around again.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("retryable status %d from %s", resp.StatusCode, req.URL.Host)
	}

	return nil, lastErr
}

// backoff doubles the delay each attempt, caps it, and applies full jitter.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	d := rc.baseDelay << (attempt - 1)
	if d > rc.maxDelay || d <= 0 {
		d = rc.maxDelay
	}
	d = time.Duration(rand.Float64() * float64(d))
	if d < minDelay {
		d = minDelay
	}
	return d
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
