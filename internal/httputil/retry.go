// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the outbound HTTP path shared by every
// network-backed source: optional client-side throttling and bounded
// retries on HTTP 429 and 503.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

// maxRetryAfter caps a server-provided Retry-After hint.
const maxRetryAfter = 5 * time.Second

// Doer is the minimal HTTP client surface used by the sources.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Policy tunes a single outbound call.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt on a
	// retryable status. Zero disables retries.
	MaxRetries int

	// Limiter, when set, is waited on before every attempt.
	Limiter *rate.Limiter
}

// NewLimiter returns a limiter allowing rps requests per second with a
// burst of one, or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Do executes req and retries on HTTP 429 and 503 with exponential backoff
// starting at RetryBaseDelay. A Retry-After header in seconds replaces the
// computed delay, capped at five seconds. The response body of a retried
// attempt is drained and closed. If ctx ends while waiting, Do returns
// ctx.Err(). After exhausting retries the last response is returned so the
// caller can inspect its status.
func Do(ctx context.Context, client Doer, req *http.Request, p Policy) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= p.MaxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := retryDelay(resp, attempt)
		slog.Debug("upstream busy, retrying",
			"host", req.URL.Host, "status", resp.StatusCode,
			"attempt", attempt+1, "max_retries", p.MaxRetries, "backoff", backoff)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func retryDelay(resp *http.Response, attempt int) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
			d := time.Duration(secs) * time.Second
			if d > maxRetryAfter {
				d = maxRetryAfter
			}
			return d
		}
	}
	return RetryBaseDelay << attempt
}
