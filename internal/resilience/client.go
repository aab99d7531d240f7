package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// StatusError reports a non-2xx response. Only 5xx and 429 are retried.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("resilience: unexpected status %d", e.Code)
}

// Retryable reports whether another attempt may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// RetryPolicy controls attempts and backoff between them.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Jitter      float64
}

// Backoff returns the exponential delay before the given retry attempt
// (1-based). Jitter is a fraction of the delay applied in both directions.
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << uint(attempt-1)
	if jitter <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * jitter * float64(d)
	return d + time.Duration(delta)
}

// HTTPClient performs GET-style calls guarded by a breaker, with a per
// attempt timeout and retries on transport errors and retryable statuses.
type HTTPClient struct {
	Client  *http.Client
	Breaker *Breaker
	Retry   RetryPolicy
	Timeout time.Duration
	Target  string
}

// Fetch executes req and returns the full response body of the first 2xx
// response.
func (c HTTPClient) Fetch(ctx context.Context, req *http.Request) ([]byte, error) {
	if c.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, errors.New("resilience: request body is not replayable")
	}
	attempts := c.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	target := c.Target
	if target == "" {
		target = req.URL.Host
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.Breaker != nil {
			if err := c.Breaker.Allow(ctx); err != nil {
				outboundAttempts.WithLabelValues(target, "rejected").Inc()
				if lastErr != nil {
					return nil, fmt.Errorf("%w (last error: %v)", err, lastErr)
				}
				return nil, err
			}
		}
		body, err := c.once(ctx, req)
		if c.Breaker != nil {
			c.Breaker.Record(ctx, breakerOutcome(err))
		}
		if err == nil {
			outboundAttempts.WithLabelValues(target, "success").Inc()
			return body, nil
		}
		outboundAttempts.WithLabelValues(target, "failure").Inc()
		lastErr = err
		if !retryable(err) || attempt == attempts {
			break
		}

		timer := time.NewTimer(Backoff(c.Retry.Base, attempt, c.Retry.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c HTTPClient) once(ctx context.Context, req *http.Request) ([]byte, error) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, c.Timeout)
	}
	defer cancel()

	attemptReq := req.Clone(callCtx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		attemptReq.Body = body
	}
	resp, err := c.Client.Do(attemptReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// Client errors say nothing about the health of the dependency.
func breakerOutcome(err error) error {
	var se *StatusError
	if errors.As(err, &se) && !se.Retryable() {
		return nil
	}
	return err
}
