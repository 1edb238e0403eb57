// Package retrylimit combines an adaptive rate limiter with bounded
// exponential-backoff retries for outbound HTTP clients. The rate climbs
// slowly on success and is cut on failure, so a struggling provider gets
// backed off without a config knob.
package retrylimit

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AdaptiveLimiter wraps rate.Limiter with success/failure feedback.
// Safe for concurrent use.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	lastError time.Time
}

// NewAdaptiveLimiter creates a limiter starting at initial requests per
// second, bounded by [min, max]. stepUp is added on success, stepDown is the
// multiplier applied on failure (e.g. 0.5 to halve).
func NewAdaptiveLimiter(initial, min, max, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if initial < min {
		initial = min
	}
	burst := int(initial)
	if burst < 1 {
		burst = 1
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burst),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
	}
}

// Wait blocks until a token is available or the context is canceled.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success nudges the rate up after a quiet period without failures.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > 10*time.Second {
		a.setLimit(a.limiter.Limit() + a.stepUp)
	}
}

// Failure cuts the rate after a failed request.
func (a *AdaptiveLimiter) Failure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	a.setLimit(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) setLimit(l rate.Limit) {
	if l > a.maxLimit {
		l = a.maxLimit
	}
	if l < a.minLimit {
		l = a.minLimit
	}
	if l != a.limiter.Limit() {
		a.limiter.SetLimit(l)
		burst := int(l)
		if burst < 1 {
			burst = 1
		}
		a.limiter.SetBurst(burst)
	}
}

// WithRetryMax runs fn up to maxAttempts times with exponential backoff and
// jitter, waiting on lim before each attempt when lim is non-nil. Stops on
// success or context cancellation.
func WithRetryMax(ctx context.Context, fn func() error, lim *AdaptiveLimiter, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := 500 * time.Millisecond
	const maxDelay = 10 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			if lim != nil {
				lim.Success()
			}
			return nil
		}
		if lim != nil {
			lim.Failure()
		}
		if attempt == maxAttempts {
			break
		}

		log.Printf("[Retry] Request failed (attempt %d): %v. Sleeping %v", attempt, lastErr, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay + time.Duration(rand.Int63n(int64(delay/4)+1))):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	return fmt.Errorf("max attempts (%d) exceeded: %w", maxAttempts, lastErr)
}
