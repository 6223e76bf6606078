package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marketbridge/backend/internal/domain/channel"
)

// ---------------------------------------------------------------------------
// Clock
// ---------------------------------------------------------------------------

// Clock abstracts time for the retry executor so backoff behavior can be
// tested without real delays
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the production Clock backed by the runtime timer
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d or until ctx is done
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Rate Limit Detection
// ---------------------------------------------------------------------------

// rateLimitPatterns are message fragments that identify throttling responses
// from marketplaces that do not return a clean 429
var rateLimitPatterns = []string{
	"429",
	"too many requests",
	"rate limit",
	"quota exceeded",
}

// IsRateLimited reports whether an error is a marketplace throttling signal,
// either the typed sentinel or a message-pattern match
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, channel.ErrGatewayRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range rateLimitPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Retry Executor
// ---------------------------------------------------------------------------

// DefaultMaxRetries bounds retries against a persistently throttling channel
const DefaultMaxRetries = 3

// DefaultBaseDelay is the unit of the linear backoff
const DefaultBaseDelay = 2 * time.Second

// RetryResult reports how a wrapped call concluded
type RetryResult struct {
	// Attempts is the total number of calls made (1 + retries)
	Attempts int
	// RateLimitedRetries counts retries caused by throttling
	RateLimitedRetries int
}

// RetryExecutor wraps one outbound call with bounded, rate-limit-aware
// retry. Only throttling errors are retried; anything else propagates
// immediately. The executor holds no per-call state, so concurrent calls for
// different entities never interfere.
//
// Backoff is linear (baseDelay × attempt number), not exponential. The
// legacy configuration called this "exponential", but the implemented
// behavior has always been linear and is preserved until business intent
// says otherwise.
type RetryExecutor struct {
	baseDelay  time.Duration
	maxRetries int
	clock      Clock
	logger     *zap.Logger
}

// NewRetryExecutor creates a retry executor. Non-positive parameters fall
// back to the defaults.
func NewRetryExecutor(baseDelay time.Duration, maxRetries int, clock Clock, logger *zap.Logger) *RetryExecutor {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryExecutor{
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
		clock:      clock,
		logger:     logger,
	}
}

// Do runs fn, retrying on rate-limit signals up to maxRetries with linear
// backoff. It returns the result of the final attempt together with retry
// accounting for sync log aggregation.
func (e *RetryExecutor) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) (RetryResult, error) {
	result := RetryResult{}
	for attempt := 1; ; attempt++ {
		result.Attempts = attempt
		err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRateLimited(err) {
			return result, err
		}
		if attempt > e.maxRetries {
			return result, fmt.Errorf("%s: retries exhausted after %d attempts: %w", operation, attempt, err)
		}
		wait := e.baseDelay * time.Duration(attempt)
		e.logger.Warn("Rate limited, backing off",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
		)
		result.RateLimitedRetries++
		if sleepErr := e.clock.Sleep(ctx, wait); sleepErr != nil {
			return result, sleepErr
		}
	}
}
