package fetch

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls the exponential backoff applied between attempts.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// BaseDelay is the wait after the first failure.
	BaseDelay time.Duration
	// Multiplier scales the delay after every failed attempt.
	Multiplier float64
	// Jitter perturbs each delay by a uniform factor in [-Jitter, +Jitter].
	Jitter float64
}

// Retryer re-runs an operation with jittered exponential backoff. Failures
// whose outcome is not retryable stop the loop immediately.
type Retryer struct {
	cfg    RetryConfig
	logger *zap.Logger
}

// NewRetryer constructs a Retryer; a nil logger disables attempt logging.
func NewRetryer(cfg RetryConfig, logger *zap.Logger) *Retryer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retryer{cfg: cfg, logger: logger}
}

// Do invokes fn until it succeeds, fails terminally, exhausts the retry
// budget, or ctx is cancelled. The error of the final attempt is returned.
// Do keeps no state between calls so a single Retryer is safe to share.
func (r *Retryer) Do(ctx context.Context, op string, fn func() error) error {
	delay := r.cfg.BaseDelay
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		outcome := outcomeOf(err)
		if !outcome.Retryable() || attempt >= r.cfg.MaxRetries {
			return err
		}

		sleep := r.jittered(delay)
		r.logger.Warn("retrying after failure",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", r.cfg.MaxRetries),
			zap.Duration("sleep", sleep),
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
		if err := sleepCtx(ctx, sleep); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * r.cfg.Multiplier)
	}
}

// jittered applies the configured jitter factor, clamping at zero.
func (r *Retryer) jittered(d time.Duration) time.Duration {
	if r.cfg.Jitter <= 0 {
		return max(0, d)
	}
	factor := 1 + (rand.Float64()*2-1)*r.cfg.Jitter
	return max(0, time.Duration(float64(d)*factor))
}

// sleepCtx sleeps for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
