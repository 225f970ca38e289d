// Package retrylimit paces calls through an adaptive rate limiter and retries
// transient failures with exponential backoff.
//
// Example usage:
//
//	lim := retrylimit.NewLimiter(5, 5)
//	err := retrylimit.Do(ctx, lim, retrylimit.DefaultConfig(), func(ctx context.Context) error {
//	    return send(ctx)
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrAttemptsExceeded is returned, wrapped together with the last failure,
// when every attempt failed.
var ErrAttemptsExceeded = errors.New("max attempts exceeded")

// =============================================================================
// Limiter
// =============================================================================

// Limiter is a rate limiter that slows down when told the remote side is
// overloaded and recovers gradually on success.
type Limiter struct {
	mu           sync.Mutex
	limiter      *rate.Limiter
	min, max     rate.Limit
	stepUp       rate.Limit
	cooldown     time.Duration
	lastThrottle time.Time
}

// NewLimiter starts at limit. Throttle halves the rate down to a tenth of
// limit; every Success after a cooldown adds back a tenth of limit.
func NewLimiter(limit rate.Limit, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter:  rate.NewLimiter(limit, burst),
		min:      limit / 10,
		max:      limit,
		stepUp:   limit / 10,
		cooldown: 10 * time.Second,
	}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

func (l *Limiter) Success() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.lastThrottle) > l.cooldown {
		l.set(l.limiter.Limit() + l.stepUp)
	}
}

func (l *Limiter) Throttle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastThrottle = time.Now()
	l.set(l.limiter.Limit() / 2)
}

// Limit returns the current rate in events per second.
func (l *Limiter) Limit() rate.Limit {
	return l.limiter.Limit()
}

func (l *Limiter) set(limit rate.Limit) {
	limit = min(max(limit, l.min), l.max)
	if limit != l.limiter.Limit() {
		l.limiter.SetLimit(limit)
	}
}

// =============================================================================
// Retry
// =============================================================================

// Config configures Do.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter adds up to 25% to every delay.
	Jitter bool
	// Retryable reports whether a failed call may be repeated. Nil retries everything.
	Retryable func(error) bool
	// Throttled reports whether the failure means the limiter should slow down.
	Throttled func(error) bool
	Logger    zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		Jitter:       true,
		Logger:       zerolog.Nop(),
	}
}

// Do calls fn until it succeeds, fails with a non-retryable error, runs out
// of attempts or ctx is done. Every attempt waits for lim when it is not nil.
func Do(ctx context.Context, lim *Limiter, cfg Config, fn func(ctx context.Context) error) error {
	attempts := max(cfg.MaxAttempts, 1)
	delay := cfg.InitialDelay

	for attempt := 1; ; attempt++ {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}
		if lim != nil && cfg.Throttled != nil && cfg.Throttled(err) {
			lim.Throttle()
		}
		if attempt >= attempts {
			return fmt.Errorf("%w (%d): %w", ErrAttemptsExceeded, attempts, err)
		}

		wait := delay
		if cfg.Jitter {
			wait = addJitter(wait)
		}
		cfg.Logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", wait).Msg("request failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if cfg.Multiplier > 0 {
			delay = time.Duration(float64(delay) * cfg.Multiplier)
		}
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

func addJitter(delay time.Duration) time.Duration {
	if delay < 4 {
		return delay
	}
	return delay + rand.N(delay/4)
}
