package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, fastConfig(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), nil, fastConfig(), func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, ErrAttemptsExceeded)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("forbidden")
	cfg := fastConfig()
	cfg.Retryable = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	err := Do(context.Background(), nil, cfg, func(context.Context) error {
		calls++
		return permanent
	})

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialDelay = time.Hour

	err := Do(ctx, nil, cfg, func(context.Context) error {
		cancel()
		return errors.New("slow down")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimiterAdapts(t *testing.T) {
	lim := NewLimiter(10, 3)
	cfg := fastConfig()
	cfg.Throttled = func(error) bool { return true }

	_ = Do(context.Background(), lim, cfg, func(context.Context) error { return errors.New("429") })
	assert.Equal(t, rate.Limit(1.25), lim.Limit())

	for range 5 {
		lim.Throttle()
	}
	assert.Equal(t, rate.Limit(1), lim.Limit(), "never below a tenth")

	lim.cooldown = 0
	lim.Success()
	assert.Equal(t, rate.Limit(2), lim.Limit())
	for range 20 {
		lim.Success()
	}
	assert.Equal(t, rate.Limit(10), lim.Limit(), "never above the start")
}
