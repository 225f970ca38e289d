package middleware

import (
	"context"
	"sync"

	"github.com/keshon/domme-dispatch/pkg/cmd"

	"golang.org/x/time/rate"
)

// limiterPruneSize is the map size above which idle limiters are dropped.
const limiterPruneSize = 1024

type userLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func (u *userLimiters) allow(userID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	lim, ok := u.limiters[userID]
	if !ok {
		if len(u.limiters) >= limiterPruneSize {
			u.prune()
		}
		lim = rate.NewLimiter(u.limit, u.burst)
		u.limiters[userID] = lim
	}
	return lim.Allow()
}

// prune drops limiters that have refilled completely; recreating them is equivalent.
func (u *userLimiters) prune() {
	for id, lim := range u.limiters {
		if lim.Tokens() >= float64(u.burst) {
			delete(u.limiters, id)
		}
	}
}

// WithUserRateLimit gives every author a token bucket of burst commands
// refilled at limit per second. Commands over the limit are skipped with an
// ephemeral notice.
func WithUserRateLimit(limit rate.Limit, burst int) cmd.Middleware {
	users := &userLimiters{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
	return func(next cmd.Handler) cmd.Handler {
		return func(ctx context.Context, inv *cmd.Invocation) (cmd.Result, error) {
			src, ok := inv.Message.(cmd.Sourced)
			if !ok {
				return next(ctx, inv)
			}
			if !users.allow(src.Source().AuthorID) {
				return cmd.Ephemeral("You are sending commands too fast, try again in a moment."), nil
			}
			return next(ctx, inv)
		}
	}
}
