package validator

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// throttle spaces out Synapse write requests (invitations and messages) to stay under the
// Synapse API rate limits. The first write goes through immediately and every subsequent write
// waits until at least 'delay' after the previous one.
type throttle struct {
	limiter *rate.Limiter
}

func newThrottle(delay time.Duration) *throttle {
	if delay <= 0 {
		return &throttle{
			limiter: rate.NewLimiter(rate.Inf, 1),
		}
	}

	return &throttle{
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

func (t *throttle) wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
