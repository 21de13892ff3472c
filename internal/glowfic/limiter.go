package glowfic

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the polite spacing between origin requests.
const DefaultInterval = time.Second

// Limiter admits at most one request per interval across every goroutine
// sharing it. Waiters are admitted in the order they reserved.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter returns a limiter with a burst of one. A non-positive interval
// disables limiting.
func NewLimiter(interval time.Duration) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{limiter: rate.NewLimiter(limit, 1)}
}

// Acquire blocks until a slot is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
