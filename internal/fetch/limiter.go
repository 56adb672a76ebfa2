package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// originLimiter enforces a minimum interval between the starts of successive
// requests to the same origin (scheme+host). Different origins never wait on
// each other.
type originLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[string]*rate.Limiter
}

func newOriginLimiter(interval time.Duration) *originLimiter {
	return &originLimiter{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// wait blocks until the origin's next slot, or until ctx is done. interval
// overrides the limiter default when positive, but an origin keeps the
// limiter it was first seen with; mixing intervals per origin would break
// the spacing guarantee.
func (l *originLimiter) wait(ctx context.Context, origin string, interval time.Duration) error {
	if interval <= 0 {
		interval = l.interval
	}
	if interval <= 0 {
		return nil
	}

	l.mu.Lock()
	lim, ok := l.limiters[origin]
	if !ok {
		// Burst 1: the first request goes through immediately, every
		// following one waits out the interval.
		lim = rate.NewLimiter(rate.Every(interval), 1)
		l.limiters[origin] = lim
	}
	l.mu.Unlock()

	return lim.Wait(ctx)
}
