// package ratelimit implements the sliding-window request gate used by each
// catalog adapter to stay under its service's published throughput ceiling.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// safetyMargin is added to every computed wait so a request never lands
// exactly on the window boundary.
const safetyMargin = 50 * time.Millisecond

// Limiter is a sliding-window request gate: at most maxRequests calls may
// proceed within any window. Wait blocks the caller until the oldest
// in-window timestamp falls outside the window; calls are never rejected.
//
// The timestamp list is mutex-guarded because batch matching dispatches
// concurrent calls against a single adapter.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	timestamps  []time.Time
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter allowing maxRequests calls per window.
func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Wait blocks until the caller may proceed, then records the call.
// It returns early only if ctx is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.evict(now)

		if len(l.timestamps) < l.maxRequests {
			l.timestamps = append(l.timestamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.timestamps[0].Add(l.window).Sub(now) + safetyMargin
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InWindow returns the number of requests recorded inside the current window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	return len(l.timestamps)
}

// evict drops timestamps older than the window. Caller holds the lock.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
