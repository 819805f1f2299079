// Package agent executes a single bounded reasoning unit: it drives the
// reasoning capability in a loop, invokes the agent's tool subset, and
// enforces iteration, rate, and delegation limits.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/mcrossley/labcrew/pkg/models"
)

// MinuteLimiter admits a fixed number of calls per one-minute window.
// When the window's budget is spent, Wait suspends the caller until the
// window rolls over. A caller deadline that would expire before the window
// rolls fails immediately with rate_limit_exceeded.
type MinuteLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	windowStart time.Time
	used        int
	now         func() time.Time
}

// NewMinuteLimiter creates a limiter admitting limit calls per minute.
// Limits below 1 are raised to 1.
func NewMinuteLimiter(limit int) *MinuteLimiter {
	if limit < 1 {
		limit = 1
	}
	return &MinuteLimiter{
		limit:  limit,
		window: time.Minute,
		now:    time.Now,
	}
}

// Wait blocks until a call slot is available or the context is done.
func (l *MinuteLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.used = 0
		}
		if l.used < l.limit {
			l.used++
			l.mu.Unlock()
			return nil
		}
		resume := l.windowStart.Add(l.window)
		l.mu.Unlock()

		wait := resume.Sub(now)
		if deadline, ok := ctx.Deadline(); ok && deadline.Before(resume) {
			return models.NewTaskError(models.ErrKindRateLimit,
				"call budget exhausted: next slot in %s, caller deadline in %s",
				wait.Round(time.Millisecond), time.Until(deadline).Round(time.Millisecond))
		}

		select {
		case <-ctx.Done():
			return models.NewTaskError(models.ErrKindRateLimit,
				"cancelled while waiting for call slot: %v", ctx.Err())
		case <-time.After(wait):
		}
	}
}

// Remaining returns the number of slots left in the current window.
func (l *MinuteLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.windowStart.IsZero() || l.now().Sub(l.windowStart) >= l.window {
		return l.limit
	}
	return l.limit - l.used
}
