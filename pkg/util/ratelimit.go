package util

import (
	"sync"
	"time"
)

// RateLimiter admits at most one event per interval. The audio engine
// uses it to keep per-period fault logs (overflow, underrun) from
// flooding the log at callback rate.
//
// The zero value admits everything; use NewRateLimiter for a real
// interval.
type RateLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
	// events suppressed since the last admitted one
	suppressed int
}

// NewRateLimiter creates a limiter admitting one event per interval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval}
}

// Allow reports whether an event may proceed now. When it returns
// true, suppressed is the number of events dropped since the previous
// admitted one.
func (r *RateLimiter) Allow() (ok bool, suppressed int) {
	return r.allow(time.Now())
}

func (r *RateLimiter) allow(now time.Time) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() && now.Sub(r.last) < r.interval {
		r.suppressed++
		return false, 0
	}

	n := r.suppressed
	r.suppressed = 0
	r.last = now
	return true, n
}
