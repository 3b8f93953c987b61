package usecase

import (
	"time"

	"golang.org/x/time/rate"
)

// newThrottle spaces the start of consecutive requests by at least delay.
// The first request is never delayed.
func newThrottle(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
