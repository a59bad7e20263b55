// Package ratelimit wraps golang.org/x/time/rate for the two places the
// acquisition core needs to pace itself: the scan controller's simulated
// frequency retuning (so a fast band scan does not starve the acquisition
// goroutine of CPU) and the EPG scraper's description-page lookups
// (epgscrape.Scrape).
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces calls to at most ratePerSec per second, with a burst of
// burst immediate calls before throttling kicks in.
type Limiter struct {
	l *rate.Limiter
}

// New returns a Limiter allowing ratePerSec calls per second. A ratePerSec
// of 0 or less disables limiting (every Wait/Allow call succeeds
// immediately) -- used when a caller's rate-limit config field is unset.
func New(ratePerSec float64, burst int) *Limiter {
	if ratePerSec <= 0 {
		return &Limiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{l: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (lim *Limiter) Wait(ctx context.Context) error {
	if lim == nil || lim.l == nil {
		return nil
	}
	return lim.l.Wait(ctx)
}

// Allow reports whether a call may proceed right now without blocking,
// consuming a token if so.
func (lim *Limiter) Allow() bool {
	if lim == nil || lim.l == nil {
		return true
	}
	return lim.l.Allow()
}
