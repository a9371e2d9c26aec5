// Package retry provides delay policies for the loop's search retry
// path. The default policy retries immediately, preserving the loop's
// unbounded-retry semantics; hardened deployments swap in a backoff
// without changing the loop itself.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Policy returns the delay to wait before retry attempt n (1-based).
type Policy interface {
	Delay(attempt int) time.Duration
}

// Immediate retries with no delay. This is the loop's default.
type Immediate struct{}

func (Immediate) Delay(int) time.Duration { return 0 }

// Constant waits the same duration before every retry.
type Constant struct {
	D time.Duration
}

func (c Constant) Delay(int) time.Duration { return c.D }

// Backoff waits exponentially longer per attempt, capped at Max, with
// optional jitter to avoid thundering-herd retries.
type Backoff struct {
	Base       time.Duration // delay before the first retry
	Max        time.Duration // upper bound on any delay
	Multiplier float64       // growth factor per attempt
	Jitter     bool          // add up to 25% random jitter
}

// DefaultBackoff returns a backoff suitable for a rate-limited API:
// 1s base, 30s cap, doubling, jittered.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:       time.Second,
		Max:        30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(b.Base) * math.Pow(b.Multiplier, float64(attempt-1))
	if max := float64(b.Max); d > max {
		d = max
	}
	if b.Jitter {
		d += d * 0.25 * rand.Float64()
	}
	return time.Duration(d)
}
