package testutil

import (
	"sync"
	"time"
)

// DeterministicClock hands out wall-clock readings that advance by a
// fixed step per call, so ledger timestamps are reproducible across
// test runs regardless of real time.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewDeterministicClock creates a clock starting at start, advancing by
// step on every Now call. A zero step freezes the clock.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{now: start, step: step}
}

// Now returns the current reading and advances the clock.
// Satisfies the engine's WithNow option.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}
