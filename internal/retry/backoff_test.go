package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImmediate_NoDelay(t *testing.T) {
	p := Immediate{}
	for attempt := 1; attempt <= 5; attempt++ {
		assert.Zero(t, p.Delay(attempt))
	}
}

func TestConstant_FixedDelay(t *testing.T) {
	p := Constant{D: 2 * time.Second}
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(10))
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	p := Backoff{Base: time.Second, Max: 8 * time.Second, Multiplier: 2.0}

	assert.Equal(t, 1*time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 8*time.Second, p.Delay(4))
	// Capped from here on
	assert.Equal(t, 8*time.Second, p.Delay(10))
}

func TestBackoff_JitterStaysBounded(t *testing.T) {
	p := DefaultBackoff()

	for attempt := 1; attempt <= 20; attempt++ {
		d := p.Delay(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		// Jitter adds at most 25% above the cap
		assert.LessOrEqual(t, d, p.Max+p.Max/4)
	}
}

func TestBackoff_NormalizesBadAttempt(t *testing.T) {
	p := Backoff{Base: time.Second, Max: 8 * time.Second, Multiplier: 2.0}
	assert.Equal(t, p.Delay(1), p.Delay(0))
	assert.Equal(t, p.Delay(1), p.Delay(-3))
}
