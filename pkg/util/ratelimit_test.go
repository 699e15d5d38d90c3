package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	r := NewRateLimiter(time.Second)
	base := time.Unix(100, 0)

	ok, suppressed := r.allow(base)
	assert.True(t, ok)
	assert.Zero(t, suppressed)

	// Inside the interval: suppressed.
	for i := 0; i < 3; i++ {
		ok, _ = r.allow(base.Add(500 * time.Millisecond))
		assert.False(t, ok)
	}

	// Past the interval: admitted, reporting the drop count.
	ok, suppressed = r.allow(base.Add(time.Second))
	assert.True(t, ok)
	assert.Equal(t, 3, suppressed)

	ok, suppressed = r.allow(base.Add(3 * time.Second))
	assert.True(t, ok)
	assert.Zero(t, suppressed)
}

func TestRateLimiter_ZeroValueAdmitsAll(t *testing.T) {
	var r RateLimiter
	for i := 0; i < 3; i++ {
		ok, _ := r.allow(time.Unix(100, 0))
		assert.True(t, ok)
	}
}
