// file: ratelimit/limiter_test.go

package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(capacity int, window time.Duration) (*Limiter, *time.Time) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(map[string]Rule{
		"auth": {Capacity: capacity, Window: window},
		"api":  {Capacity: 100, Window: window},
	}, true)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_CapacityThenRejection(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		decision := l.TryAcquire("auth_1.2.3.4")
		assert.True(t, decision.Allowed, "acquire %d should be allowed", i+1)
		assert.Equal(t, 5-i-1, decision.Remaining)
	}

	decision := l.TryAcquire("auth_1.2.3.4")
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.Greater(t, decision.RetryAfterSeconds, 0)
}

func TestLimiter_RefillsAfterWindow(t *testing.T) {
	l, now := newTestLimiter(2, time.Minute)

	assert.True(t, l.TryAcquire("auth_1.2.3.4").Allowed)
	assert.True(t, l.TryAcquire("auth_1.2.3.4").Allowed)
	assert.False(t, l.TryAcquire("auth_1.2.3.4").Allowed)

	// Partway through the window nothing refills.
	*now = now.Add(30 * time.Second)
	assert.False(t, l.TryAcquire("auth_1.2.3.4").Allowed)

	// A full window restores the whole budget at once.
	*now = now.Add(31 * time.Second)
	decision := l.TryAcquire("auth_1.2.3.4")
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Remaining)
}

func TestLimiter_RetryAfterMatchesWindowRemainder(t *testing.T) {
	l, now := newTestLimiter(1, time.Minute)

	assert.True(t, l.TryAcquire("auth_1.2.3.4").Allowed)

	*now = now.Add(20 * time.Second)
	decision := l.TryAcquire("auth_1.2.3.4")
	assert.False(t, decision.Allowed)
	assert.Equal(t, 40, decision.RetryAfterSeconds)
}

func TestLimiter_IndependentKeys(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	assert.True(t, l.TryAcquire("auth_1.2.3.4").Allowed)
	assert.False(t, l.TryAcquire("auth_1.2.3.4").Allowed)

	// A different client gets its own budget.
	assert.True(t, l.TryAcquire("auth_5.6.7.8").Allowed)

	// The same client under a different endpoint class does too.
	assert.True(t, l.TryAcquire("api_1.2.3.4").Allowed)
}

// TestLimiter_ConcurrentAcquire hammers one key from many goroutines and
// checks that exactly Capacity acquisitions succeed.
func TestLimiter_ConcurrentAcquire(t *testing.T) {
	const capacity = 50
	const attempts = 200

	l, _ := newTestLimiter(capacity, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire("auth_1.2.3.4").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, allowed)
}

func TestLimiter_UnknownClassFallsBackToAPI(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	decision := l.TryAcquire("other_1.2.3.4")
	assert.True(t, decision.Allowed)
	assert.Equal(t, 99, decision.Remaining)
}
