// file: ratelimit/limiter.go

package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Rule configures one endpoint class: a bucket holds up to Capacity tokens
// and receives Capacity fresh tokens every Window.
type Rule struct {
	Capacity int
	Window   time.Duration
}

// Decision is the outcome of a TryAcquire call. It is computed without
// blocking; when Allowed is false, RetryAfterSeconds tells the boundary
// layer what retry hint to send.
type Decision struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

// Limiter is a per-key token bucket admission controller. Buckets are
// created lazily on first sight of a key and kept for the process lifetime;
// unbounded growth with distinct client keys is an accepted tradeoff here,
// a bounded-LRU eviction would be the production hardening.
//
// The limiter is an injected component constructed at startup, shared by all
// requests of a process. The key map is guarded by an RWMutex and each
// bucket by its own mutex, so unrelated keys never serialize on one lock.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	rules   map[string]Rule

	// trustProxy controls whether the middleware keys budgets on the first
	// X-Forwarded-For entry. Only enable it when every request arrives
	// through a proxy that overwrites the header; a directly reachable
	// server would let clients mint a fresh bucket per request.
	trustProxy bool

	now func() time.Time
}

type bucket struct {
	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
	rule       Rule
}

// NewLimiter builds a limiter from per-class rules. Keys passed to
// TryAcquire must be prefixed with "<class>_"; a key with an unknown class
// falls back to the "api" rule.
func NewLimiter(rules map[string]Rule, trustProxyHeader bool) *Limiter {
	return &Limiter{
		buckets:    make(map[string]*bucket),
		rules:      rules,
		trustProxy: trustProxyHeader,
		now:        time.Now,
	}
}

// TryAcquire consumes one token from the bucket of the given key. It never
// blocks: the not-allowed path returns immediately with the computed wait.
func (l *Limiter) TryAcquire(key string) Decision {
	b := l.bucketFor(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.now()
	b.refill(now)

	if b.tokens > 0 {
		b.tokens--
		return Decision{Allowed: true, Remaining: b.tokens}
	}

	wait := b.lastRefill.Add(b.rule.Window).Sub(now)
	retryAfter := int(math.Ceil(wait.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfterSeconds: retryAfter}
}

// refill credits whole elapsed windows. The bucket refills in fixed steps of
// Capacity per Window rather than continuously, matching the configured
// "R tokens per window" contract.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < b.rule.Window {
		return
	}
	windows := elapsed / b.rule.Window
	b.tokens = b.rule.Capacity
	b.lastRefill = b.lastRefill.Add(windows * b.rule.Window)
}

func (l *Limiter) bucketFor(key string) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}

	rule := l.ruleForKey(key)
	b = &bucket{
		tokens:     rule.Capacity,
		lastRefill: l.now(),
		rule:       rule,
	}
	l.buckets[key] = b
	return b
}

func (l *Limiter) ruleForKey(key string) Rule {
	for class, rule := range l.rules {
		if len(key) > len(class) && key[:len(class)] == class && key[len(class)] == '_' {
			return rule
		}
	}
	if rule, ok := l.rules["api"]; ok {
		return rule
	}
	// No usable configuration; effectively unlimited within a window.
	return Rule{Capacity: math.MaxInt32, Window: time.Minute}
}
