// Package ratelimit implements a token-bucket rate limiter with a FIFO
// acquisition queue, a per-session token budget, and a Model-wrapping
// RateLimiter, per the runtime's reliability layer.
//
// The bucket's lazy-refill arithmetic is hand-rolled rather than built on
// golang.org/x/time/rate because the exact refill/consume/waitTime
// semantics (whole-interval refill, capped at maxTokens, deterministic
// waitTime) are load-bearing test properties of this runtime, not merely an
// implementation detail x/time/rate's black-box limiter would let us
// observe directly.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a lazily-refilled bucket: refill happens on inspection
// rather than on a background timer, so Consume/WaitTime/Available always
// see an up-to-date token count without a ticking goroutine.
type TokenBucket struct {
	mu               sync.Mutex
	maxTokens        float64
	refillRate       float64
	refillInterval   time.Duration
	tokens           float64
	lastRefillTime   time.Time
	now              func() time.Time
}

// NewTokenBucket builds a bucket starting full.
func NewTokenBucket(maxTokens, refillRate float64, refillInterval time.Duration) *TokenBucket {
	return &TokenBucket{
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		refillInterval: refillInterval,
		tokens:         maxTokens,
		lastRefillTime: time.Now(),
		now:            time.Now,
	}
}

// refill must be called with mu held. It adds refillRate tokens per whole
// elapsed interval, capped at maxTokens, and advances lastRefillTime by
// exactly the number of intervals consumed (not to "now"), so a burst of
// back-to-back calls doesn't lose partial-interval progress.
func (b *TokenBucket) refill() {
	elapsed := b.now().Sub(b.lastRefillTime)
	if elapsed < b.refillInterval {
		return
	}
	intervals := int64(elapsed / b.refillInterval)
	if intervals <= 0 {
		return
	}
	b.tokens += float64(intervals) * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefillTime = b.lastRefillTime.Add(time.Duration(intervals) * b.refillInterval)
}

// Consume returns true and decrements the bucket iff at least n tokens are
// available.
func (b *TokenBucket) Consume(n float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	if b.tokens >= n {
		b.tokens -= n
		return true
	}
	return false
}

// Available reports the current token count after a lazy refill.
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// WaitTime returns how long until n tokens are available, or 0 if already
// available.
func (b *TokenBucket) WaitTime(n float64) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	if b.tokens >= n {
		return 0
	}
	deficit := n - b.tokens
	intervalsNeeded := deficit / b.refillRate
	// Round up to whole intervals since refill only happens on interval
	// boundaries.
	whole := int64(intervalsNeeded)
	if float64(whole) < intervalsNeeded {
		whole++
	}
	return time.Duration(whole) * b.refillInterval
}

// TokenBudget accumulates usage and rejects further recording that would
// exceed maxTokens.
type TokenBudget struct {
	mu        sync.Mutex
	used      int
	maxTokens int
}

func NewTokenBudget(maxTokens int) *TokenBudget {
	return &TokenBudget{maxTokens: maxTokens}
}

// Record adds k to the used total, returning a RateLimitError if that would
// exceed maxTokens.
func (b *TokenBudget) Record(k int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used+k > b.maxTokens {
		return newBudgetExceededError(b.used, k, b.maxTokens)
	}
	b.used += k
	return nil
}

// Used returns the current accumulated total.
func (b *TokenBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}
