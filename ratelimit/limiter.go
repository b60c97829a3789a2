package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/openlinkos/agent/agenterr"
	"github.com/openlinkos/agent/llms"
)

// waiter is one queued acquisition request.
type waiter struct {
	done    chan struct{}
	err     error
	removed bool
}

// RateLimiter wraps an llms.Provider, acquiring one token from a TokenBucket
// before every call. Acquisition is immediate when the bucket has a token;
// otherwise the caller is enqueued and a single drain loop (started lazily
// on first queueing) polls every refillInterval, waking queued waiters in
// FIFO order while tokens remain.
type RateLimiter struct {
	provider       llms.Provider
	bucket         *TokenBucket
	budget         *TokenBudget
	refillInterval time.Duration
	timeout        time.Duration

	mu          sync.Mutex
	queue       *list.List // of *waiter
	drainActive bool
	disposed    bool
	stopDrain   chan struct{}
}

// NewRateLimiter wraps provider with token-bucket rate limiting. timeout of
// 0 disables the per-acquisition wait timeout.
func NewRateLimiter(provider llms.Provider, bucket *TokenBucket, budget *TokenBudget, refillInterval, timeout time.Duration) *RateLimiter {
	return &RateLimiter{
		provider:       provider,
		bucket:         bucket,
		budget:         budget,
		refillInterval: refillInterval,
		timeout:        timeout,
		queue:          list.New(),
	}
}

func (r *RateLimiter) Name() string { return r.provider.Name() }

// acquire blocks until a token is available, the timeout elapses, the
// limiter is disposed, or ctx is cancelled.
func (r *RateLimiter) acquire(ctx context.Context) error {
	if r.bucket.Consume(1) {
		return nil
	}

	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return agenterr.NewAbortError("rate limiter disposed")
	}
	w := &waiter{done: make(chan struct{})}
	elem := r.queue.PushBack(w)
	r.ensureDrainLoopLocked()
	r.mu.Unlock()

	var timeoutCh <-chan time.Time
	if r.timeout > 0 {
		timer := time.NewTimer(r.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-w.done:
		return w.err
	case <-timeoutCh:
		r.removeWaiter(elem)
		return agenterr.NewTimeoutError("rate limiter acquisition timed out", nil)
	case <-ctx.Done():
		r.removeWaiter(elem)
		return agenterr.NewAbortError("acquisition cancelled")
	}
}

func (r *RateLimiter) removeWaiter(elem *list.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := elem.Value.(*waiter); ok && !w.removed {
		w.removed = true
		r.queue.Remove(elem)
	}
}

// ensureDrainLoopLocked starts the single shared drain goroutine if it is
// not already running. Must be called with mu held.
func (r *RateLimiter) ensureDrainLoopLocked() {
	if r.drainActive {
		return
	}
	r.drainActive = true
	r.stopDrain = make(chan struct{})
	go r.drainLoop(r.stopDrain)
}

func (r *RateLimiter) drainLoop(stop chan struct{}) {
	ticker := time.NewTicker(r.refillInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			for r.bucket.Consume(1) {
				front := r.queue.Front()
				if front == nil {
					// token consumed but no one waiting; refund it.
					r.bucket.mu.Lock()
					r.bucket.tokens += 1
					if r.bucket.tokens > r.bucket.maxTokens {
						r.bucket.tokens = r.bucket.maxTokens
					}
					r.bucket.mu.Unlock()
					break
				}
				r.queue.Remove(front)
				w := front.Value.(*waiter)
				if !w.removed {
					w.removed = true
					close(w.done)
				}
			}
			empty := r.queue.Len() == 0
			r.mu.Unlock()
			if empty {
				r.mu.Lock()
				if r.queue.Len() == 0 {
					r.drainActive = false
					r.mu.Unlock()
					return
				}
				r.mu.Unlock()
			}
		}
	}
}

// Dispose clears the drain timer and rejects every pending waiter with a
// disposal error.
func (r *RateLimiter) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.disposed = true
	if r.drainActive {
		close(r.stopDrain)
		r.drainActive = false
	}
	for e := r.queue.Front(); e != nil; e = e.Next() {
		w := e.Value.(*waiter)
		if !w.removed {
			w.removed = true
			w.err = agenterr.NewAbortError("rate limiter disposed")
			close(w.done)
		}
	}
	r.queue.Init()
}

func (r *RateLimiter) recordUsage(u llms.Usage) {
	if r.budget != nil {
		_ = r.budget.Record(u.TotalTokens)
	}
}

// Generate implements llms.Provider, acquiring a token first.
func (r *RateLimiter) Generate(ctx context.Context, messages []llms.Message, tools []llms.ToolDefinition, format *llms.ResponseFormat) (*llms.ModelResponse, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	resp, err := r.provider.Generate(ctx, messages, tools, format)
	if err == nil {
		r.recordUsage(resp.Usage)
	}
	return resp, err
}

// Stream implements llms.Provider, acquiring a token first.
func (r *RateLimiter) Stream(ctx context.Context, messages []llms.Message, tools []llms.ToolDefinition) (<-chan llms.StreamEvent, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	return r.provider.Stream(ctx, messages, tools)
}
