// Package retry implements exponential-backoff retry with jitter and an
// ordered provider fallback chain, both built on agenterr's retryability
// predicate.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/openlinkos/agent/agenterr"
)

// Options configures withRetry. Zero values fall back to the documented
// defaults.
type Options struct {
	MaxRetries   int           // default 3
	InitialDelay time.Duration // default 1s
	MaxDelay     time.Duration // default 30s
	Multiplier   float64       // default 2
	IsRetryable  func(error) bool
	Sleep        func(ctx context.Context, d time.Duration) error // overridable for tests
}

func (o Options) withDefaults() Options {
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.InitialDelay == 0 {
		o.InitialDelay = time.Second
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier == 0 {
		o.Multiplier = 2
	}
	if o.IsRetryable == nil {
		o.IsRetryable = agenterr.DefaultIsRetryable
	}
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithRetry attempts fn up to 1+MaxRetries times. On a retryable error it
// sleeps min(initial*multiplier^attempt, maxDelay) plus uniform jitter of
// ±25%, except a RateLimitError with a positive RetryAfter sleeps exactly
// that many seconds. Non-retryable errors or exhausted retries rethrow the
// last error.
func WithRetry[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()
	var zero T
	var lastErr error

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !opts.IsRetryable(err) {
			return zero, err
		}
		if attempt == opts.MaxRetries {
			break
		}

		delay := backoffDelay(err, attempt, opts)
		if sleepErr := opts.Sleep(ctx, delay); sleepErr != nil {
			return zero, sleepErr
		}
	}
	return zero, lastErr
}

func backoffDelay(err error, attempt int, opts Options) time.Duration {
	var rl *agenterr.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter != nil && *rl.RetryAfter > 0 {
		return time.Duration(*rl.RetryAfter) * time.Second
	}

	base := float64(opts.InitialDelay) * math.Pow(opts.Multiplier, float64(attempt))
	if base > float64(opts.MaxDelay) {
		base = float64(opts.MaxDelay)
	}
	jitterFactor := 1 + (rand.Float64()*0.5 - 0.25) // ±25%
	return time.Duration(base * jitterFactor)
}

// FallbackCapable is any callable a FallbackProvider can chain: it performs
// one attempt given a context, returning a named result or an error.
type FallbackCapable[T any] interface {
	Name() string
	Call(ctx context.Context) (T, error)
}

// Fallback iterates providers in order, wrapping each attempt in WithRetry;
// on exhaustion it moves to the next provider; if all fail it returns the
// last error. Its display Name is "fallback(p1,p2,...)". An empty list is a
// construction error.
type Fallback[T any] struct {
	providers []FallbackCapable[T]
	retryOpts Options
}

func NewFallback[T any](providers []FallbackCapable[T], retryOpts Options) (*Fallback[T], error) {
	if len(providers) == 0 {
		return nil, agenterr.NewInvalidRequestError("fallback requires at least one provider", "", nil)
	}
	return &Fallback[T]{providers: providers, retryOpts: retryOpts}, nil
}

// Name returns "fallback(p1,p2,...)".
func (f *Fallback[T]) Name() string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return fmt.Sprintf("fallback(%s)", strings.Join(names, ","))
}

// HeadName is the display name of the first provider, used for capability
// reporting: the chain reports the capabilities of its head.
func (f *Fallback[T]) HeadName() string { return f.providers[0].Name() }

// Call tries each provider in order, returning the first success.
func (f *Fallback[T]) Call(ctx context.Context) (T, error) {
	var zero T
	var lastErr error
	for _, p := range f.providers {
		result, err := WithRetry(ctx, p.Call, f.retryOpts)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return zero, lastErr
}
