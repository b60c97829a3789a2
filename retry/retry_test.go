package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlinkos/agent/agenterr"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestWithRetrySucceedsAfterRetryableFailures(t *testing.T) {
	attempts := 0
	result, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", agenterr.NewProviderError("flaky", 503, "p", nil)
		}
		return "ok", nil
	}, Options{Sleep: noSleep})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		return "", agenterr.NewAuthenticationError("nope", "p", nil)
	}, Options{Sleep: noSleep})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryExhaustsAndRethrowsLast(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		return "", agenterr.NewTimeoutError("slow", nil)
	}, Options{MaxRetries: 2, Sleep: noSleep})

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // 1 + maxRetries
}

func TestRateLimitRetryAfterIsExact(t *testing.T) {
	var slept time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		slept = d
		return nil
	}
	retryAfter := 5
	attempts := 0
	_, _ = WithRetry(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", agenterr.NewRateLimitError("slow down", &retryAfter, "p", nil)
		}
		return "ok", nil
	}, Options{Sleep: sleep})

	assert.Equal(t, 5*time.Second, slept)
}

func TestFallbackUsesSecondProviderOnFailure(t *testing.T) {
	p1 := fakeProvider{name: "p1", err: errors.New("p1 down")}
	p2 := fakeProvider{name: "p2", value: "from p2"}
	fb, err := NewFallback([]FallbackCapable[string]{p1, p2}, Options{MaxRetries: 0, Sleep: noSleep})
	require.NoError(t, err)

	result, err := fb.Call(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from p2", result)
	assert.Equal(t, "fallback(p1,p2)", fb.Name())
}

func TestFallbackEmptyIsConstructionError(t *testing.T) {
	_, err := NewFallback([]FallbackCapable[string]{}, Options{})
	require.Error(t, err)
}

type fakeProvider struct {
	name  string
	value string
	err   error
}

func (f fakeProvider) Name() string { return f.name }
func (f fakeProvider) Call(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.value, nil
}
