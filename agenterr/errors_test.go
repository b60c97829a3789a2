package agenterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHTTPError(t *testing.T) {
	t.Run("401 maps to authentication", func(t *testing.T) {
		err := MapHTTPError(401, "nope", "openai", nil)
		var authErr *AuthenticationError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("429 reads integer retry-after", func(t *testing.T) {
		err := MapHTTPError(429, "slow down", "openai", map[string]string{"retry-after": "60"})
		var rl *RateLimitError
		require.ErrorAs(t, err, &rl)
		require.NotNil(t, rl.RetryAfter)
		assert.Equal(t, 60, *rl.RetryAfter)
	})

	t.Run("429 with non-numeric header yields nil retry-after", func(t *testing.T) {
		err := MapHTTPError(429, "slow down", "openai", map[string]string{"retry-after": "soon"})
		var rl *RateLimitError
		require.ErrorAs(t, err, &rl)
		assert.Nil(t, rl.RetryAfter)
	})

	t.Run("400 maps to invalid request", func(t *testing.T) {
		err := MapHTTPError(400, "bad", "openai", nil)
		var ire *InvalidRequestError
		require.ErrorAs(t, err, &ire)
	})

	t.Run("5xx maps to provider error", func(t *testing.T) {
		err := MapHTTPError(503, "down", "openai", nil)
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 503, pe.StatusCode)
	})
}

func TestDefaultIsRetryable(t *testing.T) {
	assert.True(t, DefaultIsRetryable(NewRateLimitError("x", nil, "p", nil)))
	assert.True(t, DefaultIsRetryable(NewTimeoutError("x", nil)))
	assert.True(t, DefaultIsRetryable(NewProviderError("x", 500, "p", nil)))
	assert.False(t, DefaultIsRetryable(NewProviderError("x", 400, "p", nil)))
	assert.False(t, DefaultIsRetryable(NewAbortError("x")))
	assert.False(t, DefaultIsRetryable(NewAuthenticationError("x", "p", nil)))
	assert.False(t, DefaultIsRetryable(NewInvalidRequestError("x", "p", nil)))
	assert.True(t, DefaultIsRetryable(errors.New("read tcp: connection reset by peer")))
	assert.False(t, DefaultIsRetryable(errors.New("totally unrelated")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewProviderError("wrapped", 500, "p", cause)
	assert.ErrorIs(t, err, cause)
}
