package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeadersToMapLowercasesKeys(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "60")
	h.Set("X-Request-Id", "abc")

	m := HeadersToMap(h)
	assert.Equal(t, "60", m["retry-after"])
	assert.Equal(t, "abc", m["x-request-id"])
}

func TestRateLimitInfoRetryAfterSeconds(t *testing.T) {
	assert.Nil(t, RateLimitInfo{}.RetryAfterSeconds())
	assert.Nil(t, RateLimitInfo{RetryAfter: -1 * time.Second}.RetryAfterSeconds())

	got := RateLimitInfo{RetryAfter: 60 * time.Second}.RetryAfterSeconds()
	if assert.NotNil(t, got) {
		assert.Equal(t, 60, *got)
	}
}

func TestParseOpenAIRateLimitHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "30")
	h.Set("x-ratelimit-remaining-requests", "5")
	h.Set("x-ratelimit-remaining-tokens", "1000")

	info := ParseOpenAIRateLimitHeaders(h)
	assert.Equal(t, 30*time.Second, info.RetryAfter)
	assert.Equal(t, 5, info.RequestsRemaining)
	assert.Equal(t, 1000, info.TokensRemaining)
}

func TestParseAnthropicRateLimitHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("retry-after", "15")
	h.Set("anthropic-ratelimit-requests-remaining", "3")
	h.Set("anthropic-ratelimit-input-tokens-remaining", "200")
	h.Set("anthropic-ratelimit-output-tokens-remaining", "100")

	info := ParseAnthropicRateLimitHeaders(h)
	assert.Equal(t, 15*time.Second, info.RetryAfter)
	assert.Equal(t, 3, info.RequestsRemaining)
	assert.Equal(t, 200, info.InputTokensRemaining)
	assert.Equal(t, 100, info.OutputTokensRemaining)
}
