// Package httpclient is a thin net/http wrapper shared by the provider
// adapters in the llms package: it owns TLS configuration and exposes the
// rate-limit header parsers the adapters use when routing a 429 response
// through agenterr.NewRateLimitError, and a lowercased header map for every
// other status routed through agenterr.MapHTTPError.
package httpclient

import (
	"crypto/tls"
	"net/http"
	"strings"
	"time"
)

// RateLimitInfo is what an adapter extracts from a 429 response's headers
// via ParseOpenAIRateLimitHeaders/ParseAnthropicRateLimitHeaders before
// building a RateLimitError.
type RateLimitInfo struct {
	RetryAfter            time.Duration
	ResetTime             int64
	RequestsRemaining     int
	TokensRemaining       int
	InputTokensRemaining  int
	OutputTokensRemaining int
}

// RetryAfterSeconds converts RetryAfter to the whole-second pointer
// agenterr.NewRateLimitError expects, or nil when no Retry-After was present.
func (i RateLimitInfo) RetryAfterSeconds() *int {
	if i.RetryAfter <= 0 {
		return nil
	}
	seconds := int(i.RetryAfter.Seconds())
	return &seconds
}

// Config configures the shared HTTP client.
type Config struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// New builds an *http.Client honoring Config.
func New(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		transport = t
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// HeadersToMap lowercases HTTP header keys into a plain map for
// agenterr.MapHTTPError, which only cares about retry-after.
func HeadersToMap(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[strings.ToLower(k)] = h.Get(k)
	}
	return out
}
