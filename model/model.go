// Package model implements the runtime's Model facade: parsing a
// "provider:model" identifier, merging per-call config overrides over
// defaults, and threading request options (including cancellation) into a
// concrete llms.Provider.
package model

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openlinkos/agent/agenterr"
	"github.com/openlinkos/agent/llms"
	"github.com/openlinkos/agent/ratelimit"
	"github.com/openlinkos/agent/retry"
	"github.com/openlinkos/agent/streamx"
)

// streamBufferSize bounds the relay channel Stream hands back to callers, so
// a slow consumer applies backpressure to the provider instead of an
// unbounded build-up of buffered events.
const streamBufferSize = 16

// RateLimitConfig enables token-bucket rate limiting for a Model's provider.
type RateLimitConfig struct {
	MaxTokens      float64
	RefillRate     float64
	RefillInterval time.Duration
	AcquireTimeout time.Duration
	Budget         *ratelimit.TokenBudget
}

// Config is the per-model default configuration, overridable per call.
type Config struct {
	Temperature *float64
	MaxTokens   *int
	BaseURL     string
	APIKey      string

	// RetryOptions configures retry.WithRetry around every call; nil uses
	// retry's documented defaults.
	RetryOptions *retry.Options

	// RateLimit, when set, wraps the provider in a ratelimit.RateLimiter at
	// construction time.
	RateLimit *RateLimitConfig
}

// Merge returns a copy of c with any non-zero field in override applied,
// except RateLimit, which only takes effect when Create builds the Model.
func (c Config) Merge(override Config) Config {
	out := c
	if override.RetryOptions != nil {
		out.RetryOptions = override.RetryOptions
	}
	if override.Temperature != nil {
		out.Temperature = override.Temperature
	}
	if override.MaxTokens != nil {
		out.MaxTokens = override.MaxTokens
	}
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.APIKey != "" {
		out.APIKey = override.APIKey
	}
	return out
}

// RequestOptions carries per-call plumbing that is not part of Config: an
// optional cancellation context is threaded separately via ctx, so this
// struct is currently a placeholder for future per-request knobs (e.g.
// per-call headers) that the spec's provider adapters may need.
type RequestOptions struct{}

// Model is the facade callers interact with. It wraps a concrete
// llms.Provider plus the default Config resolved at creation.
type Model struct {
	Provider string
	ModelID  string
	provider llms.Provider
	defaults Config
}

// ParseIdentifier splits "<provider>:<model>" and rejects missing or
// empty-segment shapes.
func ParseIdentifier(id string) (provider, modelName string, err error) {
	idx := strings.Index(id, ":")
	if idx < 0 {
		return "", "", agenterr.NewInvalidRequestError(fmt.Sprintf("model identifier %q must be \"provider:model\"", id), "", nil)
	}
	provider, modelName = id[:idx], id[idx+1:]
	if provider == "" || modelName == "" {
		return "", "", agenterr.NewInvalidRequestError(fmt.Sprintf("model identifier %q has an empty provider or model segment", id), "", nil)
	}
	return provider, modelName, nil
}

// Create builds a Model from "provider:model" plus optional default Config.
func Create(identifier string, cfg Config) (*Model, error) {
	providerName, modelName, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(strings.ToUpper(providerName) + "_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv(strings.ToUpper(providerName) + "_BASE_URL")
	}

	provider, err := buildProvider(providerName, modelName, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit != nil {
		bucket := ratelimit.NewTokenBucket(cfg.RateLimit.MaxTokens, cfg.RateLimit.RefillRate, cfg.RateLimit.RefillInterval)
		provider = ratelimit.NewRateLimiter(provider, bucket, cfg.RateLimit.Budget, cfg.RateLimit.RefillInterval, cfg.RateLimit.AcquireTimeout)
	}

	return &Model{Provider: providerName, ModelID: modelName, provider: provider, defaults: cfg}, nil
}

func buildProvider(providerName, modelName string, cfg Config) (llms.Provider, error) {
	switch providerName {
	case "openai", "deepseek", "dashscope":
		base := cfg.BaseURL
		if base == "" {
			base = defaultBaseURL(providerName)
		}
		return llms.NewOpenAIChatAdapter(llms.OpenAIChatConfig{
			ProviderLabel:  providerName,
			EnvVarName:     strings.ToUpper(providerName) + "_API_KEY",
			BaseURL:        base,
			ChatPath:       "/chat/completions",
			Model:          modelName,
			RequiresAPIKey: true,
			APIKey:         cfg.APIKey,
		}), nil
	case "ollama":
		return llms.NewOllamaAdapter(cfg.BaseURL, modelName, cfg.APIKey, nil), nil
	case "anthropic":
		maxTokens := 4096
		if cfg.MaxTokens != nil {
			maxTokens = *cfg.MaxTokens
		}
		return llms.NewAnthropicAdapter(llms.AnthropicConfig{
			BaseURL:   cfg.BaseURL,
			Model:     modelName,
			APIKey:    cfg.APIKey,
			MaxTokens: maxTokens,
		}), nil
	default:
		return nil, agenterr.NewInvalidRequestError(fmt.Sprintf("unknown provider %q", providerName), providerName, nil)
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "deepseek":
		return "https://api.deepseek.com/v1"
	case "dashscope":
		return "https://dashscope.aliyuncs.com/compatible-mode/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// Generate performs one non-streamed call, merging override over defaults,
// retrying retryable provider errors per the merged Config's RetryOptions.
func (m *Model) Generate(ctx context.Context, messages []llms.Message, override Config) (*llms.ModelResponse, error) {
	merged := m.defaults.Merge(override)
	return m.generateWithRetry(ctx, merged, func(ctx context.Context) (*llms.ModelResponse, error) {
		return m.provider.Generate(ctx, messages, nil, nil)
	})
}

// GenerateWithTools performs one non-streamed call offering tools.
func (m *Model) GenerateWithTools(ctx context.Context, messages []llms.Message, tools []llms.ToolDefinition, override Config) (*llms.ModelResponse, error) {
	merged := m.defaults.Merge(override)
	return m.generateWithRetry(ctx, merged, func(ctx context.Context) (*llms.ModelResponse, error) {
		return m.provider.Generate(ctx, messages, tools, nil)
	})
}

// GenerateStructured performs one non-streamed call requesting the given
// JSON response format.
func (m *Model) GenerateStructured(ctx context.Context, messages []llms.Message, format llms.ResponseFormat) (*llms.ModelResponse, error) {
	return m.generateWithRetry(ctx, m.defaults, func(ctx context.Context) (*llms.ModelResponse, error) {
		return m.provider.Generate(ctx, messages, nil, &format)
	})
}

func (m *Model) generateWithRetry(ctx context.Context, cfg Config, fn func(context.Context) (*llms.ModelResponse, error)) (*llms.ModelResponse, error) {
	opts := retry.Options{}
	if cfg.RetryOptions != nil {
		opts = *cfg.RetryOptions
	}
	return retry.WithRetry(ctx, fn, opts)
}

// Stream performs one streamed call. The returned channel is relayed through
// a bounded streamx buffer so a slow consumer applies backpressure to the
// provider instead of letting events pile up unbounded.
func (m *Model) Stream(ctx context.Context, messages []llms.Message, tools []llms.ToolDefinition) (<-chan llms.StreamEvent, error) {
	raw, err := m.provider.Stream(ctx, messages, tools)
	if err != nil {
		return nil, err
	}
	return streamx.Backpressure[llms.StreamEvent](raw, streamBufferSize), nil
}

// Name returns the underlying provider's display label.
func (m *Model) Name() string { return m.provider.Name() }
