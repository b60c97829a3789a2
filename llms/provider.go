package llms

import "context"

// Provider is the contract a concrete adapter (OpenAI-chat, Anthropic-
// messages, Ollama, ...) implements. The model facade (package model) wraps
// a Provider to add config-merging, retry/fallback, and rate limiting.
type Provider interface {
	// Generate performs one non-streamed model call.
	Generate(ctx context.Context, messages []Message, tools []ToolDefinition, format *ResponseFormat) (*ModelResponse, error)

	// Stream performs one streamed model call, sending StreamEvents to a
	// channel it returns. The last event is always a terminal EventDone,
	// sent after any event carrying Err; the callee owns the channel and
	// closes it after that event.
	Stream(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamEvent, error)

	// Name is the provider's display label, e.g. "openai".
	Name() string
}
