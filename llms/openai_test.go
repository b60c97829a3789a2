package llms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlinkos/agent/agenterr"
)

func TestToOAMessagesRoundTrip(t *testing.T) {
	text := "hello"
	msgs := []Message{
		NewTextMessage(RoleSystem, "be nice"),
		NewTextMessage(RoleUser, text),
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "greet", Arguments: map[string]interface{}{"name": "world"}}}},
		{Role: RoleTool, ToolCallID: "c1", Content: strptr("Hello world")},
	}
	out := toOAMessages(msgs)
	require.Len(t, out, 4)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "c1", out[2].ToolCalls[0].ID)
	assert.Equal(t, `{"name":"world"}`, out[2].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "c1", out[3].ToolCallID)
}

func TestFromOAToolCallsLegacy(t *testing.T) {
	calls, err := fromOAToolCalls(nil, &oaFunction{Name: "greet", Arguments: `{"name":"world"}`})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.NotEmpty(t, calls[0].ID)
	assert.Equal(t, "greet", calls[0].Name)
	assert.Equal(t, "world", calls[0].Arguments["name"])
}

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, FinishStop, mapFinishReason("stop"))
	assert.Equal(t, FinishToolCalls, mapFinishReason("tool_calls"))
	assert.Equal(t, FinishContentFilter, mapFinishReason("content_filter"))
	assert.Equal(t, FinishUnknown, mapFinishReason("something_else"))
}

func TestOpenAIChatAdapterGenerate429RetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	adapter := NewOpenAIChatAdapter(OpenAIChatConfig{
		ProviderLabel: "openai",
		BaseURL:       server.URL,
		ChatPath:      "/v1/chat/completions",
		Model:         "gpt-4o",
		APIKey:        "test-key",
	})

	_, err := adapter.Generate(context.Background(), []Message{NewTextMessage(RoleUser, "hi")}, nil, nil)
	var rl *agenterr.RateLimitError
	require.ErrorAs(t, err, &rl)
	require.NotNil(t, rl.RetryAfter)
	assert.Equal(t, 42, *rl.RetryAfter)
}

func strptr(s string) *string { return &s }
