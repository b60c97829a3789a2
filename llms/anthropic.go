package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openlinkos/agent/agenterr"
	"github.com/openlinkos/agent/internal/httpclient"
)

// AnthropicConfig configures an AnthropicAdapter.
type AnthropicConfig struct {
	BaseURL    string
	Model      string
	APIKey     string
	MaxTokens  int
	HTTPClient *http.Client
}

// AnthropicAdapter implements Provider against the Anthropic messages API,
// normalizing its block-based content model into the runtime's flat
// text+tool-calls Message shape.
type AnthropicAdapter struct {
	cfg AnthropicConfig
}

func NewAnthropicAdapter(cfg AnthropicConfig) *AnthropicAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New(httpclient.Config{})
	}
	return &AnthropicAdapter{cfg: cfg}
}

func (a *AnthropicAdapter) Name() string { return "anthropic" }

type anthBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthMessage struct {
	Role    string      `json:"role"`
	Content []anthBlock `json:"content"`
}

type anthTool struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	InputSchema JSONSchema `json:"input_schema"`
}

type anthRequest struct {
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
	Messages  []anthMessage `json:"messages"`
	Tools     []anthTool    `json:"tools,omitempty"`
	MaxTokens int           `json:"max_tokens"`
	Stream    bool          `json:"stream,omitempty"`
}

type anthUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthResponse struct {
	Content    []anthBlock `json:"content"`
	StopReason string      `json:"stop_reason"`
	Usage      anthUsage   `json:"usage"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// toAnthropic splits out any leading system messages (Anthropic carries
// system as a top-level field, not a message role) and converts the rest.
func (a *AnthropicAdapter) toAnthropic(messages []Message, tools []ToolDefinition) anthRequest {
	req := anthRequest{Model: a.cfg.Model, MaxTokens: a.cfg.MaxTokens}

	var systemParts []string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, m.Text())
		case RoleUser:
			req.Messages = append(req.Messages, anthMessage{Role: "user", Content: []anthBlock{{Type: "text", Text: m.Text()}}})
		case RoleAssistant:
			blocks := []anthBlock{}
			if m.Content != nil && *m.Content != "" {
				blocks = append(blocks, anthBlock{Type: "text", Text: *m.Content})
			}
			for _, tc := range m.ToolCalls {
				input, _ := json.Marshal(tc.Arguments)
				blocks = append(blocks, anthBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
			req.Messages = append(req.Messages, anthMessage{Role: "assistant", Content: blocks})
		case RoleTool:
			req.Messages = append(req.Messages, anthMessage{Role: "user", Content: []anthBlock{{
				Type:      "tool_result",
				ToolUseID: m.ToolCallID,
				Content:   m.Text(),
			}}})
		}
	}
	req.System = strings.Join(systemParts, "\n\n")

	for _, t := range tools {
		req.Tools = append(req.Tools, anthTool{Name: t.Name, Description: t.Description, InputSchema: t.Parameters})
	}
	return req
}

func (a *AnthropicAdapter) fromAnthropic(blocks []anthBlock) (*string, []ToolCall, error) {
	var textParts []string
	var calls []ToolCall
	for _, b := range blocks {
		switch b.Type {
		case "text":
			textParts = append(textParts, b.Text)
		case "tool_use":
			var args map[string]interface{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &args); err != nil {
					return nil, nil, agenterr.NewProviderError("malformed tool_use input", 0, a.Name(), err)
				}
			} else {
				args = map[string]interface{}{}
			}
			calls = append(calls, ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	if len(textParts) == 0 {
		return nil, calls, nil
	}
	text := strings.Join(textParts, "")
	return &text, calls, nil
}

func mapAnthropicStopReason(s string) FinishReason {
	switch s {
	case "end_turn", "stop_sequence":
		return FinishStop
	case "max_tokens":
		return FinishLength
	case "tool_use":
		return FinishToolCalls
	default:
		return FinishUnknown
	}
}

func (a *AnthropicAdapter) doRequest(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(a.cfg.BaseURL, "/")+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, agenterr.NewInvalidRequestError("failed to build request", a.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, agenterr.NewProviderError("request failed", 0, a.Name(), err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests {
			info := httpclient.ParseAnthropicRateLimitHeaders(resp.Header)
			return nil, agenterr.NewRateLimitError(fmt.Sprintf("rate limited (status %d)", resp.StatusCode), info.RetryAfterSeconds(), a.Name(), errors.New(string(respBody)))
		}
		return nil, agenterr.MapHTTPError(resp.StatusCode, string(respBody), a.Name(), httpclient.HeadersToMap(resp.Header))
	}
	return resp, nil
}

// Generate implements Provider.
func (a *AnthropicAdapter) Generate(ctx context.Context, messages []Message, tools []ToolDefinition, format *ResponseFormat) (*ModelResponse, error) {
	req := a.toAnthropic(messages, tools)
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, agenterr.NewInvalidRequestError("failed to marshal request", a.Name(), err)
	}
	resp, err := a.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed anthResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, agenterr.NewProviderError("failed to decode response", 0, a.Name(), err)
	}
	if parsed.Error != nil {
		return nil, agenterr.NewProviderError(parsed.Error.Message, 0, a.Name(), nil)
	}
	text, calls, err := a.fromAnthropic(parsed.Content)
	if err != nil {
		return nil, err
	}
	return &ModelResponse{
		Text:      text,
		ToolCalls: calls,
		Usage: Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
		FinishReason: mapAnthropicStopReason(parsed.StopReason),
	}, nil
}

// Stream implements Provider. Anthropic's SSE event stream uses named
// `event:` lines in addition to `data:` payloads; the shared reader only
// inspects the `data:` line, which is sufficient since every event here
// carries a `type` discriminator in its JSON body.
func (a *AnthropicAdapter) Stream(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamEvent, error) {
	req := a.toAnthropic(messages, tools)
	req.Stream = true
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, agenterr.NewInvalidRequestError("failed to marshal request", a.Name(), err)
	}
	resp, err := a.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamEvent, 16)
	go readSSE(ctx, resp.Body, a.decodeChunk, out)
	return out, nil
}

type anthStreamEvent struct {
	Type         string          `json:"type"`
	Delta        json.RawMessage `json:"delta,omitempty"`
	ContentBlock *anthBlock      `json:"content_block,omitempty"`
	Usage        *anthUsage      `json:"usage,omitempty"`
}

type anthDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

func (a *AnthropicAdapter) decodeChunk(payload []byte, emit func(StreamEvent)) (bool, error) {
	var ev anthStreamEvent
	if !jsonPeek(payload, &ev) {
		return false, nil
	}
	switch ev.Type {
	case "content_block_start":
		if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
			emit(StreamEvent{Type: EventToolCallDelta, ToolCall: &PartialToolCall{ID: ev.ContentBlock.ID, Name: ev.ContentBlock.Name}})
		}
	case "content_block_delta":
		var d anthDelta
		if jsonPeek(ev.Delta, &d) {
			if d.Type == "text_delta" {
				emit(StreamEvent{Type: EventTextDelta, Text: d.Text})
			} else if d.Type == "input_json_delta" {
				emit(StreamEvent{Type: EventToolCallDelta, ToolCall: &PartialToolCall{ArgumentsJSON: d.PartialJSON}})
			}
		}
	case "message_delta":
		if ev.Usage != nil {
			emit(StreamEvent{Type: EventUsage, Usage: &Usage{
				CompletionTokens: ev.Usage.OutputTokens,
				TotalTokens:      ev.Usage.InputTokens + ev.Usage.OutputTokens,
			}})
		}
	case "message_stop":
		return true, nil
	}
	return false, nil
}
