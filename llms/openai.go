package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"

	"github.com/openlinkos/agent/agenterr"
	"github.com/openlinkos/agent/internal/httpclient"
)

// OpenAIChatConfig configures an OpenAIChatAdapter. Subclassing providers
// (e.g. Ollama) build one of these with their own defaults rather than
// overriding methods, since Go has no inheritance.
type OpenAIChatConfig struct {
	ProviderLabel   string // display name used in errors, e.g. "openai"
	EnvVarName      string // e.g. "OPENAI_API_KEY"
	BaseURL         string // e.g. "https://api.openai.com/v1"
	ChatPath        string // e.g. "/chat/completions"
	Model           string
	RequiresAPIKey  bool // Ollama sets this false but still sends an empty bearer
	APIKey          string
	HTTPClient      *http.Client
}

// OpenAIChatAdapter implements Provider against the OpenAI chat-completions
// wire shape; it is also the base every OpenAI-compatible gateway
// (including Ollama) builds on.
type OpenAIChatAdapter struct {
	cfg OpenAIChatConfig
}

func NewOpenAIChatAdapter(cfg OpenAIChatConfig) *OpenAIChatAdapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New(httpclient.Config{})
	}
	return &OpenAIChatAdapter{cfg: cfg}
}

func (a *OpenAIChatAdapter) Name() string { return a.cfg.ProviderLabel }

// --- wire shapes -----------------------------------------------------------

type oaFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaToolCall struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Function oaFunction `json:"function"`
}

type oaMessage struct {
	Role       string       `json:"role"`
	Content    *string      `json:"content"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
	Name       string       `json:"name,omitempty"`
}

type oaFunctionDef struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Parameters  JSONSchema `json:"parameters"`
}

type oaTool struct {
	Type     string        `json:"type"`
	Function oaFunctionDef `json:"function"`
}

type oaResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"schema,omitempty"`
}

type oaRequest struct {
	Model          string            `json:"model"`
	Messages       []oaMessage       `json:"messages"`
	Tools          []oaTool          `json:"tools,omitempty"`
	Stream         bool              `json:"stream,omitempty"`
	ResponseFormat *oaResponseFormat `json:"response_format,omitempty"`
}

type oaUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type oaChoice struct {
	Message      oaMessage `json:"message"`
	FinishReason string    `json:"finish_reason"`
	// Delta is the incremental payload of a streamed chunk.
	Delta oaDelta `json:"delta"`
}

type oaDelta struct {
	Content      string            `json:"content"`
	ToolCalls    []oaDeltaToolCall `json:"tool_calls,omitempty"`
	FunctionCall *oaFunction       `json:"function_call,omitempty"`
}

type oaDeltaToolCall struct {
	Index    int        `json:"index"`
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Function oaFunction `json:"function"`
}

type oaResponse struct {
	Choices []oaChoice `json:"choices"`
	Usage   oaUsage    `json:"usage"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// --- message/tool conversion ------------------------------------------------

func toOAMessages(messages []Message) []oaMessage {
	out := make([]oaMessage, 0, len(messages))
	for _, m := range messages {
		om := oaMessage{Role: string(m.Role), Content: m.Content, Name: m.Name, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, oaToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: oaFunction{
					Name:      tc.Name,
					Arguments: marshalArguments(tc.Arguments),
				},
			})
		}
		out = append(out, om)
	}
	return out
}

func toOATools(tools []ToolDefinition) []oaTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]oaTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, oaTool{
			Type: "function",
			Function: oaFunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// fromOAToolCalls parses upstream tool calls (including the legacy single
// function_call shape) into the normalized ToolCall type.
func fromOAToolCalls(calls []oaToolCall, legacy *oaFunction) ([]ToolCall, error) {
	var out []ToolCall
	if legacy != nil {
		args, err := parseArguments(legacy.Arguments)
		if err != nil {
			return nil, err
		}
		out = append(out, ToolCall{ID: synthesizeCallID(), Name: legacy.Name, Arguments: args})
		return out, nil
	}
	for _, c := range calls {
		args, err := parseArguments(c.Function.Arguments)
		if err != nil {
			return nil, err
		}
		out = append(out, ToolCall{ID: c.ID, Name: c.Function.Name, Arguments: args})
	}
	return out, nil
}

func parseArguments(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, agenterr.NewProviderError("malformed tool call arguments", 0, "", err)
	}
	return args, nil
}

func synthesizeCallID() string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 9)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return "fc_" + string(b)
}

func mapFinishReason(s string) FinishReason {
	switch s {
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	case "tool_calls", "function_call":
		return FinishToolCalls
	case "content_filter":
		return FinishContentFilter
	case "":
		return FinishUnknown
	default:
		return FinishUnknown
	}
}

// --- request building --------------------------------------------------------

func (a *OpenAIChatAdapter) buildRequest(messages []Message, tools []ToolDefinition, stream bool, format *ResponseFormat) oaRequest {
	req := oaRequest{
		Model:    a.cfg.Model,
		Messages: toOAMessages(messages),
		Tools:    toOATools(tools),
		Stream:   stream,
	}
	if format != nil && format.Type == "json" {
		req.ResponseFormat = &oaResponseFormat{Type: "json_object", JSONSchema: format.Schema}
	}
	return req
}

func (a *OpenAIChatAdapter) authHeader() string {
	if a.cfg.APIKey == "" {
		return "Bearer "
	}
	return "Bearer " + a.cfg.APIKey
}

func (a *OpenAIChatAdapter) endpoint() string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + a.cfg.ChatPath
}

func (a *OpenAIChatAdapter) doRequest(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, agenterr.NewInvalidRequestError("failed to build request", a.cfg.ProviderLabel, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", a.authHeader())

	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, agenterr.NewProviderError("request failed", 0, a.cfg.ProviderLabel, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests {
			info := httpclient.ParseOpenAIRateLimitHeaders(resp.Header)
			return nil, agenterr.NewRateLimitError(fmt.Sprintf("rate limited (status %d)", resp.StatusCode), info.RetryAfterSeconds(), a.cfg.ProviderLabel, errors.New(string(respBody)))
		}
		return nil, agenterr.MapHTTPError(resp.StatusCode, string(respBody), a.cfg.ProviderLabel, httpclient.HeadersToMap(resp.Header))
	}
	return resp, nil
}

// Generate implements Provider.
func (a *OpenAIChatAdapter) Generate(ctx context.Context, messages []Message, tools []ToolDefinition, format *ResponseFormat) (*ModelResponse, error) {
	reqBody := a.buildRequest(messages, tools, false, format)
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, agenterr.NewInvalidRequestError("failed to marshal request", a.cfg.ProviderLabel, err)
	}

	resp, err := a.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed oaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, agenterr.NewProviderError("failed to decode response", 0, a.cfg.ProviderLabel, err)
	}
	if parsed.Error != nil {
		return nil, agenterr.NewProviderError(parsed.Error.Message, 0, a.cfg.ProviderLabel, nil)
	}
	if len(parsed.Choices) == 0 {
		return nil, agenterr.NewProviderError("response had no choices", 0, a.cfg.ProviderLabel, nil)
	}

	choice := parsed.Choices[0]
	toolCalls, err := fromOAToolCalls(choice.Message.ToolCalls, nil)
	if err != nil {
		return nil, err
	}

	return &ModelResponse{
		Text:      choice.Message.Content,
		ToolCalls: toolCalls,
		Usage: Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
		FinishReason: mapFinishReason(choice.FinishReason),
	}, nil
}

// Stream implements Provider using the shared SSE state machine.
func (a *OpenAIChatAdapter) Stream(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamEvent, error) {
	reqBody := a.buildRequest(messages, tools, true, nil)
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, agenterr.NewInvalidRequestError("failed to marshal request", a.cfg.ProviderLabel, err)
	}

	resp, err := a.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamEvent, 16)
	go readSSE(ctx, resp.Body, a.decodeChunk, out)
	return out, nil
}

func (a *OpenAIChatAdapter) decodeChunk(payload []byte, emit func(StreamEvent)) (bool, error) {
	var chunk oaResponse
	if !jsonPeek(payload, &chunk) {
		return false, nil // unparseable payloads are skipped, not fatal
	}
	if chunk.Error != nil {
		return false, agenterr.NewProviderError(chunk.Error.Message, 0, a.cfg.ProviderLabel, nil)
	}
	if chunk.Usage.TotalTokens > 0 {
		emit(StreamEvent{Type: EventUsage, Usage: &Usage{
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
			TotalTokens:      chunk.Usage.TotalTokens,
		}})
	}
	if len(chunk.Choices) == 0 {
		return false, nil
	}
	choice := chunk.Choices[0]
	if choice.Delta.Content != "" {
		emit(StreamEvent{Type: EventTextDelta, Text: choice.Delta.Content})
	}
	for _, tc := range choice.Delta.ToolCalls {
		if tc.ID == "" {
			continue // argument-continuation chunks carry no id per spec's minimum shape
		}
		emit(StreamEvent{Type: EventToolCallDelta, ToolCall: &PartialToolCall{
			ID:            tc.ID,
			Name:          tc.Function.Name,
			ArgumentsJSON: tc.Function.Arguments,
		}})
	}
	if choice.FinishReason == string(FinishContentFilter) {
		return true, nil // content-filter ends the stream without draining remaining text
	}
	if choice.FinishReason != "" {
		return true, nil
	}
	return false, nil
}
