package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlinkos/agent/guardrail"
	"github.com/openlinkos/agent/llms"
	"github.com/openlinkos/agent/middleware"
	"github.com/openlinkos/agent/plugin"
	"github.com/openlinkos/agent/tools"
)

// scriptedGenerator replays one ModelResponse per call, looping the last one.
type scriptedGenerator struct {
	responses []*llms.ModelResponse
	calls     int
}

func (g *scriptedGenerator) next() *llms.ModelResponse {
	idx := g.calls
	if idx >= len(g.responses) {
		idx = len(g.responses) - 1
	}
	g.calls++
	return g.responses[idx]
}

func (g *scriptedGenerator) Generate(ctx context.Context, messages []llms.Message) (*llms.ModelResponse, error) {
	return g.next(), nil
}

func (g *scriptedGenerator) GenerateWithTools(ctx context.Context, messages []llms.Message, toolDefs []llms.ToolDefinition) (*llms.ModelResponse, error) {
	return g.next(), nil
}

func textResponse(text string) *llms.ModelResponse {
	return &llms.ModelResponse{Text: &text, FinishReason: llms.FinishStop, Usage: llms.Usage{TotalTokens: 1}}
}

func toolCallResponse(call llms.ToolCall) *llms.ModelResponse {
	return &llms.ModelResponse{ToolCalls: []llms.ToolCall{call}, FinishReason: llms.FinishToolCalls, Usage: llms.Usage{TotalTokens: 1}}
}

func TestRunNoToolCallsHappyPath(t *testing.T) {
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{textResponse("hello there")}}
	a := New(Config{Name: "a", SystemPrompt: "sys", Model: gen})

	resp, usage, steps, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.TextOrEmpty())
	assert.Equal(t, 1, usage.TotalTokens)
	assert.Equal(t, 1, steps)
}

func TestRunDispatchesToolCallThenFinishes(t *testing.T) {
	call := llms.ToolCall{ID: "1", Name: "echo", Arguments: map[string]interface{}{"text": "hi"}}
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{
		toolCallResponse(call),
		textResponse("done"),
	}}

	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(llms.ToolDefinition{
		Name: "echo",
		Parameters: llms.JSONSchema{Type: "object", Properties: map[string]*llms.JSONSchema{
			"text": {Type: "string"},
		}},
		Execute: func(args map[string]interface{}) (interface{}, error) {
			return args["text"], nil
		},
	}))

	var toolResults []string
	a := New(Config{
		Name: "a", SystemPrompt: "sys", Model: gen, Tools: reg,
		Hooks: Hooks{OnToolResult: func(c llms.ToolCall, resultOrError string) { toolResults = append(toolResults, resultOrError) }},
	})

	resp, _, steps, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "done", resp.TextOrEmpty())
	assert.Equal(t, 2, steps)
	assert.Equal(t, []string{"hi"}, toolResults)
}

func TestRunUnknownToolYieldsErrorEnvelope(t *testing.T) {
	call := llms.ToolCall{ID: "1", Name: "missing"}
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{toolCallResponse(call), textResponse("done")}}

	var captured string
	a := New(Config{
		Name: "a", SystemPrompt: "sys", Model: gen,
		Hooks: Hooks{OnToolResult: func(c llms.ToolCall, resultOrError string) { captured = resultOrError }},
	})

	_, _, _, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Contains(t, captured, "is not available")
}

func TestRunInvalidToolArgumentsYieldsErrorEnvelope(t *testing.T) {
	call := llms.ToolCall{ID: "1", Name: "needsNum", Arguments: map[string]interface{}{"n": "not-a-number"}}
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{toolCallResponse(call), textResponse("done")}}

	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(llms.ToolDefinition{
		Name:       "needsNum",
		Parameters: llms.JSONSchema{Type: "object", Properties: map[string]*llms.JSONSchema{"n": {Type: "number"}}, Required: []string{"n"}},
		Execute:    func(args map[string]interface{}) (interface{}, error) { return "ok", nil },
	}))

	var captured string
	a := New(Config{
		Name: "a", SystemPrompt: "sys", Model: gen, Tools: reg,
		Hooks: Hooks{OnToolResult: func(c llms.ToolCall, resultOrError string) { captured = resultOrError }},
	})

	_, _, _, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Contains(t, captured, "Invalid parameters")
}

func TestRunInputGuardrailRejects(t *testing.T) {
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{textResponse("should not reach")}}
	a := New(Config{
		Name: "a", SystemPrompt: "sys", Model: gen,
		InputGuardrails: []guardrail.Guardrail{guardrail.MaxLengthGuardrail(3)},
	})

	_, _, _, err := a.Run(context.Background(), "too long input", nil)
	require.Error(t, err)
	assert.Equal(t, 0, gen.calls)
}

func TestRunOutputGuardrailRejects(t *testing.T) {
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{textResponse("this reply is way too long")}}
	a := New(Config{
		Name: "a", SystemPrompt: "sys", Model: gen,
		OutputGuardrails: []guardrail.Guardrail{guardrail.MaxLengthGuardrail(3)},
	})

	_, _, _, err := a.Run(context.Background(), "hi", nil)
	require.Error(t, err)
}

func TestRunContentFilterBlockRejects(t *testing.T) {
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{textResponse("secret stuff")}}
	a := New(Config{
		Name: "a", SystemPrompt: "sys", Model: gen,
		ContentFilters: []guardrail.ContentFilter{{Name: "block-secret", Filter: func(content string) (string, bool) {
			if content == "secret stuff" {
				return "", false
			}
			return content, true
		}}},
	})

	_, _, _, err := a.Run(context.Background(), "hi", nil)
	require.Error(t, err)
}

func TestRunMaxIterationsExceededWhenStillCallingTools(t *testing.T) {
	call := llms.ToolCall{ID: "1", Name: "echo", Arguments: map[string]interface{}{}}
	responses := make([]*llms.ModelResponse, 0)
	for i := 0; i < 5; i++ {
		responses = append(responses, toolCallResponse(call))
	}
	gen := &scriptedGenerator{responses: responses}

	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(llms.ToolDefinition{
		Name:    "echo",
		Execute: func(args map[string]interface{}) (interface{}, error) { return "ok", nil },
	}))

	a := New(Config{Name: "a", SystemPrompt: "sys", Model: gen, Tools: reg, MaxIterations: 3})

	_, _, _, err := a.Run(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_iterations")
}

func TestRunMiddlewareBeforeGenerateShortCircuits(t *testing.T) {
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{textResponse("unused")}}
	stack := middleware.NewStack()
	stack.Use(middleware.Middleware{
		Name: "blocker",
		BeforeGenerate: func(ctx *middleware.BeforeGenerateContext, next func() error) error {
			return errors.New("blocked by middleware")
		},
	})

	a := New(Config{Name: "a", SystemPrompt: "sys", Model: gen, Middleware: stack})
	_, _, _, err := a.Run(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked by middleware")
	assert.Equal(t, 0, gen.calls)
}

func TestRunPluginOnInstallRunsExactlyOnceAcrossRuns(t *testing.T) {
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{textResponse("ok")}}
	stack := middleware.NewStack()
	installs := 0
	mgr := plugin.NewManager(stack, func(llms.ToolDefinition) error { return nil })
	require.NoError(t, mgr.InstallConfigured(plugin.Plugin{
		Name:      "p1",
		OnInstall: func(ctx context.Context) error { installs++; return nil },
	}))

	a := New(Config{Name: "a", SystemPrompt: "sys", Model: gen, Plugins: mgr})

	_, _, _, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)
	_, _, _, err = a.Run(context.Background(), "hi again", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, installs)
}

func TestRunAbortsBeforeStartingWhenContextAlreadyCancelled(t *testing.T) {
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{textResponse("unused")}}
	a := New(Config{Name: "a", SystemPrompt: "sys", Model: gen})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err := a.Run(ctx, "hi", nil)
	require.Error(t, err)
	assert.Equal(t, 0, gen.calls)
}

func TestRunFiresOnStepCallback(t *testing.T) {
	gen := &scriptedGenerator{responses: []*llms.ModelResponse{textResponse("hi")}}
	a := New(Config{Name: "a", SystemPrompt: "sys", Model: gen})

	var seenSteps []int
	_, _, _, err := a.Run(context.Background(), "hi", func(step int) { seenSteps = append(seenSteps, step) })
	require.NoError(t, err)
	assert.Equal(t, []int{1}, seenSteps)
}
