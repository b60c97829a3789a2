// Package agent implements the ReAct engine: the generate-dispatch-observe
// loop that drives a Model and a tool registry through the middleware
// stack, guardrails, and content filters to produce a final Response.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openlinkos/agent/agenterr"
	"github.com/openlinkos/agent/guardrail"
	"github.com/openlinkos/agent/llms"
	"github.com/openlinkos/agent/middleware"
	"github.com/openlinkos/agent/plugin"
	"github.com/openlinkos/agent/tools"
)

// Generator is the subset of model.Model the engine drives.
type Generator interface {
	Generate(ctx context.Context, messages []llms.Message) (*llms.ModelResponse, error)
	GenerateWithTools(ctx context.Context, messages []llms.Message, toolDefs []llms.ToolDefinition) (*llms.ModelResponse, error)
}

const defaultMaxIterations = 10

// Config constructs an Agent.
type Config struct {
	Name             string
	Description      string
	SystemPrompt     string
	Model            Generator
	Tools            *tools.Registry
	Middleware       *middleware.Stack
	Plugins          *plugin.Manager
	Hooks            Hooks
	MaxIterations    int
	ToolTimeoutSec   int
	InputGuardrails  []guardrail.Guardrail
	OutputGuardrails []guardrail.Guardrail
	ContentFilters   []guardrail.ContentFilter
}

// Agent runs the ReAct loop described by spec §4.13 over its configured
// model, tools, middleware, and guardrails.
type Agent struct {
	name             string
	description      string
	systemPrompt     string
	model            Generator
	toolRegistry     *tools.Registry
	middlewareStack  *middleware.Stack
	plugins          *plugin.Manager
	hooks            Hooks
	maxIterations    int
	toolTimeoutSec   int
	inputGuardrails  []guardrail.Guardrail
	outputGuardrails []guardrail.Guardrail
	contentFilters   []guardrail.ContentFilter
}

// New constructs an Agent from cfg, filling in defaults (10 iterations, an
// empty middleware stack) where omitted.
func New(cfg Config) *Agent {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	stack := cfg.Middleware
	if stack == nil {
		stack = middleware.NewStack()
	}
	registry := cfg.Tools
	if registry == nil {
		registry = tools.NewRegistry()
	}

	return &Agent{
		name:             cfg.Name,
		description:      cfg.Description,
		systemPrompt:     cfg.SystemPrompt,
		model:            cfg.Model,
		toolRegistry:     registry,
		middlewareStack:  stack,
		plugins:          cfg.Plugins,
		hooks:            cfg.Hooks,
		maxIterations:    maxIterations,
		toolTimeoutSec:   cfg.ToolTimeoutSec,
		inputGuardrails:  cfg.InputGuardrails,
		outputGuardrails: cfg.OutputGuardrails,
		contentFilters:   cfg.ContentFilters,
	}
}

// Name returns the agent's configured name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's configured description.
func (a *Agent) Description() string { return a.description }

// Run executes the engine's ReAct loop against input. onStep, if non-nil,
// is invoked with the 1-based step number after each step is recorded —
// this satisfies the team.Member / subagent.Runner surface without forcing
// every caller to build full Hooks.
func (a *Agent) Run(ctx context.Context, input string, onStep func(step int)) (*llms.ModelResponse, llms.Usage, int, error) {
	resp, err := a.run(ctx, input, onStep)
	if err != nil {
		return nil, llms.Usage{}, 0, err
	}
	text := resp.Text
	return &llms.ModelResponse{Text: &text, Usage: resp.Usage}, resp.Usage, len(resp.Steps), nil
}

func (a *Agent) run(ctx context.Context, input string, onStep func(step int)) (*Response, error) {
	if a.plugins != nil {
		if err := a.plugins.EnsureInstalled(ctx); err != nil {
			return nil, a.handleError(err)
		}
	}

	a.hooks.fireStart(input)

	if ctx.Err() != nil {
		return nil, a.handleError(agenterr.NewAbortError("Agent run was aborted before starting"))
	}

	if r := guardrail.RunInputGuardrails(a.inputGuardrails, input); !r.Passed {
		return nil, a.handleError(agenterr.NewGuardrailError(r.Reason, "input", "input"))
	}

	messages := []llms.Message{
		llms.NewTextMessage(llms.RoleSystem, a.systemPrompt),
		llms.NewTextMessage(llms.RoleUser, input),
	}

	toolDefs := a.toolRegistry.Visible()

	var steps []Step
	var flatToolCalls []llms.ToolCall
	totalUsage := llms.Usage{}

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		if ctx.Err() != nil {
			return nil, a.handleError(agenterr.NewAbortError("Agent run was aborted"))
		}

		beforeCtx := &middleware.BeforeGenerateContext{Messages: messages, Tools: toolDefs, Iteration: iteration}
		var response *llms.ModelResponse
		err := a.middlewareStack.RunBeforeGenerate(beforeCtx, func() error {
			var genErr error
			if len(toolDefs) > 0 {
				response, genErr = a.model.GenerateWithTools(ctx, beforeCtx.Messages, beforeCtx.Tools)
			} else {
				response, genErr = a.model.Generate(ctx, beforeCtx.Messages)
			}
			return genErr
		})
		if err != nil {
			return nil, a.handleError(err)
		}

		afterCtx := &middleware.AfterGenerateContext{Response: response, Messages: messages, Iteration: iteration}
		if err := a.middlewareStack.RunAfterGenerate(afterCtx, func() error { return nil }); err != nil {
			return nil, a.handleError(err)
		}
		response = afterCtx.Response

		totalUsage = totalUsage.Add(response.Usage)

		assistantMsg := llms.Message{Role: llms.RoleAssistant, Content: response.Text, ToolCalls: response.ToolCalls}
		messages = append(messages, assistantMsg)

		if len(response.ToolCalls) == 0 {
			step := Step{StepNumber: len(steps) + 1, Response: response}
			steps = append(steps, step)
			a.hooks.fireStep(step)
			if onStep != nil {
				onStep(step.StepNumber)
			}
			break
		}

		for _, call := range response.ToolCalls {
			flatToolCalls = append(flatToolCalls, call)
			messages = append(messages, a.dispatchToolCall(ctx, call))
		}

		step := Step{StepNumber: len(steps) + 1, Response: response, ToolCalls: response.ToolCalls}
		steps = append(steps, step)
		a.hooks.fireStep(step)
		if onStep != nil {
			onStep(step.StepNumber)
		}
	}

	if len(steps) == a.maxIterations && len(steps[len(steps)-1].ToolCalls) > 0 {
		return nil, a.handleError(agenterr.NewMaxIterationsError(a.maxIterations))
	}

	finalText := ""
	if len(steps) > 0 && steps[len(steps)-1].Response != nil {
		finalText = steps[len(steps)-1].Response.TextOrEmpty()
	}

	if r := guardrail.RunOutputGuardrails(a.outputGuardrails, finalText); !r.Passed {
		return nil, a.handleError(agenterr.NewGuardrailError(r.Reason, "output", "output"))
	}

	filtered, ok := guardrail.ApplyContentFilters(a.contentFilters, finalText)
	if !ok {
		return nil, a.handleError(agenterr.NewGuardrailError("content blocked by filter", "content-filter", "content-filter"))
	}
	finalText = filtered

	resp := &Response{
		Text:      finalText,
		Steps:     steps,
		ToolCalls: flatToolCalls,
		Usage:     totalUsage,
		AgentName: a.name,
	}
	a.hooks.fireEnd(resp)
	return resp, nil
}

// dispatchToolCall executes a single tool call per spec §4.13 step 6.8,
// returning the tool message to append.
func (a *Agent) dispatchToolCall(ctx context.Context, call llms.ToolCall) llms.Message {
	toolMsg := func(content string) llms.Message {
		return llms.Message{Role: llms.RoleTool, Content: &content, ToolCallID: call.ID, Name: call.Name}
	}

	if !a.hooks.fireToolCall(call) {
		msg := "Tool call was blocked by hook."
		a.hooks.fireToolResult(call, msg)
		return toolMsg(msg)
	}

	beforeCtx := &middleware.BeforeToolCallContext{ToolCall: call}
	if def, err := a.toolRegistry.Get(call.Name); err == nil {
		beforeCtx.Tool = &def
	}
	_ = a.middlewareStack.RunBeforeToolCall(beforeCtx, func() error { return nil })

	if beforeCtx.Skip {
		result := ""
		if beforeCtx.Result != nil {
			result = *beforeCtx.Result
		}
		a.runAfterToolCall(call, result, nil)
		a.hooks.fireToolResult(call, result)
		return toolMsg(result)
	}

	tool, err := a.toolRegistry.Get(call.Name)
	if err != nil {
		content := errorEnvelope(fmt.Sprintf("Tool %q is not available.", call.Name))
		a.runAfterToolCall(call, content, err)
		a.hooks.fireToolResult(call, content)
		return toolMsg(content)
	}

	validation := tools.ValidateParameters(call.Arguments, tool.Parameters)
	if !validation.Valid {
		content := errorEnvelope(fmt.Sprintf("Invalid parameters: %v", validation.Errors))
		a.runAfterToolCall(call, content, agenterr.NewInvalidRequestError("invalid tool arguments", "", nil))
		a.hooks.fireToolResult(call, content)
		return toolMsg(content)
	}

	result := tools.ExecuteTool(tool, call.Arguments, time.Duration(a.toolTimeoutSec)*time.Second)
	if result.Error != "" {
		content := errorEnvelope(result.Error)
		a.runAfterToolCall(call, content, agenterr.NewToolExecutionError(result.Error, call.Name, nil))
		a.hooks.fireToolResult(call, content)
		return toolMsg(content)
	}

	a.runAfterToolCall(call, result.Result, nil)
	a.hooks.fireToolResult(call, result.Result)
	return toolMsg(result.Result)
}

func (a *Agent) runAfterToolCall(call llms.ToolCall, result string, err error) {
	afterCtx := &middleware.AfterToolCallContext{ToolCall: call, Result: result, Error: err}
	_ = a.middlewareStack.RunAfterToolCall(afterCtx, func() error { return nil })
}

func (a *Agent) handleError(err error) error {
	errCtx := &middleware.ErrorContext{Err: err}
	_ = a.middlewareStack.RunOnError(errCtx, func() error { return nil })
	a.hooks.fireError(err)
	return err
}

func errorEnvelope(message string) string {
	b, marshalErr := json.Marshal(map[string]string{"error": message})
	if marshalErr != nil {
		return message
	}
	return string(b)
}
