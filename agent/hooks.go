package agent

import "github.com/openlinkos/agent/llms"

// Hooks observe an agent run without participating in control flow (unlike
// middleware, which can mutate context and short-circuit).
type Hooks struct {
	OnStart      func(input string)
	OnStep       func(step Step)
	OnToolCall   func(call llms.ToolCall) bool
	OnToolResult func(call llms.ToolCall, resultOrError string)
	OnError      func(err error)
	OnEnd        func(resp *Response)
}

func (h Hooks) fireStart(input string) {
	if h.OnStart != nil {
		h.OnStart(input)
	}
}

func (h Hooks) fireStep(step Step) {
	if h.OnStep != nil {
		h.OnStep(step)
	}
}

func (h Hooks) fireToolCall(call llms.ToolCall) bool {
	if h.OnToolCall == nil {
		return true
	}
	return h.OnToolCall(call)
}

func (h Hooks) fireToolResult(call llms.ToolCall, resultOrError string) {
	if h.OnToolResult != nil {
		h.OnToolResult(call, resultOrError)
	}
}

func (h Hooks) fireError(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

func (h Hooks) fireEnd(resp *Response) {
	if h.OnEnd != nil {
		h.OnEnd(resp)
	}
}
