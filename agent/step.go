package agent

import "github.com/openlinkos/agent/llms"

// Step is one generate-plus-observed-tools cycle within a run.
type Step struct {
	StepNumber int
	Response   *llms.ModelResponse
	ToolCalls  []llms.ToolCall
}

// Response is the final outcome of one agent run.
type Response struct {
	Text      string
	Steps     []Step
	ToolCalls []llms.ToolCall
	Usage     llms.Usage
	AgentName string
}
