package agent

import (
	"context"

	"github.com/openlinkos/agent/llms"
	"github.com/openlinkos/agent/model"
)

// ModelAdapter satisfies Generator by calling model.Model with the zero
// Config override, so an Agent can be wired directly to a provider-backed
// Model without every caller threading per-call overrides through Run.
type ModelAdapter struct {
	Model *model.Model
}

func (a ModelAdapter) Generate(ctx context.Context, messages []llms.Message) (*llms.ModelResponse, error) {
	return a.Model.Generate(ctx, messages, model.Config{})
}

func (a ModelAdapter) GenerateWithTools(ctx context.Context, messages []llms.Message, toolDefs []llms.ToolDefinition) (*llms.ModelResponse, error) {
	return a.Model.GenerateWithTools(ctx, messages, toolDefs, model.Config{})
}
