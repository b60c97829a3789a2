// Package tools implements the tool system: a unique-name registry,
// JSON-schema argument validation, timed execution, and the five tool
// composers (composeTool, conditionalTool, toolGroup, retryTool,
// cacheTool).
package tools

import (
	"fmt"

	"github.com/openlinkos/agent/agenterr"
	"github.com/openlinkos/agent/llms"
)

// entry pairs a registered tool with its display metadata.
type entry struct {
	tool     llms.ToolDefinition
	internal bool
}

// Registry holds ToolDefinitions under a unique-name invariant.
type Registry struct {
	order  []string
	byName map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]entry)}
}

// Register adds a tool, failing if its name already exists.
func (r *Registry) Register(tool llms.ToolDefinition) error {
	return r.register(tool, false)
}

// RegisterInternal adds a tool the same way Register does, but marks it
// hidden from Visible's model-facing tool list (List, All, Has and Get still
// include it) — for tools that exist
// only as composition plumbing (e.g. the tail tool inside a composeTool
// chain) and should never be offered to the model directly.
func (r *Registry) RegisterInternal(tool llms.ToolDefinition) error {
	return r.register(tool, true)
}

func (r *Registry) register(tool llms.ToolDefinition, internal bool) error {
	if _, exists := r.byName[tool.Name]; exists {
		return agenterr.NewInvalidRequestError(fmt.Sprintf("tool %q is already registered", tool.Name), "", nil)
	}
	r.byName[tool.Name] = entry{tool: tool, internal: internal}
	r.order = append(r.order, tool.Name)
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Get returns the tool or an error if missing.
func (r *Registry) Get(name string) (llms.ToolDefinition, error) {
	e, ok := r.byName[name]
	if !ok {
		return llms.ToolDefinition{}, agenterr.NewInvalidRequestError(fmt.Sprintf("tool %q is not registered", name), "", nil)
	}
	return e.tool, nil
}

// List returns tool names in insertion order, including internal ones.
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every registered tool in insertion order, including internal
// ones. Use Visible to build the model-facing tool list.
func (r *Registry) All() []llms.ToolDefinition {
	out := make([]llms.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].tool)
	}
	return out
}

// Visible returns every registered tool not marked internal, in insertion
// order — the set that should actually be offered to a model.
func (r *Registry) Visible() []llms.ToolDefinition {
	out := make([]llms.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		if e := r.byName[name]; !e.internal {
			out = append(out, e.tool)
		}
	}
	return out
}
