// Package agentsdk provides a composable Go runtime for building LLM-driven
// agents: a ReAct generate/act loop, an onion-model middleware stack,
// provider-agnostic model abstraction with streaming, structured output,
// guardrails, tracing, and multi-agent team/workflow coordination.
//
// # Building an agent
//
// Construct a model client for a provider, register tools, and wrap them
// in an agent.Agent:
//
//	reg := tools.NewRegistry()
//	reg.Register(myTool)
//
//	a := agent.New(agent.Config{
//	    Name:         "assistant",
//	    SystemPrompt: "You are a helpful assistant",
//	    Model:        myModel,
//	    Tools:        reg,
//	})
//
//	resp, usage, steps, err := a.Run(ctx, "what's the weather in Tokyo?", nil)
//
// # Composing agents
//
// Multiple agents coordinate through team.Team (sequential, parallel,
// debate, supervisor, or custom modes) or through workflow.Workflow
// (a named-step graph with retries, fallbacks, and conditional branching).
// subagent.Spawn lets one agent invoke another with depth and timeout
// bounds.
//
// # Cross-cutting concerns
//
// middleware.Stack wraps the generate/tool-call lifecycle; guardrail
// filters input/output text and post-processes content; ctxwindow trims
// conversation history to a token budget; persistence.ConversationStore
// saves and restores sessions; tracing.Tracer records spans exportable to
// the console, JSON, or an OpenTelemetry collector.
package agentsdk
