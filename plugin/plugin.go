// Package plugin implements the plugin manager: installable bundles of
// middlewares and tools with an install lifecycle hook.
package plugin

import (
	"context"
	"fmt"

	"github.com/openlinkos/agent/llms"
	"github.com/openlinkos/agent/middleware"
)

// Plugin bundles middlewares, tools, and optional lifecycle callbacks that
// can be installed into an agent.
type Plugin struct {
	Name        string
	Version     string
	Middlewares []middleware.Middleware
	Tools       []llms.ToolDefinition
	OnInstall   func(ctx context.Context) error
	OnUninstall func(ctx context.Context) error
}

// Error wraps a plugin-manager failure with the plugin name and operation.
type Error struct {
	PluginName string
	Operation  string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plugin %q: %s: %s: %v", e.PluginName, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("plugin %q: %s: %s", e.PluginName, e.Operation, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// pendingInstall pairs a plugin with its not-yet-run OnInstall callback.
type pendingInstall struct {
	plugin Plugin
}

// Manager installs plugins into a middleware stack and tool registry,
// queuing OnInstall callbacks to run once on the first agent run.
type Manager struct {
	stack    *middleware.Stack
	register func(tool llms.ToolDefinition) error
	byName   map[string]struct{}
	pending  []pendingInstall
}

// NewManager builds a manager that installs onto stack and registers tools
// via register (typically (*tools.Registry).Register).
func NewManager(stack *middleware.Stack, register func(tool llms.ToolDefinition) error) *Manager {
	return &Manager{stack: stack, register: register, byName: make(map[string]struct{})}
}

// InstallConfigured installs a plugin synchronously (middlewares pushed,
// tools registered) but only queues OnInstall — it is not awaited here.
func (m *Manager) InstallConfigured(p Plugin) error {
	return m.install(p, false)
}

// Install installs a plugin immediately, including awaiting OnInstall.
func (m *Manager) Install(ctx context.Context, p Plugin) error {
	return m.install(p, true)
}

func (m *Manager) install(p Plugin, awaitInstall bool) error {
	if _, exists := m.byName[p.Name]; exists {
		return &Error{PluginName: p.Name, Operation: "install", Message: fmt.Sprintf("Plugin %q is already installed.", p.Name)}
	}
	m.byName[p.Name] = struct{}{}

	for _, mw := range p.Middlewares {
		m.stack.Use(mw)
	}
	for _, tool := range p.Tools {
		if m.register != nil {
			if err := m.register(tool); err != nil {
				return &Error{PluginName: p.Name, Operation: "install", Message: "failed to register tool", Err: err}
			}
		}
	}

	if p.OnInstall == nil {
		return nil
	}
	if awaitInstall {
		return p.OnInstall(context.Background())
	}
	m.pending = append(m.pending, pendingInstall{plugin: p})
	return nil
}

// EnsureInstalled runs any queued OnInstall callbacks exactly once. Safe to
// call at the start of every agent run.
func (m *Manager) EnsureInstalled(ctx context.Context) error {
	for len(m.pending) > 0 {
		next := m.pending[0]
		m.pending = m.pending[1:]
		if err := next.plugin.OnInstall(ctx); err != nil {
			return &Error{PluginName: next.plugin.Name, Operation: "onInstall", Message: "install callback failed", Err: err}
		}
	}
	return nil
}
