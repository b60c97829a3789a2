package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlinkos/agent/llms"
	"github.com/openlinkos/agent/middleware"
)

func TestInstallConfiguredQueuesOnInstall(t *testing.T) {
	stack := middleware.NewStack()
	var registered []string
	mgr := NewManager(stack, func(tool llms.ToolDefinition) error {
		registered = append(registered, tool.Name)
		return nil
	})

	called := false
	p := Plugin{
		Name:        "demo",
		Middlewares: []middleware.Middleware{{Name: "mw"}},
		Tools:       []llms.ToolDefinition{{Name: "t1"}},
		OnInstall: func(ctx context.Context) error {
			called = true
			return nil
		},
	}

	err := mgr.InstallConfigured(p)
	require.NoError(t, err)
	assert.False(t, called, "OnInstall should not run until EnsureInstalled")
	assert.Len(t, stack.All(), 1)
	assert.Equal(t, []string{"t1"}, registered)

	require.NoError(t, mgr.EnsureInstalled(context.Background()))
	assert.True(t, called)
}

func TestInstallAwaitsOnInstallImmediately(t *testing.T) {
	stack := middleware.NewStack()
	mgr := NewManager(stack, nil)
	called := false
	p := Plugin{Name: "demo", OnInstall: func(ctx context.Context) error { called = true; return nil }}

	require.NoError(t, mgr.Install(context.Background(), p))
	assert.True(t, called)
}

func TestDuplicatePluginNameFails(t *testing.T) {
	stack := middleware.NewStack()
	mgr := NewManager(stack, nil)
	p := Plugin{Name: "demo"}
	require.NoError(t, mgr.InstallConfigured(p))

	err := mgr.InstallConfigured(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Plugin "demo" is already installed.`)
}
