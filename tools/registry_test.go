package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlinkos/agent/llms"
)

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	tool := llms.ToolDefinition{Name: "dup"}
	require.NoError(t, r.Register(tool))
	err := r.Register(tool)
	require.Error(t, err)
}

func TestRegistryVisibleHidesInternalTools(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(llms.ToolDefinition{Name: "public"}))
	require.NoError(t, r.RegisterInternal(llms.ToolDefinition{Name: "hidden"}))

	visible := r.Visible()
	assert.Len(t, visible, 1)
	assert.Equal(t, "public", visible[0].Name)

	all := r.All()
	assert.Len(t, all, 2)

	_, err := r.Get("hidden")
	require.NoError(t, err)
	assert.True(t, r.Has("hidden"))
}

func TestRegistryGetMissingErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	require.Error(t, err)
}
