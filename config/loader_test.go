package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromStringAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfigFromString(`
name: demo
agents:
  assistant:
    llm: default-llm
`)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Name)
	assert.Contains(t, cfg.Agents, "assistant")
	assert.NotZero(t, cfg.Global.A2AServer.Port)
}

func TestLoadConfigFromStringExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_AGENT_MODEL", "gpt-test")
	cfg, err := LoadConfigFromString(`
llms:
  default-llm:
    model: ${TEST_AGENT_MODEL}
`)
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", cfg.LLMs["default-llm"].Model)
}

func TestLoadConfigFromStringRejectsUnknownTopLevelField(t *testing.T) {
	_, err := LoadConfigFromString(`
agent:
  assistant: {}
`)
	require.Error(t, err)
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-file\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Name)
}

func TestLoadConfigMissingFileErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
