package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentifier(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, m, err := ParseIdentifier("openai:gpt-4o")
		require.NoError(t, err)
		assert.Equal(t, "openai", p)
		assert.Equal(t, "gpt-4o", m)
	})

	for _, bad := range []string{"", "openai", ":gpt-4o", "openai:", "openai:gpt:4o-extra-colon-is-fine-in-model"} {
		t.Run(bad, func(t *testing.T) {
			_, _, err := ParseIdentifier(bad)
			if bad == "openai:gpt:4o-extra-colon-is-fine-in-model" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

func TestCreateUnknownProvider(t *testing.T) {
	_, err := Create("nope:model", Config{})
	require.Error(t, err)
}

func TestCreateKnownProviders(t *testing.T) {
	for _, id := range []string{"openai:gpt-4o", "anthropic:claude-3", "ollama:llama3"} {
		m, err := Create(id, Config{APIKey: "test-key"})
		require.NoError(t, err)
		assert.NotEmpty(t, m.Name())
	}
}
