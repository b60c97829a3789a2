package tools

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlinkos/agent/llms"
)

func echoTool(name string, transform func(interface{}) interface{}) llms.ToolDefinition {
	return llms.ToolDefinition{
		Name:       name,
		Parameters: llms.JSONSchema{Type: "object"},
		Execute: func(args map[string]interface{}) (interface{}, error) {
			var in interface{} = args
			if v, ok := args["input"]; ok {
				in = v
			}
			return transform(in), nil
		},
	}
}

func TestComposeToolChainsOutputsInOrder(t *testing.T) {
	t1 := echoTool("t1", func(v interface{}) interface{} { return "t1(" + v.(string) + ")" })
	t2 := echoTool("t2", func(v interface{}) interface{} { return "t2(" + v.(string) + ")" })
	t3 := echoTool("t3", func(v interface{}) interface{} { return "t3(" + v.(string) + ")" })

	composed, err := ComposeTool([]llms.ToolDefinition{t1, t2, t3}, "pipeline", "runs t1 then t2 then t3")
	require.NoError(t, err)

	out, err := composed.Execute(map[string]interface{}{"input": "x"})
	require.NoError(t, err)
	assert.Equal(t, "t3(t2(t1(x)))", out)
}

func TestComposeToolRequiresAtLeastOneTool(t *testing.T) {
	_, err := ComposeTool(nil, "empty", "")
	require.Error(t, err)
}

func TestConditionalToolRunsAOrB(t *testing.T) {
	a := llms.ToolDefinition{Name: "a", Execute: func(map[string]interface{}) (interface{}, error) { return "a", nil }}
	b := llms.ToolDefinition{Name: "b", Execute: func(map[string]interface{}) (interface{}, error) { return "b", nil }}

	tool := ConditionalTool("cond", "", func(args map[string]interface{}) bool {
		return args["flag"] == true
	}, a, b)

	out, err := tool.Execute(map[string]interface{}{"flag": true})
	require.NoError(t, err)
	assert.Equal(t, "a", out)

	out, err = tool.Execute(map[string]interface{}{"flag": false})
	require.NoError(t, err)
	assert.Equal(t, "b", out)
}

func TestToolGroupRenamesAndPrefixes(t *testing.T) {
	ts := []llms.ToolDefinition{
		{Name: "search", Description: "find things"},
		{Name: "write", Description: "write things"},
	}
	grouped := ToolGroup(ts, "fs", "filesystem")
	require.Len(t, grouped, 2)
	assert.Equal(t, "fs_search", grouped[0].Name)
	assert.Equal(t, "[filesystem] find things", grouped[0].Description)
	assert.Equal(t, "fs_write", grouped[1].Name)
}

func TestRetryToolCallsAtMostNPlus1Times(t *testing.T) {
	calls := 0
	failing := llms.ToolDefinition{
		Name: "flaky",
		Execute: func(map[string]interface{}) (interface{}, error) {
			calls++
			return nil, errors.New("boom")
		},
	}

	tool := RetryTool(failing, 3)
	_, err := tool.Execute(nil)
	require.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestRetryToolStopsOnFirstSuccess(t *testing.T) {
	calls := 0
	tool := RetryTool(llms.ToolDefinition{
		Name: "eventually",
		Execute: func(map[string]interface{}) (interface{}, error) {
			calls++
			if calls < 2 {
				return nil, errors.New("not yet")
			}
			return "ok", nil
		},
	}, 5)

	out, err := tool.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, calls)
}

func TestCacheToolHitBypassesExecute(t *testing.T) {
	calls := 0
	underlying := llms.ToolDefinition{
		Name: "expensive",
		Execute: func(args map[string]interface{}) (interface{}, error) {
			calls++
			return args["n"], nil
		},
	}

	tool := CacheTool(underlying, 0, nil)
	_, err := tool.Execute(map[string]interface{}{"n": float64(1)})
	require.NoError(t, err)
	_, err = tool.Execute(map[string]interface{}{"n": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = tool.Execute(map[string]interface{}{"n": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCacheToolRespectsTTL(t *testing.T) {
	calls := 0
	underlying := llms.ToolDefinition{
		Name: "ticking",
		Execute: func(map[string]interface{}) (interface{}, error) {
			calls++
			return calls, nil
		},
	}

	tool := CacheTool(underlying, 10*time.Millisecond, nil)
	_, _ = tool.Execute(map[string]interface{}{})
	time.Sleep(20 * time.Millisecond)
	out, _ := tool.Execute(map[string]interface{}{})
	assert.Equal(t, 2, out)
}
