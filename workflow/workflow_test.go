package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExecutesDeclaredOrder(t *testing.T) {
	var order []string
	wf, err := New(Config{
		Steps: []Step{
			{Name: "a", Fn: func(in interface{}) (interface{}, error) { order = append(order, "a"); return "a-out", nil }},
			{Name: "b", Fn: func(in interface{}) (interface{}, error) { order = append(order, "b"); return "b-out", nil }},
		},
	})
	require.NoError(t, err)

	result, err := wf.Run("start")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, "b-out", result.Result)
	assert.Equal(t, "a-out", result.StepResults["a"])
}

func TestConditionBranchesToNamedStep(t *testing.T) {
	wf, err := New(Config{
		Steps: []Step{
			{Name: "start", Fn: func(in interface{}) (interface{}, error) { return "go-to-end", nil },
				Condition: func(result interface{}) string { return "end" }},
			{Name: "middle", Fn: func(in interface{}) (interface{}, error) { return "never", nil }},
			{Name: "end", Fn: func(in interface{}) (interface{}, error) { return "ended", nil }},
		},
	})
	require.NoError(t, err)

	result, err := wf.Run("start")
	require.NoError(t, err)
	assert.Equal(t, "ended", result.Result)
	_, visitedMiddle := result.StepResults["middle"]
	assert.False(t, visitedMiddle)
}

func TestConditionDoneStopsWorkflow(t *testing.T) {
	wf, err := New(Config{
		Steps: []Step{
			{Name: "only", Fn: func(in interface{}) (interface{}, error) { return "result", nil },
				Condition: func(result interface{}) string { return "done" }},
		},
	})
	require.NoError(t, err)

	result, err := wf.Run("start")
	require.NoError(t, err)
	assert.Equal(t, "result", result.Result)
}

func TestRetriesThenFallback(t *testing.T) {
	calls := 0
	wf, err := New(Config{
		Steps: []Step{
			{
				Name:    "flaky",
				Retries: 2,
				Fn: func(in interface{}) (interface{}, error) {
					calls++
					return nil, errors.New("always fails")
				},
				Fallback: func(input interface{}, err error) (interface{}, error) {
					return "fallback-used", nil
				},
			},
		},
	})
	require.NoError(t, err)

	result, err := wf.Run("start")
	require.NoError(t, err)
	assert.Equal(t, "fallback-used", result.Result)
	assert.Equal(t, 3, calls) // 1 + 2 retries
}

func TestErrorReraisedWithoutFallback(t *testing.T) {
	wf, err := New(Config{
		Steps: []Step{
			{Name: "broken", Fn: func(in interface{}) (interface{}, error) { return nil, errors.New("boom") }},
		},
	})
	require.NoError(t, err)

	_, err = wf.Run("start")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestMaxIterationsExceeded(t *testing.T) {
	wf, err := New(Config{
		MaxIterations: 3,
		Steps: []Step{
			{Name: "loop", Fn: func(in interface{}) (interface{}, error) { return "again", nil },
				Condition: func(result interface{}) string { return "loop" }},
		},
	})
	require.NoError(t, err)

	_, err = wf.Run("start")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxIterations")
}

func TestEmptyStepListIsConstructionError(t *testing.T) {
	_, err := New(Config{Steps: nil})
	require.Error(t, err)
}

func TestStepWithNeitherFnNorAgentFailsAtRunTime(t *testing.T) {
	wf, err := New(Config{Steps: []Step{{Name: "empty"}}})
	require.NoError(t, err)

	_, err = wf.Run("start")
	require.Error(t, err)
}
