package subagent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlinkos/agent/llms"
)

type stubRunner struct {
	name  string
	delay time.Duration
	err   error
	steps int
}

func (s *stubRunner) Name() string { return s.name }

func (s *stubRunner) Run(ctx context.Context, input string, onStep func(step int)) (*llms.ModelResponse, llms.Usage, int, error) {
	for i := 1; i <= s.steps; i++ {
		onStep(i)
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, llms.Usage{}, s.steps, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, llms.Usage{}, s.steps, s.err
	}
	text := "done"
	return &llms.ModelResponse{Text: &text}, llms.Usage{TotalTokens: 10}, s.steps, nil
}

func TestSpawnRejectsAtMaxDepth(t *testing.T) {
	r := &stubRunner{name: "child"}
	result := Spawn(context.Background(), r, "hi", Config{MaxDepth: 3}, 3)
	assert.False(t, result.Success)
	assert.Equal(t, "Maximum nesting depth exceeded", result.Error)
}

func TestSpawnSucceeds(t *testing.T) {
	var steps []int
	r := &stubRunner{name: "child", steps: 2}
	result := Spawn(context.Background(), r, "hi", Config{
		OnProgress: func(e ProgressEvent) {
			if e.Type == ProgressStep {
				steps = append(steps, e.Step)
			}
		},
	}, 0)
	require.True(t, result.Success)
	assert.Equal(t, []int{1, 2}, steps)
	assert.Equal(t, 10, result.Tokens.TotalTokens)
}

func TestSpawnTimesOut(t *testing.T) {
	r := &stubRunner{name: "slow", delay: 50 * time.Millisecond}
	result := Spawn(context.Background(), r, "hi", Config{Timeout: 5 * time.Millisecond}, 0)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "timed out")
}

func TestSpawnPropagatesFailure(t *testing.T) {
	r := &stubRunner{name: "broken", err: errors.New("boom")}
	result := Spawn(context.Background(), r, "hi", Config{}, 0)
	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Error)
}

func TestSpawnParallelPreservesOrderAndToleratesFailures(t *testing.T) {
	agents := []Runner{
		&stubRunner{name: "a"},
		&stubRunner{name: "b", err: errors.New("fails")},
		&stubRunner{name: "c"},
	}
	inputs := []string{"1", "2", "3"}

	results, err := SpawnParallel(context.Background(), agents, inputs, Config{}, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
}

func TestSpawnParallelRejectsMismatchedLengths(t *testing.T) {
	_, err := SpawnParallel(context.Background(), []Runner{&stubRunner{name: "a"}}, []string{"1", "2"}, Config{}, 0)
	require.Error(t, err)
}
