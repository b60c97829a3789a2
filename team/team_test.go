package team

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlinkos/agent/llms"
)

type stubMember struct {
	name string
	desc string
	text string
	err  error
}

func (s *stubMember) Name() string        { return s.name }
func (s *stubMember) Description() string { return s.desc }
func (s *stubMember) Run(ctx context.Context, input string, onStep func(int)) (*llms.ModelResponse, llms.Usage, int, error) {
	if s.err != nil {
		return nil, llms.Usage{}, 0, s.err
	}
	text := s.text
	return &llms.ModelResponse{Text: &text}, llms.Usage{TotalTokens: 5}, 1, nil
}

func TestSequentialStopsOnDoneToken(t *testing.T) {
	tm, err := New(Config{
		Mode: ModeSequential,
		Agents: []Member{
			&stubMember{name: "a", text: "partial [DONE]"},
			&stubMember{name: "b", text: "never reached"},
		},
	})
	require.NoError(t, err)

	result, err := tm.Run(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rounds)
	assert.Contains(t, result.FinalOutput, "[DONE]")
}

func TestSequentialRespectsMaxRounds(t *testing.T) {
	tm, err := New(Config{
		Mode:      ModeSequential,
		MaxRounds: 1,
		Agents: []Member{
			&stubMember{name: "a", text: "one"},
			&stubMember{name: "b", text: "two"},
		},
	})
	require.NoError(t, err)

	result, err := tm.Run(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rounds)
}

func TestParallelJoinsAllOutputs(t *testing.T) {
	tm, err := New(Config{
		Mode: ModeParallel,
		Agents: []Member{
			&stubMember{name: "a", text: "alpha"},
			&stubMember{name: "b", text: "beta"},
		},
	})
	require.NoError(t, err)

	result, err := tm.Run(context.Background(), "start")
	require.NoError(t, err)
	assert.Contains(t, result.FinalOutput, "alpha")
	assert.Contains(t, result.FinalOutput, "beta")
	assert.Equal(t, 10, result.TotalUsage.TotalTokens)
}

func TestCustomModeRequiresCoordinationFunc(t *testing.T) {
	_, err := New(Config{Mode: ModeCustom})
	require.Error(t, err)
}

func TestCustomModeDelegates(t *testing.T) {
	called := false
	tm, err := New(Config{
		Mode: ModeCustom,
		CoordinationFunc: func(ctx context.Context, agents []Member, input string, tctx *Context) (TeamResult, error) {
			called = true
			return TeamResult{FinalOutput: "custom"}, nil
		},
	})
	require.NoError(t, err)

	result, err := tm.Run(context.Background(), "start")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "custom", result.FinalOutput)
}

func TestBlackboardSetGetDeleteClear(t *testing.T) {
	b := NewBlackboard()
	b.Set("k", "v")
	v, ok := b.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	b.Delete("k")
	assert.False(t, b.Has("k"))

	b.Set("k2", "v2")
	b.Clear()
	assert.Empty(t, b.ToMap())
}

func TestMessageBusFiltersBySenderAndRecipient(t *testing.T) {
	bus := NewMessageBus(nil)
	bus.Send("a", "b", "hello")
	bus.Send("b", "a", "hi back")

	assert.Len(t, bus.GetFor("b"), 1)
	assert.Len(t, bus.GetFrom("a"), 1)
	assert.Len(t, bus.All(), 2)

	bus.Clear()
	assert.Empty(t, bus.All())
}

func TestSupervisorDispatchesToNamedWorker(t *testing.T) {
	supervisor := &stubMember{name: "sup", text: "workerA: do the thing"}
	workerA := &stubMember{name: "workerA", desc: "does things", text: "done with thing"}

	tm, err := New(Config{
		Mode:      ModeSupervisor,
		MaxRounds: 1,
		Agents:    []Member{supervisor, workerA},
	})
	require.NoError(t, err)

	result, err := tm.Run(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "done with thing", result.FinalOutput)
}
