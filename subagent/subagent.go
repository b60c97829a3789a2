// Package subagent implements the sub-agent spawner: running a
// depth-and-timeout bounded agent as a child of another, singly or in
// parallel.
package subagent

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openlinkos/agent/llms"
)

const (
	defaultMaxDepth = 3
	defaultTimeout  = 300 * time.Second
)

// ProgressEventType names the phase a spawn has reached.
type ProgressEventType string

const (
	ProgressStarted   ProgressEventType = "started"
	ProgressStep      ProgressEventType = "step"
	ProgressCompleted ProgressEventType = "completed"
	ProgressFailed    ProgressEventType = "failed"
)

// ProgressEvent reports spawn lifecycle events to an optional observer.
type ProgressEvent struct {
	Type      ProgressEventType
	AgentName string
	Step      int
}

// Result is the outcome of spawning a single sub-agent.
type Result struct {
	Success    bool
	AgentName  string
	Response   *llms.ModelResponse
	Tokens     llms.Usage
	DurationMs int64
	Steps      int
	Error      string
}

// Runner is the minimal agent surface a spawned sub-agent must satisfy —
// implemented by agent.Agent.
type Runner interface {
	Name() string
	Run(ctx context.Context, input string, onStep func(step int)) (*llms.ModelResponse, llms.Usage, int, error)
}

// Config controls one spawn call.
type Config struct {
	Timeout    time.Duration
	MaxDepth   int
	OnProgress func(ProgressEvent)
}

// Spawn runs agent as a sub-agent of the caller at the given depth,
// returning a structured Result rather than propagating errors — only
// construction-time misuse panics.
func Spawn(ctx context.Context, agent Runner, input string, cfg Config, depth int) Result {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	if depth >= maxDepth {
		return Result{Success: false, AgentName: agent.Name(), Error: "Maximum nesting depth exceeded"}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	emit := cfg.OnProgress
	if emit == nil {
		emit = func(ProgressEvent) {}
	}

	emit(ProgressEvent{Type: ProgressStarted, AgentName: agent.Name()})

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	response, usage, steps, err := agent.Run(runCtx, input, func(step int) {
		emit(ProgressEvent{Type: ProgressStep, AgentName: agent.Name(), Step: step})
	})
	duration := time.Since(start).Milliseconds()

	if err != nil {
		message := err.Error()
		if runCtx.Err() == context.DeadlineExceeded {
			message = fmt.Sprintf("sub-agent %q timed out after %s", agent.Name(), timeout)
		}
		emit(ProgressEvent{Type: ProgressFailed, AgentName: agent.Name()})
		return Result{Success: false, AgentName: agent.Name(), Tokens: usage, DurationMs: duration, Steps: steps, Error: message}
	}

	emit(ProgressEvent{Type: ProgressCompleted, AgentName: agent.Name()})
	return Result{Success: true, AgentName: agent.Name(), Response: response, Tokens: usage, DurationMs: duration, Steps: steps}
}

// SpawnParallel runs len(agents) == len(inputs) sub-agents concurrently,
// returning results in input order. A sub-agent failure yields a
// Success:false entry rather than aborting the others.
func SpawnParallel(ctx context.Context, agents []Runner, inputs []string, cfg Config, depth int) ([]Result, error) {
	if len(agents) != len(inputs) {
		return nil, fmt.Errorf("subagent: spawnParallel requires equal-length agents (%d) and inputs (%d)", len(agents), len(inputs))
	}

	results := make([]Result, len(agents))
	g, gctx := errgroup.WithContext(ctx)
	for i := range agents {
		i := i
		g.Go(func() error {
			results[i] = Spawn(gctx, agents[i], inputs[i], cfg, depth)
			return nil
		})
	}
	_ = g.Wait() // Spawn never returns an error itself; failures are encoded in Result
	return results, nil
}
