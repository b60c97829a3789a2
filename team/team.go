// Package team implements the team coordinator: five coordination modes
// sharing a blackboard, a message bus, and per-round hook dispatch.
package team

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/openlinkos/agent/llms"
)

// Error is the team package's standardized error type.
type Error struct {
	Component string
	Operation string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Operation, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newTeamError(component, operation, message string, err error) *Error {
	return &Error{Component: component, Operation: operation, Message: message, Err: err}
}

// CoordinationMode selects how a Team dispatches work across its agents.
type CoordinationMode string

const (
	ModeSequential CoordinationMode = "sequential"
	ModeParallel   CoordinationMode = "parallel"
	ModeDebate     CoordinationMode = "debate"
	ModeSupervisor CoordinationMode = "supervisor"
	ModeCustom     CoordinationMode = "custom"
)

// Member is the minimal agent surface a team coordinates — satisfied by
// agent.Agent.
type Member interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string, onStep func(step int)) (*llms.ModelResponse, llms.Usage, int, error)
}

// AgentResult records one agent's contribution within a round.
type AgentResult struct {
	AgentName string
	Text      string
	Usage     llms.Usage
	Err       error
}

// TeamResult is the final outcome of running a team.
type TeamResult struct {
	FinalOutput  string
	AgentResults []AgentResult
	Rounds       int
	TotalUsage   llms.Usage
}

// Hooks are invoked at the corresponding points in a team run; every field
// is optional.
type Hooks struct {
	OnRoundStart func(round int)
	OnAgentStart func(agentName string, round int)
	OnAgentEnd   func(agentName string, round int, result AgentResult)
	OnRoundEnd   func(round int)
	OnError      func(err error)
}

// CoordinationFunc implements ModeCustom entirely.
type CoordinationFunc func(ctx context.Context, agents []Member, input string, tctx *Context) (TeamResult, error)

// Config constructs a Team.
type Config struct {
	Name             string
	Mode             CoordinationMode
	Agents           []Member
	MaxRounds        int
	Hooks            Hooks
	CoordinationFunc CoordinationFunc
}

// Team runs a fixed set of agents under one coordination mode.
type Team struct {
	name      string
	mode      CoordinationMode
	agents    []Member
	maxRounds int
	hooks     Hooks
	coordFn   CoordinationFunc
}

// New constructs a Team from cfg, failing for ModeCustom with no
// CoordinationFunc.
func New(cfg Config) (*Team, error) {
	if cfg.Mode == ModeCustom && cfg.CoordinationFunc == nil {
		return nil, newTeamError("Team", "New", "custom coordination mode requires a CoordinationFunc", nil)
	}
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 10
	}
	return &Team{
		name:      cfg.Name,
		mode:      cfg.Mode,
		agents:    cfg.Agents,
		maxRounds: maxRounds,
		hooks:     cfg.Hooks,
		coordFn:   cfg.CoordinationFunc,
	}, nil
}

// Name returns the team's configured name.
func (t *Team) Name() string { return t.name }

// CoordinationMode returns the team's configured mode.
func (t *Team) CoordinationMode() CoordinationMode { return t.mode }

// Run executes the team's coordination mode against input.
func (t *Team) Run(ctx context.Context, input string) (TeamResult, error) {
	tctx := NewContext()
	switch t.mode {
	case ModeSequential:
		return t.runSequential(ctx, input, tctx)
	case ModeParallel:
		return t.runParallel(ctx, input, tctx)
	case ModeDebate:
		return t.runDebate(ctx, input, tctx)
	case ModeSupervisor:
		return t.runSupervisor(ctx, input, tctx)
	case ModeCustom:
		return t.coordFn(ctx, t.agents, input, tctx)
	default:
		return TeamResult{}, newTeamError("Team", "Run", fmt.Sprintf("unknown coordination mode %q", t.mode), nil)
	}
}

const doneToken = "[DONE]"

func (t *Team) runSequential(ctx context.Context, input string, tctx *Context) (TeamResult, error) {
	result := TeamResult{}
	current := input
	rounds := 0

	for i, agent := range t.agents {
		if i >= t.maxRounds {
			break
		}
		rounds++
		t.fireAgentStart(agent.Name(), rounds)
		res := t.runOne(ctx, agent, current, tctx)
		t.fireAgentEnd(agent.Name(), rounds, res)
		result.AgentResults = append(result.AgentResults, res)
		result.TotalUsage = result.TotalUsage.Add(res.Usage)

		if res.Err != nil {
			result.FinalOutput = res.Text
			break
		}
		result.FinalOutput = res.Text
		current = res.Text + " " + input
		if strings.Contains(res.Text, doneToken) {
			break
		}
	}
	result.Rounds = rounds
	return result, nil
}

func (t *Team) runParallel(ctx context.Context, input string, tctx *Context) (TeamResult, error) {
	results := make([]AgentResult, len(t.agents))
	g, gctx := errgroup.WithContext(ctx)
	for i, agent := range t.agents {
		i, agent := i, agent
		g.Go(func() error {
			t.fireAgentStart(agent.Name(), 1)
			res := t.runOne(gctx, agent, input, tctx)
			t.fireAgentEnd(agent.Name(), 1, res)
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	result := TeamResult{AgentResults: results, Rounds: 1}
	var joined []string
	for _, r := range results {
		result.TotalUsage = result.TotalUsage.Add(r.Usage)
		if r.Err == nil {
			joined = append(joined, r.Text)
		}
	}
	result.FinalOutput = strings.Join(joined, "\n")
	return result, nil
}

func (t *Team) runDebate(ctx context.Context, input string, tctx *Context) (TeamResult, error) {
	result := TeamResult{}
	var statements []string

	for round := 1; round <= t.maxRounds; round++ {
		t.fireRoundStart(round)
		roundInput := input
		if len(statements) > 0 {
			roundInput = input + "\n\nPrior statements:\n" + strings.Join(statements, "\n")
		}
		for _, agent := range t.agents {
			t.fireAgentStart(agent.Name(), round)
			res := t.runOne(ctx, agent, roundInput, tctx)
			t.fireAgentEnd(agent.Name(), round, res)
			result.AgentResults = append(result.AgentResults, res)
			result.TotalUsage = result.TotalUsage.Add(res.Usage)
			if res.Err == nil {
				statements = append(statements, fmt.Sprintf("%s: %s", agent.Name(), res.Text))
			}
		}
		t.fireRoundEnd(round)
		result.Rounds = round
	}
	if len(statements) > 0 {
		result.FinalOutput = statements[len(statements)-1]
	}
	return result, nil
}

func (t *Team) runSupervisor(ctx context.Context, input string, tctx *Context) (TeamResult, error) {
	if len(t.agents) == 0 {
		return TeamResult{}, newTeamError("Team", "runSupervisor", "supervisor mode requires at least one agent", nil)
	}
	supervisor := t.agents[0]
	workers := t.agents[1:]

	result := TeamResult{}
	for round := 1; round <= t.maxRounds; round++ {
		t.fireRoundStart(round)
		prompt := buildSupervisorPrompt(input, workers, tctx)
		t.fireAgentStart(supervisor.Name(), round)
		supRes := t.runOne(ctx, supervisor, prompt, tctx)
		t.fireAgentEnd(supervisor.Name(), round, supRes)
		result.AgentResults = append(result.AgentResults, supRes)
		result.TotalUsage = result.TotalUsage.Add(supRes.Usage)
		result.Rounds = round

		if supRes.Err != nil {
			result.FinalOutput = supRes.Text
			break
		}

		workerName, subtask, isFinal := parseSupervisorDirective(supRes.Text)
		if isFinal {
			result.FinalOutput = supRes.Text
			break
		}

		worker := findWorker(workers, workerName)
		if worker == nil {
			result.FinalOutput = supRes.Text
			break
		}

		t.fireAgentStart(worker.Name(), round)
		workerRes := t.runOne(ctx, worker, subtask, tctx)
		t.fireAgentEnd(worker.Name(), round, workerRes)
		result.AgentResults = append(result.AgentResults, workerRes)
		result.TotalUsage = result.TotalUsage.Add(workerRes.Usage)
		tctx.Blackboard.Set(worker.Name(), workerRes.Text)
		result.FinalOutput = workerRes.Text
	}
	t.fireRoundEnd(result.Rounds)
	return result, nil
}

func buildSupervisorPrompt(input string, workers []Member, tctx *Context) string {
	var b strings.Builder
	b.WriteString(input)
	b.WriteString("\n\nAvailable workers:\n")
	for _, w := range workers {
		fmt.Fprintf(&b, "- %s: %s\n", w.Name(), w.Description())
	}
	return b.String()
}

// parseSupervisorDirective expects "WORKER: subtask" text, or treats
// anything else as a final answer.
func parseSupervisorDirective(text string) (worker, subtask string, isFinal bool) {
	idx := strings.Index(text, ":")
	if idx <= 0 {
		return "", "", true
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:]), false
}

func findWorker(workers []Member, name string) Member {
	for _, w := range workers {
		if w.Name() == name {
			return w
		}
	}
	return nil
}

func (t *Team) runOne(ctx context.Context, agent Member, input string, tctx *Context) AgentResult {
	resp, usage, _, err := agent.Run(ctx, input, nil)
	if err != nil {
		return AgentResult{AgentName: agent.Name(), Usage: usage, Err: err}
	}
	text := ""
	if resp != nil {
		text = resp.TextOrEmpty()
	}
	return AgentResult{AgentName: agent.Name(), Text: text, Usage: usage}
}

func (t *Team) fireRoundStart(round int) {
	if t.hooks.OnRoundStart != nil {
		t.hooks.OnRoundStart(round)
	}
}

func (t *Team) fireRoundEnd(round int) {
	if t.hooks.OnRoundEnd != nil {
		t.hooks.OnRoundEnd(round)
	}
}

func (t *Team) fireAgentStart(name string, round int) {
	if t.hooks.OnAgentStart != nil {
		t.hooks.OnAgentStart(name, round)
	}
}

func (t *Team) fireAgentEnd(name string, round int, res AgentResult) {
	if res.Err != nil && t.hooks.OnError != nil {
		t.hooks.OnError(res.Err)
	}
	if t.hooks.OnAgentEnd != nil {
		t.hooks.OnAgentEnd(name, round, res)
	}
}
