// Package workflow implements the named-step graph engine: steps run in
// declared order unless a step's condition names another, with per-step
// retries, fallback, and transforms.
package workflow

import (
	"fmt"

	"github.com/openlinkos/agent/agenterr"
)

const doneStep = "done"

// StepFn is a plain function step.
type StepFn func(input interface{}) (interface{}, error)

// AgentRunner runs an agent against a stringified input, used by steps that
// set Agent instead of Fn.
type AgentRunner interface {
	Run(input string) (string, error)
}

// Step is one named unit of a workflow.
type Step struct {
	Name            string
	Fn              StepFn
	Agent           AgentRunner
	InputTransform  func(input interface{}) interface{}
	OutputTransform func(output interface{}) interface{}
	Condition       func(result interface{}) string
	Retries         int
	Fallback        func(input interface{}, err error) (interface{}, error)
}

// Workflow is a constructed, runnable named-step graph.
type Workflow struct {
	name           string
	steps          []Step
	byName         map[string]int
	onError        func(step string, err error)
	onStepComplete func(step string, result interface{})
	maxIterations  int
}

// Config constructs a Workflow.
type Config struct {
	Name           string
	Steps          []Step
	OnError        func(step string, err error)
	OnStepComplete func(step string, result interface{})
	MaxIterations  int
}

// New builds a Workflow from cfg. An empty step list is a construction
// error.
func New(cfg Config) (*Workflow, error) {
	if len(cfg.Steps) == 0 {
		return nil, agenterr.NewInvalidRequestError("workflow requires at least one step", "", nil)
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 50
	}

	byName := make(map[string]int, len(cfg.Steps))
	for i, s := range cfg.Steps {
		byName[s.Name] = i
	}

	return &Workflow{
		name:           cfg.Name,
		steps:          cfg.Steps,
		byName:         byName,
		onError:        cfg.OnError,
		onStepComplete: cfg.OnStepComplete,
		maxIterations:  maxIterations,
	}, nil
}

// Result is the final outcome of Run.
type Result struct {
	Result      interface{}
	StepResults map[string]interface{}
}

// Run executes the workflow starting at its first declared step, following
// conditions to branch, until a condition names "done", the steps are
// exhausted in declared order, or maxIterations total step visits is
// exceeded.
func (w *Workflow) Run(input interface{}) (Result, error) {
	stepResults := make(map[string]interface{}, len(w.steps))
	current := 0
	visits := 0
	var last interface{} = input

	for {
		if visits >= w.maxIterations {
			return Result{}, agenterr.NewInvalidRequestError(fmt.Sprintf("workflow %q exceeded maxIterations (%d)", w.name, w.maxIterations), "", nil)
		}
		visits++

		step := w.steps[current]
		result, err := w.runStep(step, last)
		if err != nil {
			return Result{}, err
		}
		stepResults[step.Name] = result
		last = result
		if w.onStepComplete != nil {
			w.onStepComplete(step.Name, result)
		}

		next := step.Name
		if step.Condition != nil {
			next = step.Condition(result)
		} else if current+1 < len(w.steps) {
			next = w.steps[current+1].Name
		} else {
			next = doneStep
		}

		if next == doneStep {
			break
		}
		idx, ok := w.byName[next]
		if !ok {
			return Result{}, agenterr.NewInvalidRequestError(fmt.Sprintf("workflow %q: unknown step %q named by condition", w.name, next), "", nil)
		}
		current = idx
	}

	return Result{Result: last, StepResults: stepResults}, nil
}

func (w *Workflow) runStep(step Step, input interface{}) (interface{}, error) {
	if step.Fn == nil && step.Agent == nil {
		return nil, agenterr.NewInvalidRequestError(fmt.Sprintf("step %q has neither fn nor agent", step.Name), "", nil)
	}

	transformed := input
	if step.InputTransform != nil {
		transformed = step.InputTransform(input)
	}

	result, err := w.invoke(step, transformed)
	if err != nil {
		for attempt := 0; attempt < step.Retries && err != nil; attempt++ {
			result, err = w.invoke(step, transformed)
		}
	}
	if err != nil {
		if w.onError != nil {
			w.onError(step.Name, err)
		}
		if step.Fallback != nil {
			result, err = step.Fallback(transformed, err)
		}
		if err != nil {
			return nil, err
		}
	}

	if step.OutputTransform != nil {
		result = step.OutputTransform(result)
	}
	return result, nil
}

func (w *Workflow) invoke(step Step, input interface{}) (interface{}, error) {
	if step.Fn != nil {
		return step.Fn(input)
	}
	text, err := step.Agent.Run(fmt.Sprintf("%v", input))
	if err != nil {
		return nil, err
	}
	return text, nil
}
