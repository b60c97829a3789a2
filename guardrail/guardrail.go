// Package guardrail implements input/output guardrails and content filters
// that gate what reaches a model or what a model's response is allowed to
// surface.
package guardrail

import "fmt"

// Result is the outcome of a single guardrail check.
type Result struct {
	Passed bool
	Reason string
}

// Guardrail inspects a piece of text and decides whether it may pass.
type Guardrail struct {
	Name  string
	Check func(text string) Result
}

// ContentFilter transforms or blocks content. Returning ok=false blocks.
type ContentFilter struct {
	Name   string
	Filter func(content string) (replacement string, ok bool)
}

// RunInputGuardrails runs each guardrail in order against input, stopping
// at the first failure.
func RunInputGuardrails(guardrails []Guardrail, input string) Result {
	return runGuardrails(guardrails, input)
}

// RunOutputGuardrails runs each guardrail in order against output, stopping
// at the first failure.
func RunOutputGuardrails(guardrails []Guardrail, output string) Result {
	return runGuardrails(guardrails, output)
}

func runGuardrails(guardrails []Guardrail, text string) Result {
	for _, g := range guardrails {
		r := g.Check(text)
		if !r.Passed {
			reason := r.Reason
			return Result{Passed: false, Reason: fmt.Sprintf("%s: %s", g.Name, reason)}
		}
	}
	return Result{Passed: true}
}

// ApplyContentFilters runs filters in order over content; the first filter
// that blocks (ok=false) short-circuits the chain with ok=false.
func ApplyContentFilters(filters []ContentFilter, content string) (string, bool) {
	current := content
	for _, f := range filters {
		replacement, ok := f.Filter(current)
		if !ok {
			return "", false
		}
		current = replacement
	}
	return current, true
}

// MaxLengthGuardrail passes iff len(input) <= n.
func MaxLengthGuardrail(n int) Guardrail {
	return Guardrail{
		Name: fmt.Sprintf("maxLength(%d)", n),
		Check: func(text string) Result {
			if len(text) <= n {
				return Result{Passed: true}
			}
			return Result{Passed: false, Reason: fmt.Sprintf("input length %d exceeds maximum %d", len(text), n)}
		},
	}
}
