package guardrail

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunGuardrailsStopsAtFirstFailure(t *testing.T) {
	calledSecond := false
	guardrails := []Guardrail{
		{Name: "len", Check: func(text string) Result {
			return Result{Passed: false, Reason: "too long"}
		}},
		{Name: "second", Check: func(text string) Result {
			calledSecond = true
			return Result{Passed: true}
		}},
	}

	r := RunInputGuardrails(guardrails, "hello")
	assert.False(t, r.Passed)
	assert.Equal(t, "len: too long", r.Reason)
	assert.False(t, calledSecond)
}

func TestRunGuardrailsEmptyPasses(t *testing.T) {
	r := RunInputGuardrails(nil, "anything")
	assert.True(t, r.Passed)
}

func TestMaxLengthGuardrail(t *testing.T) {
	g := MaxLengthGuardrail(5)
	assert.True(t, g.Check("hello").Passed)
	assert.False(t, g.Check("hello!").Passed)
}

func TestApplyContentFiltersBlocksOnNil(t *testing.T) {
	filters := []ContentFilter{
		RegexBlockFilter("secret", regexp.MustCompile(`secret`), nil),
	}
	out, ok := ApplyContentFilters(filters, "this has a secret in it")
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestApplyContentFiltersReplaces(t *testing.T) {
	replacement := "[redacted]"
	filters := []ContentFilter{
		RegexBlockFilter("secret", regexp.MustCompile(`secret`), &replacement),
	}
	out, ok := ApplyContentFilters(filters, "this has a secret in it")
	assert.True(t, ok)
	assert.Equal(t, "this has a [redacted] in it", out)
}

func TestApplyContentFiltersChains(t *testing.T) {
	upper := "UPPER"
	filters := []ContentFilter{
		RegexBlockFilter("a", regexp.MustCompile(`a`), &upper),
		RegexBlockFilter("b", regexp.MustCompile(`b`), &upper),
	}
	out, ok := ApplyContentFilters(filters, "ab")
	assert.True(t, ok)
	assert.Equal(t, "UPPERUPPER", out)
}
