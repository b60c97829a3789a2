// Package middleware implements the onion-model middleware stack shared by
// the agent engine: five lifecycle hooks, each run in registration order on
// the way in, with a next() continuation skipping to the following
// middleware that implements the hook.
package middleware

import "github.com/openlinkos/agent/llms"

// BeforeGenerateContext is passed to beforeGenerate hooks.
type BeforeGenerateContext struct {
	Messages  []llms.Message
	Tools     []llms.ToolDefinition
	Iteration int
}

// AfterGenerateContext is passed to afterGenerate hooks.
type AfterGenerateContext struct {
	Response  *llms.ModelResponse
	Messages  []llms.Message
	Iteration int
}

// BeforeToolCallContext is passed to beforeToolCall hooks. Setting Skip and
// Result causes the engine to use Result instead of executing the tool.
type BeforeToolCallContext struct {
	ToolCall llms.ToolCall
	Tool     *llms.ToolDefinition
	Skip     bool
	Result   *string
}

// AfterToolCallContext is passed to afterToolCall hooks.
type AfterToolCallContext struct {
	ToolCall llms.ToolCall
	Result   string
	Error    error
}

// ErrorContext is passed to onError hooks. Handled is only recorded on the
// context: the agent engine returns the error whether or not it is set.
type ErrorContext struct {
	Err     error
	Handled bool
}

// Middleware optionally implements any subset of the five hooks; nil funcs
// are simply skipped.
type Middleware struct {
	Name           string
	BeforeGenerate func(ctx *BeforeGenerateContext, next func() error) error
	AfterGenerate  func(ctx *AfterGenerateContext, next func() error) error
	BeforeToolCall func(ctx *BeforeToolCallContext, next func() error) error
	AfterToolCall  func(ctx *AfterToolCallContext, next func() error) error
	OnError        func(ctx *ErrorContext, next func() error) error
}

// Stack holds an ordered list of middlewares.
type Stack struct {
	middlewares []Middleware
}

// NewStack returns an empty middleware stack.
func NewStack() *Stack {
	return &Stack{}
}

// Use appends a middleware to the stack.
func (s *Stack) Use(mw Middleware) {
	s.middlewares = append(s.middlewares, mw)
}

// All returns a snapshot copy of the registered middlewares.
func (s *Stack) All() []Middleware {
	out := make([]Middleware, len(s.middlewares))
	copy(out, s.middlewares)
	return out
}

// runChain drives an onion chain over the given hook selector: it walks
// forward through the middlewares that implement the hook, in registration
// order, giving each a next() that advances to the following one.
// Middlewares that don't implement the hook are transparently skipped, not
// counted as a position. Not calling next() short-circuits — later
// middlewares and downstream work never run.
func runChain(mws []Middleware, hasHook func(Middleware) bool, invoke func(Middleware, func() error) error, downstream func() error) error {
	pos := 0
	var next func() error
	next = func() error {
		for pos < len(mws) {
			mw := mws[pos]
			pos++
			if hasHook(mw) {
				return invoke(mw, next)
			}
		}
		return downstream()
	}
	return next()
}

// RunBeforeGenerate executes the beforeGenerate chain; downstream runs once
// every middleware has called next().
func (s *Stack) RunBeforeGenerate(ctx *BeforeGenerateContext, downstream func() error) error {
	return runChain(s.middlewares,
		func(m Middleware) bool { return m.BeforeGenerate != nil },
		func(m Middleware, next func() error) error { return m.BeforeGenerate(ctx, next) },
		downstream,
	)
}

// RunAfterGenerate executes the afterGenerate chain.
func (s *Stack) RunAfterGenerate(ctx *AfterGenerateContext, downstream func() error) error {
	return runChain(s.middlewares,
		func(m Middleware) bool { return m.AfterGenerate != nil },
		func(m Middleware, next func() error) error { return m.AfterGenerate(ctx, next) },
		downstream,
	)
}

// RunBeforeToolCall executes the beforeToolCall chain.
func (s *Stack) RunBeforeToolCall(ctx *BeforeToolCallContext, downstream func() error) error {
	return runChain(s.middlewares,
		func(m Middleware) bool { return m.BeforeToolCall != nil },
		func(m Middleware, next func() error) error { return m.BeforeToolCall(ctx, next) },
		downstream,
	)
}

// RunAfterToolCall executes the afterToolCall chain.
func (s *Stack) RunAfterToolCall(ctx *AfterToolCallContext, downstream func() error) error {
	return runChain(s.middlewares,
		func(m Middleware) bool { return m.AfterToolCall != nil },
		func(m Middleware, next func() error) error { return m.AfterToolCall(ctx, next) },
		downstream,
	)
}

// RunOnError executes the onError chain.
func (s *Stack) RunOnError(ctx *ErrorContext, downstream func() error) error {
	return runChain(s.middlewares,
		func(m Middleware) bool { return m.OnError != nil },
		func(m Middleware, next func() error) error { return m.OnError(ctx, next) },
		downstream,
	)
}
