// Package agenterr defines the runtime's error taxonomy: a base error type
// specialized by kind, an HTTP-status router, and a default retryability
// predicate shared by the retry and fallback layers.
package agenterr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code identifies the kind of error in the taxonomy.
type Code string

const (
	CodeProvider       Code = "provider_error"
	CodeRateLimit      Code = "rate_limit_error"
	CodeAuthentication Code = "authentication_error"
	CodeTimeout        Code = "timeout_error"
	CodeInvalidRequest Code = "invalid_request_error"
	CodeToolExecution  Code = "tool_execution_error"
	CodeGuardrail      Code = "guardrail_error"
	CodeAbort          Code = "abort_error"
	CodeMaxIterations  Code = "max_iterations_error"
)

// Error is the base of the taxonomy: every specialized error embeds it.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// ProviderError is a generic upstream provider failure.
type ProviderError struct {
	Error
	StatusCode int
	Provider   string
}

func NewProviderError(message string, statusCode int, provider string, cause error) *ProviderError {
	return &ProviderError{
		Error:      Error{Code: CodeProvider, Message: message, Cause: cause},
		StatusCode: statusCode,
		Provider:   provider,
	}
}

// RateLimitError carries an optional exact retry delay in seconds.
type RateLimitError struct {
	Error
	RetryAfter *int
	Provider   string
}

func NewRateLimitError(message string, retryAfter *int, provider string, cause error) *RateLimitError {
	return &RateLimitError{
		Error:      Error{Code: CodeRateLimit, Message: message, Cause: cause},
		RetryAfter: retryAfter,
		Provider:   provider,
	}
}

// AuthenticationError signals an invalid or missing credential.
type AuthenticationError struct {
	Error
	Provider string
}

func NewAuthenticationError(message, provider string, cause error) *AuthenticationError {
	return &AuthenticationError{
		Error:    Error{Code: CodeAuthentication, Message: message, Cause: cause},
		Provider: provider,
	}
}

// TimeoutError signals an operation that exceeded its deadline.
type TimeoutError struct {
	Error
}

func NewTimeoutError(message string, cause error) *TimeoutError {
	return &TimeoutError{Error{Code: CodeTimeout, Message: message, Cause: cause}}
}

// InvalidRequestError signals a malformed request rejected before dispatch
// or by the upstream provider as a client error.
type InvalidRequestError struct {
	Error
	Provider string
}

func NewInvalidRequestError(message, provider string, cause error) *InvalidRequestError {
	return &InvalidRequestError{
		Error:    Error{Code: CodeInvalidRequest, Message: message, Cause: cause},
		Provider: provider,
	}
}

// ToolExecutionError wraps a failure raised by a tool's execute function.
type ToolExecutionError struct {
	Error
	ToolName string
}

func NewToolExecutionError(message, toolName string, cause error) *ToolExecutionError {
	return &ToolExecutionError{
		Error:    Error{Code: CodeToolExecution, Message: message, Cause: cause},
		ToolName: toolName,
	}
}

// GuardrailError is raised when an input/output guardrail or content filter
// rejects a run. Stage is one of "input", "output", "content-filter".
type GuardrailError struct {
	Error
	GuardrailName string
	Stage         string
}

func NewGuardrailError(message, guardrailName, stage string) *GuardrailError {
	return &GuardrailError{
		Error:         Error{Code: CodeGuardrail, Message: message},
		GuardrailName: guardrailName,
		Stage:         stage,
	}
}

// AbortError is raised when a run is cancelled via its context/signal.
type AbortError struct {
	Error
}

func NewAbortError(message string) *AbortError {
	return &AbortError{Error{Code: CodeAbort, Message: message}}
}

// MaxIterationsError is raised by the agent engine when the iteration bound
// is reached while the model is still requesting tool calls.
type MaxIterationsError struct {
	Error
	MaxIterations int
}

func NewMaxIterationsError(maxIterations int) *MaxIterationsError {
	return &MaxIterationsError{
		Error:         Error{Code: CodeMaxIterations, Message: fmt.Sprintf("agent exceeded max iterations (%d)", maxIterations)},
		MaxIterations: maxIterations,
	}
}

// MapHTTPError routes an upstream HTTP failure into the taxonomy.
func MapHTTPError(status int, body string, provider string, headers map[string]string) error {
	switch {
	case status == 401 || status == 403:
		return NewAuthenticationError(fmt.Sprintf("authentication failed (status %d)", status), provider, errors.New(body))
	case status == 429:
		var retryAfter *int
		if headers != nil {
			if v, ok := headers["retry-after"]; ok {
				if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					retryAfter = &n
				}
			}
		}
		return NewRateLimitError(fmt.Sprintf("rate limited (status %d)", status), retryAfter, provider, errors.New(body))
	case status == 400:
		return NewInvalidRequestError(fmt.Sprintf("invalid request (status %d)", status), provider, errors.New(body))
	case status >= 500:
		return NewProviderError(fmt.Sprintf("provider error (status %d)", status), status, provider, errors.New(body))
	default:
		return NewProviderError(fmt.Sprintf("unexpected status %d", status), status, provider, errors.New(body))
	}
}

// transportHints are substrings that indicate a retryable network failure
// when we only have a plain error rather than a taxonomy type.
var transportHints = []string{
	"connection reset",
	"connection refused",
	"broken pipe",
	"eof",
	"timeout",
	"temporary failure",
	"i/o timeout",
}

// DefaultIsRetryable decides whether an error is worth retrying.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var to *TimeoutError
	if errors.As(err, &to) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode >= 500 || pe.StatusCode == 0
	}
	var ab *AbortError
	if errors.As(err, &ab) {
		return false
	}
	var auth *AuthenticationError
	if errors.As(err, &auth) {
		return false
	}
	var inv *InvalidRequestError
	if errors.As(err, &inv) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range transportHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
