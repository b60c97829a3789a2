package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/openlinkos/agent/llms"
)

// ExecutionResult is the outcome of ExecuteTool: exactly one of Result or
// Error is meaningful.
type ExecutionResult struct {
	Result string
	Error  string
}

const defaultToolTimeout = 30 * time.Second

// ExecuteTool runs tool.Execute(args) racing a timer of timeout (0 or less
// means defaultToolTimeout). Non-string results are JSON-stringified. A panic or
// returned error yields {Result:"", Error: message}; exceeding the timeout
// yields a "timed out after ..." error.
func ExecuteTool(tool llms.ToolDefinition, args map[string]interface{}, timeout time.Duration) ExecutionResult {
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}

	type outcome struct {
		value interface{}
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		v, err := tool.Execute(args)
		done <- outcome{value: v, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return ExecutionResult{Result: "", Error: res.err.Error()}
		}
		return ExecutionResult{Result: stringifyResult(res.value)}
	case <-time.After(timeout):
		return ExecutionResult{Result: "", Error: fmt.Sprintf("timed out after %s", timeout)}
	}
}

func stringifyResult(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
