package tools

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/openlinkos/agent/agenterr"
	"github.com/openlinkos/agent/llms"
)

// ComposeTool pipes t1's output into t2 as params.input, t2's output into
// t3, and so on; it exposes t1's parameter schema and the composed name and
// description. Requires at least one tool.
func ComposeTool(ts []llms.ToolDefinition, name, description string) (llms.ToolDefinition, error) {
	if len(ts) == 0 {
		return llms.ToolDefinition{}, agenterr.NewInvalidRequestError("composeTool requires at least one tool", "", nil)
	}
	first := ts[0]
	return llms.ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  first.Parameters,
		Execute: func(args map[string]interface{}) (interface{}, error) {
			var current interface{} = args
			for i, t := range ts {
				var callArgs map[string]interface{}
				if i == 0 {
					callArgs = args
				} else {
					callArgs = map[string]interface{}{"input": stringifyIfNeeded(current)}
				}
				out, err := t.Execute(callArgs)
				if err != nil {
					return nil, err
				}
				current = out
			}
			return current, nil
		},
	}, nil
}

func stringifyIfNeeded(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// ConditionalTool runs a if predicate(params) else b. Its parameter schema
// is the shallow merge of both tools' schemas, with required merged as a
// union.
func ConditionalTool(name, description string, predicate func(map[string]interface{}) bool, a, b llms.ToolDefinition) llms.ToolDefinition {
	return llms.ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  mergeSchemas(a.Parameters, b.Parameters),
		Execute: func(args map[string]interface{}) (interface{}, error) {
			if predicate(args) {
				return a.Execute(args)
			}
			return b.Execute(args)
		},
	}
}

func mergeSchemas(a, b llms.JSONSchema) llms.JSONSchema {
	merged := llms.JSONSchema{Type: "object", Properties: map[string]*llms.JSONSchema{}}
	for k, v := range a.Properties {
		merged.Properties[k] = v
	}
	for k, v := range b.Properties {
		merged.Properties[k] = v
	}
	requiredSet := map[string]bool{}
	for _, r := range a.Required {
		requiredSet[r] = true
	}
	for _, r := range b.Required {
		requiredSet[r] = true
	}
	for r := range requiredSet {
		merged.Required = append(merged.Required, r)
	}
	return merged
}

// ToolGroup renames every tool to "groupName_originalName" and prefixes its
// description with "[desc] ", leaving parameters and execute unchanged.
func ToolGroup(ts []llms.ToolDefinition, groupName, description string) []llms.ToolDefinition {
	out := make([]llms.ToolDefinition, len(ts))
	for i, t := range ts {
		t := t
		out[i] = llms.ToolDefinition{
			Name:        groupName + "_" + t.Name,
			Description: fmt.Sprintf("[%s] %s", description, t.Description),
			Parameters:  t.Parameters,
			Execute:     t.Execute,
		}
	}
	return out
}

// RetryTool runs tool up to 1+maxRetries times on error; the final error is
// re-raised unchanged.
func RetryTool(tool llms.ToolDefinition, maxRetries int) llms.ToolDefinition {
	return llms.ToolDefinition{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  tool.Parameters,
		Execute: func(args map[string]interface{}) (interface{}, error) {
			var lastErr error
			for attempt := 0; attempt <= maxRetries; attempt++ {
				v, err := tool.Execute(args)
				if err == nil {
					return v, nil
				}
				lastErr = err
			}
			return nil, lastErr
		},
	}
}

// CacheTool memoizes tool.Execute by a JSON-stringified argument key (or a
// custom keyFn), honoring an optional ttl. A hit bypasses Execute entirely.
func CacheTool(tool llms.ToolDefinition, ttl time.Duration, keyFn func(map[string]interface{}) string) llms.ToolDefinition {
	type entry struct {
		value   interface{}
		expires time.Time
	}
	var mu sync.Mutex
	cache := map[string]entry{}

	key := keyFn
	if key == nil {
		key = func(args map[string]interface{}) string {
			b, _ := json.Marshal(args)
			return string(b)
		}
	}

	return llms.ToolDefinition{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  tool.Parameters,
		Execute: func(args map[string]interface{}) (interface{}, error) {
			k := key(args)
			mu.Lock()
			if e, ok := cache[k]; ok && (ttl <= 0 || time.Now().Before(e.expires)) {
				mu.Unlock()
				return e.value, nil
			}
			mu.Unlock()

			v, err := tool.Execute(args)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			cache[k] = entry{value: v, expires: time.Now().Add(ttl)}
			mu.Unlock()
			return v, nil
		},
	}
}
