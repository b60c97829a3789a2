package tools

import (
	"github.com/openlinkos/agent/llms"
	"github.com/openlinkos/agent/structured"
)

// ValidationResult is the outcome of validating a tool call's arguments.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateParameters checks args against schema, reusing the same
// recursive subset validator structured.GenerateObject validates its output
// with, so tool arguments and structured-output objects are held to
// identical rules.
func ValidateParameters(args map[string]interface{}, schema llms.JSONSchema) ValidationResult {
	errs := structured.Validate(toInterfaceMap(args), schema)
	if len(errs) == 0 {
		return ValidationResult{Valid: true}
	}
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.Path + ": " + e.Message
	}
	return ValidationResult{Valid: false, Errors: messages}
}

func toInterfaceMap(m map[string]interface{}) interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
