// Package structured implements JSON-schema-validated object generation
// with a self-correcting re-prompt retry loop.
package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openlinkos/agent/llms"
)

// Generator is the subset of model.Model structured generation needs.
type Generator interface {
	GenerateStructured(ctx context.Context, messages []llms.Message, format llms.ResponseFormat) (*llms.ModelResponse, error)
}

// Options configures GenerateObject. MaxRetries default is 3 (4 total
// attempts).
type Options struct {
	MaxRetries int
}

// Result is the successful outcome of GenerateObject.
type Result struct {
	Object interface{}
	Usage  llms.Usage
}

// GenerateObject appends an instruction message asking for JSON matching
// schema, then attempts up to 1+MaxRetries times: parse the response as
// JSON, validate it against schema, and on either failure append the
// attempt's text plus a corrective user message before retrying.
func GenerateObject(ctx context.Context, gen Generator, schema llms.JSONSchema, messages []llms.Message, opts Options) (*Result, error) {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	maxAttempts := 1 + opts.MaxRetries

	conversation := make([]llms.Message, len(messages))
	copy(conversation, messages)
	conversation = append(conversation, llms.NewTextMessage(llms.RoleUser, instructionFor(schema)))

	var totalUsage llms.Usage
	var lastParseErr error
	var lastValidateErrs []ValidationError

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := gen.GenerateStructured(ctx, conversation, llms.ResponseFormat{Type: "json", Schema: &schema})
		if err != nil {
			return nil, err
		}
		totalUsage = totalUsage.Add(resp.Usage)

		text := strings.TrimSpace(resp.TextOrEmpty())
		var parsed interface{}
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			lastParseErr = err
			conversation = append(conversation,
				llms.NewTextMessage(llms.RoleAssistant, text),
				llms.NewTextMessage(llms.RoleUser, fmt.Sprintf("That was not valid JSON (%v). Please respond with only valid JSON matching the schema.", err)),
			)
			continue
		}

		errs := Validate(parsed, schema)
		if len(errs) == 0 {
			return &Result{Object: parsed, Usage: totalUsage}, nil
		}
		lastValidateErrs = errs
		conversation = append(conversation,
			llms.NewTextMessage(llms.RoleAssistant, text),
			llms.NewTextMessage(llms.RoleUser, fmt.Sprintf("Your JSON did not satisfy the schema:\n%s\nPlease respond again with corrected JSON.", formatValidationErrors(errs))),
		)
	}

	if lastValidateErrs != nil {
		return nil, fmt.Errorf("schema validation failed after %d attempts: %s", maxAttempts, formatValidationErrors(lastValidateErrs))
	}
	return nil, fmt.Errorf("failed to parse JSON after %d attempts: %v", maxAttempts, lastParseErr)
}

func instructionFor(schema llms.JSONSchema) string {
	b, _ := json.Marshal(schema)
	return "Respond with only valid JSON matching this schema, no prose: " + string(b)
}

func formatValidationErrors(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return strings.Join(parts, "; ")
}
