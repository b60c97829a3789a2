package config

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// configSchemaJSON pins the set of top-level keys Config actually
// understands, so a typo'd or misplaced top-level field (e.g. "agent:"
// instead of "agents:") fails loading instead of silently vanishing.
const configSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {}, "name": {}, "description": {}, "metadata": {},
    "global": {}, "llms": {}, "databases": {}, "embedders": {},
    "agents": {}, "workflows": {}, "tools": {}, "document_stores": {},
    "plugins": {}
  }
}`

var configSchema *jsonschema.Schema

func init() {
	var schemaDoc any
	if err := json.Unmarshal([]byte(configSchemaJSON), &schemaDoc); err != nil {
		panic(fmt.Sprintf("config: invalid embedded schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("config: failed to add schema resource: %v", err))
	}
	schema, err := c.Compile("config.schema.json")
	if err != nil {
		panic(fmt.Sprintf("config: failed to compile schema: %v", err))
	}
	configSchema = schema
}

// StrictValidate rejects a decoded configuration document that carries a
// top-level field the schema doesn't recognize.
func StrictValidate(doc map[string]interface{}) error {
	// jsonschema validates against json-decoded documents (map[string]any with
	// float64/[]any leaves); round-trip through JSON to get that shape from a
	// YAML-decoded map, whose leaves may be int/uint64/etc.
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document for schema validation: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(b, &jsonDoc); err != nil {
		return fmt.Errorf("failed to unmarshal document for schema validation: %w", err)
	}
	return configSchema.Validate(jsonDoc)
}
