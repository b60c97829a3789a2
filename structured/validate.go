package structured

import (
	"fmt"
	"reflect"

	"github.com/openlinkos/agent/llms"
)

// ValidationError is one schema violation, with a JSON-pointer-ish path for
// reporting back to the model.
type ValidationError struct {
	Path    string
	Message string
}

// Validate checks value against schema, returning every violation found. An
// empty result means value is valid. This mirrors the subset validator used
// by tools.ValidateParameters (object/array/string/number/integer/boolean/
// enum, required, recursive properties/items, additionalProperties
// strictness), shared here so structured output and tool arguments validate
// identically.
func Validate(value interface{}, schema llms.JSONSchema) []ValidationError {
	return validateAt("$", value, schema)
}

func validateAt(path string, value interface{}, schema llms.JSONSchema) []ValidationError {
	var errs []ValidationError

	if len(schema.Enum) > 0 && !enumContains(schema.Enum, value) {
		errs = append(errs, ValidationError{Path: path, Message: "value is not one of the allowed enum values"})
		return errs
	}

	switch schema.Type {
	case "object":
		obj, ok := value.(map[string]interface{})
		if !ok {
			errs = append(errs, ValidationError{Path: path, Message: "expected an object"})
			return errs
		}
		for _, req := range schema.Required {
			if _, present := obj[req]; !present {
				errs = append(errs, ValidationError{Path: path + "." + req, Message: "missing required property"})
			}
		}
		for key, val := range obj {
			propSchema, known := schema.Properties[key]
			if !known {
				if schema.AdditionalProperties != nil && !*schema.AdditionalProperties {
					errs = append(errs, ValidationError{Path: path + "." + key, Message: "unrecognized property"})
				}
				continue
			}
			errs = append(errs, validateAt(path+"."+key, val, *propSchema)...)
		}
	case "array":
		arr, ok := value.([]interface{})
		if !ok {
			errs = append(errs, ValidationError{Path: path, Message: "expected an array"})
			return errs
		}
		if schema.Items != nil {
			for i, el := range arr {
				errs = append(errs, validateAt(fmt.Sprintf("%s[%d]", path, i), el, *schema.Items)...)
			}
		}
	case "string":
		if _, ok := value.(string); !ok {
			errs = append(errs, ValidationError{Path: path, Message: "expected a string"})
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			errs = append(errs, ValidationError{Path: path, Message: "expected a boolean"})
		}
	case "number":
		if !isNumber(value) {
			errs = append(errs, ValidationError{Path: path, Message: "expected a number"})
		}
	case "integer":
		if !isIntegerValued(value) {
			errs = append(errs, ValidationError{Path: path, Message: "expected an integer"})
		}
	}

	return errs
}

func enumContains(enum []interface{}, value interface{}) bool {
	for _, e := range enum {
		if reflect.DeepEqual(e, value) {
			return true
		}
	}
	return false
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	default:
		return false
	}
}

// isIntegerValued accepts numbers without a fractional part as satisfying
// "integer", per the spec's JSON-decoded-as-float64 numeric model.
func isIntegerValued(v interface{}) bool {
	f, ok := v.(float64)
	if !ok {
		return isNumber(v)
	}
	return f == float64(int64(f))
}
