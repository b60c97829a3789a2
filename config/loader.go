// Package config provides configuration types and utilities for the AI agent framework.
// This file implements the YAML loading pipeline: parse, expand environment
// variables, strict-validate the top-level shape, decode, then apply defaults
// and field-level validation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadConfig reads filePath and decodes it into out.
func loadConfig(filePath string, out *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", filePath, err)
	}
	return decodeConfig(data, out)
}

// loadConfigFromString decodes yamlContent into out.
func loadConfigFromString(yamlContent string, out *Config) error {
	return decodeConfig([]byte(yamlContent), out)
}

// decodeConfig parses raw YAML into a map, expands ${VAR}/${VAR:-default}/$VAR
// references against the process environment, strict-validates the top-level
// shape, then decodes the expanded document into out and applies defaults and
// field validation.
func decodeConfig(data []byte, out *Config) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	expanded, ok := ExpandEnvVarsInData(raw).(map[string]interface{})
	if !ok {
		expanded = raw
	}

	if err := StrictValidate(expanded); err != nil {
		return fmt.Errorf("strict validation failed: %w", err)
	}

	normalized, err := yaml.Marshal(expanded)
	if err != nil {
		return fmt.Errorf("failed to re-encode expanded config: %w", err)
	}
	if err := yaml.Unmarshal(normalized, out); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	out.SetDefaults()
	if err := out.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
