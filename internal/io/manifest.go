package io

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StructToYaml marshals v to path
func StructToYaml(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("[StructToYaml] Failed to marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("[StructToYaml] Failed to write %s: %w", path, err)
	}

	return nil
}

// YamltoStruct unmarshals the file at path into v
func YamltoStruct(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("[YamltoStruct] Failed to read: %w", err)
	}

	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("[YamltoStruct] Failed to parse %s: %w", path, err)
	}

	return nil
}
