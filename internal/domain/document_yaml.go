package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAMLDocument decodes a YAML configuration over the defaults.
func ParseYAMLDocument(data []byte) (Configuration, error) {
	cfg := DefaultConfiguration()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("decode yaml configuration: %w", err)
	}
	return cfg.Normalize(), nil
}

// MarshalYAMLDocument encodes the configuration as YAML.
func (c Configuration) MarshalYAMLDocument() ([]byte, error) {
	data, err := yaml.Marshal(c.Normalize())
	if err != nil {
		return nil, fmt.Errorf("encode yaml configuration: %w", err)
	}
	return data, nil
}
