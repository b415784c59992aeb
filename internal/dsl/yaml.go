package dsl

import "gopkg.in/yaml.v3"

// LoadYAML parses a YAML-encoded SchemaConfig document. It does not
// compile the schema — callers that need early feedback on a malformed
// file should call Validate or Compile afterward.
func LoadYAML(data []byte) (SchemaConfig, error) {
	var cfg SchemaConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SchemaConfig{}, err
	}
	return cfg, nil
}

// MarshalYAML serializes cfg back to YAML, mainly for round-trip tests
// and for dumping a builder-assembled schema to disk.
func MarshalYAML(cfg SchemaConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}
