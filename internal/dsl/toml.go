package dsl

import "github.com/BurntSushi/toml"

// LoadTOML parses a TOML-encoded SchemaConfig document. Like LoadYAML it
// does not compile the schema; call Validate or Compile afterward.
func LoadTOML(data []byte) (SchemaConfig, error) {
	var cfg SchemaConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return SchemaConfig{}, err
	}
	return cfg, nil
}

// MarshalTOML serializes cfg back to TOML.
func MarshalTOML(cfg SchemaConfig) ([]byte, error) {
	return toml.Marshal(cfg)
}
