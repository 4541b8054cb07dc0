package config

import "gopkg.in/yaml.v3"

// Dump renders the effective configuration as YAML, the format operators
// read back against the on-disk .parallax.yaml when diagnosing drift.
func (c Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}
