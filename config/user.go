package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadUser reads the YAML user configuration at path, decoded over the
// defaults. A missing file yields the defaults.
func LoadUser(path string) (Configuration, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	return ParseUser(data)
}

// ParseUser decodes YAML user configuration over the defaults. Unknown keys
// and invalid names are errors.
func ParseUser(data []byte) (Configuration, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Default(), fmt.Errorf("user config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("user config: %w", err)
	}
	return cfg, nil
}
