package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements InputProvider for YAML input documents. Keys are
// the same as in the JSON form.
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML input provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadInput loads the simulation input from the YAML file
func (y *YAMLProvider) LoadInput() (*InputData, error) {
	data, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	input, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", y.filename, err)
	}
	input.ResolvePaths(filepath.Dir(y.filename))
	return input, nil
}

// ParseYAML decodes a YAML input document and applies plant defaults.
func ParseYAML(data []byte) (*InputData, error) {
	var input InputData
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// UnmarshalYAML fills keys missing from the document with DefaultPlant.
func (p *PlantConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain PlantConfig
	v := plain(DefaultPlant())
	if err := unmarshal(&v); err != nil {
		return err
	}
	*p = PlantConfig(v)
	return nil
}
