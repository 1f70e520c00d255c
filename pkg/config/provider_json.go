package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONProvider implements InputProvider for JSON input documents
type JSONProvider struct {
	filename string
}

// NewJSONProvider creates a new JSON input provider
func NewJSONProvider(filename string) *JSONProvider {
	return &JSONProvider{
		filename: filename,
	}
}

// LoadInput loads the simulation input from the JSON file
func (j *JSONProvider) LoadInput() (*InputData, error) {
	data, err := os.ReadFile(j.filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	input, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", j.filename, err)
	}
	input.ResolvePaths(filepath.Dir(j.filename))
	return input, nil
}

// ParseJSON decodes a JSON input document and applies plant defaults.
func ParseJSON(data []byte) (*InputData, error) {
	var input InputData
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// UnmarshalJSON fills keys missing from the document with DefaultPlant.
func (p *PlantConfig) UnmarshalJSON(data []byte) error {
	type plain PlantConfig
	v := plain(DefaultPlant())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = PlantConfig(v)
	return nil
}
