package hosts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads host table overrides
type Loader struct{}

// NewLoader creates a new host table loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads a YAML override file and merges it over the built-in table
func (l *Loader) Load(path string) (*Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read host table: %w", err)
	}

	return l.LoadFromBytes(data)
}

// LoadFromBytes parses YAML overrides and merges them over the built-in table
func (l *Loader) LoadFromBytes(data []byte) (*Table, error) {
	var override Table
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	table := DefaultTable()
	table.merge(&override)

	if err := table.Compile(); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadClassifier builds a classifier from path, or from the built-in table
// when path is empty
func LoadClassifier(path string) (*Classifier, error) {
	if path == "" {
		return NewClassifier(DefaultTable())
	}
	table, err := NewLoader().Load(path)
	if err != nil {
		return nil, err
	}
	return NewClassifier(table)
}
