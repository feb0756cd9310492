package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoRules is returned when a policy document defines no rules
var ErrNoRules = errors.New("policy: document defines no rules")

// Document is the on-disk shape of a rule table.
type Document struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads a YAML rule table from path
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	t, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML rule table. Unknown keys are rejected.
func Parse(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRules
		}
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, ErrNoRules
	}
	return NewTable(doc.Rules)
}

// Load returns the table at path, or the defaults when path is empty
func Load(path string) (*Table, error) {
	if path == "" {
		return Defaults(), nil
	}
	return LoadFile(path)
}
