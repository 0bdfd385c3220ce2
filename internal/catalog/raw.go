package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// RawCatalog is the undecoded configuration document.
// It mirrors config/scoring_factors.yaml:
//
//	categories:
//	  - name: Market Demand
//	    weight: 2
//	    factors:
//	      - code: MD001
//	        name: Search volume
//	        weight: 1
type RawCatalog struct {
	Version    string        `yaml:"version,omitempty" json:"version,omitempty"`
	Categories []RawCategory `yaml:"categories" json:"categories" validate:"dive"`
}

// RawCategory is one category entry before validation.
type RawCategory struct {
	Key         string      `yaml:"key,omitempty" json:"key,omitempty" validate:"omitempty,max=100"`
	Name        string      `yaml:"name" json:"name" validate:"required_without=Key,max=200"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Weight      *float64    `yaml:"weight,omitempty" json:"weight,omitempty"`
	Factors     []RawFactor `yaml:"factors" json:"factors" validate:"dive"`
}

// RawFactor is one factor entry before validation.
// Code is accepted as an alias of Key.
type RawFactor struct {
	Key         string   `yaml:"key,omitempty" json:"key,omitempty" validate:"omitempty,max=100"`
	Code        string   `yaml:"code,omitempty" json:"code,omitempty" validate:"omitempty,max=100"`
	Name        string   `yaml:"name" json:"name" validate:"required_without_all=Key Code,max=200"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Weight      *float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// LoadFile reads and loads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	raw, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Load(raw)
}

// Decode parses a YAML (or JSON, which is valid YAML) catalog document.
// Type mismatches such as a non-numeric weight are reported as ConfigurationError.
func Decode(r io.Reader) (RawCatalog, error) {
	var raw RawCatalog
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return raw, &ConfigurationError{Problems: []string{"catalog document is empty"}}
		}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return raw, &ConfigurationError{Problems: typeErr.Errors}
		}
		return raw, &ConfigurationError{Err: fmt.Errorf("decode catalog: %w", err)}
	}
	return raw, nil
}
