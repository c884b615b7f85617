package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"resumerag/internal/domain"
)

// RequiredFields are the top-level keys every record must carry.
var RequiredFields = []string{"basics", "employment", "technical_skills"}

// Load reads a record from path. Files ending in .yaml or .yml are decoded
// as YAML; everything else as JSON.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes and validates a JSON record.
func ParseJSON(data []byte) (*Record, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if err := checkRequired(func(k string) bool {
		v, ok := top[k]
		return ok && string(v) != "null"
	}); err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

// ParseYAML decodes and validates a YAML record.
func ParseYAML(data []byte) (*Record, error) {
	var top map[string]any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if err := checkRequired(func(k string) bool {
		v, ok := top[k]
		return ok && v != nil
	}); err != nil {
		return nil, err
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

func checkRequired(present func(string) bool) error {
	for _, field := range RequiredFields {
		if !present(field) {
			return &domain.MalformedRecordError{Field: field}
		}
	}
	return nil
}
