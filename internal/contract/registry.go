package contract

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/homerank/schema"
	"gopkg.in/yaml.v3"
)

// LoadRegistryFile reads a YAML criteria registry and validates it.
func LoadRegistryFile(path string) (*schema.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes a YAML criteria registry and validates it.
func ParseRegistry(data []byte) (*schema.Registry, error) {
	var reg schema.Registry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&reg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse criteria file: %v", schema.ErrInvalidInput, err)
	}

	for i := range reg.Criteria {
		c := &reg.Criteria[i]
		c.Name = strings.TrimSpace(c.Name)
		c.Direction = schema.Direction(strings.ToLower(strings.TrimSpace(string(c.Direction))))
		c.Labels = schema.LabelKind(strings.ToLower(strings.TrimSpace(string(c.Labels))))
	}
	if reg.IDColumn == "" {
		reg.IDColumn = schema.ColumnPropertyCode
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}
