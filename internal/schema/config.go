package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/shiftdb/shiftdb/internal/types"
)

// Config is the YAML form of a catalog, for deployments whose tables differ
// from the built-in set.
type Config struct {
	Tables []TableConfig `yaml:"tables"`
}

type TableConfig struct {
	Name      string           `yaml:"name"`
	File      string           `yaml:"file,omitempty"`
	Optional  bool             `yaml:"optional,omitempty"`
	Required  []string         `yaml:"required,omitempty"`
	Fields    []FieldConfig    `yaml:"fields"`
	Relations []RelationConfig `yaml:"relations,omitempty"`
}

type FieldConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type RelationConfig struct {
	Name        string `yaml:"name"`
	Field       string `yaml:"field"`
	Target      string `yaml:"target"`
	TargetField string `yaml:"target_field"`
	Cardinality string `yaml:"cardinality,omitempty"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewSchemaError("", fmt.Sprintf("malformed catalog config %s: %s", path, err))
	}

	return &cfg, nil
}

// Catalog builds and finishes a catalog from the configuration. Any
// violation fails here, before a single table file is touched.
func (c *Config) Catalog() (*Catalog, error) {
	catalog := NewCatalog()

	for _, tc := range c.Tables {
		if tc.Name == "" {
			return nil, NewSchemaError("", "table with empty name")
		}

		fields := make([]Field, 0, len(tc.Fields))
		for _, fc := range tc.Fields {
			field_type := types.FieldType(fc.Type)
			if !field_type.IsValid() {
				return nil, NewSchemaError(tc.Name,
					fmt.Sprintf("%s: invalid field type %q for field %s", tc.Name, fc.Type, fc.Name))
			}
			fields = append(fields, Field{Name: fc.Name, Type: field_type})
		}

		table := NewTable(tc.Name, fields...)
		table.Optional = tc.Optional
		table.Required = tc.Required
		if tc.File != "" {
			table.File = tc.File
		}
		for _, rc := range tc.Relations {
			cardinality := RelationType(rc.Cardinality)
			if rc.Cardinality == "" {
				cardinality = ManyToOne
			}
			table.Relations = append(table.Relations, Relation{
				Name:        rc.Name,
				Field:       rc.Field,
				Target:      rc.Target,
				TargetField: rc.TargetField,
				Type:        cardinality,
			})
		}

		if err := catalog.Register(table); err != nil {
			return nil, err
		}
	}

	if err := catalog.Finish(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// ConfigFromCatalog renders a catalog back into its YAML form, e.g. to dump
// the built-in catalog as a starting point for a customized one.
func ConfigFromCatalog(catalog *Catalog) *Config {
	cfg := &Config{}
	for _, name := range catalog.Tables() {
		table, err := catalog.Resolve(name)
		if err != nil {
			continue
		}

		tc := TableConfig{
			Name:     table.Name,
			Optional: table.Optional,
			Required: append([]string{}, table.Required...),
		}
		if table.File != table.Name {
			tc.File = table.File
		}
		for _, field_name := range table.FieldNames() {
			field, ok := table.Field(field_name)
			if !ok {
				continue
			}
			tc.Fields = append(tc.Fields, FieldConfig{Name: field.Name, Type: string(field.Type)})
		}
		for _, rel := range table.Relations {
			tc.Relations = append(tc.Relations, RelationConfig{
				Name:        rel.Name,
				Field:       rel.Field,
				Target:      rel.Target,
				TargetField: rel.TargetField,
				Cardinality: string(rel.Type),
			})
		}

		cfg.Tables = append(cfg.Tables, tc)
	}
	return cfg
}
