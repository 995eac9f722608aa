package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coregx/sqlassist/internal/assist"
	"github.com/coregx/sqlassist/internal/meta"
)

// Schema is the YAML declaration of an entity shape.
//
//	name: user
//	table: user
//	fields:
//	  - column: id
//	    pk: true
//	  - column: name
//	  - column: pwd
//	    alias: password
type Schema struct {
	Name   string        `yaml:"name"`
	Table  string        `yaml:"table"`
	Fields []SchemaField `yaml:"fields"`
}

// SchemaField declares one column.
type SchemaField struct {
	// Field defaults to Column.
	Field  string `yaml:"field"`
	Column string `yaml:"column"`
	PK     bool   `yaml:"pk"`
	Alias  string `yaml:"alias"`
}

// LoadSchema reads a schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	s := &Schema{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = s.Table
	}
	return s, nil
}

// Declaration converts the schema into an entity declaration.
func (s *Schema) Declaration() meta.Declaration {
	decl := meta.Declaration{Table: s.Table, Fields: make([]meta.FieldMapping, len(s.Fields))}
	for i, f := range s.Fields {
		name := f.Field
		if name == "" {
			name = f.Column
		}
		role := meta.RoleColumn
		if f.PK {
			role = meta.RolePrimaryKey
		}
		decl.Fields[i] = meta.FieldMapping{Field: name, Column: f.Column, Role: role, Alias: f.Alias}
	}
	return decl
}

// Metadata declares the schema in r.
func (s *Schema) Metadata(r *meta.Registry) (*meta.EntityMetadata, error) {
	return r.Declare(s.Name, s.Declaration())
}

// parseWhere turns "col=value" terms into an and-chained condition set.
func parseWhere(terms []string) (*assist.ConditionSet, error) {
	set := assist.New()
	for _, term := range terms {
		col, value, ok := strings.Cut(term, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("where term %q: expected column=value", term)
		}
		set.AndEq(col, parseScalar(value))
	}
	return set, nil
}

// parseScalar reads an integer when possible, a string otherwise.
func parseScalar(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}

var errNoSchema = errors.New("--schema is required")
