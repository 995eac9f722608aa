// Package meta derives table, primary-key and column metadata from declared
// entity shapes and caches it for the life of the process.
//
// An entity shape is declared either by a struct type (a TableName method plus
// db tags on its fields) or by a dynamic Declaration registered under a name.
package meta

import (
	"errors"
	"reflect"
	"strings"
)

// Errors describing an unusable entity declaration. They are always wrapped in
// a *MetadataError.
var (
	// ErrNoTable is returned when the shape does not declare a table name.
	ErrNoTable = errors.New("no table name declared")
	// ErrNoPrimaryKey is returned when no field is marked as primary key.
	ErrNoPrimaryKey = errors.New("no primary key field declared")
	// ErrNoColumns is returned when the shape declares no column at all.
	ErrNoColumns = errors.New("no column declared")
	// ErrInvalidShape is returned when the shape is not a struct type.
	ErrInvalidShape = errors.New("entity shape must be a struct")
)

// MetadataError is a fatal configuration error raised the first time an
// invalid entity shape is used. It is not meant to be retried.
type MetadataError struct {
	Shape string
	Err   error
}

func (e *MetadataError) Error() string {
	return "meta: " + e.Shape + ": " + e.Err.Error()
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// Role tells whether a field maps to the primary key or to a plain column.
type Role int

const (
	// RoleColumn marks a plain column.
	RoleColumn Role = iota
	// RolePrimaryKey marks the primary key column.
	RolePrimaryKey
)

func (r Role) String() string {
	if r == RolePrimaryKey {
		return "pk"
	}
	return "column"
}

// FieldMapping maps one declared field to its column.
type FieldMapping struct {
	// Field is the Go field name, or the declared key for dynamic shapes.
	Field string
	// Column is the database column name.
	Column string
	// Role is RolePrimaryKey for the primary key field.
	Role Role
	// Alias is the optional result-column alias used by selects.
	Alias string

	index []int
}

// IsPrimaryKey reports whether the field is the primary key.
func (f FieldMapping) IsPrimaryKey() bool {
	return f.Role == RolePrimaryKey
}

// Declaration is the raw {table, field mappings} pair an entity shape yields.
type Declaration struct {
	Table  string
	Fields []FieldMapping
}

// TableModel is implemented by entity structs that declare their table.
type TableModel interface {
	TableName() string
}

// EntityMetadata is the immutable metadata of one entity shape.
type EntityMetadata struct {
	shape      string
	table      string
	primaryKey int
	fields     []FieldMapping
	typ        reflect.Type
}

// Shape returns the name of the entity shape the metadata was built from.
func (m *EntityMetadata) Shape() string { return m.shape }

// Table returns the unquoted table name.
func (m *EntityMetadata) Table() string { return m.table }

// PrimaryKey returns the unquoted primary key column name.
func (m *EntityMetadata) PrimaryKey() string { return m.fields[m.primaryKey].Column }

// PrimaryKeyField returns the mapping of the primary key field.
func (m *EntityMetadata) PrimaryKeyField() FieldMapping { return m.fields[m.primaryKey] }

// Fields returns the field mappings in declaration order.
func (m *EntityMetadata) Fields() []FieldMapping {
	out := make([]FieldMapping, len(m.fields))
	copy(out, m.fields)
	return out
}

// Columns returns the column names in declaration order.
func (m *EntityMetadata) Columns() []string {
	cols := make([]string, len(m.fields))
	for i, f := range m.fields {
		cols[i] = f.Column
	}
	return cols
}

// Type returns the struct type of the shape, or nil for dynamic declarations.
func (m *EntityMetadata) Type() reflect.Type { return m.typ }

// Build validates a declaration and turns it into metadata. When several
// fields are marked as primary key only the first one is kept as such; the
// others are treated as plain columns.
func Build(shape string, decl Declaration) (*EntityMetadata, error) {
	if strings.TrimSpace(decl.Table) == "" {
		return nil, &MetadataError{Shape: shape, Err: ErrNoTable}
	}
	if len(decl.Fields) == 0 {
		return nil, &MetadataError{Shape: shape, Err: ErrNoColumns}
	}

	md := &EntityMetadata{
		shape:      shape,
		table:      decl.Table,
		primaryKey: -1,
		fields:     make([]FieldMapping, len(decl.Fields)),
	}
	for i, f := range decl.Fields {
		if f.Column == "" {
			return nil, &MetadataError{Shape: shape, Err: errors.New("field " + f.Field + " has an empty column name")}
		}
		if f.Role == RolePrimaryKey {
			if md.primaryKey >= 0 {
				f.Role = RoleColumn
			} else {
				md.primaryKey = i
			}
		}
		md.fields[i] = f
	}
	if md.primaryKey < 0 {
		return nil, &MetadataError{Shape: shape, Err: ErrNoPrimaryKey}
	}
	return md, nil
}
