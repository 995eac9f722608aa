package meta

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
)

// ErrIntrospection is returned when field values cannot be read from a source.
var ErrIntrospection = errors.New("cannot read field values")

// FieldValue is a field mapping paired with the value read from a source.
type FieldValue struct {
	FieldMapping
	Value any
}

// IsNull reports whether the value binds as SQL NULL.
func (v FieldValue) IsNull() bool {
	return v.Value == nil
}

// Values reads the value of every field of m from src, in declaration order.
//
// src is either a struct (or pointer to struct) of the metadata's type, or a
// map[string]any keyed by column name where a missing key reads as NULL.
// Nil pointers, nil interfaces, nil maps and slices, and driver.Valuer values
// yielding nil read as NULL; non-nil pointers are dereferenced.
func (m *EntityMetadata) Values(src any) ([]FieldValue, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: source is nil", ErrIntrospection)
	}

	if row, ok := src.(map[string]any); ok {
		return m.mapValues(row)
	}

	v := reflect.ValueOf(src)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: source is a nil pointer", ErrIntrospection)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: expected struct or map, got %s", ErrIntrospection, v.Kind())
	}
	if m.typ == nil || v.Type() != m.typ {
		return nil, fmt.Errorf("%w: %s is not the entity type of %s", ErrIntrospection, v.Type(), m.shape)
	}

	out := make([]FieldValue, len(m.fields))
	for i, f := range m.fields {
		val, err := normalize(v.FieldByIndex(f.index).Interface())
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %w", ErrIntrospection, f.Field, err)
		}
		out[i] = FieldValue{FieldMapping: f, Value: val}
	}
	return out, nil
}

func (m *EntityMetadata) mapValues(row map[string]any) ([]FieldValue, error) {
	out := make([]FieldValue, len(m.fields))
	for i, f := range m.fields {
		val, err := normalize(row[f.Column])
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %w", ErrIntrospection, f.Column, err)
		}
		out[i] = FieldValue{FieldMapping: f, Value: val}
	}
	return out, nil
}

// normalize turns a raw field value into a bindable value, nil meaning NULL.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
	}

	if valuer, ok := v.(driver.Valuer); ok {
		return valuer.Value()
	}
	if rv.Kind() == reflect.Ptr {
		return normalize(rv.Elem().Interface())
	}
	return v, nil
}
