package meta

import (
	"errors"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry caches entity metadata keyed by shape identity: the struct type for
// tagged structs, the declared name for dynamic declarations. Entries are
// never removed. The outcome of the first construction, success or
// MetadataError, is what every later caller observes.
type Registry struct {
	entries sync.Map // reflect.Type | string -> *entry
	flight  singleflight.Group
}

type entry struct {
	md  *EntityMetadata
	err error
}

var defaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Of returns the metadata of the shape of entity, which may be a struct value,
// a pointer to a struct, or a reflect.Type. Concurrent first use of the same
// shape builds its metadata once.
func (r *Registry) Of(entity any) (*EntityMetadata, error) {
	if entity == nil {
		return nil, &MetadataError{Shape: "<nil>", Err: ErrInvalidShape}
	}
	t, ok := entity.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(entity)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if e, ok := r.entries.Load(t); ok {
		return e.(*entry).result()
	}

	_, _, _ = r.flight.Do(shapeName(t), func() (any, error) {
		actual, _ := r.entries.LoadOrStore(t, buildEntry(t))
		return actual, nil
	})

	e, ok := r.entries.Load(t)
	if !ok {
		// Two distinct types shared a flight key.
		e, _ = r.entries.LoadOrStore(t, buildEntry(t))
	}
	return e.(*entry).result()
}

// Declare registers a dynamic declaration under name. Declaring a name twice
// keeps the first declaration.
func (r *Registry) Declare(name string, decl Declaration) (*EntityMetadata, error) {
	if e, ok := r.entries.Load(name); ok {
		return e.(*entry).result()
	}
	md, err := Build(name, decl)
	actual, _ := r.entries.LoadOrStore(name, &entry{md: md, err: err})
	return actual.(*entry).result()
}

func buildEntry(t reflect.Type) *entry {
	shape := shapeName(t)
	decl, err := Describe(t)
	if err != nil {
		return &entry{err: &MetadataError{Shape: shape, Err: err}}
	}
	md, err := Build(shape, decl)
	if err != nil {
		return &entry{err: err}
	}
	md.typ = t
	return &entry{md: md}
}

func (e *entry) result() (*EntityMetadata, error) {
	return e.md, e.err
}

// IsMetadataError reports whether err is a *MetadataError.
func IsMetadataError(err error) bool {
	var me *MetadataError
	return errors.As(err, &me)
}
