// Package fields validates and normalizes raw submitted answers per field
// type, and describes fields as JSON-Schema-shaped descriptors for clients.
package fields

import (
	"sort"

	"github.com/rendis/intake/pkg/schema"
)

// Type is one field type implementation. Implementations are pure and
// stateless: Validate turns a raw submitted value into its normalized form
// or a field-scoped error, Describe emits the client-facing schema fragment.
type Type interface {
	Name() string
	Validate(raw any, spec *schema.FieldDefinition) (any, error)
	Describe(spec *schema.FieldDefinition) map[string]any
}

// Registry maps type names to implementations. It is populated once at
// startup and immutable afterwards, so lookups need no locking.
type Registry struct {
	types map[string]Type
}

// NewRegistry creates a Registry with the given types. Duplicate names are
// a conflict error.
func NewRegistry(types ...Type) (*Registry, error) {
	r := &Registry{types: make(map[string]Type, len(types))}
	for _, t := range types {
		if t == nil || t.Name() == "" {
			return nil, schema.NewError(schema.ErrCodeDefinition, "field type is nil or unnamed")
		}
		if _, exists := r.types[t.Name()]; exists {
			return nil, schema.NewErrorf(schema.ErrCodeConflict, "field type %q already registered", t.Name())
		}
		r.types[t.Name()] = t
	}
	return r, nil
}

// Builtin returns a Registry with the built-in field types.
func Builtin() *Registry {
	r, err := NewRegistry(&textType{}, &numberType{}, &dateType{}, &selectType{})
	if err != nil {
		panic(err) // built-in names are fixed
	}
	return r
}

// Has reports whether a type name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]
	return ok
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate normalizes a raw submitted value through the field's type.
// Failures are FIELD_ERRORs carrying the field path.
func (r *Registry) Validate(raw any, spec *schema.FieldDefinition) (any, error) {
	t, ok := r.types[spec.Type]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeDefinition, "unknown field type %q", spec.Type).
			WithField(spec.Path)
	}

	if raw == nil {
		if spec.Optional {
			return nil, nil
		}
		return nil, fieldErr(spec, "a value is required")
	}

	return t.Validate(raw, spec)
}

// Describe returns the JSON-Schema fragment for a field.
func (r *Registry) Describe(spec *schema.FieldDefinition) (map[string]any, error) {
	t, ok := r.types[spec.Type]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeDefinition, "unknown field type %q", spec.Type).
			WithField(spec.Path)
	}
	desc := t.Describe(spec)
	if spec.Label != "" {
		desc["title"] = spec.Label
	}
	return desc, nil
}

func fieldErr(spec *schema.FieldDefinition, format string, args ...any) *schema.InterviewError {
	return schema.NewErrorf(schema.ErrCodeField, format, args...).WithField(spec.Path)
}
