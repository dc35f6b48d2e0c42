package description

import "db-describe/internal/model"

// Provider supplies the declared descriptive labels of a model's types, fields and
// enums. Implementations are filled by explicit registration or from a model file;
// nothing is discovered at run time.
type Provider interface {
	// TypeLabel returns the label declared on a type (entity or value type).
	TypeLabel(typeName string) (string, bool)

	// FieldLabel returns the label declared on a field of an entity type.
	FieldLabel(entityType, field string) (string, bool)

	// Enum reports whether typeName is an enum and returns its members.
	Enum(typeName string) (model.EnumType, bool)
}

type fieldKey struct {
	entityType string
	field      string
}

// Registry is an in-memory Provider populated by explicit registration.
type Registry struct {
	types  map[string]string
	fields map[fieldKey]string
	enums  map[string]model.EnumType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:  make(map[string]string),
		fields: make(map[fieldKey]string),
		enums:  make(map[string]model.EnumType),
	}
}

// DescribeType declares a label on a type.
func (r *Registry) DescribeType(typeName, label string) *Registry {
	r.types[typeName] = label
	return r
}

// DescribeField declares a label on a field of an entity type.
func (r *Registry) DescribeField(entityType, field, label string) *Registry {
	r.fields[fieldKey{entityType, field}] = label
	return r
}

// RegisterEnum declares an enum type. A later registration replaces an earlier one.
func (r *Registry) RegisterEnum(e model.EnumType) *Registry {
	r.enums[e.Name] = e
	return r
}

func (r *Registry) TypeLabel(typeName string) (string, bool) {
	label, ok := r.types[typeName]
	return label, ok
}

func (r *Registry) FieldLabel(entityType, field string) (string, bool) {
	label, ok := r.fields[fieldKey{entityType, field}]
	return label, ok
}

func (r *Registry) Enum(typeName string) (model.EnumType, bool) {
	e, ok := r.enums[typeName]
	return e, ok
}

var _ Provider = (*Registry)(nil)
