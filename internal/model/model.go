package model

import "strings"

// Model is the entity graph a migration is generated from.
type Model struct {
	Entities []*Entity

	byName map[string]*Entity
}

// Entity is one table-backing type.
type Entity struct {
	Name            string
	Type            string // backing type key; empty when the entity has no backing type
	Table           string
	Schema          string // empty means the engine's current schema
	Description     *string
	MemoryOptimized bool
	Properties      []*Property
}

// TypeRef is the declared value type of a property.
// Nullable marks a nullable wrapper around Name (e.g. an optional enum).
type TypeRef struct {
	Name     string
	Nullable bool
}

// Property is one column-backing field.
type Property struct {
	Name        string
	Field       string // backing field key; empty for shadow properties
	Column      string
	Type        TypeRef
	StoreType   string
	Nullable    bool
	Identity    bool
	Key         bool
	Default     string
	References  string // principal entity name when the column is a foreign key
	Description *string

	entity *Entity
}

// EnumType describes an enum value type. Members keep declaration order.
type EnumType struct {
	Name    string
	Flags   bool
	Members []EnumMember
}

// EnumMember is one named constant of an enum.
type EnumMember struct {
	Name    string
	Value   int64
	Label   string
	Special bool
}

// New builds a model from entities and wires property back-references.
func New(entities ...*Entity) *Model {
	m := &Model{byName: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		m.Add(e)
	}
	return m
}

// Add appends an entity to the model.
func (m *Model) Add(e *Entity) {
	if m.byName == nil {
		m.byName = make(map[string]*Entity)
	}
	for _, p := range e.Properties {
		p.entity = e
	}
	m.Entities = append(m.Entities, e)
	m.byName[e.Name] = e
}

// Entity returns the entity with the given name, or nil.
func (m *Model) Entity(name string) *Entity {
	if m == nil {
		return nil
	}
	return m.byName[name]
}

// FindEntities returns all entities mapped to the given schema and table.
// Table names compare case-insensitively, like SQL Server's default collation.
func (m *Model) FindEntities(schema, table string) []*Entity {
	if m == nil {
		return nil
	}
	var out []*Entity
	for _, e := range m.Entities {
		if strings.EqualFold(e.Schema, schema) && strings.EqualFold(e.TableName(), table) {
			out = append(out, e)
		}
	}
	return out
}

// TableName returns the mapped table, defaulting to the entity name.
func (e *Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return e.Name
}

// Property returns the property with the given name, or nil.
func (e *Entity) Property(name string) *Property {
	for _, p := range e.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Keys returns the key properties in declaration order.
func (e *Entity) Keys() []*Property {
	var keys []*Property
	for _, p := range e.Properties {
		if p.Key {
			keys = append(keys, p)
		}
	}
	return keys
}

// Entity returns the owning entity.
func (p *Property) Entity() *Entity {
	return p.entity
}

// ColumnName returns the mapped column, defaulting to the property name.
func (p *Property) ColumnName() string {
	if p.Column != "" {
		return p.Column
	}
	return p.Name
}

// HasDescription reports whether a non-blank description is set.
func HasDescription(d *string) bool {
	return d != nil && strings.TrimSpace(*d) != ""
}

// Describe returns a pointer to s, for literal descriptions.
func Describe(s string) *string {
	return &s
}
