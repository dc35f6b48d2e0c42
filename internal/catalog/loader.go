// Package catalog reads the model file: the entities to migrate and the labels
// declared on their types, fields and enums.
package catalog

import (
	"fmt"
	"io"
	"strings"

	"db-describe/internal/description"
	"db-describe/internal/model"

	"github.com/spf13/viper"
)

// File mirrors the model file layout.
type File struct {
	Entities []EntitySpec `mapstructure:"entities"`
	Types    []TypeSpec   `mapstructure:"types"`
	Enums    []EnumSpec   `mapstructure:"enums"`
}

type EntitySpec struct {
	Name            string         `mapstructure:"name"`
	Type            string         `mapstructure:"type"`
	Table           string         `mapstructure:"table"`
	Schema          string         `mapstructure:"schema"`
	Label           string         `mapstructure:"label"`
	Description     string         `mapstructure:"description"`
	MemoryOptimized bool           `mapstructure:"memory_optimized"`
	Properties      []PropertySpec `mapstructure:"properties"`
}

type PropertySpec struct {
	Name        string `mapstructure:"name"`
	Column      string `mapstructure:"column"`
	Type        string `mapstructure:"type"` // trailing '?' marks a nullable wrapper, e.g. "PostType?"
	StoreType   string `mapstructure:"store_type"`
	Nullable    bool   `mapstructure:"nullable"`
	Key         bool   `mapstructure:"key"`
	Identity    bool   `mapstructure:"identity"`
	References  string `mapstructure:"references"`
	Label       string `mapstructure:"label"`
	Description string `mapstructure:"description"`
	Shadow      bool   `mapstructure:"shadow"`
	Default     string `mapstructure:"default"`
}

type TypeSpec struct {
	Name  string `mapstructure:"name"`
	Label string `mapstructure:"label"`
}

type EnumSpec struct {
	Name    string       `mapstructure:"name"`
	Flags   bool         `mapstructure:"flags"`
	Label   string       `mapstructure:"label"`
	Members []MemberSpec `mapstructure:"members"`
}

type MemberSpec struct {
	Name    string `mapstructure:"name"`
	Value   int64  `mapstructure:"value"`
	Label   string `mapstructure:"label"`
	Special bool   `mapstructure:"special"`
}

// Load reads the model file at path. The format follows the file extension.
func Load(path string) (*model.Model, *description.Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}
	return decode(v)
}

// Parse reads a model file from r. format is a viper config type such as "yaml".
func Parse(r io.Reader, format string) (*model.Model, *description.Registry, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*model.Model, *description.Registry, error) {
	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, nil, fmt.Errorf("failed to decode model file: %w", err)
	}
	return f.Build()
}

// Build validates f and converts it into a model and the registry of its labels.
func (f *File) Build() (*model.Model, *description.Registry, error) {
	reg := description.NewRegistry()

	for _, t := range f.Types {
		if t.Name == "" {
			return nil, nil, fmt.Errorf("type without a name")
		}
		reg.DescribeType(t.Name, t.Label)
	}

	seenEnums := make(map[string]bool, len(f.Enums))
	for _, e := range f.Enums {
		if e.Name == "" {
			return nil, nil, fmt.Errorf("enum without a name")
		}
		if seenEnums[e.Name] {
			return nil, nil, fmt.Errorf("enum %s declared twice", e.Name)
		}
		seenEnums[e.Name] = true

		enum := model.EnumType{Name: e.Name, Flags: e.Flags}
		for _, m := range e.Members {
			enum.Members = append(enum.Members, model.EnumMember(m))
		}
		reg.RegisterEnum(enum)
		if e.Label != "" {
			reg.DescribeType(e.Name, e.Label)
		}
	}

	m := model.New()
	for _, es := range f.Entities {
		e, err := es.build(reg)
		if err != nil {
			return nil, nil, err
		}
		if m.Entity(e.Name) != nil {
			return nil, nil, fmt.Errorf("entity %s declared twice", e.Name)
		}
		m.Add(e)
	}

	for _, e := range m.Entities {
		for _, p := range e.Properties {
			if p.References != "" && m.Entity(p.References) == nil {
				return nil, nil, fmt.Errorf("entity %s: property %s references unknown entity %q", e.Name, p.Name, p.References)
			}
		}
	}
	return m, reg, nil
}

func (es EntitySpec) build(reg *description.Registry) (*model.Entity, error) {
	if es.Name == "" {
		return nil, fmt.Errorf("entity without a name")
	}
	if es.Label != "" {
		if es.Type == "" {
			return nil, fmt.Errorf("entity %s: a label needs a backing type", es.Name)
		}
		reg.DescribeType(es.Type, es.Label)
	}

	e := &model.Entity{
		Name:            es.Name,
		Type:            es.Type,
		Table:           es.Table,
		Schema:          es.Schema,
		Description:     optional(es.Description),
		MemoryOptimized: es.MemoryOptimized,
	}
	if e.Table == "" {
		e.Table = es.Name
	}

	seen := make(map[string]bool, len(es.Properties))
	for _, ps := range es.Properties {
		if ps.Name == "" {
			return nil, fmt.Errorf("entity %s: property without a name", es.Name)
		}
		if seen[ps.Name] {
			return nil, fmt.Errorf("entity %s: property %s declared twice", es.Name, ps.Name)
		}
		seen[ps.Name] = true

		p := &model.Property{
			Name:        ps.Name,
			Column:      ps.Column,
			Type:        typeRef(ps.Type),
			StoreType:   ps.StoreType,
			Nullable:    ps.Nullable,
			Key:         ps.Key,
			Identity:    ps.Identity,
			References:  ps.References,
			Default:     ps.Default,
			Description: optional(ps.Description),
		}
		if p.Column == "" {
			p.Column = ps.Name
		}
		if !ps.Shadow {
			p.Field = ps.Name
		}
		if ps.Label != "" {
			if es.Type == "" || ps.Shadow {
				return nil, fmt.Errorf("entity %s: property %s: a label needs a backing field", es.Name, ps.Name)
			}
			reg.DescribeField(es.Type, p.Field, ps.Label)
		}
		e.Properties = append(e.Properties, p)
	}
	return e, nil
}

func typeRef(s string) model.TypeRef {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "?") {
		return model.TypeRef{Name: strings.TrimSuffix(s, "?"), Nullable: true}
	}
	return model.TypeRef{Name: s}
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
