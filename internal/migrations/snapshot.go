package migrations

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"db-describe/internal/model"

	"github.com/BurntSushi/toml"
)

// Snapshot is the persisted table state of the model as of the last generated
// migration. The next migration is the difference to the current model.
type Snapshot struct {
	Tables []TableSnapshot `toml:"table"`
}

type TableSnapshot struct {
	Schema          string               `toml:"schema,omitempty"`
	Name            string               `toml:"name"`
	Description     string               `toml:"description,omitempty"`
	MemoryOptimized bool                 `toml:"memory_optimized,omitempty"`
	PrimaryKey      []string             `toml:"primary_key,omitempty"`
	Columns         []ColumnSnapshot     `toml:"column"`
	ForeignKeys     []ForeignKeySnapshot `toml:"foreign_key,omitempty"`
}

type ColumnSnapshot struct {
	Name        string `toml:"name"`
	StoreType   string `toml:"store_type"`
	Nullable    bool   `toml:"nullable,omitempty"`
	Identity    bool   `toml:"identity,omitempty"`
	Default     string `toml:"default,omitempty"`
	Description string `toml:"description,omitempty"`
}

type ForeignKeySnapshot struct {
	Name            string `toml:"name"`
	Column          string `toml:"column"`
	PrincipalSchema string `toml:"principal_schema,omitempty"`
	PrincipalTable  string `toml:"principal_table"`
	PrincipalColumn string `toml:"principal_column"`
}

// Table returns the table with the given schema and name, or nil.
func (s *Snapshot) Table(schema, name string) *TableSnapshot {
	if s == nil {
		return nil
	}
	for i := range s.Tables {
		if tableKey(s.Tables[i].Schema, s.Tables[i].Name) == tableKey(schema, name) {
			return &s.Tables[i]
		}
	}
	return nil
}

// Column returns the column with the given name, or nil.
func (t *TableSnapshot) Column(name string) *ColumnSnapshot {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

func (t *TableSnapshot) defs() []ColumnDef {
	defs := make([]ColumnDef, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, c.def())
	}
	return defs
}

func (c ColumnSnapshot) def() ColumnDef {
	return ColumnDef{
		Name:        c.Name,
		StoreType:   c.StoreType,
		Nullable:    c.Nullable,
		Identity:    c.Identity,
		Default:     c.Default,
		Description: optional(c.Description),
	}
}

// SnapshotOf captures the table state of m. Entities sharing a table are merged;
// the first entity mapped to a table supplies its table-level settings.
func SnapshotOf(m *model.Model) (*Snapshot, error) {
	s := &Snapshot{}
	if m == nil {
		return s, nil
	}

	for _, e := range m.Entities {
		t := s.Table(e.Schema, e.TableName())
		if t == nil {
			s.Tables = append(s.Tables, TableSnapshot{
				Schema:          e.Schema,
				Name:            e.TableName(),
				Description:     text(e.Description),
				MemoryOptimized: e.MemoryOptimized,
			})
			t = &s.Tables[len(s.Tables)-1]
		}

		for _, p := range e.Properties {
			if p.StoreType == "" {
				return nil, fmt.Errorf("entity %s: property %s has no store type", e.Name, p.Name)
			}
			if t.Column(p.ColumnName()) != nil {
				continue
			}
			t.Columns = append(t.Columns, ColumnSnapshot{
				Name:        p.ColumnName(),
				StoreType:   p.StoreType,
				Nullable:    p.Nullable,
				Identity:    p.Identity,
				Default:     p.Default,
				Description: text(p.Description),
			})
			if p.Key && !containsFold(t.PrimaryKey, p.ColumnName()) {
				t.PrimaryKey = append(t.PrimaryKey, p.ColumnName())
			}
			if p.References == "" {
				continue
			}
			fk, err := foreignKeyOf(m, t, p)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", e.Name, err)
			}
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
	}

	sort.SliceStable(s.Tables, func(i, j int) bool {
		return tableKey(s.Tables[i].Schema, s.Tables[i].Name) < tableKey(s.Tables[j].Schema, s.Tables[j].Name)
	})
	return s, nil
}

func foreignKeyOf(m *model.Model, t *TableSnapshot, p *model.Property) (ForeignKeySnapshot, error) {
	principal := m.Entity(p.References)
	if principal == nil {
		return ForeignKeySnapshot{}, fmt.Errorf("property %s references unknown entity %q", p.Name, p.References)
	}
	keys := principal.Keys()
	if len(keys) != 1 {
		return ForeignKeySnapshot{}, fmt.Errorf("property %s references %s, which has %d key columns", p.Name, principal.Name, len(keys))
	}
	return ForeignKeySnapshot{
		Name:            fmt.Sprintf("FK_%s_%s_%s", t.Name, principal.TableName(), p.ColumnName()),
		Column:          p.ColumnName(),
		PrincipalSchema: principal.Schema,
		PrincipalTable:  principal.TableName(),
		PrincipalColumn: keys[0].ColumnName(),
	}, nil
}

// LoadSnapshot reads a snapshot file. A missing file is an empty snapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	s := &Snapshot{}
	if _, err := toml.DecodeFile(path, s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return s, nil
}

// WriteSnapshot replaces the snapshot file at path.
func WriteSnapshot(path string, s *Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}
	if err := EncodeSnapshot(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeSnapshot writes s as TOML.
func EncodeSnapshot(w io.Writer, s *Snapshot) error {
	if err := toml.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

func tableKey(schema, name string) string {
	return strings.ToUpper(schema) + "." + strings.ToUpper(name)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// text flattens an optional description; blank becomes empty.
func text(d *string) string {
	if !model.HasDescription(d) {
		return ""
	}
	return *d
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
