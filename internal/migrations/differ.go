package migrations

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Diff returns the operations that take a database from old to current.
// Foreign keys that go away are dropped first, so no constraint blocks a later
// column or table drop. Created tables follow in dependency order, then changes
// to kept tables and finally dropped tables in reverse dependency order. log may
// be nil.
func Diff(old, current *Snapshot, log logrus.FieldLogger) []Operation {
	if log == nil {
		log = quietLogger()
	}
	if old == nil {
		old = &Snapshot{}
	}
	if current == nil {
		current = &Snapshot{}
	}

	var ops []Operation
	var created, kept, dropped []TableSnapshot
	for _, t := range current.Tables {
		if old.Table(t.Schema, t.Name) == nil {
			created = append(created, t)
		} else {
			kept = append(kept, t)
		}
	}
	for _, t := range old.Tables {
		if current.Table(t.Schema, t.Name) == nil {
			dropped = append(dropped, t)
		}
	}

	for _, t := range kept {
		prev := old.Table(t.Schema, t.Name)
		for _, fk := range prev.ForeignKeys {
			if !containsForeignKey(t.ForeignKeys, fk) {
				ops = append(ops, &DropForeignKey{Schema: t.Schema, Table: t.Name, Name: fk.Name})
			}
		}
	}
	ordered := orderTables(dropped, log)
	ops = append(ops, blockingForeignKeys(ordered)...)

	exists := make(map[string]bool, len(kept)+len(created))
	for _, t := range kept {
		exists[tableKey(t.Schema, t.Name)] = true
	}
	var deferred []Operation
	for _, t := range orderTables(created, log) {
		create := &CreateTable{
			Schema:          t.Schema,
			Name:            t.Name,
			Columns:         t.defs(),
			PrimaryKey:      t.PrimaryKey,
			Description:     optional(t.Description),
			MemoryOptimized: boolPtr(t.MemoryOptimized),
		}
		self := tableKey(t.Schema, t.Name)
		for _, fk := range t.ForeignKeys {
			principal := tableKey(fk.PrincipalSchema, fk.PrincipalTable)
			if principal == self || exists[principal] {
				create.ForeignKeys = append(create.ForeignKeys, fk.def())
				continue
			}
			deferred = append(deferred, &AddForeignKey{Schema: t.Schema, Table: t.Name, ForeignKey: fk.def()})
		}
		exists[self] = true
		ops = append(ops, create)
	}
	ops = append(ops, deferred...)

	for _, t := range kept {
		ops = append(ops, diffTable(old.Table(t.Schema, t.Name), &t)...)
	}

	for i := len(ordered) - 1; i >= 0; i-- {
		ops = append(ops, &DropTable{Schema: ordered[i].Schema, Name: ordered[i].Name})
	}
	return ops
}

func diffTable(old, current *TableSnapshot) []Operation {
	var ops []Operation

	if !SameDescription(optional(old.Description), optional(current.Description)) {
		ops = append(ops, &AlterTable{
			Schema: current.Schema,
			Name:   current.Name,
			TableState: TableState{
				Description:     optional(current.Description),
				MemoryOptimized: boolPtr(current.MemoryOptimized),
			},
			OldTable: TableState{
				Description:     optional(old.Description),
				MemoryOptimized: boolPtr(old.MemoryOptimized),
			},
		})
	}

	for _, c := range current.Columns {
		prev := old.Column(c.Name)
		if prev == nil {
			ops = append(ops, &AddColumn{Schema: current.Schema, Table: current.Name, Column: c.def()})
			continue
		}
		alter := &AlterColumn{
			Schema:    current.Schema,
			Table:     current.Name,
			Column:    c.def(),
			OldColumn: prev.def(),
		}
		if alter.StructureChanged() || !SameDescription(alter.OldColumn.Description, alter.Column.Description) {
			ops = append(ops, alter)
		}
	}

	for _, fk := range current.ForeignKeys {
		if !containsForeignKey(old.ForeignKeys, fk) {
			ops = append(ops, &AddForeignKey{Schema: current.Schema, Table: current.Name, ForeignKey: fk.def()})
		}
	}

	for _, c := range old.Columns {
		if current.Column(c.Name) == nil {
			ops = append(ops, &DropColumn{Schema: current.Schema, Table: current.Name, Name: c.Name, Default: c.Default})
		}
	}
	return ops
}

func (fk ForeignKeySnapshot) def() ForeignKey {
	return ForeignKey{
		Name:            fk.Name,
		Column:          fk.Column,
		PrincipalSchema: fk.PrincipalSchema,
		PrincipalTable:  fk.PrincipalTable,
		PrincipalColumn: fk.PrincipalColumn,
	}
}

// blockingForeignKeys drops the constraints between dropped tables that the
// reverse dependency order cannot satisfy. ordered is the creation order, so a
// table is dropped after every table that follows it; a constraint pointing at
// a later table would still exist when that table is dropped. Only cycles
// produce such constraints.
func blockingForeignKeys(ordered []TableSnapshot) []Operation {
	pos := make(map[string]int, len(ordered))
	for i, t := range ordered {
		pos[tableKey(t.Schema, t.Name)] = i
	}
	var ops []Operation
	for i, t := range ordered {
		for _, fk := range t.ForeignKeys {
			if j, ok := pos[tableKey(fk.PrincipalSchema, fk.PrincipalTable)]; ok && j > i {
				ops = append(ops, &DropForeignKey{Schema: t.Schema, Table: t.Name, Name: fk.Name})
			}
		}
	}
	return ops
}

// containsForeignKey reports whether list holds fk under the same name with the
// same column and principal. A constraint that changed is dropped and re-added.
func containsForeignKey(list []ForeignKeySnapshot, fk ForeignKeySnapshot) bool {
	for _, other := range list {
		if strings.EqualFold(other.Name, fk.Name) &&
			strings.EqualFold(other.Column, fk.Column) &&
			tableKey(other.PrincipalSchema, other.PrincipalTable) == tableKey(fk.PrincipalSchema, fk.PrincipalTable) &&
			strings.EqualFold(other.PrincipalColumn, fk.PrincipalColumn) {
			return true
		}
	}
	return false
}
