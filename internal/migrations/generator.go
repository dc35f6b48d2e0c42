// Package migrations turns structural schema changes into SQL Server commands and
// keeps MS_Description extended properties in step with the model's descriptions.
package migrations

import (
	"fmt"
	"io"

	"db-describe/internal/model"

	"github.com/sirupsen/logrus"
)

// SQLHelper supplies dialect-specific SQL fragments.
type SQLHelper interface {
	StatementTerminator() string
	// Literal renders s as a string literal, escaping as needed.
	Literal(s string) string
}

// StructuralGenerator writes the structural statement(s) of an operation, each
// terminated, without ending the command.
type StructuralGenerator interface {
	Generate(op Operation, b *CommandBuilder) error
}

// Generator emits one command per operation: the structural statement followed by
// the description statements that reconcile MS_Description with the new state.
type Generator struct {
	structural StructuralGenerator
	sql        SQLHelper
	log        logrus.FieldLogger
}

// NewGenerator returns a Generator. log may be nil.
func NewGenerator(structural StructuralGenerator, sql SQLHelper, log logrus.FieldLogger) *Generator {
	if log == nil {
		log = quietLogger()
	}
	return &Generator{structural: structural, sql: sql, log: log}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Generate processes ops in order. m is used for memory-optimized lookups and may
// be nil. Any structural failure aborts the whole pass.
func (g *Generator) Generate(ops []Operation, m *model.Model) ([]Command, error) {
	b := &CommandBuilder{}
	for i, op := range ops {
		if err := g.structural.Generate(op, b); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i+1, op.Kind(), err)
		}
		w := &descriptionWriter{b: b, sql: g.sql}
		suppress := g.describe(op, m, w)
		if w.statements > 0 {
			g.log.WithField("operation", op.Kind()).Debugf("%d description statement(s)", w.statements)
		}
		b.EndCommand(suppress)
	}
	return b.Commands(), nil
}

// describe appends the description statements for op and reports whether the
// command has to run outside the ambient transaction.
func (g *Generator) describe(op Operation, m *model.Model, w *descriptionWriter) bool {
	switch op := op.(type) {
	case *CreateTable:
		if model.HasDescription(op.Description) {
			w.add(*op.Description, op.Schema, op.Name, "")
		}
		for _, c := range op.Columns {
			if model.HasDescription(c.Description) {
				w.add(*c.Description, op.Schema, op.Name, c.Name)
			}
		}
		return op.MemoryOptimized != nil && *op.MemoryOptimized

	case *AlterTable:
		w.reconcile(op.OldTable.Description, op.Description, op.Schema, op.Name, "")
		return isMemoryOptimized(op.MemoryOptimized, m, op.Schema, op.Name)

	case *AddColumn:
		if model.HasDescription(op.Column.Description) {
			w.add(*op.Column.Description, op.Schema, op.Table, op.Column.Name)
		}
		return isMemoryOptimized(op.MemoryOptimized, m, op.Schema, op.Table)

	case *AlterColumn:
		w.reconcile(op.OldColumn.Description, op.Column.Description, op.Schema, op.Table, op.Column.Name)
		return isMemoryOptimized(op.MemoryOptimized, m, op.Schema, op.Table)

	case *AddForeignKey, *DropForeignKey, *DropColumn, *DropTable:
		return false

	default:
		panic(fmt.Sprintf("migrations: unhandled operation %T", op))
	}
}

// isMemoryOptimized prefers the operation's own annotation and falls back to the
// entities mapped to the table.
func isMemoryOptimized(annotation *bool, m *model.Model, schema, table string) bool {
	if annotation != nil {
		return *annotation
	}
	for _, e := range m.FindEntities(schema, table) {
		if e.MemoryOptimized {
			return true
		}
	}
	return false
}

// SameDescription compares two optional descriptions; blank counts as absent.
func SameDescription(a, b *string) bool {
	hasA, hasB := model.HasDescription(a), model.HasDescription(b)
	if !hasA || !hasB {
		return hasA == hasB
	}
	return *a == *b
}
