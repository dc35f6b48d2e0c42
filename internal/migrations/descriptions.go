package migrations

import "db-describe/internal/model"

const (
	schemaVariable = "@defaultSchema"
	propertyName   = "'MS_Description'"
)

// descriptionWriter writes sp_addextendedproperty / sp_dropextendedproperty calls
// for a single operation. The default-schema variable is declared by the first
// statement that needs it and reused afterwards; T-SQL rejects a second DECLARE of
// the same variable in one batch.
type descriptionWriter struct {
	b          *CommandBuilder
	sql        SQLHelper
	declared   bool
	statements int
}

// reconcile drops the old description and adds the new one, unless they match.
func (w *descriptionWriter) reconcile(old, current *string, schema, table, column string) {
	if SameDescription(old, current) {
		return
	}
	if model.HasDescription(old) {
		w.drop(schema, table, column)
	}
	if model.HasDescription(current) {
		w.add(*current, schema, table, column)
	}
}

func (w *descriptionWriter) add(description, schema, table, column string) {
	schemaRef := w.schema(schema)
	w.b.Append("EXEC sp_addextendedproperty ").
		Append(propertyName).
		Append(", ").
		Append(w.sql.Literal(description)).
		Append(", 'SCHEMA', ").
		Append(schemaRef)
	w.target(table, column)
}

func (w *descriptionWriter) drop(schema, table, column string) {
	schemaRef := w.schema(schema)
	w.b.Append("EXEC sp_dropextendedproperty ").
		Append(propertyName).
		Append(", 'SCHEMA', ").
		Append(schemaRef)
	w.target(table, column)
}

func (w *descriptionWriter) target(table, column string) {
	w.b.Append(", 'TABLE', ").Append(w.sql.Literal(table))
	if column != "" {
		w.b.Append(", 'COLUMN', ").Append(w.sql.Literal(column))
	}
	w.b.AppendLine(w.sql.StatementTerminator())
	w.statements++
}

// schema returns the schema argument, declaring the default-schema variable on
// first use when no schema is given.
func (w *descriptionWriter) schema(schema string) string {
	if schema != "" {
		return w.sql.Literal(schema)
	}
	if !w.declared {
		w.b.Append("DECLARE ").Append(schemaVariable).Append(" AS sysname").AppendLine(w.sql.StatementTerminator())
		w.b.Append("SET ").Append(schemaVariable).Append(" = SCHEMA_NAME()").AppendLine(w.sql.StatementTerminator())
		w.declared = true
	}
	return schemaVariable
}
