package dialect

import (
	"fmt"
	"strings"

	"db-describe/internal/migrations"
)

type MSSQLDialect struct{}

func (d *MSSQLDialect) StatementTerminator() string {
	return ";"
}

// Literal renders a Unicode string literal.
func (d *MSSQLDialect) Literal(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (d *MSSQLDialect) DelimitIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) GetSchemaName(input string) string {
	if input == "" {
		return "dbo"
	}
	return input
}

func (d *MSSQLDialect) GetTablesQuery() string {
	return fmt.Sprintf(`
		SELECT
			t.name,
			t.is_memory_optimized,
			CAST(ep.value AS NVARCHAR(MAX)) AS description
		FROM sys.tables t
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		LEFT JOIN sys.extended_properties ep
			ON ep.class = 1
			AND ep.major_id = t.object_id
			AND ep.minor_id = 0
			AND ep.name = 'MS_Description'
		WHERE s.name = %s
		ORDER BY t.name
	`, d.Placeholder(0))
}

func (d *MSSQLDialect) GetColumnsQuery() string {
	// minor_id is the column_id, which drifts from ORDINAL_POSITION once columns are dropped.
	return fmt.Sprintf(`
		SELECT
			t.name AS table_name,
			c.name AS column_name,
			TYPE_NAME(c.user_type_id) AS data_type,
			c.is_nullable,
			c.is_identity,
			CAST(ep.value AS NVARCHAR(MAX)) AS description
		FROM sys.columns c
		JOIN sys.tables t ON c.object_id = t.object_id
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		LEFT JOIN sys.extended_properties ep
			ON ep.class = 1
			AND ep.major_id = c.object_id
			AND ep.minor_id = c.column_id
			AND ep.name = 'MS_Description'
		WHERE s.name = %s
		ORDER BY t.name, c.column_id
	`, d.Placeholder(0))
}

// Generate writes the structural statement of op. AlterTable carries no
// structural change of its own.
func (d *MSSQLDialect) Generate(op migrations.Operation, b *migrations.CommandBuilder) error {
	switch op := op.(type) {
	case *migrations.CreateTable:
		return d.createTable(op, b)

	case *migrations.AlterTable:
		return nil

	case *migrations.AddColumn:
		def, err := d.columnDefinition(op.Table, op.Column)
		if err != nil {
			return err
		}
		b.Append("ALTER TABLE ").Append(d.table(op.Schema, op.Table)).
			Append(" ADD ").Append(def).AppendLine(d.StatementTerminator())
		return nil

	case *migrations.AlterColumn:
		return d.alterColumn(op, b)

	case *migrations.AddForeignKey:
		b.Append("ALTER TABLE ").Append(d.table(op.Schema, op.Table)).
			Append(" ADD ").Append(d.foreignKey(op.ForeignKey)).AppendLine(d.StatementTerminator())
		return nil

	case *migrations.DropForeignKey:
		d.dropConstraint(d.table(op.Schema, op.Table), op.Name, b)
		return nil

	case *migrations.DropColumn:
		if op.Default != "" {
			d.dropConstraint(d.table(op.Schema, op.Table), defaultConstraint(op.Table, op.Name), b)
		}
		b.Append("ALTER TABLE ").Append(d.table(op.Schema, op.Table)).
			Append(" DROP COLUMN ").Append(d.DelimitIdentifier(op.Name)).AppendLine(d.StatementTerminator())
		return nil

	case *migrations.DropTable:
		b.Append("DROP TABLE ").Append(d.table(op.Schema, op.Name)).AppendLine(d.StatementTerminator())
		return nil

	default:
		return fmt.Errorf("unsupported operation %T", op)
	}
}

func (d *MSSQLDialect) createTable(op *migrations.CreateTable, b *migrations.CommandBuilder) error {
	if len(op.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", op.Name)
	}
	memoryOptimized := op.MemoryOptimized != nil && *op.MemoryOptimized

	b.Append("CREATE TABLE ").Append(d.table(op.Schema, op.Name)).AppendLine(" (")
	for i, c := range op.Columns {
		def, err := d.columnDefinition(op.Name, c)
		if err != nil {
			return fmt.Errorf("table %s: %w", op.Name, err)
		}
		b.Append("    ").Append(def)
		if i < len(op.Columns)-1 || len(op.PrimaryKey) > 0 || len(op.ForeignKeys) > 0 {
			b.Append(",")
		}
		b.AppendLine("")
	}
	if len(op.PrimaryKey) > 0 {
		b.Append("    CONSTRAINT ").Append(d.DelimitIdentifier("PK_" + op.Name)).Append(" PRIMARY KEY ")
		if memoryOptimized {
			b.Append("NONCLUSTERED ")
		}
		b.Append("(").Append(DelimitList(op.PrimaryKey, d.DelimitIdentifier)).Append(")")
		if len(op.ForeignKeys) > 0 {
			b.Append(",")
		}
		b.AppendLine("")
	}
	for i, fk := range op.ForeignKeys {
		b.Append("    ").Append(d.foreignKey(fk))
		if i < len(op.ForeignKeys)-1 {
			b.Append(",")
		}
		b.AppendLine("")
	}
	b.Append(")")
	if memoryOptimized {
		b.Append(" WITH (MEMORY_OPTIMIZED = ON)")
	}
	b.AppendLine(d.StatementTerminator())
	return nil
}

// alterColumn rebinds the column's named default around a type or nullability
// change, since SQL Server refuses ALTER COLUMN while a default is bound.
func (d *MSSQLDialect) alterColumn(op *migrations.AlterColumn, b *migrations.CommandBuilder) error {
	if !op.StructureChanged() {
		return nil
	}
	if op.Column.Identity != op.OldColumn.Identity {
		return fmt.Errorf("column %s: adding or removing IDENTITY is not supported, the table has to be rebuilt", op.Column.Name)
	}
	table := d.table(op.Schema, op.Table)
	column := d.DelimitIdentifier(op.Column.Name)
	constraint := defaultConstraint(op.Table, op.Column.Name)

	retyped := op.Column.StoreType != op.OldColumn.StoreType || op.Column.Nullable != op.OldColumn.Nullable
	rebind := retyped || op.Column.Default != op.OldColumn.Default
	if retyped && op.Column.StoreType == "" {
		return fmt.Errorf("column %s has no store type", op.Column.Name)
	}

	if rebind && op.OldColumn.Default != "" {
		d.dropConstraint(table, constraint, b)
	}
	if retyped {
		b.Append("ALTER TABLE ").Append(table).Append(" ALTER COLUMN ").Append(column).
			Append(" ").Append(op.Column.StoreType).Append(nullability(op.Column.Nullable)).
			AppendLine(d.StatementTerminator())
	}
	if rebind && op.Column.Default != "" {
		b.Append("ALTER TABLE ").Append(table).Append(" ADD CONSTRAINT ").Append(d.DelimitIdentifier(constraint)).
			Append(" DEFAULT ").Append(op.Column.Default).
			Append(" FOR ").Append(column).AppendLine(d.StatementTerminator())
	}
	return nil
}

func (d *MSSQLDialect) dropConstraint(table, name string, b *migrations.CommandBuilder) {
	b.Append("ALTER TABLE ").Append(table).Append(" DROP CONSTRAINT ").
		Append(d.DelimitIdentifier(name)).AppendLine(d.StatementTerminator())
}

func (d *MSSQLDialect) columnDefinition(table string, c migrations.ColumnDef) (string, error) {
	if c.StoreType == "" {
		return "", fmt.Errorf("column %s has no store type", c.Name)
	}
	var sb strings.Builder
	sb.WriteString(d.DelimitIdentifier(c.Name))
	sb.WriteString(" ")
	sb.WriteString(c.StoreType)
	if c.Identity {
		sb.WriteString(" IDENTITY")
	}
	sb.WriteString(nullability(c.Nullable))
	if c.Default != "" {
		sb.WriteString(" CONSTRAINT ")
		sb.WriteString(d.DelimitIdentifier(defaultConstraint(table, c.Name)))
		sb.WriteString(" DEFAULT ")
		sb.WriteString(c.Default)
	}
	return sb.String(), nil
}

func (d *MSSQLDialect) foreignKey(fk migrations.ForeignKey) string {
	return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.DelimitIdentifier(fk.Name),
		d.DelimitIdentifier(fk.Column),
		d.table(fk.PrincipalSchema, fk.PrincipalTable),
		d.DelimitIdentifier(fk.PrincipalColumn))
}

// table returns the delimited, optionally schema-qualified, table name.
func (d *MSSQLDialect) table(schema, name string) string {
	if schema == "" {
		return d.DelimitIdentifier(name)
	}
	return d.DelimitIdentifier(schema) + "." + d.DelimitIdentifier(name)
}

// defaultConstraint names the default of a column so later migrations can drop it.
func defaultConstraint(table, column string) string {
	return "DF_" + table + "_" + column
}

func nullability(nullable bool) string {
	if nullable {
		return " NULL"
	}
	return " NOT NULL"
}
