package dialect

import "db-describe/internal/migrations"

// Dialect abstracts database-specific operations.
type Dialect interface {
	// SQL generation
	migrations.SQLHelper
	migrations.StructuralGenerator
	DelimitIdentifier(name string) string
	Placeholder(index int) string // Returns ?, $1, @p1, etc.

	// Metadata queries. Both take the schema as the first parameter.
	GetTablesQuery() string  // name, memory-optimized flag, description
	GetColumnsQuery() string // table, column, type, nullable, identity, description

	// Helpers
	GetSchemaName(input string) string
}
