package schema

import (
	"fmt"
	"strings"
)

// Table is a live table with its MS_Description values.
type Table struct {
	Name            string
	MemoryOptimized bool
	Description     *string
	Columns         []*Column
}

type Column struct {
	Name        string
	DataType    string
	IsNullable  bool
	IsIdentity  bool
	Description *string // MS_Description extended property
}

// DriftKind classifies a difference between expected and live descriptions.
type DriftKind string

const (
	DriftMissing    DriftKind = "missing"    // expected but not set on the server
	DriftStale      DriftKind = "stale"      // set, with a different value
	DriftUnexpected DriftKind = "unexpected" // set on the server but not expected
	DriftAbsent     DriftKind = "absent"     // the table or column does not exist
)

// Finding is one line of the drift report.
type Finding struct {
	Kind     DriftKind
	Table    string
	Column   string // empty for the table description
	Expected string
	Actual   string
	Live     string // live definition of the table or column, when it exists
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Definition summarizes the live table, e.g. "3 column(s), memory-optimized".
func (t *Table) Definition() string {
	def := fmt.Sprintf("%d column(s)", len(t.Columns))
	if t.MemoryOptimized {
		def += ", memory-optimized"
	}
	return def
}

// Definition renders the column as it would appear in a table definition.
func (c *Column) Definition() string {
	def := c.DataType
	if c.IsNullable {
		def += " NULL"
	} else {
		def += " NOT NULL"
	}
	if c.IsIdentity {
		def += " IDENTITY"
	}
	return def
}
