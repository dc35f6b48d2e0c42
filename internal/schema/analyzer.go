package schema

import (
	"database/sql"
	"fmt"
	"strings"

	"db-describe/internal/dialect"
	"db-describe/internal/migrations"
)

// ---------------------------------------------------------------------
// 1. Schema Analysis Logic
// ---------------------------------------------------------------------

// Analyze reads the tables of a schema together with their table and column
// descriptions.
func Analyze(db *sql.DB, d dialect.Dialect, schemaName string) ([]*Table, error) {
	target := d.GetSchemaName(schemaName)

	// Normalized keys: SQL Server compares names case-insensitively by default.
	tableMap := make(map[string]*Table)
	var tables []*Table

	// --- Step 1: Fetch Tables ---
	rows, err := db.Query(d.GetTablesQuery(), target)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var memoryOptimized bool
		var description sql.NullString
		if err := rows.Scan(&name, &memoryOptimized, &description); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		t := &Table{Name: name, MemoryOptimized: memoryOptimized, Description: nullable(description)}
		tableMap[strings.ToUpper(name)] = t
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	// --- Step 2: Fetch Columns ---
	colRows, err := db.Query(d.GetColumnsQuery(), target)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer colRows.Close()

	for colRows.Next() {
		var tName, cName, dType, description sql.NullString
		var isNullable, isIdentity bool
		if err := colRows.Scan(&tName, &cName, &dType, &isNullable, &isIdentity, &description); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", tName.String, err)
		}
		if !tName.Valid || !cName.Valid {
			continue
		}

		if t, ok := tableMap[strings.ToUpper(tName.String)]; ok {
			t.Columns = append(t.Columns, &Column{
				Name:        cName.String,
				DataType:    strings.ToLower(dType.String),
				IsNullable:  isNullable,
				IsIdentity:  isIdentity,
				Description: nullable(description),
			})
		}
	}
	if err := colRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return tables, nil
}

// ---------------------------------------------------------------------
// 2. Drift Detection
// ---------------------------------------------------------------------

// Drift compares the descriptions expected by a snapshot with the live ones.
// Only snapshot tables in the inspected schema are checked; tables without a
// schema belong to every schema. Findings follow the snapshot's table order.
func Drift(live []*Table, expected *migrations.Snapshot, schemaName string) []Finding {
	byName := make(map[string]*Table, len(live))
	for _, t := range live {
		byName[strings.ToUpper(t.Name)] = t
	}

	var findings []Finding
	for _, et := range expected.Tables {
		if et.Schema != "" && !strings.EqualFold(et.Schema, schemaName) {
			continue
		}
		lt, ok := byName[strings.ToUpper(et.Name)]
		if !ok {
			findings = append(findings, Finding{Kind: DriftAbsent, Table: et.Name, Expected: et.Description})
			continue
		}
		if f, drifted := compare(et.Description, lt.Description); drifted {
			f.Table, f.Live = lt.Name, lt.Definition()
			findings = append(findings, f)
		}

		for _, ec := range et.Columns {
			lc := lt.Column(ec.Name)
			if lc == nil {
				findings = append(findings, Finding{Kind: DriftAbsent, Table: lt.Name, Column: ec.Name, Expected: ec.Description})
				continue
			}
			if f, drifted := compare(ec.Description, lc.Description); drifted {
				f.Table, f.Column, f.Live = lt.Name, lc.Name, lc.Definition()
				findings = append(findings, f)
			}
		}
	}
	return findings
}

func compare(expected string, actual *string) (Finding, bool) {
	f := Finding{Expected: expected}
	hasExpected := strings.TrimSpace(expected) != ""
	hasActual := actual != nil && strings.TrimSpace(*actual) != ""
	if hasActual {
		f.Actual = *actual
	}

	switch {
	case hasExpected && !hasActual:
		f.Kind = DriftMissing
	case !hasExpected && hasActual:
		f.Kind = DriftUnexpected
	case hasExpected && hasActual && expected != *actual:
		f.Kind = DriftStale
	default:
		return f, false
	}
	return f, true
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
