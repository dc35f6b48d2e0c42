package migrations

import (
	"testing"
)

func tablesWithDeps(deps map[string][]string, names ...string) []TableSnapshot {
	var tables []TableSnapshot
	for _, n := range names {
		t := TableSnapshot{Name: n}
		for _, d := range deps[n] {
			t.ForeignKeys = append(t.ForeignKeys, ForeignKeySnapshot{Name: "FK_" + n + "_" + d, PrincipalTable: d})
		}
		tables = append(tables, t)
	}
	return tables
}

func names(tables []TableSnapshot) []string {
	var out []string
	for _, t := range tables {
		out = append(out, t.Name)
	}
	return out
}

func TestOrderTables_ComplexCircular(t *testing.T) {
	// A -> B -> C -> D -> E -> A (cycle)
	// F -> E (plain reference)
	// G (independent)
	tables := tablesWithDeps(map[string][]string{
		"A": {"B"}, "B": {"C"}, "C": {"D"}, "D": {"E"}, "E": {"A"}, "F": {"E"},
	}, "A", "B", "C", "D", "E", "F", "G")

	sorted := orderTables(tables, quietLogger())

	if len(sorted) != len(tables) {
		t.Fatalf("Expected %d tables, got %d", len(tables), len(sorted))
	}
	if sorted[0].Name != "G" {
		t.Errorf("Expected independent table G first, got %v", names(sorted))
	}

	pos := make(map[string]int)
	for i, tbl := range sorted {
		pos[tbl.Name] = i
	}
	if pos["F"] < pos["E"] {
		t.Errorf("Expected F after E, got %v", names(sorted))
	}
}

func TestOrderTables_Simple(t *testing.T) {
	// Users -> Orders -> OrderItems
	tables := tablesWithDeps(map[string][]string{
		"OrderItems": {"Orders"}, "Orders": {"Users"},
	}, "OrderItems", "Orders", "Users")

	sorted := orderTables(tables, quietLogger())

	want := []string{"Users", "Orders", "OrderItems"}
	for i, n := range want {
		if sorted[i].Name != n {
			t.Fatalf("Expected %v, got %v", want, names(sorted))
		}
	}
}

func TestOrderTables_IgnoresSelfAndExternalReferences(t *testing.T) {
	tables := tablesWithDeps(map[string][]string{
		"Categories": {"Categories"}, "Products": {"Categories", "Suppliers"},
	}, "Products", "Categories")

	sorted := orderTables(tables, quietLogger())

	if got := names(sorted); len(got) != 2 || got[0] != "Categories" || got[1] != "Products" {
		t.Errorf("Expected [Categories Products], got %v", got)
	}
}

func TestSortByDependencyScore_TwoWayCycle(t *testing.T) {
	tables := tablesWithDeps(map[string][]string{
		"store": {"staff"}, "staff": {"store"},
	}, "store", "staff")
	deps := [][]int{{1}, {0}}

	order := sortByDependencyScore(tables, deps, quietLogger())

	if len(order) != 2 || tables[order[0]].Name != "staff" {
		t.Errorf("Expected staff to break the cycle first, got %v", order)
	}
}
