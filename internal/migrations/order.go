package migrations

import (
	"github.com/sirupsen/logrus"
	"github.com/yourbasic/graph"
)

// orderTables sorts tables so that principal tables come before the tables that
// reference them. Self references and references to tables outside the set are
// ignored. Cycles are broken with sortByDependencyScore.
func orderTables(tables []TableSnapshot, log logrus.FieldLogger) []TableSnapshot {
	index := make(map[string]int, len(tables))
	for i, t := range tables {
		index[tableKey(t.Schema, t.Name)] = i
	}

	deps := make([][]int, len(tables))
	g := graph.New(len(tables))
	for i, t := range tables {
		for _, fk := range t.ForeignKeys {
			j, ok := index[tableKey(fk.PrincipalSchema, fk.PrincipalTable)]
			if !ok || j == i {
				continue
			}
			deps[i] = append(deps[i], j)
			g.Add(j, i)
		}
	}

	order, ok := graph.TopSort(g)
	if !ok {
		order = sortByDependencyScore(tables, deps, log)
	}

	sorted := make([]TableSnapshot, 0, len(tables))
	for _, i := range order {
		sorted = append(sorted, tables[i])
	}
	return sorted
}

// sortByDependencyScore repeatedly takes every table whose dependencies are
// placed. When none qualifies there is a cycle: the table with the fewest
// unplaced dependencies wins, with a bonus for tables in a direct two-way cycle.
func sortByDependencyScore(tables []TableSnapshot, deps [][]int, log logrus.FieldLogger) []int {
	placed := make([]bool, len(tables))
	var order []int

	for len(order) < len(tables) {
		added := false
		for i := range tables {
			if placed[i] || !allPlaced(deps[i], placed) {
				continue
			}
			order = append(order, i)
			placed[i] = true
			added = true
		}
		if added {
			continue
		}

		best, bestScore := -1, 0
		for i := range tables {
			if placed[i] {
				continue
			}
			score := 0
			for _, d := range deps[i] {
				if placed[d] {
					continue
				}
				score -= 100
				if contains(deps[d], i) {
					score += 500
				}
			}
			if best < 0 || score > bestScore || (score == bestScore && tables[i].Name < tables[best].Name) {
				best, bestScore = i, score
			}
		}
		order = append(order, best)
		placed[best] = true
		log.WithFields(logrus.Fields{
			"table": tables[best].Name,
			"score": bestScore,
		}).Warn("Breaking circular foreign key dependency")
	}
	return order
}

func allPlaced(deps []int, placed []bool) bool {
	for _, d := range deps {
		if !placed[d] {
			return false
		}
	}
	return true
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
