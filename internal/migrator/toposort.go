package migrator

import (
	"go.uber.org/zap"

	"dbmig/internal/model"
)

// dependencies builds each table's list of tables it references via FK,
// restricted to tables present in specs (external/self references are
// dropped), the same normalization internal/schema/analyzer.go's
// Analyze applies when building t.Dependencies.
func dependencies(specs []*model.TableSpec) map[string][]string {
	known := make(map[string]bool, len(specs))
	for _, s := range specs {
		known[s.Name] = true
	}
	deps := make(map[string][]string, len(specs))
	for _, s := range specs {
		for _, fk := range s.ForeignKeys {
			if fk.RefTable == s.Name || !known[fk.RefTable] {
				continue
			}
			deps[s.Name] = append(deps[s.Name], fk.RefTable)
		}
	}
	return deps
}

// TopoOrder is the result of ordering tables for migration: a full
// processing order plus the set of tables the cycle-breaking heuristic
// placed before all of their dependencies were ordered. A non-empty
// set makes RunAll disable FK enforcement for the whole run.
type TopoOrder struct {
	Order    []string
	InCycle  map[string]bool
}

// Order sorts specs into dependency order, breaking cycles with the
// same unprocessed-dependency-count / cycle-participation heuristic as
// internal/schema/analyzer.go's SortTablesByFKCount, generalized to
// return the set of tables it forced into place instead of only a log
// line. The set holds the heuristic's picks, not every table on the
// cycle, and the migrator uses it only to decide whether FK checks are
// disabled for the whole run.
func Order(specs []*model.TableSpec, log *zap.Logger) TopoOrder {
	deps := dependencies(specs)
	processed := make(map[string]bool, len(specs))
	inCycle := make(map[string]bool)
	var sorted []string

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}

	for len(sorted) < len(names) {
		added := false

		for _, name := range names {
			if processed[name] {
				continue
			}
			if allProcessed(deps[name], processed) {
				sorted = append(sorted, name)
				processed[name] = true
				added = true
			}
		}

		if added {
			continue
		}

		best, bestScore := "", -999999
		for _, name := range names {
			if processed[name] {
				continue
			}
			score := scoreCandidate(name, names, deps, processed)
			if score > bestScore || (score == bestScore && name > best) {
				bestScore, best = score, name
			}
		}
		if best == "" {
			break // unreachable given len(sorted) < len(names) and a non-empty names set
		}
		sorted = append(sorted, best)
		processed[best] = true
		inCycle[best] = true
		if log != nil {
			log.Warn("breaking circular foreign-key dependency", zap.String("table", best), zap.Int("score", bestScore))
		}
	}

	return TopoOrder{Order: sorted, InCycle: inCycle}
}

func allProcessed(deps []string, processed map[string]bool) bool {
	for _, d := range deps {
		if !processed[d] {
			return false
		}
	}
	return true
}

func scoreCandidate(name string, names []string, deps map[string][]string, processed map[string]bool) int {
	score := 0
	unprocessed := 0
	for _, d := range deps[name] {
		if !processed[d] {
			unprocessed++
		}
	}
	score -= unprocessed * 100

	for _, d := range deps[name] {
		if processed[d] {
			continue
		}
		for _, depDep := range deps[d] {
			if depDep == name {
				score += 500
				return score
			}
		}
	}
	return score
}
