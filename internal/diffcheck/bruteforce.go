// Package diffcheck brute-force evaluates small QBF instances by
// recursive quantifier elimination and cross-checks the result
// against pkg/qbf's QCDCL solver, for use in randomized differential
// tests (see internal/qbfgen for instance generation).
package diffcheck

import "github.com/gitrdm/qute/pkg/qbf"

// Evaluate decides the truth of f by recursively eliminating the
// outermost quantifier block: an existential block is true if some
// assignment to its variables makes the remainder true; a universal
// block is true if every assignment does. This is exponential in the
// variable count and is only ever run against the small instances
// internal/qbfgen produces for testing, never as a production solving
// path.
func Evaluate(f *qbf.Formula) bool {
	assignment := make(map[int32]bool, f.MaxVar)
	return evalPrefix(f, 0, assignment)
}

func evalPrefix(f *qbf.Formula, blockIdx int, assignment map[int32]bool) bool {
	if blockIdx >= len(f.Prefix) {
		return evalMatrix(f, assignment)
	}
	block := f.Prefix[blockIdx]
	return evalBlock(f, block.Vars, 0, block.Kind, blockIdx, assignment)
}

func evalBlock(f *qbf.Formula, vars []int32, i int, kind qbf.Quantifier, blockIdx int, assignment map[int32]bool) bool {
	if i >= len(vars) {
		return evalPrefix(f, blockIdx+1, assignment)
	}
	v := vars[i]

	assignment[v] = true
	trueBranch := evalBlock(f, vars, i+1, kind, blockIdx, assignment)
	assignment[v] = false
	falseBranch := evalBlock(f, vars, i+1, kind, blockIdx, assignment)
	delete(assignment, v)

	if kind == qbf.Existential {
		return trueBranch || falseBranch
	}
	return trueBranch && falseBranch
}

// evalMatrix evaluates the propositional matrix: satisfied when every
// clause has a satisfied literal AND some term has every literal
// satisfied (an empty Terms list is treated as "no DNF side",
// vacuously true, so pure-CNF instances reduce to ordinary clause
// satisfaction).
func evalMatrix(f *qbf.Formula, assignment map[int32]bool) bool {
	for _, clause := range f.Clauses {
		if !clauseSatisfied(clause, assignment) {
			return false
		}
	}
	if len(f.Terms) == 0 {
		return true
	}
	for _, term := range f.Terms {
		if termSatisfied(term, assignment) {
			return true
		}
	}
	return false
}

func clauseSatisfied(clause []int32, assignment map[int32]bool) bool {
	for _, l := range clause {
		if litValue(l, assignment) {
			return true
		}
	}
	return false
}

func termSatisfied(term []int32, assignment map[int32]bool) bool {
	for _, l := range term {
		if !litValue(l, assignment) {
			return false
		}
	}
	return true
}

func litValue(l int32, assignment map[int32]bool) bool {
	if l < 0 {
		return !assignment[-l]
	}
	return assignment[l]
}
