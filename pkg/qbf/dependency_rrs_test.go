package qbf

import "testing"

// buildRRSScenario creates two existential variables a, b and one
// universal x (block 1, strictly to x's right of a/b so the default
// prefix relation never makes DependsOn(a, x) true on its own), with
// dep(a) already containing x set directly via addDependency (bypassing
// LearnDependencies' own RRS candidate filter, which is a separate
// concern from what's under test here): DependsOn(a, x) is true purely
// through that dependency-set entry, isolating what DependsOnRRS's
// extra reachability check adds on top of it.
func buildRRSScenario(t *testing.T, rrs RRSMode) (dm *DependencyManager, a, x Var, clauses *Store) {
	t.Helper()
	vs := NewVariableStore()
	a = vs.Add(Existential, false, 0)
	_ = vs.Add(Existential, false, 0)
	x = vs.Add(Universal, false, 1)

	dm = NewDependencyManager(vs, DepAll, rrs, OOONone)
	dm.Grow(x)
	clauses = NewStore(ClauseKind, false)
	dm.SetStoreAccessor(func(occ occurrence, i int) (Literal, bool) {
		if i >= clauses.Size(occ.ref) {
			return NoLiteral, false
		}
		return clauses.Lit(occ.ref, i), true
	})

	dm.addDependency(a, x)
	if !dm.DependsOn(a, x) {
		t.Fatalf("precondition: DependsOn(a, x) should be true via the learned dependency")
	}
	return dm, a, x, clauses
}

func TestDependsOnRRSFilterNeverRestrictsReduction(t *testing.T) {
	dm, a, x, _ := buildRRSScenario(t, RRSFilter)

	// a and x are never indexed as co-occurring in any constraint, so a
	// resolution-path BFS would not reach x — but RRSFilter only scopes
	// LearnDependencies candidates, not DependsOnRRS's reduction query.
	if !dm.DependsOnRRS(a, x) {
		t.Fatalf("RRSFilter must not restrict DependsOnRRS beyond plain DependsOn")
	}
}

func TestDependsOnRRSFullExcludesUnreachableVariable(t *testing.T) {
	dm, a, x, _ := buildRRSScenario(t, RRSFull)

	// Same learned dependency as above, but under RRSFull the
	// resolution-path refinement additionally requires a and x to be
	// connected through the occurrence graph; since no constraint was
	// ever indexed, they aren't.
	if dm.DependsOnRRS(a, x) {
		t.Fatalf("RRSFull should exclude a variable with no resolution path from the pivot")
	}
}

func TestDependsOnRRSFullIncludesResolutionPathReachableVariable(t *testing.T) {
	dm, a, x, clauses := buildRRSScenario(t, RRSFull)

	ref := clauses.AddInput([]Literal{MkLit(a, false), MkLit(x, true)})
	dm.IndexOccurrence(a, ref, ClauseKind, false)
	dm.IndexOccurrence(x, ref, ClauseKind, true)

	if !dm.DependsOnRRS(a, x) {
		t.Fatalf("RRSFull should include x once a clause connects a and x in the occurrence graph")
	}
}

func TestReduceVarsDropsReduceKindLiteralRRSFullDeemsUnreachable(t *testing.T) {
	dm, a, x, _ := buildRRSScenario(t, RRSFull)
	vs := dm.vs

	resolvent := map[Var]Literal{a: MkLit(a, false), x: MkLit(x, false)}
	reduceVars(resolvent, vs, dm, Existential, Universal)

	if _, stillThere := resolvent[x]; stillThere {
		t.Fatalf("reduceVars should have dropped x: RRSFull finds it resolution-path unreachable from a despite the learned dependency")
	}
}
