package qbf

import "testing"

// buildIllegalMergeScenario wires a minimal Solver whose trail and
// constraint stores reproduce a textbook illegal merge: v4 (the
// most-recently-assigned existential) resolves against an antecedent
// containing -v2, which clashes with the +v2 already in the
// conflicting clause's resolvent, and v2 sits to the left of v4 in the
// prefix. Returns the solver and the conflicting clause's ref.
func buildIllegalMergeScenario(t *testing.T) (*Solver, Var, Var, Ref) {
	t.Helper()
	vs := NewVariableStore()
	v1 := vs.Add(Existential, false, 0)
	v2 := vs.Add(Universal, false, 1)
	v3 := vs.Add(Existential, false, 2)
	v4 := vs.Add(Existential, false, 2)

	dm := NewDependencyManager(vs, DepAll, RRSOff, OOONone)
	dm.Grow(v4)

	clauses := NewStore(ClauseKind, false)
	terms := NewStore(TermKind, false)

	rv4 := clauses.AddInput([]Literal{MkLit(v4, false), MkLit(v2, true)}) // v4 or -v2

	vs.Assign(MkLit(v1, false), DecisionReason)
	vs.Assign(MkLit(v2, true), Reason{})
	vs.Assign(MkLit(v3, false), Reason{})
	vs.Assign(MkLit(v4, false), Reason{Kind: ClauseKind, Ref: rv4})

	conflictRef := clauses.AddInput([]Literal{MkLit(v3, true), MkLit(v4, true), MkLit(v2, false)})

	sol := &Solver{VS: vs, DM: dm, Clauses: clauses, Terms: terms}
	return sol, v4, v2, conflictRef
}

func TestAnalyzeReturnsDependenciesOnIllegalMerge(t *testing.T) {
	sol, culprit, clashVar, conflictRef := buildIllegalMergeScenario(t)

	result := NewLearningEngine(sol).Analyze(Conflict{Ref: conflictRef, Kind: ClauseKind, Has: true})

	if result.Outcome != OutcomeDependencies {
		t.Fatalf("Outcome = %v, want OutcomeDependencies", result.Outcome)
	}
	if result.Culprit != culprit {
		t.Fatalf("Culprit = %d, want %d", result.Culprit, culprit)
	}
	if len(result.Clashing) != 1 || result.Clashing[0].Var() != clashVar {
		t.Fatalf("Clashing = %v, want [-%d]", result.Clashing, clashVar)
	}
}

// TestIllegalMergeFeedsLearnDependencies checks the driver-side half of
// the protocol in isolation: growing dep(culprit) from the clash
// Analyze reports makes the culprit newly dependent on the clashing
// variable, exactly as Solver.Solve's OutcomeDependencies branch does.
func TestIllegalMergeFeedsLearnDependencies(t *testing.T) {
	sol, culprit, clashVar, conflictRef := buildIllegalMergeScenario(t)
	result := NewLearningEngine(sol).Analyze(Conflict{Ref: conflictRef, Kind: ClauseKind, Has: true})
	if result.Outcome != OutcomeDependencies {
		t.Fatalf("Outcome = %v, want OutcomeDependencies", result.Outcome)
	}

	if sol.DM.DependsOn(culprit, clashVar) {
		t.Fatalf("culprit should not yet depend on %d before LearnDependencies", clashVar)
	}
	sol.DM.LearnDependencies(result.Culprit, result.Clashing)
	if !sol.DM.DependsOn(culprit, clashVar) {
		t.Fatalf("expected LearnDependencies to grow dep(culprit) with the clashing variable")
	}
}

// Every scheme test below gives the candidate variables the SAME
// quantifier kind as u, so DependsOn's default prefix relation (which
// requires opposite kinds) never holds on its own: any DependsOn(u, x)
// the assertions observe can only come from the scheme's explicit
// addDependency call, not from the always-on prefix fallback.

func TestLearnDependenciesSchemeAll(t *testing.T) {
	vs := NewVariableStore()
	u := vs.Add(Existential, false, 2)
	a := vs.Add(Existential, false, 0)
	b := vs.Add(Existential, false, 1)
	dm := NewDependencyManager(vs, DepAll, RRSOff, OOONone)
	dm.Grow(b) // grow to cover every id used (b has the highest here)

	clashing := []Literal{MkLit(a, false), MkLit(b, true)}
	dm.LearnDependencies(u, clashing)

	if !dm.DependsOn(u, a) || !dm.DependsOn(u, b) {
		t.Fatalf("DepAll should add every clashing variable to dep(u)")
	}
}

func TestLearnDependenciesSchemeOutermostPicksSmallestID(t *testing.T) {
	vs := NewVariableStore()
	a := vs.Add(Existential, false, 0) // id 1
	b := vs.Add(Existential, false, 0) // id 2
	u := vs.Add(Existential, false, 2) // id 3
	dm := NewDependencyManager(vs, DepOutermost, RRSOff, OOONone)
	dm.Grow(u)

	dm.LearnDependencies(u, []Literal{MkLit(b, false), MkLit(a, false)})

	if !dm.DependsOn(u, a) {
		t.Fatalf("DepOutermost should add the smallest-id clashing variable (a)")
	}
	if dm.DependsOn(u, b) {
		t.Fatalf("DepOutermost should not add the larger-id clashing variable (b)")
	}
}

func TestLearnDependenciesSchemeFewestPicksSmallestExistingDepSet(t *testing.T) {
	vs := NewVariableStore()
	a := vs.Add(Existential, false, 0)
	b := vs.Add(Existential, false, 0)
	c := vs.Add(Existential, false, 0)
	u := vs.Add(Existential, false, 1)
	dm := NewDependencyManager(vs, DepFewest, RRSOff, OOONone)
	dm.Grow(u)

	// Give b two pre-existing dependencies so it is no longer "fewest".
	dm.LearnDependencies(b, []Literal{MkLit(a, false)})
	dm.LearnDependencies(b, []Literal{MkLit(c, false)})

	dm.LearnDependencies(u, []Literal{MkLit(b, false), MkLit(c, false)})

	if dm.DependsOn(u, b) {
		t.Fatalf("DepFewest should not pick b, which already has the larger dep set")
	}
	if !dm.DependsOn(u, c) {
		t.Fatalf("DepFewest should pick c, the candidate with the smaller dep set")
	}
}

func TestLearnDependenciesSchemeOffIsNoOp(t *testing.T) {
	vs := NewVariableStore()
	a := vs.Add(Existential, false, 0)
	u := vs.Add(Existential, false, 1)
	dm := NewDependencyManager(vs, DepOff, RRSOff, OOONone)
	dm.Grow(u)

	dm.LearnDependencies(u, []Literal{MkLit(a, false)})

	if dm.DependsOn(u, a) {
		t.Fatalf("DepOff must never grow dep(u) beyond the default prefix relation")
	}
}
