package qbf

import "testing"

func allEligible(Var) bool { return true }

// TestVSIDSTieBreakOccurrencePrefersHigherCount leaves every
// variable's activity at its zero-valued default (a permanent tie) so
// NextDecision's outcome is driven entirely by preferOnTie.
func TestVSIDSTieBreakOccurrencePrefersHigherCount(t *testing.T) {
	counts := map[Var]int{1: 1, 2: 5, 3: 3}
	h := newVSIDS(3, TieBreakOccurrence, func(v Var) int { return counts[v] })

	v, _, ok := h.NextDecision(allEligible)
	if !ok || v != 2 {
		t.Fatalf("NextDecision = (%d, ok=%v), want (2, true) — variable 2 has the highest occurrence count", v, ok)
	}
}

// TestVSIDSTieBreakOccurrenceFallsBackToFirstSeenWithoutCounts checks
// that a nil occCount (no occurrence index wired) never promotes a
// later candidate on a tie, matching the documented "ties then always
// fall back to lowest variable id" behavior.
func TestVSIDSTieBreakOccurrenceFallsBackToFirstSeenWithoutCounts(t *testing.T) {
	h := newVSIDS(3, TieBreakOccurrence, nil)

	v, _, ok := h.NextDecision(allEligible)
	if !ok || v != 1 {
		t.Fatalf("NextDecision = (%d, ok=%v), want (1, true) with no occurrence counts to break the tie", v, ok)
	}
}

// TestVSIDSTieBreakRandomIsReproducibleAcrossInstances checks the
// fixed-seed RNG determinism this package's repeated-run guarantee
// depends on: two freshly constructed vsids heuristics, given the same
// activity tie, must resolve it identically.
func TestVSIDSTieBreakRandomIsReproducibleAcrossInstances(t *testing.T) {
	h1 := newVSIDS(8, TieBreakRandom, nil)
	h2 := newVSIDS(8, TieBreakRandom, nil)

	v1, _, ok1 := h1.NextDecision(allEligible)
	v2, _, ok2 := h2.NextDecision(allEligible)
	if !ok1 || !ok2 || v1 != v2 {
		t.Fatalf("NextDecision diverged across identically seeded instances: (%d, %v) vs (%d, %v)", v1, ok1, v2, ok2)
	}
}

// TestVSIDSPicksHighestActivityRegardlessOfTieBreak confirms
// preferOnTie is only consulted on an actual tie: a clear activity
// leader always wins no matter which tie-break scheme is configured.
func TestVSIDSPicksHighestActivityRegardlessOfTieBreak(t *testing.T) {
	for _, tb := range []TieBreakKind{TieBreakOccurrence, TieBreakRandom} {
		h := newVSIDS(3, tb, func(v Var) int { return 0 })
		h.Bump([]Var{2})

		v, _, ok := h.NextDecision(allEligible)
		if !ok || v != 2 {
			t.Fatalf("tieBreak=%v: NextDecision = (%d, ok=%v), want (2, true)", tb, v, ok)
		}
	}
}
