package qbfgen

import (
	"math/rand"
	"testing"
)

func TestGenerateProducesWellFormedPrefix(t *testing.T) {
	cfg := Config{Variables: 10, AlternationDepth: 4, Clauses: 15, ClauseWidth: 3}
	rng := rand.New(rand.NewSource(1))

	f := Generate(cfg, rng)

	seen := make(map[int32]bool)
	for _, b := range f.Prefix {
		for _, v := range b.Vars {
			if seen[v] {
				t.Fatalf("variable %d appears in more than one prefix block", v)
			}
			seen[v] = true
		}
	}
	if len(seen) != cfg.Variables {
		t.Fatalf("expected all %d variables placed in the prefix, got %d", cfg.Variables, len(seen))
	}
	if f.MaxVar != cfg.Variables {
		t.Fatalf("MaxVar = %d, want %d", f.MaxVar, cfg.Variables)
	}
	if len(f.Clauses) != cfg.Clauses {
		t.Fatalf("expected %d clauses, got %d", cfg.Clauses, len(f.Clauses))
	}
}

func TestGenerateClauseWidthClampedToVariables(t *testing.T) {
	cfg := Config{Variables: 2, AlternationDepth: 1, Clauses: 5, ClauseWidth: 10}
	rng := rand.New(rand.NewSource(2))

	f := Generate(cfg, rng)
	for _, c := range f.Clauses {
		if len(c) > cfg.Variables {
			t.Fatalf("clause width %d exceeds variable count %d", len(c), cfg.Variables)
		}
	}
}

func TestGenerateIsDeterministicForAFixedSeed(t *testing.T) {
	cfg := DefaultConfig()
	f1 := Generate(cfg, rand.New(rand.NewSource(7)))
	f2 := Generate(cfg, rand.New(rand.NewSource(7)))

	if len(f1.Clauses) != len(f2.Clauses) {
		t.Fatalf("expected identical clause counts for the same seed")
	}
	for i := range f1.Clauses {
		if len(f1.Clauses[i]) != len(f2.Clauses[i]) {
			t.Fatalf("clause %d differs in width between runs", i)
		}
		for j := range f1.Clauses[i] {
			if f1.Clauses[i][j] != f2.Clauses[i][j] {
				t.Fatalf("clause %d literal %d differs between runs: %d vs %d", i, j, f1.Clauses[i][j], f2.Clauses[i][j])
			}
		}
	}
}

func TestGenerateTermRatioRoutesToTerms(t *testing.T) {
	cfg := Config{Variables: 8, AlternationDepth: 2, Clauses: 30, ClauseWidth: 2, TermRatio: 1}
	rng := rand.New(rand.NewSource(3))

	f := Generate(cfg, rng)
	if len(f.Clauses) != 0 {
		t.Fatalf("expected every constraint routed to Terms with TermRatio=1, got %d clauses", len(f.Clauses))
	}
	if len(f.Terms) != cfg.Clauses {
		t.Fatalf("expected %d terms, got %d", cfg.Clauses, len(f.Terms))
	}
}
