// Package qbfgen generates random prenex QBF instances for the
// differential-testing harness in internal/diffcheck. Instances are
// generated directly as a *qbf.Formula rather than through the
// QDIMACS text front-end, since the harness never needs to round-trip
// through text.
package qbfgen

import (
	"math/rand"

	"github.com/gitrdm/qute/pkg/qbf"
)

// Config bounds the shape of a generated instance.
type Config struct {
	Variables       int // total variables across the whole prefix
	AlternationDepth int // number of quantifier blocks
	Clauses         int
	ClauseWidth     int // literals per clause (clamped to Variables)
	// TermRatio is the fraction of generated constraints that are terms
	// (DNF side) rather than clauses (CNF side), in [0,1]. Most QDIMACS
	// instances are pure CNF; a nonzero ratio exercises the dual store.
	TermRatio float64
}

// DefaultConfig returns a small, fast-to-solve instance shape suitable
// for exhaustive differential checking.
func DefaultConfig() Config {
	return Config{
		Variables:        12,
		AlternationDepth: 3,
		Clauses:          24,
		ClauseWidth:      3,
		TermRatio:        0,
	}
}

// Generate builds a random *qbf.Formula from cfg using rng. The prefix
// alternates existential/universal blocks of roughly equal size,
// starting existential (so at least one variable is assignable by a
// model). Clauses/terms are sampled uniformly over all variables, each
// variable appearing at most once per constraint with independently
// chosen polarity, so the result is free of duplicate literals and
// tautologies by construction (unlike hand-written QDIMACS input, which
// the front end must still guard against).
func Generate(cfg Config, rng *rand.Rand) *qbf.Formula {
	if cfg.Variables < 1 {
		cfg.Variables = 1
	}
	if cfg.AlternationDepth < 1 {
		cfg.AlternationDepth = 1
	}
	width := cfg.ClauseWidth
	if width > cfg.Variables {
		width = cfg.Variables
	}
	if width < 1 {
		width = 1
	}

	f := &qbf.Formula{MaxVar: cfg.Variables}
	f.Prefix = buildPrefix(cfg.Variables, cfg.AlternationDepth)

	for i := 0; i < cfg.Clauses; i++ {
		lits := randomClause(cfg.Variables, width, rng)
		if rng.Float64() < cfg.TermRatio {
			f.Terms = append(f.Terms, lits)
		} else {
			f.Clauses = append(f.Clauses, lits)
		}
	}
	return f
}

// buildPrefix splits 1..n into depth blocks of near-equal size,
// alternating Existential/Universal starting with Existential.
func buildPrefix(n, depth int) []qbf.Block {
	if depth > n {
		depth = n
	}
	blocks := make([]qbf.Block, 0, depth)
	base := n / depth
	rem := n % depth
	v := int32(1)
	for b := 0; b < depth; b++ {
		size := base
		if b < rem {
			size++
		}
		if size == 0 {
			continue
		}
		kind := qbf.Existential
		if b%2 == 1 {
			kind = qbf.Universal
		}
		vars := make([]int32, size)
		for i := 0; i < size; i++ {
			vars[i] = v
			v++
		}
		blocks = append(blocks, qbf.Block{Kind: kind, Vars: vars})
	}
	return blocks
}

func randomClause(numVars, width int, rng *rand.Rand) []int32 {
	seen := make(map[int32]bool, width)
	lits := make([]int32, 0, width)
	for len(lits) < width {
		v := int32(rng.Intn(numVars) + 1)
		if seen[v] {
			continue
		}
		seen[v] = true
		if rng.Intn(2) == 0 {
			v = -v
		}
		lits = append(lits, v)
	}
	return lits
}
