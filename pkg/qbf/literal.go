// Package qbf implements the QCDCL search engine for quantified Boolean
// formulas in prenex conjunctive-normal form: the dual CNF/DNF arena
// store, the watched-literal propagator, the dependency manager, the
// Q-resolution learning engine, the decision heuristics, the restart
// scheduler, the constraint database manager, and the main solver loop.
//
// The package treats the front-end (QDIMACS/QCIR parsing), the CLI, and
// logging as external collaborators: callers construct a Formula and an
// Options value and hand them to NewSolver.
package qbf

import "fmt"

// Var is a variable identifier. Valid variables are the positive
// integers 1..MaxVar; the zero value, NoVar, never denotes a real
// variable and is used as a sentinel (e.g. "no watched dependency").
type Var int32

// NoVar is the sentinel for "not a variable".
const NoVar Var = 0

// Quantifier is the quantifier kind bound to a variable or prefix block.
type Quantifier uint8

const (
	// Existential marks a variable controlled by the SAT player.
	Existential Quantifier = iota
	// Universal marks a variable controlled by the UNSAT player.
	Universal
)

// Opposite returns the other quantifier kind.
func (q Quantifier) Opposite() Quantifier {
	if q == Existential {
		return Universal
	}
	return Existential
}

func (q Quantifier) String() string {
	if q == Existential {
		return "exists"
	}
	return "forall"
}

// Kind distinguishes the two dual constraint stores: the CNF view
// (clauses) and the DNF view (terms). A decision, a reason, and a
// learned constraint are all tagged with the Kind of the store they
// live in.
type Kind uint8

const (
	// ClauseKind identifies the clause (CNF) store.
	ClauseKind Kind = iota
	// TermKind identifies the term (DNF) store.
	TermKind
)

// Disabling reports the literal polarity that satisfies ("disables
// further interest in") a constraint of this kind: true for clauses,
// false for terms.
func (k Kind) Disabling() bool {
	return k == ClauseKind
}

func (k Kind) String() string {
	if k == ClauseKind {
		return "clause"
	}
	return "term"
}

// Other returns the dual kind.
func (k Kind) Other() Kind {
	if k == ClauseKind {
		return TermKind
	}
	return ClauseKind
}

// Literal packs a variable and its polarity into a single integer:
// negation is bitwise XOR with 1 and a literal can be used directly as
// an array index (via Index) without a branch.
type Literal int32

// NoLiteral is the sentinel for "no literal" (variable 0 is never
// real, so its packed forms are unused).
const NoLiteral Literal = 0

// MkLit packs a variable and a polarity into a Literal. negated=true
// produces the literal that is true exactly when v is false.
func MkLit(v Var, negated bool) Literal {
	lit := Literal(v) << 1
	if negated {
		lit |= 1
	}
	return lit
}

// Var extracts the variable from a literal.
func (l Literal) Var() Var { return Var(l >> 1) }

// Negated reports whether this literal is the negative occurrence of
// its variable.
func (l Literal) Negated() bool { return l&1 == 1 }

// Negate returns the complementary literal.
func (l Literal) Negate() Literal { return l ^ 1 }

// Index returns a dense non-negative index suitable for slice
// indexing, e.g. into a propagator's watch-list table.
func (l Literal) Index() int { return int(l) }

func (l Literal) String() string {
	if l.Negated() {
		return fmt.Sprintf("-%d", l.Var())
	}
	return fmt.Sprintf("%d", l.Var())
}

// Value evaluates l given varTrue, the truth value of its variable.
func (l Literal) Value(varTrue bool) bool {
	if l.Negated() {
		return !varTrue
	}
	return varTrue
}
