package qbf

import "testing"

func TestMkLitRoundTrip(t *testing.T) {
	for _, neg := range []bool{false, true} {
		l := MkLit(5, neg)
		if l.Var() != 5 {
			t.Fatalf("Var() = %d, want 5", l.Var())
		}
		if l.Negated() != neg {
			t.Fatalf("Negated() = %v, want %v", l.Negated(), neg)
		}
	}
}

func TestLiteralNegate(t *testing.T) {
	l := MkLit(3, false)
	n := l.Negate()
	if n.Var() != 3 || !n.Negated() {
		t.Fatalf("Negate() = %v, want the negative occurrence of 3", n)
	}
	if n.Negate() != l {
		t.Fatalf("double negation should return the original literal")
	}
}

func TestLiteralValue(t *testing.T) {
	pos := MkLit(1, false)
	neg := MkLit(1, true)
	if !pos.Value(true) || pos.Value(false) {
		t.Fatalf("positive literal should track the variable's value directly")
	}
	if neg.Value(true) || !neg.Value(false) {
		t.Fatalf("negative literal should invert the variable's value")
	}
}

func TestQuantifierOpposite(t *testing.T) {
	if Existential.Opposite() != Universal {
		t.Fatalf("Existential.Opposite() should be Universal")
	}
	if Universal.Opposite() != Existential {
		t.Fatalf("Universal.Opposite() should be Existential")
	}
}

func TestKindOtherAndDisabling(t *testing.T) {
	if ClauseKind.Other() != TermKind || TermKind.Other() != ClauseKind {
		t.Fatalf("Kind.Other() should swap ClauseKind/TermKind")
	}
	if !ClauseKind.Disabling() {
		t.Fatalf("a clause is disabled (satisfied) by a true literal")
	}
	if TermKind.Disabling() {
		t.Fatalf("a term is disabled (falsified) by a false literal, i.e. Disabling() should be false")
	}
}
