package frontend

import (
	"strings"
	"testing"

	"github.com/gitrdm/qute/pkg/qbf"
)

func TestParseQDIMACSBasic(t *testing.T) {
	const input = "c a comment\np cnf 2 1\na 1 0\ne 2 0\n1 2 0\n"
	f, err := ParseQDIMACS(strings.NewReader(input), "t")
	if err != nil {
		t.Fatalf("ParseQDIMACS: %v", err)
	}
	if f.MaxVar != 2 {
		t.Fatalf("MaxVar = %d, want 2", f.MaxVar)
	}
	if len(f.Prefix) != 2 {
		t.Fatalf("expected 2 prefix blocks, got %d", len(f.Prefix))
	}
	if f.Prefix[0].Kind != qbf.Universal || f.Prefix[1].Kind != qbf.Existential {
		t.Fatalf("unexpected prefix kinds: %+v", f.Prefix)
	}
	if len(f.Clauses) != 1 || len(f.Clauses[0]) != 2 {
		t.Fatalf("expected 1 clause of width 2, got %+v", f.Clauses)
	}
}

func TestParseQDIMACSImplicitExistentialBlock(t *testing.T) {
	// Variable 2 never appears in a prefix line: it must be folded into
	// a trailing existential block.
	const input = "p cnf 2 1\na 1 0\n1 2 0\n"
	f, err := ParseQDIMACS(strings.NewReader(input), "t")
	if err != nil {
		t.Fatalf("ParseQDIMACS: %v", err)
	}
	last := f.Prefix[len(f.Prefix)-1]
	if last.Kind != qbf.Existential || len(last.Vars) != 1 || last.Vars[0] != 2 {
		t.Fatalf("expected an implicit trailing existential block for variable 2, got %+v", f.Prefix)
	}
}

func TestParseQDIMACSDropsTautologicalClauses(t *testing.T) {
	const input = "p cnf 2 2\ne 1 0\ne 2 0\n1 -1 2 0\n1 2 0\n"
	f, err := ParseQDIMACS(strings.NewReader(input), "t")
	if err != nil {
		t.Fatalf("ParseQDIMACS: %v", err)
	}
	if len(f.Clauses) != 1 {
		t.Fatalf("expected the tautological clause to be dropped, got %d clauses", len(f.Clauses))
	}
}

func TestParseQDIMACSMissingHeaderIsAnError(t *testing.T) {
	const input = "1 2 0\n"
	_, err := ParseQDIMACS(strings.NewReader(input), "t")
	if err == nil {
		t.Fatalf("expected an error for a missing 'p cnf' header")
	}
	var pe *qbf.ParseError
	if perr, ok := err.(*qbf.ParseError); ok {
		pe = perr
	} else {
		t.Fatalf("expected a *qbf.ParseError, got %T", err)
	}
	if pe.Line == 0 {
		t.Fatalf("expected a nonzero line number in the parse error")
	}
}

func TestParseQDIMACSLiteralOutOfRangeIsAnError(t *testing.T) {
	const input = "p cnf 2 1\n1 3 0\n"
	_, err := ParseQDIMACS(strings.NewReader(input), "t")
	if err == nil {
		t.Fatalf("expected an error for a literal referencing an undeclared variable")
	}
}

func TestParseQDIMACSDuplicatePrefixVariableIsAnError(t *testing.T) {
	const input = "p cnf 2 1\na 1 0\ne 1 0\n1 2 0\n"
	_, err := ParseQDIMACS(strings.NewReader(input), "t")
	if err == nil {
		t.Fatalf("expected an error when a variable appears in two prefix blocks")
	}
}
