// Package frontend parses QDIMACS and QCIR input into a qbf.Formula,
// reporting every syntax error as a *qbf.ParseError carrying the
// source file name and line number.
package frontend

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gitrdm/qute/pkg/qbf"
)

// ParseQDIMACS reads a QDIMACS-format QBF instance from r. name is
// used only for error messages (pass "" for an anonymous reader, e.g.
// stdin).
func ParseQDIMACS(r io.Reader, name string) (*qbf.Formula, error) {
	p := &qdimacsParser{name: name, scanner: bufio.NewScanner(r)}
	p.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return p.parse()
}

type qdimacsParser struct {
	name    string
	scanner *bufio.Scanner
	line    int

	maxVar      int
	numClauses  int
	sawHeader   bool
	formula     qbf.Formula
	seenVar     map[int32]bool
}

func (p *qdimacsParser) errf(format string, args ...any) error {
	return &qbf.ParseError{File: p.name, Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *qdimacsParser) parse() (*qbf.Formula, error) {
	p.seenVar = make(map[int32]bool)
	blockIndex := 0

	for p.scanner.Scan() {
		p.line++
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue
		}
		if strings.HasPrefix(line, "p") {
			if err := p.parseHeader(line); err != nil {
				return nil, err
			}
			continue
		}
		if !p.sawHeader {
			return nil, p.errf("clause or prefix line before 'p cnf' header")
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "a", "e":
			vars, err := p.parseTerminatedInts(fields[1:])
			if err != nil {
				return nil, err
			}
			kind := qbf.Existential
			if fields[0] == "a" {
				kind = qbf.Universal
			}
			for _, v := range vars {
				if v <= 0 || int(v) > p.maxVar {
					return nil, p.errf("prefix variable %d out of range 1..%d", v, p.maxVar)
				}
				if p.seenVar[v] {
					return nil, p.errf("variable %d appears in more than one prefix block", v)
				}
				p.seenVar[v] = true
			}
			p.formula.Prefix = append(p.formula.Prefix, qbf.Block{Kind: kind, Vars: vars})
			blockIndex++
		default:
			lits, err := p.parseTerminatedInts(fields)
			if err != nil {
				return nil, err
			}
			if err := p.checkClause(lits); err != nil {
				return nil, err
			}
			if tautological(lits) {
				continue
			}
			p.formula.Clauses = append(p.formula.Clauses, lits)
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.name, err)
	}
	if !p.sawHeader {
		return nil, p.errf("missing 'p cnf' header")
	}

	p.closeImplicitExistentialBlock()
	p.formula.MaxVar = p.maxVar
	return &p.formula, nil
}

// closeImplicitExistentialBlock assigns every declared variable never
// named in an explicit prefix line to a trailing existential block,
// matching QDIMACS's convention that free variables are existential
// and innermost.
func (p *qdimacsParser) closeImplicitExistentialBlock() {
	var free []int32
	for v := int32(1); v <= int32(p.maxVar); v++ {
		if !p.seenVar[v] {
			free = append(free, v)
		}
	}
	if len(free) > 0 {
		p.formula.Prefix = append(p.formula.Prefix, qbf.Block{Kind: qbf.Existential, Vars: free})
	}
}

func (p *qdimacsParser) parseHeader(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[1] != "cnf" {
		return p.errf("malformed header %q, expected 'p cnf <vars> <clauses>'", line)
	}
	maxVar, err := strconv.Atoi(fields[2])
	if err != nil {
		return p.errf("invalid variable count %q: %v", fields[2], err)
	}
	numClauses, err := strconv.Atoi(fields[3])
	if err != nil {
		return p.errf("invalid clause count %q: %v", fields[3], err)
	}
	p.maxVar, p.numClauses, p.sawHeader = maxVar, numClauses, true
	return nil
}

// parseTerminatedInts parses a space-separated run of signed integers
// terminated by a literal 0, returning everything before the 0.
func (p *qdimacsParser) parseTerminatedInts(fields []string) ([]int32, error) {
	var out []int32
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, p.errf("invalid integer %q: %v", f, err)
		}
		if n == 0 {
			return out, nil
		}
		out = append(out, int32(n))
	}
	return nil, p.errf("line not terminated by 0")
}

func (p *qdimacsParser) checkClause(lits []int32) error {
	for _, l := range lits {
		v := l
		if v < 0 {
			v = -v
		}
		if v == 0 || int(v) > p.maxVar {
			return p.errf("literal %d out of range 1..%d", l, p.maxVar)
		}
	}
	return nil
}

// tautological reports whether lits contains both a variable and its
// negation, in which case the clause is trivially satisfied and is
// dropped rather than stored.
func tautological(lits []int32) bool {
	seen := make(map[int32]bool, len(lits))
	for _, l := range lits {
		if seen[-l] {
			return true
		}
		seen[l] = true
	}
	return false
}
