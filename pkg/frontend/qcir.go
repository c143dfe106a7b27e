package frontend

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gitrdm/qute/pkg/qbf"
)

// ParseQCIR reads a QCIR-format quantified circuit from r, Tseitin-
// encoding every gate into CNF clauses over a fresh auxiliary variable
// per gate. name is used only for error messages.
func ParseQCIR(r io.Reader, name string) (*qbf.Formula, error) {
	p := &qcirParser{name: name, scanner: bufio.NewScanner(r), gateVar: make(map[string]int32)}
	p.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return p.parse()
}

type qcirParser struct {
	name    string
	scanner *bufio.Scanner
	line    int

	nextVar   int32
	gateVar   map[string]int32
	auxiliary map[int32]bool
	formula   qbf.Formula
	output    string
	haveOut   bool
}

func (p *qcirParser) errf(format string, args ...any) error {
	return &qbf.ParseError{File: p.name, Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *qcirParser) parse() (*qbf.Formula, error) {
	p.auxiliary = make(map[int32]bool)

	for p.scanner.Scan() {
		p.line++
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, args, err := splitCall(line)
		if err != nil {
			return nil, p.errf("%v", err)
		}
		switch name {
		case "exists", "forall", "free":
			if err := p.declareBlock(name, args); err != nil {
				return nil, err
			}
		case "output":
			if len(args) != 1 {
				return nil, p.errf("output() takes exactly one argument")
			}
			p.output, p.haveOut = args[0], true
		default:
			// Any other call form is a gate definition: "name = op(args)".
			if err := p.declareGate(line); err != nil {
				return nil, err
			}
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.name, err)
	}
	if !p.haveOut {
		return nil, p.errf("missing output() declaration")
	}
	outVar, err := p.litVar(p.output)
	if err != nil {
		return nil, err
	}
	p.formula.Clauses = append(p.formula.Clauses, []int32{outVar})

	p.formula.MaxVar = int(p.nextVar - 1)
	p.formula.Auxiliary = p.auxiliary
	return &p.formula, nil
}

// splitCall parses a line of the form "name(a, b, c)" (used for
// exists/forall/free/output) or returns name="" for lines that are
// instead gate definitions ("g = op(...)").
func splitCall(line string) (name string, args []string, err error) {
	if strings.Contains(line, "=") && !strings.HasPrefix(line, "output") {
		return "", nil, nil
	}
	open := strings.IndexByte(line, '(')
	closeIdx := strings.LastIndexByte(line, ')')
	if open < 0 || closeIdx < open {
		return "", nil, fmt.Errorf("expected a '(...)' call, got %q", line)
	}
	name = strings.TrimSpace(line[:open])
	body := line[open+1 : closeIdx]
	if strings.TrimSpace(body) == "" {
		return name, nil, nil
	}
	for _, a := range strings.Split(body, ",") {
		args = append(args, strings.TrimSpace(a))
	}
	return name, args, nil
}

func (p *qcirParser) declareBlock(name string, args []string) error {
	kind := qbf.Existential
	if name == "forall" {
		kind = qbf.Universal
	}
	var vars []int32
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return p.errf("invalid variable %q in %s()", a, name)
		}
		v := int32(n)
		if v >= p.nextVar {
			p.nextVar = v + 1
		}
		vars = append(vars, v)
	}
	if name != "free" {
		p.formula.Prefix = append(p.formula.Prefix, qbf.Block{Kind: kind, Vars: vars})
	} else {
		// Free variables are existential from the solver's point of
		// view (never quantified by the circuit) but must still be
		// registered in some block; place them outermost.
		p.formula.Prefix = append([]qbf.Block{{Kind: qbf.Existential, Vars: vars}}, p.formula.Prefix...)
	}
	return nil
}

// litVar resolves a (possibly negated) gate or variable name token
// into a signed DIMACS-style literal.
func (p *qcirParser) litVar(tok string) (int32, error) {
	neg := int32(1)
	if strings.HasPrefix(tok, "-") {
		neg = -1
		tok = tok[1:]
	}
	if n, err := strconv.Atoi(tok); err == nil {
		return neg * int32(n), nil
	}
	v, ok := p.gateVar[tok]
	if !ok {
		return 0, p.errf("reference to undefined gate %q", tok)
	}
	return neg * v, nil
}

func (p *qcirParser) freshVar(name string) int32 {
	v := p.nextVar
	p.nextVar++
	p.gateVar[name] = v
	p.auxiliary[v] = true
	// Gate variables are existential and innermost: appended as their
	// own trailing singleton block, after every declared prefix block.
	p.formula.Prefix = append(p.formula.Prefix, qbf.Block{Kind: qbf.Existential, Vars: []int32{v}})
	return v
}

func (p *qcirParser) declareGate(line string) error {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return p.errf("expected 'name = op(args)', got %q", line)
	}
	gateName := strings.TrimSpace(line[:eq])
	op, args, err := splitCallStrict(line[eq+1:])
	if err != nil {
		return p.errf("%v", err)
	}
	g := p.freshVar(gateName)

	lits := make([]int32, len(args))
	for i, a := range args {
		l, err := p.litVar(a)
		if err != nil {
			return err
		}
		lits[i] = l
	}

	switch op {
	case "and":
		p.encodeAnd(g, lits)
	case "or":
		p.encodeOr(g, lits)
	case "xor":
		if len(lits) != 2 {
			return p.errf("xor() takes exactly two arguments")
		}
		p.encodeXor(g, lits[0], lits[1])
	case "ite":
		if len(lits) != 3 {
			return p.errf("ite() takes exactly three arguments")
		}
		p.encodeIte(g, lits[0], lits[1], lits[2])
	default:
		return p.errf("unknown gate operator %q", op)
	}
	return nil
}

func splitCallStrict(s string) (name string, args []string, err error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	closeIdx := strings.LastIndexByte(s, ')')
	if open < 0 || closeIdx < open {
		return "", nil, fmt.Errorf("expected 'op(...)', got %q", s)
	}
	name = strings.TrimSpace(s[:open])
	body := s[open+1 : closeIdx]
	if strings.TrimSpace(body) != "" {
		for _, a := range strings.Split(body, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}
	return name, args, nil
}

func (p *qcirParser) add(clause ...int32) {
	p.formula.Clauses = append(p.formula.Clauses, append([]int32(nil), clause...))
}

// encodeAnd Tseitin-encodes g <-> (l1 AND l2 AND ...).
func (p *qcirParser) encodeAnd(g int32, lits []int32) {
	all := append([]int32{g}, negateAll(lits)...)
	p.add(all...)
	for _, l := range lits {
		p.add(-g, l)
	}
}

// encodeOr Tseitin-encodes g <-> (l1 OR l2 OR ...).
func (p *qcirParser) encodeOr(g int32, lits []int32) {
	all := append([]int32{-g}, lits...)
	p.add(all...)
	for _, l := range lits {
		p.add(g, -l)
	}
}

// encodeXor Tseitin-encodes g <-> (a XOR b).
func (p *qcirParser) encodeXor(g, a, b int32) {
	p.add(-g, a, b)
	p.add(-g, -a, -b)
	p.add(g, a, -b)
	p.add(g, -a, b)
}

// encodeIte Tseitin-encodes g <-> (c AND t) OR (NOT c AND e).
func (p *qcirParser) encodeIte(g, c, t, e int32) {
	p.add(-g, -c, t)
	p.add(-g, c, e)
	p.add(g, -c, -t)
	p.add(g, c, -e)
	p.add(-t, -e, g, -c)
	p.add(-t, -e, g, c)
}

func negateAll(lits []int32) []int32 {
	out := make([]int32, len(lits))
	for i, l := range lits {
		out[i] = -l
	}
	return out
}
