package qbf

import (
	"bufio"
	"fmt"
	"io"
)

// Tracer receives a record of every constraint added to either store,
// input or learnt, forming a resolution proof that can be checked
// independently of the solver. Learnt records additionally carry the
// trail-order list of antecedent ids consumed by LearningEngine.Analyze,
// so a checker can replay each Q-resolution step.
type Tracer interface {
	Input(kind Kind, id uint32, lits []Literal)
	Learnt(kind Kind, id uint32, lits []Literal, antecedents []uint32)
	Final(answer Answer, id uint32)
}

// NullTracer discards every record; used whenever --trace is off so
// the rest of the solver never needs a nil check.
type NullTracer struct{}

func (NullTracer) Input(Kind, uint32, []Literal)            {}
func (NullTracer) Learnt(Kind, uint32, []Literal, []uint32) {}
func (NullTracer) Final(Answer, uint32)                     {}

// TextTracer writes a line-oriented trace to w: one line per
// constraint, "<id> <c|t> <lit...> 0 [<antecedent-id>...]", terminated
// by a final line "r <answer> <id>" naming the constraint that settled
// the answer (empty clause for UNSAT, empty term for SAT).
type TextTracer struct {
	w *bufio.Writer
}

// NewTextTracer wraps w in a buffered TextTracer. Callers must call
// Flush when the solver returns.
func NewTextTracer(w io.Writer) *TextTracer {
	return &TextTracer{w: bufio.NewWriter(w)}
}

func (t *TextTracer) kindTag(kind Kind) string {
	if kind == ClauseKind {
		return "c"
	}
	return "t"
}

func (t *TextTracer) Input(kind Kind, id uint32, lits []Literal) {
	fmt.Fprintf(t.w, "%d %s", id, t.kindTag(kind))
	for _, l := range lits {
		fmt.Fprintf(t.w, " %s", l)
	}
	fmt.Fprint(t.w, " 0\n")
}

func (t *TextTracer) Learnt(kind Kind, id uint32, lits []Literal, antecedents []uint32) {
	fmt.Fprintf(t.w, "%d %s", id, t.kindTag(kind))
	for _, l := range lits {
		fmt.Fprintf(t.w, " %s", l)
	}
	fmt.Fprint(t.w, " 0")
	for _, a := range antecedents {
		fmt.Fprintf(t.w, " %d", a)
	}
	fmt.Fprint(t.w, "\n")
}

func (t *TextTracer) Final(answer Answer, id uint32) {
	fmt.Fprintf(t.w, "r %s %d\n", answer, id)
}

// Flush writes any buffered trace output to the underlying writer.
func (t *TextTracer) Flush() error { return t.w.Flush() }
