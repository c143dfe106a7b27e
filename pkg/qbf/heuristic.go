package qbf

import (
	"math"
	"math/rand"
)

// Heuristic selects the next decision variable and tracks whatever
// bookkeeping a particular branching strategy needs (activity scores,
// move-to-front order, or a learned scoring model). Every
// implementation must only ever return a variable for which
// eligible(v) holds, since eligibility already encodes prefix order,
// out-of-order exceptions, and the current assignment.
type Heuristic interface {
	// NextDecision returns the next branching variable and the
	// polarity to try first, or ok=false if no eligible variable
	// remains (the caller should then treat the instance as solved
	// along this branch).
	NextDecision(eligible func(Var) bool) (v Var, positive bool, ok bool)

	// NotifyAssigned and NotifyUnassigned let the heuristic maintain
	// move-to-front or search-pointer state as the trail grows and
	// shrinks.
	NotifyAssigned(v Var)
	NotifyUnassigned(v Var)

	// Bump rewards every variable touched by a just-learned
	// constraint; Decay periodically shrinks every score so recent
	// conflicts dominate (VSIDS/SGDB) or resets nothing (VMTF, which
	// has no decay).
	Bump(vs []Var)
	Decay()

	// SetPhase/Phase record and recall the saved polarity for a
	// variable between decisions (phase saving).
	SetPhase(v Var, positive bool)
	Phase(v Var) bool
}

// HeuristicKind selects a Heuristic implementation.
type HeuristicKind uint8

const (
	HeuristicVMTF HeuristicKind = iota
	HeuristicVSIDS
	HeuristicSGDB
)

// NewHeuristic constructs the heuristic selected by kind, sized for n
// variables (1-indexed, like VariableStore). tieBreak and occCount are
// only consulted by VSIDS, which is the only implementation whose
// ranking produces ties often enough to need one; occCount may be nil
// if the caller has no occurrence index yet (ties then always fall
// back to lowest variable id).
func NewHeuristic(kind HeuristicKind, n int, tieBreak TieBreakKind, occCount func(Var) int) Heuristic {
	switch kind {
	case HeuristicVSIDS:
		return newVSIDS(n, tieBreak, occCount)
	case HeuristicSGDB:
		return newSGDB(n)
	default:
		return newVMTF(n)
	}
}

// --- VMTF -------------------------------------------------------------

// vmtf implements move-to-front branching (Ryan's VMTF as adapted by
// MiniSat-family solvers): variables form a doubly linked list in
// most-recently-bumped-first order, and a search pointer remembers how
// far into the list the last scan got, so a decision after a run of
// propagations does not re-scan variables known to be assigned.
type vmtf struct {
	next, prev []Var
	head       Var
	search     Var
	timestamp  []uint64
	clock      uint64
	phase      []bool
}

func newVMTF(n int) *vmtf {
	h := &vmtf{
		next:      make([]Var, n+1),
		prev:      make([]Var, n+1),
		timestamp: make([]uint64, n+1),
		phase:     make([]bool, n+1),
	}
	for v := 1; v <= n; v++ {
		h.next[v] = Var(v + 1)
		h.prev[v] = Var(v - 1)
	}
	if n > 0 {
		h.next[n] = NoVar
		h.head = Var(1)
		h.search = Var(1)
	}
	return h
}

func (h *vmtf) unlink(v Var) {
	if h.prev[v] != NoVar {
		h.next[h.prev[v]] = h.next[v]
	} else {
		h.head = h.next[v]
	}
	if h.next[v] != NoVar {
		h.prev[h.next[v]] = h.prev[v]
	}
}

func (h *vmtf) pushFront(v Var) {
	h.prev[v] = NoVar
	h.next[v] = h.head
	if h.head != NoVar {
		h.prev[h.head] = v
	}
	h.head = v
	h.search = v
}

func (h *vmtf) Bump(vars []Var) {
	h.clock++
	for _, v := range vars {
		if h.timestamp[v] >= h.clock {
			continue
		}
		h.timestamp[v] = h.clock
		h.unlink(v)
		h.pushFront(v)
	}
}

func (h *vmtf) Decay() {}

func (h *vmtf) NotifyAssigned(v Var)   {}
func (h *vmtf) NotifyUnassigned(v Var) {}

func (h *vmtf) NextDecision(eligible func(Var) bool) (Var, bool, bool) {
	for v := h.search; v != NoVar; v = h.next[v] {
		h.search = v
		if eligible(v) {
			return v, h.phase[v], true
		}
	}
	for v := h.head; v != NoVar; v = h.next[v] {
		if eligible(v) {
			h.search = v
			return v, h.phase[v], true
		}
	}
	return NoVar, false, false
}

func (h *vmtf) SetPhase(v Var, positive bool) { h.phase[v] = positive }
func (h *vmtf) Phase(v Var) bool              { return h.phase[v] }

// --- VSIDS --------------------------------------------------------------

// vsids scores every variable by exponentially decaying activity and
// picks the eligible variable with the highest score, breaking ties
// through preferOnTie. Variables are scanned linearly rather than through a
// binary heap; at the scale QBF instances reach in practice (hundreds
// to low thousands of variables) this is simpler and fast enough, and
// it keeps the eligibility predicate — which already does nontrivial
// work for dependency/OOO checks — as the only filter the picker needs
// to consult.
type vsids struct {
	activity []float64
	inc      float64
	decay    float64
	phase    []bool

	tieBreak TieBreakKind
	occCount func(Var) int
	rng      *rand.Rand
}

func newVSIDS(n int, tieBreak TieBreakKind, occCount func(Var) int) *vsids {
	h := &vsids{
		activity: make([]float64, n+1),
		inc:      1.0,
		decay:    0.95,
		phase:    make([]bool, n+1),
		tieBreak: tieBreak,
		occCount: occCount,
	}
	if tieBreak == TieBreakRandom {
		h.rng = rand.New(rand.NewSource(1))
	}
	return h
}

func (h *vsids) Bump(vars []Var) {
	for _, v := range vars {
		h.activity[v] += h.inc
	}
	const rescaleBound = 1e100
	if h.inc > rescaleBound {
		for i := range h.activity {
			h.activity[i] /= rescaleBound
		}
		h.inc /= rescaleBound
	}
}

func (h *vsids) Decay() { h.inc /= h.decay }

func (h *vsids) NotifyAssigned(v Var)   {}
func (h *vsids) NotifyUnassigned(v Var) {}

func (h *vsids) NextDecision(eligible func(Var) bool) (Var, bool, bool) {
	best := NoVar
	bestScore := -1.0
	for v := 1; v < len(h.activity); v++ {
		vv := Var(v)
		if !eligible(vv) {
			continue
		}
		switch {
		case best == NoVar || h.activity[v] > bestScore:
			best, bestScore = vv, h.activity[v]
		case h.activity[v] == bestScore && h.preferOnTie(vv, best):
			best = vv
		}
	}
	if best == NoVar {
		return NoVar, false, false
	}
	return best, h.phase[best], true
}

// preferOnTie decides, when candidate and current carry equal
// activity, whether candidate should replace current as the leading
// pick: by occurrence count (more primary/secondary occurrences wins,
// per §4.7) or, for TieBreakRandom, a coin flip from a fixed-seed RNG
// so a run stays reproducible.
func (h *vsids) preferOnTie(candidate, current Var) bool {
	if h.tieBreak == TieBreakRandom {
		return h.rng.Intn(2) == 0
	}
	if h.occCount == nil {
		return false
	}
	return h.occCount(candidate) > h.occCount(current)
}

func (h *vsids) SetPhase(v Var, positive bool) { h.phase[v] = positive }
func (h *vsids) Phase(v Var) bool              { return h.phase[v] }

// --- SGDB -----------------------------------------------------------------

// sgdb is an online logistic-regression decision heuristic: each
// variable carries a small feature vector (current VSIDS-style
// activity, a bias term, and a normalized recency of last conflict
// involvement), and a single shared weight vector is updated by one
// step of stochastic gradient descent after every conflict toward the
// label "this variable participated in the learned constraint." The
// learned weights replace a hand-tuned activity bump/decay schedule
// with one fit continuously during search.
type sgdb struct {
	features [][3]float64 // [activity, recency, bias=1]
	weights  [3]float64
	lr       float64
	tick     float64
	phase    []bool
}

func newSGDB(n int) *sgdb {
	s := &sgdb{
		features: make([][3]float64, n+1),
		weights:  [3]float64{1, 0.5, 0},
		lr:       0.02,
		phase:    make([]bool, n+1),
	}
	for i := range s.features {
		s.features[i][2] = 1
	}
	return s
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func (s *sgdb) score(v Var) float64 {
	f := s.features[v]
	return s.weights[0]*f[0] + s.weights[1]*f[1] + s.weights[2]*f[2]
}

// Bump is called with the variables touched by a newly learned
// constraint: it refreshes their recency feature and takes one SGD
// step labeling them positive, and (implicitly, via Decay) lets every
// variable's recency feature fade so the model keeps tracking the
// current region of search rather than the whole history.
func (s *sgdb) Bump(vars []Var) {
	s.tick++
	for _, v := range vars {
		s.features[v][0] += 1
		s.features[v][1] = 1
		pred := sigmoid(s.score(v))
		grad := 1 - pred // label 1: this variable was in the conflict side
		s.weights[0] += s.lr * grad * s.features[v][0]
		s.weights[1] += s.lr * grad * s.features[v][1]
		s.weights[2] += s.lr * grad * s.features[v][2]
	}
}

func (s *sgdb) Decay() {
	for i := range s.features {
		s.features[i][0] *= 0.97
		s.features[i][1] *= 0.9
	}
}

func (s *sgdb) NotifyAssigned(v Var)   {}
func (s *sgdb) NotifyUnassigned(v Var) {}

func (s *sgdb) NextDecision(eligible func(Var) bool) (Var, bool, bool) {
	best := NoVar
	bestScore := math.Inf(-1)
	for v := 1; v < len(s.features); v++ {
		vv := Var(v)
		if !eligible(vv) {
			continue
		}
		if sc := s.score(vv); sc > bestScore {
			best, bestScore = vv, sc
		}
	}
	if best == NoVar {
		return NoVar, false, false
	}
	return best, s.phase[best], true
}

func (s *sgdb) SetPhase(v Var, positive bool) { s.phase[v] = positive }
func (s *sgdb) Phase(v Var) bool              { return s.phase[v] }
