package qbf

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Answer is the outcome of a Solve call.
type Answer uint8

const (
	Undef Answer = iota
	SAT
	UNSAT
)

func (a Answer) String() string {
	switch a {
	case SAT:
		return "SAT"
	case UNSAT:
		return "UNSAT"
	default:
		return "UNDEF"
	}
}

// Statistics is a snapshot of solver progress, read by --print-stats.
type Statistics struct {
	Decisions      int64
	Conflicts      int64
	Restarts       int64
	Propagations   int64
	LearntClauses  int64
	LearntTerms    int64
}

// Solver is the QCDCL driver: it owns every subsystem and coordinates
// propagate/analyze/backtrack/restart/cleanup, following a single
// decision loop over the dual clause/term representation. The
// propagator, learning engine and constraint-database manager hold a
// back-pointer to the owning Solver (wired once in NewSolver; the
// variable store and dependency manager hold none) rather than the
// Solver holding a generic registry, so
// cross-subsystem calls (the propagator calling into the dependency
// manager, the learning engine calling into the heuristic) are
// ordinary method calls.
type Solver struct {
	Options Options

	VS      *VariableStore
	DM      *DependencyManager
	Clauses *Store
	Terms   *Store
	Prop    *Propagator
	Heur    Heuristic
	Restart RestartScheduler
	DB      *ClauseDBManager
	ModelGen ModelGenerator
	Learn   *LearningEngine
	Tracer  Tracer

	Stats Statistics

	interrupted int32 // set via Interrupt(), read with atomic ops
	deadline    time.Time
	hasDeadline bool
}

// NewSolver builds a Solver from a parsed Formula and validated
// Options. tracer may be nil, in which case a NullTracer is used.
func NewSolver(f *Formula, opts Options, tracer Tracer) (*Solver, error) {
	if tracer == nil {
		tracer = NullTracer{}
	}

	s := &Solver{Options: opts, Tracer: tracer}

	s.VS = NewVariableStore()
	s.DM = NewDependencyManager(s.VS, opts.DependencyLearning, opts.RRS, opts.OOODecisions)

	kindOf := make([]Quantifier, f.MaxVar+1)
	blockOf := make([]int, f.MaxVar+1)
	for bi, b := range f.Prefix {
		for _, v := range b.Vars {
			kindOf[v] = b.Kind
			blockOf[v] = bi
		}
	}
	for v := int32(1); v <= int32(f.MaxVar); v++ {
		aux := f.Auxiliary != nil && f.Auxiliary[v]
		got := s.VS.Add(kindOf[v], aux, blockOf[v])
		if got != Var(v) {
			return nil, fmt.Errorf("qbf: variable %d missing from prefix", v)
		}
		s.DM.Grow(got)
	}

	tracing := opts.Trace
	s.Clauses = NewStore(ClauseKind, tracing)
	s.Terms = NewStore(TermKind, tracing)
	s.Prop = NewPropagator(s, opts.WatchedLiterals == 3)

	s.DM.SetStoreAccessor(func(occ occurrence, i int) (Literal, bool) {
		store := s.storeFor(occ.kind)
		if i >= store.Size(occ.ref) {
			return NoLiteral, false
		}
		return store.Lit(occ.ref, i), true
	})

	s.Heur = NewHeuristic(opts.Heuristic, f.MaxVar, opts.TieBreak, s.DM.OccurrenceCount)
	s.applyInitialPhases(f)
	s.Restart = NewRestartScheduler(opts)
	s.DB = NewClauseDBManager(s)
	s.Learn = NewLearningEngine(s)

	switch opts.ModelGen {
	case ModelGenWeighted:
		s.ModelGen = NewWeightedModelGenerator(s.VS, s.Clauses, s.weightedModelWeights(f))
	default:
		s.ModelGen = NewSimpleModelGenerator(s.VS)
	}

	for _, lits := range f.Clauses {
		s.loadConstraint(ClauseKind, lits)
	}
	for _, lits := range f.Terms {
		s.loadConstraint(TermKind, lits)
	}

	return s, nil
}

func (s *Solver) loadConstraint(kind Kind, signed []int32) {
	store := s.storeFor(kind)
	lits := make([]Literal, len(signed))
	for i, sl := range signed {
		v := Var(sl)
		if sl < 0 {
			v = Var(-sl)
		}
		lits[i] = MkLit(v, sl < 0)
	}
	ref := store.AddInput(lits)
	for _, l := range lits {
		s.DM.IndexOccurrence(l.Var(), ref, kind, l.Negated())
	}
	if len(lits) == 0 {
		return // caller (front-end) should have rejected an empty clause/term; guarded defensively
	}
	s.Prop.Watch(ref, kind)
	s.Tracer.Input(kind, store.ID(ref), lits)
}

// applyInitialPhases seeds every variable's saved polarity according
// to Options.Phase, before any decision is made.
func (s *Solver) applyInitialPhases(f *Formula) {
	for v := 1; v <= f.MaxVar; v++ {
		vv := Var(v)
		switch s.Options.Phase {
		case PhaseTrue:
			s.Heur.SetPhase(vv, true)
		case PhaseFalse:
			s.Heur.SetPhase(vv, false)
		case PhaseQType:
			s.Heur.SetPhase(vv, s.VS.Kind(vv) == Existential)
		default:
			// invjw/watcher/random all need per-constraint or per-search
			// state not yet available at load time; default to true and
			// let phase saving take over after the first few decisions.
			s.Heur.SetPhase(vv, true)
		}
	}
}

// weightedModelWeights derives a per-literal weight map for the
// weighted model generator from each variable's dependency-manager
// OppositeCost (the fraction of its occurrences entangled with a
// later, opposite-kind literal): the higher that cost, the more
// expensive it is to keep the variable's literal in the reported
// term, scaled and shaped by the ModelGen* options.
func (s *Solver) weightedModelWeights(f *Formula) map[Literal]float64 {
	weights := make(map[Literal]float64, f.MaxVar)
	for v := 1; v <= f.MaxVar; v++ {
		vv := Var(v)
		cost := s.DM.OppositeCost(vv)
		w := s.Options.ModelGenScale * math.Pow(1+cost, s.Options.ModelGenExponent)
		if s.VS.Kind(vv) == Universal {
			w *= s.Options.ModelGenUniversalPenalty
		}
		weights[MkLit(vv, false)] = w
		weights[MkLit(vv, true)] = w
	}
	return weights
}

func (s *Solver) storeFor(kind Kind) *Store {
	if kind == ClauseKind {
		return s.Clauses
	}
	return s.Terms
}

// onDependencyCandidate is passed to DependencyManager.NotifyAssigned;
// eligibility is recomputed fresh on every NextDecision call, so no
// heuristic state needs to change here.
func (s *Solver) onDependencyCandidate(Var) {}

func (s *Solver) isDecisionCandidate(v Var) bool {
	return s.DM.IsDecisionCandidate(v)
}

// Interrupt requests that Solve stop at the next opportunity and
// return (Undef, nil). Safe to call from a signal-handling goroutine.
func (s *Solver) Interrupt() { atomic.StoreInt32(&s.interrupted, 1) }

func (s *Solver) interruptedFlag() bool { return atomic.LoadInt32(&s.interrupted) != 0 }

// SetDeadline installs a wall-clock deadline; Solve checks it between
// decisions (not inside propagation, to keep the hot loop branch-free).
func (s *Solver) SetDeadline(d time.Time) {
	s.deadline = d
	s.hasDeadline = true
}

// Solve runs the QCDCL loop to completion, to the deadline, to
// ctx.Done(), or to an external Interrupt call, whichever comes
// first. A nil error with Answer == Undef means the search was cut
// short, not that anything went wrong.
func (s *Solver) Solve(ctx context.Context) (Answer, error) {
	for {
		if s.interruptedFlag() {
			return Undef, nil
		}
		select {
		case <-ctx.Done():
			return Undef, nil
		default:
		}
		if s.hasDeadline && !time.Now().Before(s.deadline) {
			return Undef, nil
		}

		conflict := s.Prop.Propagate()
		s.Stats.Propagations = s.Prop.stats.propagations
		if conflict.Has {
			s.Stats.Conflicts++
			result := s.Learn.Analyze(conflict)

			if result.Outcome == OutcomeDependencies {
				// An illegal merge was found: grow dep(culprit) and
				// retry resolution from scratch after backtracking to
				// before the culprit's own decision level, instead of
				// treating the clash as a don't-care and continuing to
				// resolve in the same pass.
				s.DM.LearnDependencies(result.Culprit, result.Clashing)
				s.backtrackTo(s.VS.Level(result.Culprit) - 1)
				s.Restart.OnConflict(0)
				s.DB.DecayActivity()
				if s.Restart.ShouldRestart() {
					s.Stats.Restarts++
					s.backtrackTo(0)
					s.Restart.OnRestart()
					s.Prop.RecheckParked()
				}
				continue
			}

			if result.BacktrackLevel == -1 {
				answer := UNSAT
				if result.Kind == TermKind {
					answer = SAT
				}
				id := s.storeFor(result.Kind).ID(result.Ref)
				s.Tracer.Final(answer, id)
				if answer == SAT && s.Options.Enumerate {
					s.blockCurrentModel()
					continue
				}
				return answer, nil
			}

			s.DB.BumpActivity(result.Kind, result.Ref)
			s.backtrackTo(result.BacktrackLevel)
			if result.Asserting {
				s.Prop.Enqueue(result.AssertingLit, Reason{Kind: result.Kind, Ref: result.Ref})
			}

			lbd := s.storeFor(result.Kind).LBD(result.Ref)
			s.Restart.OnConflict(lbd)
			s.DB.DecayActivity()
			if s.Restart.ShouldRestart() {
				s.Stats.Restarts++
				s.backtrackTo(0)
				s.Restart.OnRestart()
				s.Prop.RecheckParked()
			}
			continue
		}

		v, positive, ok := s.Heur.NextDecision(s.isDecisionCandidate)
		if !ok {
			return Undef, fmt.Errorf("qbf: no eligible decision variable with the formula not fully assigned")
		}
		s.Stats.Decisions++
		s.Prop.Enqueue(MkLit(v, !positive), DecisionReason)
	}
}

// backtrackTo undoes trail entries until VS.CurrentLevel() == level,
// saving each undone variable's phase and clearing the propagator's
// pending queue and the dependency manager's out-of-order markers for
// the levels given up.
func (s *Solver) backtrackTo(level int) {
	for s.VS.CurrentLevel() > level {
		lit := s.VS.UndoLast()
		s.Heur.NotifyUnassigned(lit.Var())
		s.Heur.SetPhase(lit.Var(), !lit.Negated())
	}
	s.Prop.Reset()
	s.DM.RestoreEligibility(int32(level + 1))
}

// blockCurrentModel adds a clause excluding the current existential
// decision assignment, taints and drops any learnt clause that
// assumed part of the excluded region, and restarts the search for
// the next model (--enumerate).
func (s *Solver) blockCurrentModel() {
	lits := make([]Literal, 0)
	for v := 1; v <= s.VS.NumVars(); v++ {
		vv := Var(v)
		if s.VS.Kind(vv) == Existential && s.VS.IsAssigned(vv) {
			lits = append(lits, MkLit(vv, s.VS.Polarity(vv)))
		}
	}
	ref := s.Clauses.AddLearnt(lits)
	s.Clauses.SetLBD(ref, len(lits))
	for _, l := range lits {
		s.DM.IndexOccurrence(l.Var(), ref, ClauseKind, l.Negated())
	}
	s.Prop.Watch(ref, ClauseKind)
	s.Tracer.Learnt(ClauseKind, s.Clauses.ID(ref), lits, nil)
	s.DB.TaintForEnumeration(ClauseKind, ref)

	s.backtrackTo(0)
}
