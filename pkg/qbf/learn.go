package qbf

// LearningEngine implements Q-resolution analysis of a conflict,
// dual across both constraint kinds: a falsified clause is resolved
// back to its first unique implication point among existential
// literals (with universal reduction), and a satisfied term is
// resolved back to its first unique implication point among universal
// literals (with existential reduction). The two are the same
// algorithm with Kind and Quantifier swapped throughout.
type LearningEngine struct {
	sol *Solver
}

// NewLearningEngine creates a learning engine bound to sol.
func NewLearningEngine(sol *Solver) *LearningEngine {
	return &LearningEngine{sol: sol}
}

// LearningOutcome distinguishes the two things Analyze can hand back
// to the driver: a constraint ready to add to the database, or a set
// of dependencies an illegal merge proved must be learned before
// resolution can continue.
type LearningOutcome uint8

const (
	OutcomeLearned LearningOutcome = iota
	OutcomeDependencies
)

// LearningResult describes the outcome of analyzing one conflict.
type LearningResult struct {
	Outcome LearningOutcome

	// Populated when Outcome == OutcomeLearned.
	Ref            Ref
	Kind           Kind
	BacktrackLevel int     // -1 means the search is over (empty constraint learned)
	AssertingLit   Literal // to be enqueued once backtracked, only if Asserting
	Asserting      bool    // false for a pseudo-asserting constraint: nothing to enqueue

	// Populated when Outcome == OutcomeDependencies: the driver must
	// ask the dependency manager to learn Clashing against Culprit and
	// backtrack to before Culprit's own decision level, without
	// enqueuing anything, then re-propagate.
	Culprit  Var
	Clashing []Literal
}

// primaryQuant returns the quantifier kind a constraint of kind
// propagates on: existential for clauses, universal for terms.
func primaryQuant(kind Kind) Quantifier {
	if kind == ClauseKind {
		return Existential
	}
	return Universal
}

// leftOfPivot reports whether a sits strictly to the left of pivot in
// the quantifier prefix: a shallower block, or the same block and a
// smaller variable id (variables within a block are numbered in
// prefix-declaration order, so id breaks ties consistently with
// block).
func leftOfPivot(a, pivot Var, vs *VariableStore) bool {
	ia, ip := vs.Info(a), vs.Info(pivot)
	if ia.Block != ip.Block {
		return ia.Block < ip.Block
	}
	return a < pivot
}

// Analyze resolves the conflicting constraint back to its asserting
// constraint, following the resolvent a literal at a time from the
// most recently assigned primary still present in it. An illegal
// merge — a reduce-kind literal clashing with its negation already in
// the resolvent, to the left of the pivot being resolved on — stops
// resolution immediately and hands the clash back to the driver
// instead of silently discarding it as a don't-care literal: the
// driver must grow the dependency manager's dep(pivot) and backtrack
// before the pivot's own decision level before resolution can be
// retried.
func (e *LearningEngine) Analyze(c Conflict) LearningResult {
	vs := e.sol.VS
	dm := e.sol.DM
	store := e.sol.storeFor(c.Kind)
	primary := primaryQuant(c.Kind)
	reduceKind := primary.Opposite()
	currentLevel := vs.CurrentLevel()

	resolvent := make(map[Var]Literal)
	seenAtCurrent := 0
	bumped := make([]Var, 0, 8)
	antecedentIDs := []uint32{store.ID(c.Ref)}

	addLit := func(l Literal) {
		v := l.Var()
		if _, ok := resolvent[v]; ok {
			return
		}
		resolvent[v] = l
		bumped = append(bumped, v)
		if vs.Kind(v) == primary && vs.Level(v) == currentLevel {
			seenAtCurrent++
		}
	}

	for i := 0; i < store.Size(c.Ref); i++ {
		addLit(store.Lit(c.Ref, i))
	}

	trailIdx := vs.TrailLen() - 1
	for seenAtCurrent > 1 && trailIdx >= 0 {
		lit := vs.TrailAt(trailIdx)
		trailIdx--
		v := lit.Var()
		cur, ok := resolvent[v]
		// The resolvent holds v's falsified (not-yet-satisfied) literal,
		// the negation of whatever the trail asserted true; a variable is
		// only a pop candidate when the resolvent still carries that
		// negated form at the current level.
		if !ok || cur != lit.Negate() || vs.Level(v) != currentLevel {
			continue
		}
		if vs.Kind(v) != primary {
			continue
		}
		reason := vs.ReasonOf(v)
		if reason.Decision {
			// v was decided out of prefix order and popped before the
			// resolvent finished asserting: emit the current
			// (pseudo-asserting) resolvent rather than resolving
			// further, and let the driver backtrack to just after the
			// highest remaining level among the other primaries.
			return e.finishPseudoAssertion(c.Kind, resolvent, antecedentIDs, bumped, v, primary, vs)
		}
		if reason.Kind != c.Kind {
			continue
		}

		delete(resolvent, v)
		seenAtCurrent--

		antecedent := e.sol.storeFor(reason.Kind)
		antecedentIDs = append(antecedentIDs, antecedent.ID(reason.Ref))

		var clashing []Literal
		for i := 0; i < antecedent.Size(reason.Ref); i++ {
			al := antecedent.Lit(reason.Ref, i)
			av := al.Var()
			if av == v {
				continue
			}
			if existing, ok := resolvent[av]; ok {
				if existing == al {
					continue
				}
				if vs.Kind(av) == reduceKind && leftOfPivot(av, v, vs) {
					clashing = append(clashing, al)
				}
				// Otherwise a primary opposite-polarity clash: the
				// eventual learned constraint is tautological; the
				// existing literal is kept and the new one dropped.
				continue
			}
			addLit(al)
		}

		if len(clashing) > 0 {
			if e.sol.Options.RRS != RRSOff {
				clashing = dm.FilterIndependentVariables(v, clashing)
			}
			if len(clashing) > 0 {
				return LearningResult{Outcome: OutcomeDependencies, Culprit: v, Clashing: clashing}
			}
			// RRS proved every clashing variable independent of the
			// pivot after all: no illegal merge, fall through to keep
			// resolving.
		}
	}

	reduceVars(resolvent, vs, dm, primary, reduceKind)

	e.sol.Heur.Bump(bumped)
	e.sol.Heur.Decay()

	if len(resolvent) == 0 {
		ref := e.addLearnt(c.Kind, nil, antecedentIDs)
		return LearningResult{Outcome: OutcomeLearned, Ref: ref, Kind: c.Kind, BacktrackLevel: -1}
	}

	lits := make([]Literal, 0, len(resolvent))
	var assertingLit Literal
	assertingLevel := -1
	secondLevel := 0
	for v, l := range resolvent {
		lits = append(lits, l)
		lvl := vs.Level(v)
		if vs.Kind(v) == primary && lvl == currentLevel && currentLevel > 0 {
			assertingLit = l
			assertingLevel = lvl
			continue
		}
		if lvl > secondLevel {
			secondLevel = lvl
		}
	}
	if assertingLevel == -1 {
		// Every primary-kind literal already sat below the current
		// level, or the conflict arose at level 0 (where it settles
		// the answer): the constraint is already asserting at its own
		// highest level. Treat the globally highest-level literal as
		// the one to (re)propagate and backtrack just below it.
		top := 0
		for v := range resolvent {
			if lvl := vs.Level(v); lvl > top {
				top, assertingLit = lvl, resolvent[v]
			}
		}
		if top == 0 {
			ref := e.addLearnt(c.Kind, nil, antecedentIDs)
			return LearningResult{Outcome: OutcomeLearned, Ref: ref, Kind: c.Kind, BacktrackLevel: -1}
		}
		secondLevel = 0
		for v := range resolvent {
			if l := resolvent[v]; l != assertingLit {
				if lvl := vs.Level(v); lvl > secondLevel {
					secondLevel = lvl
				}
			}
		}
	}

	ref := e.addLearnt(c.Kind, lits, antecedentIDs)
	return LearningResult{Outcome: OutcomeLearned, Ref: ref, Kind: c.Kind, BacktrackLevel: secondLevel, AssertingLit: assertingLit, Asserting: true}
}

// finishPseudoAssertion emits the resolvent as-is (including the
// out-of-order decision literal poppedDecision, which was never
// resolved away since a decision has no antecedent to resolve with)
// as a pseudo-asserting learned constraint, per the three-watcher /
// out-of-order-decision case of the learning algorithm.
func (e *LearningEngine) finishPseudoAssertion(kind Kind, resolvent map[Var]Literal, antecedentIDs []uint32, bumped []Var, poppedDecision Var, primary Quantifier, vs *VariableStore) LearningResult {
	lits := make([]Literal, 0, len(resolvent))
	backtrack := 0
	for v, l := range resolvent {
		lits = append(lits, l)
		if v == poppedDecision {
			continue
		}
		if vs.Kind(v) == primary {
			if lvl := vs.Level(v); lvl > backtrack {
				backtrack = lvl
			}
		}
	}
	e.sol.Heur.Bump(bumped)
	e.sol.Heur.Decay()
	ref := e.addLearnt(kind, lits, antecedentIDs)
	return LearningResult{Outcome: OutcomeLearned, Ref: ref, Kind: kind, BacktrackLevel: backtrack + 1}
}

// reduceVars repeatedly drops reduceKind-quantified literals that no
// remaining primary-quantified literal depends on, per universal
// (clause) / existential (term) reduction. The dependency query goes
// through DependsOnRRS so that RRSFull strengthens this reduction with
// the resolution-path refinement instead of only narrowing
// dependency-learning candidates (RRSFilter's scope).
func reduceVars(resolvent map[Var]Literal, vs *VariableStore, dm *DependencyManager, primary, reduceKind Quantifier) {
	for {
		changed := false
		for v := range resolvent {
			if vs.Kind(v) != reduceKind {
				continue
			}
			depended := false
			for v2 := range resolvent {
				if vs.Kind(v2) == primary && dm.DependsOnRRS(v2, v) {
					depended = true
					break
				}
			}
			if !depended {
				delete(resolvent, v)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// addLearnt inserts a newly derived constraint into the appropriate
// store, computes its LBD, indexes its literals for RRS, installs
// watchers for it (skipped for the empty constraint, which needs
// none), and emits a trace record. An empty lits slice represents the
// terminal empty clause/term that settles the answer.
func (e *LearningEngine) addLearnt(kind Kind, lits []Literal, antecedents []uint32) Ref {
	store := e.sol.storeFor(kind)
	ref := store.AddLearnt(lits)

	levels := make(map[int]bool, len(lits))
	for _, l := range lits {
		levels[e.sol.VS.Level(l.Var())] = true
	}
	store.SetLBD(ref, len(levels))

	for _, l := range lits {
		e.sol.DM.IndexOccurrence(l.Var(), ref, kind, l.Negated())
	}
	if len(lits) > 0 {
		e.sol.Prop.Watch(ref, kind)
	}
	if kind == ClauseKind {
		e.sol.Stats.LearntClauses++
	} else {
		e.sol.Stats.LearntTerms++
	}
	e.sol.DB.NotifyLearnt(kind, ref)
	e.sol.Tracer.Learnt(kind, store.ID(ref), lits, antecedents)
	return ref
}
