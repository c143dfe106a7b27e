package qbf

// watchEntry is one entry in a literal's watch list: the constraint
// being watched plus a cached "blocker" literal used as a cheap
// short-circuit (if the blocker already disables the constraint, the
// constraint can be skipped without touching the arena at all).
type watchEntry struct {
	ref     Ref
	kind    Kind
	blocker Literal
}

// Propagator implements watched-literal unit propagation under the
// quantifier prefix: a clause's first watcher is always an existential
// primary when one is available, and its second watcher is either
// another unassigned primary or, once only one primary remains
// unassigned, a universal secondary the primary depends on. Terms are
// the exact dual with polarity flipped (existential/universal roles
// swapped, disabling polarity false instead of true).
type Propagator struct {
	sol *Solver

	// watch[lit.Index()] holds every constraint currently watching lit.
	watch [][]watchEntry

	// watch3[lit.Index()] holds the blocker watch of every 3-watcher
	// constraint whose two primary watchers both remain unassigned:
	// the third watched literal is a secondary the constraint depends
	// on, tracked purely to detect the pseudo-unit case (§4.4) when it
	// falls false before either primary is decided. Unused (stays
	// nil/empty) in 2-watcher mode.
	watch3 [][]watchEntry

	queue []Literal // LIFO pending-literal queue

	threeWatchers bool      // 2- vs 3-watcher mode (see §4.4)
	parked        [2][]Ref  // constraints with <2 legal watchers at load, by Kind

	stats struct {
		propagations int64
	}
}

// NewPropagator creates a propagator bound to sol. sol.VS must already
// have every variable registered.
func NewPropagator(sol *Solver, threeWatchers bool) *Propagator {
	n := sol.VS.NumVars()
	return &Propagator{
		sol:           sol,
		watch:         make([][]watchEntry, 2*(n+1)),
		threeWatchers: threeWatchers,
	}
}

func (p *Propagator) store(kind Kind) *Store {
	if kind == ClauseKind {
		return p.sol.Clauses
	}
	return p.sol.Terms
}

// disablingValue reports the truth value a literal must hold to
// disable (satisfy, for clauses; falsify-enough-to-stop-interest, for
// terms) a constraint of the given kind.
func disablingValue(kind Kind) bool { return kind.Disabling() }

// isPrimary reports whether l is a "primary" literal for a constraint
// of the given kind: existential in a clause, universal in a term.
func isPrimary(vs *VariableStore, l Literal, kind Kind) bool {
	k := vs.Kind(l.Var())
	if kind == ClauseKind {
		return k == Existential
	}
	return k == Universal
}

// Watch installs the initial watched literals for a freshly added
// constraint, following the rules in §4.4: watcher 0 is a primary if
// one exists; watcher 1 is another primary if two exist, else a
// secondary the primary depends on. In 3-watcher mode, a constraint
// that gets two primary watchers also gets a third, blocker watch on
// a secondary literal (see placeBlockerWatch) so out-of-order
// eligibility can be revoked once that blocker falls false ahead of
// either primary. Constraints with fewer than two legal watchers are
// parked and retried on every restart.
func (p *Propagator) Watch(ref Ref, kind Kind) {
	store := p.store(kind)
	n := store.Size(ref)
	if n == 0 {
		return // the empty constraint is handled as an immediate conflict by the caller
	}
	if n == 1 {
		p.parked[kind] = append(p.parked[kind], ref)
		p.addWatch(store.Lit(ref, 0), ref, kind, store.Lit(ref, 0))
		return
	}

	w0, w1, ok := p.pickInitialWatchers(store, ref, kind)
	if !ok {
		p.parked[kind] = append(p.parked[kind], ref)
		return
	}
	p.placeWatchers(store, ref, kind, w0, w1)
}

// pickInitialWatchers finds two index positions suitable as initial
// watchers, preferring two unassigned primaries, then one primary and
// one secondary the primary depends on, then any two unassigned
// literals as a fallback for constraints loaded before every
// dependency is known (re-validated on first propagation).
func (p *Propagator) pickInitialWatchers(store *Store, ref Ref, kind Kind) (i0, i1 int, ok bool) {
	n := store.Size(ref)
	vs := p.sol.VS
	firstPrimary, secondPrimary := -1, -1
	firstSecondary := -1
	anyUnassigned := -1
	for i := 0; i < n; i++ {
		l := store.Lit(ref, i)
		if val, assigned := vs.LiteralValue(l); assigned && val == disablingValue(kind) {
			return i, secondWatcherOf(i, n), true // already satisfied; any second slot works
		}
		if vs.IsAssigned(l.Var()) {
			continue
		}
		if anyUnassigned == -1 {
			anyUnassigned = i
		}
		if isPrimary(vs, l, kind) {
			if firstPrimary == -1 {
				firstPrimary = i
			} else if secondPrimary == -1 {
				secondPrimary = i
			}
		} else if firstSecondary == -1 {
			firstSecondary = i
		}
	}
	switch {
	case firstPrimary != -1 && secondPrimary != -1:
		return firstPrimary, secondPrimary, true
	case firstPrimary != -1 && firstSecondary != -1:
		return firstPrimary, firstSecondary, true
	case firstPrimary != -1 && anyUnassigned != -1 && anyUnassigned != firstPrimary:
		return firstPrimary, anyUnassigned, true
	default:
		return 0, 0, false
	}
}

func secondWatcherOf(i, n int) int {
	if i == 0 {
		return 1 % n
	}
	return 0
}

func (p *Propagator) placeWatchers(store *Store, ref Ref, kind Kind, i0, i1 int) {
	store.SwapLits(ref, 0, i0)
	if i1 == 0 {
		i1 = i0
	}
	store.SwapLits(ref, 1, i1)
	l0, l1 := store.Lit(ref, 0), store.Lit(ref, 1)
	p.addWatch(l0, ref, kind, l1)
	p.addWatch(l1, ref, kind, l0)

	if p.threeWatchers && isPrimary(p.sol.VS, l0, kind) && isPrimary(p.sol.VS, l1, kind) {
		p.placeBlockerWatch(store, ref, kind)
	}
}

// placeBlockerWatch installs the third watch slot for a constraint
// whose two primary watchers are both unassigned: the first unassigned
// secondary literal beyond the two primaries becomes the blocker,
// watched so propagateBlockers can detect the pseudo-unit case. A
// constraint with no secondary literal (pure-primary) has nothing to
// watch here and is skipped.
func (p *Propagator) placeBlockerWatch(store *Store, ref Ref, kind Kind) {
	vs := p.sol.VS
	n := store.Size(ref)
	for i := 2; i < n; i++ {
		l := store.Lit(ref, i)
		if !isPrimary(vs, l, kind) {
			p.addWatch3(l, ref, kind)
			return
		}
	}
}

func (p *Propagator) addWatch3(l Literal, ref Ref, kind Kind) {
	idx := l.Index()
	for len(p.watch3) <= idx {
		p.watch3 = append(p.watch3, nil)
	}
	p.watch3[idx] = append(p.watch3[idx], watchEntry{ref: ref, kind: kind, blocker: l})
}

func (p *Propagator) addWatch(l Literal, ref Ref, kind Kind, blocker Literal) {
	idx := l.Index()
	for len(p.watch) <= idx {
		p.watch = append(p.watch, nil)
	}
	p.watch[idx] = append(p.watch[idx], watchEntry{ref: ref, kind: kind, blocker: blocker})
}

func (p *Propagator) removeWatch(l Literal, ref Ref) {
	idx := l.Index()
	list := p.watch[idx]
	for i, e := range list {
		if e.ref == ref {
			list[i] = list[len(list)-1]
			p.watch[idx] = list[:len(list)-1]
			return
		}
	}
}

// Enqueue pushes a forced literal onto the propagation queue and
// records its assignment. It returns false if the variable is already
// assigned to the opposite polarity (an inconsistency the caller must
// treat as an immediate conflict).
func (p *Propagator) Enqueue(lit Literal, reason Reason) bool {
	vs := p.sol.VS
	if vs.IsAssigned(lit.Var()) {
		val, _ := vs.LiteralValue(lit)
		return val
	}
	vs.Assign(lit, reason)
	p.queue = append(p.queue, lit)
	p.sol.DM.NotifyAssigned(lit.Var(), p.sol.onDependencyCandidate)
	p.sol.Heur.NotifyAssigned(lit.Var())
	return true
}

// Conflict is the outcome of a saturated propagation: either "none",
// or a constraint of Kind that is falsified (clause) / satisfied
// (term, meaning the universal player has already won along this
// term) under the current assignment.
type Conflict struct {
	Ref  Ref
	Kind Kind
	Has  bool
}

// Propagate runs watched-literal propagation to a fixed point. If
// every variable becomes assigned with no conflict, it asks the model
// generator for an initial satisfied term, inserts it as a learnt
// (and immediately deletable) term, and reports it as the conflict of
// TermKind — since a satisfied term is, dually, a "conflict" that
// drives learning to produce the SAT answer.
func (p *Propagator) Propagate() Conflict {
	for len(p.queue) > 0 {
		lit := p.queue[len(p.queue)-1]
		p.queue = p.queue[:len(p.queue)-1]

		falseLit := lit.Negate()
		for _, kind := range [2]Kind{ClauseKind, TermKind} {
			if c := p.propagateKind(falseLit, kind); c.Has {
				return c
			}
			p.propagateBlockers(falseLit, kind)
		}
	}
	if p.sol.VS.AllAssigned() {
		return p.sealSolution()
	}
	return Conflict{}
}

// propagateKind re-examines every constraint of kind watching falseLit
// (the literal that just became false, i.e. whose negation was
// enqueued), following or replacing watchers as needed.
func (p *Propagator) propagateKind(falseLit Literal, kind Kind) Conflict {
	idx := falseLit.Index()
	if idx >= len(p.watch) {
		return Conflict{}
	}
	list := p.watch[idx]
	store := p.store(kind)
	kept := list[:0]

	for i := 0; i < len(list); i++ {
		e := list[i]
		if e.kind != kind {
			kept = append(kept, e)
			continue
		}
		if val, assigned := p.sol.VS.LiteralValue(e.blocker); assigned && val == disablingValue(kind) {
			kept = append(kept, e)
			continue
		}

		newBlocker, replacement, unitLit, conflict := p.refreshWatch(store, e.ref, kind, falseLit)
		switch {
		case conflict:
			p.watch[idx] = append(kept, list[i+1:]...)
			return Conflict{Ref: e.ref, Kind: kind, Has: true}
		case replacement != NoLiteral:
			p.addWatch(replacement, e.ref, kind, newBlocker)
			// dropped from this list: falseLit is no longer watched
		case unitLit != NoLiteral:
			kept = append(kept, watchEntry{ref: e.ref, kind: kind, blocker: newBlocker})
			p.stats.propagations++
			if !p.Enqueue(unitLit, Reason{Kind: kind, Ref: e.ref}) {
				p.watch[idx] = append(kept, list[i+1:]...)
				return Conflict{Ref: e.ref, Kind: kind, Has: true}
			}
		default:
			kept = append(kept, e)
		}
	}
	p.watch[idx] = kept
	return Conflict{}
}

// refreshWatch finds a replacement watcher for the constraint at ref
// now that falseLit has become disqualified as a watcher, following
// the two-watcher invariant of §4.4. At most one of (replacement,
// unitLit) is non-zero, and conflict is true only when neither watcher
// can be replaced and no primary remains unassigned.
func (p *Propagator) refreshWatch(store *Store, ref Ref, kind Kind, falseLit Literal) (newBlocker, replacement, unitLit Literal, conflict bool) {
	vs := p.sol.VS
	n := store.Size(ref)

	// Determine which watcher slot (0 or 1) held falseLit; canonicalize
	// so slot 0 is the disqualified one.
	if store.Lit(ref, 0) != falseLit {
		store.SwapLits(ref, 0, 1)
	}
	other := store.Lit(ref, 1)

	if val, assigned := vs.LiteralValue(other); assigned && val == disablingValue(kind) {
		return other, NoLiteral, NoLiteral, false
	}

	// Scan the rest of the constraint for a legal replacement.
	bestPrimary, bestSecondary := -1, -1
	otherIsPrimary := isPrimary(vs, other, kind)
	for i := 2; i < n; i++ {
		l := store.Lit(ref, i)
		if val, assigned := vs.LiteralValue(l); assigned && val == disablingValue(kind) {
			store.SwapLits(ref, 0, i)
			return other, l, NoLiteral, false
		}
		if vs.IsAssigned(l.Var()) {
			continue
		}
		if isPrimary(vs, l, kind) {
			if bestPrimary == -1 {
				bestPrimary = i
			}
		} else if bestSecondary == -1 {
			bestSecondary = i
		}
	}

	switch {
	case bestPrimary != -1:
		store.SwapLits(ref, 0, bestPrimary)
		return other, store.Lit(ref, 0), NoLiteral, false
	case bestSecondary != -1 && (otherIsPrimary || p.threeWatchers):
		// Either `other` is the sole remaining primary and a secondary
		// can take the free slot (2- and 3-watcher modes alike), or
		// (3-watcher only) every primary in this constraint is already
		// assigned and the constraint continues as a pure
		// secondary-vs-secondary watch.
		store.SwapLits(ref, 0, bestSecondary)
		return other, store.Lit(ref, 0), NoLiteral, false
	}

	// No replacement: either exactly one primary remains (unit) or
	// none remain (conflict).
	if otherIsPrimary {
		return other, NoLiteral, other, false
	}
	return other, NoLiteral, NoLiteral, true
}

// propagateBlockers checks every 3-watcher constraint whose blocker
// literal just fell false. If both of its primary watchers are still
// unassigned, prefix order alone would already have forced a decision
// here — the out-of-order eligibility the 3-watcher scheme exists to
// support no longer holds for either variable, so both are marked
// ineligible for a future out-of-order decision until a backtrack
// restores them (§4.4's pseudo-unit case, fed into the dependency
// manager's watched-eligibility bookkeeping rather than reported as a
// propagator conflict).
func (p *Propagator) propagateBlockers(falseLit Literal, kind Kind) {
	if !p.threeWatchers {
		return
	}
	idx := falseLit.Index()
	if idx >= len(p.watch3) {
		return
	}
	vs := p.sol.VS
	level := int32(vs.CurrentLevel())
	for _, e := range p.watch3[idx] {
		if e.kind != kind {
			continue // watch3 is indexed purely by literal; this entry belongs to the other store
		}
		store := p.store(e.kind)
		if store.Size(e.ref) < 2 {
			continue
		}
		l0, l1 := store.Lit(e.ref, 0), store.Lit(e.ref, 1)
		if vs.IsAssigned(l0.Var()) || vs.IsAssigned(l1.Var()) {
			continue // already handled by the ordinary two-watcher path
		}
		if !isPrimary(vs, l0, kind) || !isPrimary(vs, l1, kind) {
			continue
		}
		p.sol.DM.MarkOutOfOrderIneligible(l0.Var(), level)
		p.sol.DM.MarkOutOfOrderIneligible(l1.Var(), level)
	}
}

// RecheckParked re-examines every parked constraint (fewer than two
// legal watchers at load time) and installs real watchers for any that
// now qualify. Called by Solver.Solve on every restart, per
// §4.4.
func (p *Propagator) RecheckParked() {
	for _, kind := range [2]Kind{ClauseKind, TermKind} {
		remaining := p.parked[kind][:0]
		for _, ref := range p.parked[kind] {
			store := p.store(kind)
			if store.Size(ref) < 2 {
				remaining = append(remaining, ref)
				continue
			}
			i0, i1, ok := p.pickInitialWatchers(store, ref, kind)
			if !ok {
				remaining = append(remaining, ref)
				continue
			}
			p.placeWatchers(store, ref, kind, i0, i1) // also (re-)installs the blocker watch in 3-watcher mode
		}
		p.parked[kind] = remaining
	}
}

// Reset clears the pending propagation queue; Solver.backtrackTo
// calls it on every backtrack. Watch lists are indexed by literal, not
// by assignment, so backtracking never needs to touch them directly,
// and the parked list is revisited lazily.
func (p *Propagator) Reset() {
	p.queue = p.queue[:0]
}

// relocateWatches patches every watch-list entry for constraints of
// kind using relocate, dropping entries whose constraint was freed
// (relocate returns NullRef). Called from the patch callback that the
// constraint database manager hands to Store.Compact, before
// Arena.MoveTo swaps in the compacted arena.
func (p *Propagator) relocateWatches(kind Kind, relocate func(Ref) Ref) {
	for idx, list := range p.watch {
		kept := list[:0]
		for _, e := range list {
			if e.kind != kind {
				kept = append(kept, e)
				continue
			}
			if nr := relocate(e.ref); nr != NullRef {
				e.ref = nr
				kept = append(kept, e)
			}
		}
		p.watch[idx] = kept
	}
	parked := p.parked[kind][:0]
	for _, ref := range p.parked[kind] {
		if nr := relocate(ref); nr != NullRef {
			parked = append(parked, nr)
		}
	}
	p.parked[kind] = parked

	for idx, list := range p.watch3 {
		kept := list[:0]
		for _, e := range list {
			if e.kind != kind {
				kept = append(kept, e)
				continue
			}
			if nr := relocate(e.ref); nr != NullRef {
				e.ref = nr
				kept = append(kept, e)
			}
		}
		p.watch3[idx] = kept
	}
}

// sealSolution is invoked once every variable is assigned with no
// conflict: it asks the model generator for a minimal satisfied term,
// inserts it into the term store as a (disposable) learnt constraint,
// and reports it as the "conflict" side that drives the learning
// engine to emit the SAT answer.
func (p *Propagator) sealSolution() Conflict {
	lits := p.sol.ModelGen.Generate()
	ref := p.sol.Terms.AddLearnt(lits)
	p.sol.Terms.Free(ref) // disposable: never re-examined by propagation
	return Conflict{Ref: ref, Kind: TermKind, Has: true}
}
