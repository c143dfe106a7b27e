package qbf

import "sort"

// ClauseDBManager owns the learnt-constraint lifecycle: activity decay,
// periodic cleanup of low-value learnt clauses/terms, arena compaction
// once enough space has been wasted by lazy deletion, and tainted-
// constraint removal when enumeration adds a blocking constraint that
// invalidates part of the search so far.
type ClauseDBManager struct {
	sol *Solver

	budget       [2]int  // current learnt-constraint budget, per Kind
	growth       float64 // budget growth factor applied on each cleanup
	sinceLast    [2]int  // learnt constraints added since the last cleanup, per Kind
	actInc       float32
	actDecay     float32
	removalRatio float64
	lbdThreshold int

	compactionThreshold int // arena words wasted before Compact runs
}

// NewClauseDBManager creates a manager bound to sol, with the initial
// per-kind learnt budget, growth rate, and cleanup policy taken from
// sol.Options.
func NewClauseDBManager(sol *Solver) *ClauseDBManager {
	return &ClauseDBManager{
		sol:                 sol,
		budget:              [2]int{sol.Options.InitialLearntBudget, sol.Options.InitialLearntTermBudget},
		growth:              sol.Options.LearntBudgetGrowth,
		actInc:              float32(sol.Options.ActivityIncrement),
		actDecay:            float32(sol.Options.ActivityDecay),
		removalRatio:        sol.Options.RemovalRatio,
		lbdThreshold:        sol.Options.LBDThreshold,
		compactionThreshold: sol.Options.CompactionThresholdWords,
	}
}

// NotifyLearnt is called by the learning engine immediately after a
// new constraint is inserted: it bumps the constraint's own activity
// and, once the per-kind budget is exceeded, triggers a cleanup pass.
func (m *ClauseDBManager) NotifyLearnt(kind Kind, ref Ref) {
	store := m.sol.storeFor(kind)
	store.SetActivity(ref, m.actInc)
	m.sinceLast[kind]++
	if len(store.Learnt()) > m.budget[kind] {
		m.Cleanup(kind)
	}
}

// BumpActivity rewards every constraint that participated in deriving
// the constraint currently being learned (mirroring the heuristic's
// variable activity bump, but over constraints).
func (m *ClauseDBManager) BumpActivity(kind Kind, ref Ref) {
	store := m.sol.storeFor(kind)
	store.SetActivity(ref, store.Activity(ref)+m.actInc)
}

// DecayActivity grows the shared activity increment (dividing it by
// the decay factor), effectively decaying every constraint's stored
// activity relative to future bumps. Called once per conflict.
func (m *ClauseDBManager) DecayActivity() {
	m.actInc /= m.actDecay
}

// lockedRefs returns the set of constraint references currently
// serving as the propagation reason for some assigned variable; locked
// constraints must survive a cleanup even if their score is poor,
// since deleting them would leave a dangling reason.
func (m *ClauseDBManager) lockedRefs(kind Kind) map[Ref]bool {
	locked := make(map[Ref]bool)
	vs := m.sol.VS
	for i := 0; i < vs.TrailLen(); i++ {
		v := vs.TrailAt(i).Var()
		r := vs.ReasonOf(v)
		if !r.Decision && r.Kind == kind {
			locked[r.Ref] = true
		}
	}
	return locked
}

// Cleanup frees the removalRatio fraction of the non-locked learnt
// constraints of the given kind whose LBD is above lbdThreshold,
// worst first (highest LBD, ties broken by lowest activity), then
// grows the budget by the growth factor and compacts if enough words
// are wasted. Constraints with LBD <= lbdThreshold are always kept.
func (m *ClauseDBManager) Cleanup(kind Kind) {
	store := m.sol.storeFor(kind)
	locked := m.lockedRefs(kind)
	learnt := store.Learnt()

	candidates := make([]Ref, 0, len(learnt))
	for _, ref := range learnt {
		if store.MarkedForDeletion(ref) || locked[ref] || store.LBD(ref) <= m.lbdThreshold {
			continue
		}
		candidates = append(candidates, ref)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if store.LBD(candidates[i]) != store.LBD(candidates[j]) {
			return store.LBD(candidates[i]) > store.LBD(candidates[j])
		}
		return store.Activity(candidates[i]) < store.Activity(candidates[j])
	})

	toDelete := int(float64(len(candidates)) * m.removalRatio)
	for _, ref := range candidates[:toDelete] {
		store.Free(ref)
	}

	m.budget[kind] = int(float64(m.budget[kind]) * m.growth)
	m.sinceLast[kind] = 0
	m.MaybeCompact(kind)
}

// MaybeCompact runs Store.Compact if enough words have been wasted by
// lazy deletion to be worth a full rewrite, patching every outstanding
// reference: the propagator's watch lists, every reason on the trail,
// and the dependency manager's occurrence index.
func (m *ClauseDBManager) MaybeCompact(kind Kind) {
	store := m.sol.storeFor(kind)
	if store.WastedWordsHint() < m.compactionThreshold {
		return
	}
	store.Compact(func(relocate func(Ref) Ref) {
		m.sol.Prop.relocateWatches(kind, relocate)
		m.sol.VS.relocateReasons(kind, relocate)
		m.sol.DM.relocateOccurrences(kind, relocate)
	})
}

// TaintForEnumeration marks every learnt constraint of kind that
// mentions a variable appearing in blockingRef as tainted: its
// derivation assumed a region of the search space the blocking
// constraint now excludes, so it can no longer be trusted as a sound
// lemma for the remaining enumeration and is deleted outright (unless
// currently locked).
func (m *ClauseDBManager) TaintForEnumeration(kind Kind, blockingRef Ref) {
	store := m.sol.storeFor(kind)
	tainted := make(map[Var]bool)
	for i := 0; i < store.Size(blockingRef); i++ {
		tainted[store.Lit(blockingRef, i).Var()] = true
	}
	locked := m.lockedRefs(kind)
	for _, ref := range store.Learnt() {
		if store.MarkedForDeletion(ref) || locked[ref] || ref == blockingRef {
			continue
		}
		for i := 0; i < store.Size(ref); i++ {
			if tainted[store.Lit(ref, i).Var()] {
				store.SetTainted(ref, true)
				store.Free(ref)
				break
			}
		}
	}
	m.MaybeCompact(kind)
}
