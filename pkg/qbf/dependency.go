package qbf

// DependencyScheme selects the strategy used to grow dep(u) when an
// illegal merge is discovered during learning (§4.6). "off" disables
// learning entirely and falls back to pure prefix order.
type DependencyScheme uint8

const (
	// DepAll adds every clashing variable to dep(u).
	DepAll DependencyScheme = iota
	// DepOutermost adds only the smallest-index clashing variable.
	DepOutermost
	// DepFewest adds the clashing variable with the smallest dep(·).
	DepFewest
	// DepOff disables dependency learning: depends_on reduces to
	// "opposite kind and smaller prefix index".
	DepOff
)

// RRSMode selects whether the reflexive resolution-path refinement is
// applied to filter dependency-learning candidates and to the
// universal/existential reduction step.
type RRSMode uint8

const (
	// RRSOff never applies the refinement.
	RRSOff RRSMode = iota
	// RRSFilter applies it only to filter dependency-learning
	// candidates before they are added.
	RRSFilter
	// RRSFull additionally uses it to strengthen universal/existential
	// reduction during learning.
	RRSFull
)

// OOOScope selects which quantifier kinds may be decided out of
// prefix order.
type OOOScope uint8

const (
	OOONone OOOScope = iota
	OOOExistential
	OOOUniversal
	OOOBoth
)

func (s OOOScope) allows(k Quantifier) bool {
	switch s {
	case OOOBoth:
		return true
	case OOOExistential:
		return k == Existential
	case OOOUniversal:
		return k == Universal
	default:
		return false
	}
}

// eligibleSentinel marks a variable as not currently made ineligible
// for an out-of-order decision.
const eligibleSentinel int32 = -1

// occurrence records that variable v appears with the given polarity
// in a constraint, used by the RRS BFS over the occurrence graph.
type occurrence struct {
	ref      Ref
	kind     Kind
	negated  bool
}

// DependencyManager tracks, and during search learns, the set of
// variables each variable depends on, and answers the decision
// heuristic's "is v a legal decision now" query via a single watched
// dependency per variable (mirroring watched-literal propagation).
type DependencyManager struct {
	vs     *VariableStore
	scheme DependencyScheme
	rrs    RRSMode
	ooo    OOOScope

	dep     [][]Var       // dep(v), ordered
	depSet  []map[Var]bool // membership test
	watched []Var          // watched_dep(v); NoVar means sentinel "none"
	watches [][]Var        // inverse: variables that currently watch v

	ael []int32 // assignment-eligibility level per variable
	aet []Var   // stack of variables made ineligible, in AEL order
	permIneligible []bool

	// occurrence index feeding the RRS BFS; populated once at load
	// time from the input formula and again for every newly-allocated
	// learnt constraint that the learning engine reports.
	occIndex map[Var][]occurrence

	rrsCache map[Var]map[Var]bool // memoized independence results

	// storeAccessor looks up the i-th literal of an occurrence's
	// constraint, returning ok=false once i exceeds its size. Wired by
	// the solver via SetStoreAccessor; kept as a function value rather
	// than a *Store field so this file does not need to import store.go.
	storeAccessor func(occurrence, int) (Literal, bool)
}

// SetStoreAccessor wires the manager to the solver's constraint
// stores so the RRS BFS can walk constraint literals. Must be called
// once before any RRS query.
func (d *DependencyManager) SetStoreAccessor(f func(occurrence, int) (Literal, bool)) {
	d.storeAccessor = f
}

// NewDependencyManager creates a manager over vs; Grow extends its
// per-variable tables as variables are added.
func NewDependencyManager(vs *VariableStore, scheme DependencyScheme, rrs RRSMode, ooo OOOScope) *DependencyManager {
	return &DependencyManager{
		vs:       vs,
		scheme:   scheme,
		rrs:      rrs,
		ooo:      ooo,
		occIndex: make(map[Var][]occurrence),
		rrsCache: make(map[Var]map[Var]bool),
	}
}

// Grow extends internal per-variable tables up to and including v. It
// must be called once per variable, in the order variables are added
// to the VariableStore.
func (d *DependencyManager) Grow(v Var) {
	for Var(len(d.dep)) <= v {
		d.dep = append(d.dep, nil)
		d.depSet = append(d.depSet, nil)
		d.watched = append(d.watched, NoVar)
		d.watches = append(d.watches, nil)
		d.ael = append(d.ael, eligibleSentinel)
		d.permIneligible = append(d.permIneligible, false)
	}
}

// DependsOn reports whether "of" is constrained by "on" under the
// configured scheme: explicit learned dependencies plus, always, the
// default prefix relation (opposite kind, strictly smaller block/id).
func (d *DependencyManager) DependsOn(of, on Var) bool {
	if d.defaultDependsOn(of, on) {
		return true
	}
	if d.scheme == DepOff {
		return false
	}
	if int(of) < len(d.depSet) && d.depSet[of] != nil {
		return d.depSet[of][on]
	}
	return false
}

func (d *DependencyManager) defaultDependsOn(of, on Var) bool {
	infoOf, infoOn := d.vs.Info(of), d.vs.Info(on)
	if infoOf.Kind == infoOn.Kind {
		return false
	}
	return infoOn.Block < infoOf.Block
}

// DependsOnRRS is DependsOn strengthened by the resolution-path
// refinement when RRSFull is configured: a reduce-kind variable only
// counts as depended-on if it is also resolution-path reachable from
// "of" in the occurrence graph, so RRSFull prunes strictly more
// aggressively during universal/existential reduction than RRSFilter,
// which only narrows dependency-learning candidates in
// LearnDependencies and leaves reduction untouched.
func (d *DependencyManager) DependsOnRRS(of, on Var) bool {
	if !d.DependsOn(of, on) {
		return false
	}
	if d.rrs != RRSFull {
		return true
	}
	return d.reachableFrom(of)[on]
}

// Watcher returns the single unassigned dependency currently watched
// for v, or ok=false if the sentinel "no watcher" applies.
func (d *DependencyManager) Watcher(v Var) (Var, bool) {
	w := d.watched[v]
	return w, w != NoVar
}

// IsDecisionCandidate reports whether v is unassigned and either has
// no live watched dependency (every opposite-kind variable it depends
// on is decided) or is out-of-order eligible right now.
func (d *DependencyManager) IsDecisionCandidate(v Var) bool {
	if d.vs.IsAssigned(v) {
		return false
	}
	if w, ok := d.Watcher(v); !ok || d.vs.IsAssigned(w) {
		return true
	}
	return d.isOOOEligible(v)
}

func (d *DependencyManager) isOOOEligible(v Var) bool {
	if !d.ooo.allows(d.vs.Kind(v)) {
		return false
	}
	if d.permIneligible[v] {
		return false
	}
	return d.ael[v] == eligibleSentinel
}

// addDependency inserts "on" into dep(of) if not already present,
// maintaining the inverse watch list so future NotifyAssigned calls
// can find of through on's watcher list.
func (d *DependencyManager) addDependency(of, on Var) {
	if d.depSet[of] == nil {
		d.depSet[of] = make(map[Var]bool)
	}
	if d.depSet[of][on] {
		return
	}
	d.depSet[of][on] = true
	d.dep[of] = append(d.dep[of], on)

	if d.watched[of] == NoVar {
		if !d.vs.IsAssigned(on) {
			d.watched[of] = on
			d.watches[on] = append(d.watches[on], of)
			return
		}
	}
	// Either of already has a live watcher, or "on" is already
	// assigned: park the new dependency on whichever unassigned
	// member of dep(of) we can find, defaulting to "on" itself so it
	// is retried after the next backtrack.
	if w, ok := d.Watcher(of); !ok || d.vs.IsAssigned(w) {
		for _, cand := range d.dep[of] {
			if !d.vs.IsAssigned(cand) {
				d.watched[of] = cand
				d.watches[cand] = append(d.watches[cand], of)
				return
			}
		}
		d.watched[of] = on
		d.watches[on] = append(d.watches[on], of)
	}
}

// NotifyAssigned maintains the watched-dependency invariant after v is
// assigned: every variable x that was watching v tries to find another
// unassigned member of dep(x) to watch instead; if none exists, x
// keeps watching v (the assignment will be undone by a future
// backtrack) and becomes a decision candidate in the meantime.
func (d *DependencyManager) NotifyAssigned(v Var, becameCandidate func(Var)) {
	watchers := d.watches[v]
	if len(watchers) == 0 {
		return
	}
	d.watches[v] = nil
	for _, x := range watchers {
		moved := false
		for _, cand := range d.dep[x] {
			if cand != v && !d.vs.IsAssigned(cand) {
				d.watched[x] = cand
				d.watches[cand] = append(d.watches[cand], x)
				moved = true
				break
			}
		}
		if !moved {
			d.watched[x] = v
			d.watches[v] = append(d.watches[v], x)
			if becameCandidate != nil {
				becameCandidate(x)
			}
		}
	}
}

// MarkOutOfOrderIneligible records that v became ineligible for a
// future out-of-order decision at the given decision level, because a
// three-watched constraint now requires v's primary commitments to
// respect prefix order. It is a no-op if v's kind does not allow OOO
// decisions or v already carries the permanent-ineligibility marker.
func (d *DependencyManager) MarkOutOfOrderIneligible(v Var, level int32) {
	if !d.ooo.allows(d.vs.Kind(v)) || d.permIneligible[v] || d.ael[v] != eligibleSentinel {
		return
	}
	d.ael[v] = level
	d.aet = append(d.aet, v)
}

// RestoreEligibility undoes ineligibility markers for variables whose
// AEL is >= the level being backtracked to. Called by the driver
// before re-propagating after a backtrack.
func (d *DependencyManager) RestoreEligibility(level int32) {
	for len(d.aet) > 0 {
		v := d.aet[len(d.aet)-1]
		if d.ael[v] < level {
			break
		}
		d.ael[v] = eligibleSentinel
		d.aet = d.aet[:len(d.aet)-1]
	}
}

// MarkPermanentlyIneligible records that v can never be an
// out-of-order decision (used for variables whose sole watched
// constraint has a single primary).
func (d *DependencyManager) MarkPermanentlyIneligible(v Var) {
	d.permIneligible[v] = true
}

// LearnDependencies applies the configured strategy to grow dep(u)
// from the clashing opposite-kind literals found during an illegal
// merge. When RRS is enabled, candidates are first filtered by
// resolution-path independence.
func (d *DependencyManager) LearnDependencies(u Var, clashing []Literal) {
	if d.scheme == DepOff || len(clashing) == 0 {
		return
	}
	candidates := clashing
	if d.rrs != RRSOff {
		candidates = d.FilterIndependentVariables(u, candidates)
		if len(candidates) == 0 {
			return
		}
	}
	switch d.scheme {
	case DepAll:
		for _, l := range candidates {
			d.addDependency(u, l.Var())
		}
	case DepOutermost:
		best := candidates[0].Var()
		for _, l := range candidates[1:] {
			if l.Var() < best {
				best = l.Var()
			}
		}
		d.addDependency(u, best)
	case DepFewest:
		best := candidates[0].Var()
		bestLen := len(d.dep[best])
		for _, l := range candidates[1:] {
			if n := len(d.dep[l.Var()]); n < bestLen {
				best, bestLen = l.Var(), n
			}
		}
		d.addDependency(u, best)
	}
}

// IndexOccurrence records that ref (of the given kind) contains v with
// the given polarity, feeding future RRS BFS queries. Called once per
// literal when a constraint is added to either store.
func (d *DependencyManager) IndexOccurrence(v Var, ref Ref, kind Kind, negated bool) {
	d.occIndex[v] = append(d.occIndex[v], occurrence{ref: ref, kind: kind, negated: negated})
}

// FilterIndependentVariables removes from candidates any literal whose
// variable is not reachable from u in the clause/term occurrence graph
// (see reachableFrom). Reachability sets are memoized per u; the cache
// is cleared only when occurrences are relocated after a compaction,
// not when new occurrences are indexed.
func (d *DependencyManager) FilterIndependentVariables(u Var, candidates []Literal) []Literal {
	if d.rrs == RRSOff {
		return candidates
	}
	reach := d.reachableFrom(u)
	out := candidates[:0]
	for _, l := range candidates {
		if reach[l.Var()] {
			out = append(out, l)
		}
	}
	return out
}

// reachableFrom computes, via BFS over the occurrence graph starting
// at u, the set of variables linked to u through a chain of shared
// constraints. Every co-occurring variable is followed: literal
// polarity is not considered, and the per-path prefix-depth bound
// carried in the frontier does not prune the search.
func (d *DependencyManager) reachableFrom(u Var) map[Var]bool {
	if cached, ok := d.rrsCache[u]; ok {
		return cached
	}
	visited := map[Var]bool{u: true}
	type frontier struct {
		v        Var
		maxDepth int
	}
	queue := []frontier{{u, d.vs.Info(u).Block}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, occ := range d.occIndex[cur.v] {
			size := 0
			// Walk every other literal in the same constraint: two
			// variables co-occurring in a constraint are connected in
			// the occurrence graph.
			for i := 0; ; i++ {
				lit, ok := d.litAt(occ, i)
				if !ok {
					break
				}
				size++
				nv := lit.Var()
				if nv == cur.v || visited[nv] {
					continue
				}
				depth := d.vs.Info(nv).Block
				bound := cur.maxDepth
				if depth > bound {
					bound = depth
				}
				visited[nv] = true
				queue = append(queue, frontier{nv, bound})
			}
		}
	}
	delete(visited, u)
	d.rrsCache[u] = visited
	return visited
}

// OccurrenceCount returns how many constraint occurrences v has been
// indexed under (primary and secondary combined), used by VSIDS to
// break activity ties per §4.7 ("tie-breaks by number of primary or
// secondary occurrences").
func (d *DependencyManager) OccurrenceCount(v Var) int {
	return len(d.occIndex[v])
}

// OppositeCost computes the fraction of v's constraint occurrences
// that lie in a constraint also containing a literal of the opposite
// quantifier kind from a later prefix block than v's own — i.e. how
// entangled v is with the "other side" of the prefix boundary it
// sits on. The weighted model generator uses this as a per-variable
// cost so a cheaper, less-entangled variable is preferred when
// choosing which literals to keep in a minimized model.
func (d *DependencyManager) OppositeCost(v Var) float64 {
	occs := d.occIndex[v]
	if len(occs) == 0 {
		return 0
	}
	vBlock := d.vs.Info(v).Block
	vKind := d.vs.Info(v).Kind
	entangled := 0
	for _, occ := range occs {
		for i := 0; ; i++ {
			lit, ok := d.litAt(occ, i)
			if !ok {
				break
			}
			nv := lit.Var()
			if nv == v {
				continue
			}
			info := d.vs.Info(nv)
			if info.Kind != vKind && info.Block > vBlock {
				entangled++
				break
			}
		}
	}
	return float64(entangled) / float64(len(occs))
}

// relocateOccurrences patches the occurrence index after a compaction
// of the given kind's store, dropping occurrences whose constraint was
// freed outright and invalidating the RRS cache (the occurrence graph
// just changed shape).
func (d *DependencyManager) relocateOccurrences(kind Kind, relocate func(Ref) Ref) {
	for v, occs := range d.occIndex {
		kept := occs[:0]
		for _, occ := range occs {
			if occ.kind != kind {
				kept = append(kept, occ)
				continue
			}
			if nr := relocate(occ.ref); nr != NullRef {
				occ.ref = nr
				kept = append(kept, occ)
			}
		}
		d.occIndex[v] = kept
	}
	d.rrsCache = make(map[Var]map[Var]bool)
}

func (d *DependencyManager) litAt(occ occurrence, i int) (Literal, bool) {
	if d.storeAccessor == nil {
		return NoLiteral, false
	}
	return d.storeAccessor(occ, i)
}
