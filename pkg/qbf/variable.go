package qbf

// Reason records why a variable was assigned: either a constraint
// (clause or term) that became unit, or the decision sentinel.
type Reason struct {
	Decision bool
	Kind     Kind
	Ref      Ref
}

// DecisionReason is the sentinel reason recorded for a branching
// decision (as opposed to a propagated assignment).
var DecisionReason = Reason{Decision: true}

// VarInfo holds the static attributes of a variable, fixed at load
// time and never mutated afterward.
type VarInfo struct {
	Kind      Quantifier
	Auxiliary bool // introduced by Tseitin / dual-output encoding
	Block     int  // prefix depth: index of the quantifier block
}

type varState struct {
	assigned bool
	value    bool // current truth value, meaningful only if assigned
	level    int32
	reason   Reason
}

// VariableStore holds every variable's static attributes plus the
// assignment trail: the ordered sequence of literals forced true, a
// parallel decision stack recording where each decision level begins,
// and prefix-sum counters that answer "how many existentials/universals
// exist with index <= v" in O(1), which the RRS dependency scheme's
// reachability bound needs.
type VariableStore struct {
	info  []VarInfo // 1-indexed; info[0] is unused
	state []varState

	trail      []Literal
	levelStart []int32 // trail index where decision level d begins; levelStart[0] == 0
	decisionAt []Var   // variable decided at each level >= 1

	existUntil []int32 // prefix sum of existential variables with id <= index
	univUntil  []int32
}

// NewVariableStore creates a store with no variables.
func NewVariableStore() *VariableStore {
	return &VariableStore{
		info:       make([]VarInfo, 1),
		state:      make([]varState, 1),
		levelStart: []int32{0},
		existUntil: []int32{0},
		univUntil:  []int32{0},
	}
}

// Add registers a new variable and returns its identifier. Variables
// are added once at load time, in increasing id order, and live for
// the lifetime of the solver.
func (vs *VariableStore) Add(kind Quantifier, auxiliary bool, block int) Var {
	v := Var(len(vs.info))
	vs.info = append(vs.info, VarInfo{Kind: kind, Auxiliary: auxiliary, Block: block})
	vs.state = append(vs.state, varState{})

	prevE, prevU := vs.existUntil[len(vs.existUntil)-1], vs.univUntil[len(vs.univUntil)-1]
	if kind == Existential {
		prevE++
	} else {
		prevU++
	}
	vs.existUntil = append(vs.existUntil, prevE)
	vs.univUntil = append(vs.univUntil, prevU)
	return v
}

// NumVars returns the number of registered variables.
func (vs *VariableStore) NumVars() int { return len(vs.info) - 1 }

// Info returns the static attributes of v.
func (vs *VariableStore) Info(v Var) VarInfo { return vs.info[v] }

// Kind returns the quantifier kind of v.
func (vs *VariableStore) Kind(v Var) Quantifier { return vs.info[v].Kind }

// IsAssigned reports whether v currently has a value.
func (vs *VariableStore) IsAssigned(v Var) bool { return vs.state[v].assigned }

// Polarity returns the current truth value of v. Meaningless if v is
// unassigned.
func (vs *VariableStore) Polarity(v Var) bool { return vs.state[v].value }

// Level returns the decision level at which v was assigned, or -1 if
// unassigned.
func (vs *VariableStore) Level(v Var) int {
	if !vs.state[v].assigned {
		return -1
	}
	return int(vs.state[v].level)
}

// ReasonOf returns the reason v was assigned.
func (vs *VariableStore) ReasonOf(v Var) Reason { return vs.state[v].reason }

// CurrentLevel returns the current decision level (0 before any
// decision has been made).
func (vs *VariableStore) CurrentLevel() int { return len(vs.levelStart) - 1 }

// TrailLen returns the number of literals currently on the trail.
func (vs *VariableStore) TrailLen() int { return len(vs.trail) }

// TrailAt returns the literal at trail position i.
func (vs *VariableStore) TrailAt(i int) Literal { return vs.trail[i] }

// LiteralValue reports the current truth value of l and whether l's
// variable is assigned.
func (vs *VariableStore) LiteralValue(l Literal) (value bool, assigned bool) {
	st := &vs.state[l.Var()]
	if !st.assigned {
		return false, false
	}
	return l.Value(st.value), true
}

// Assign pushes lit onto the trail with the given reason. If reason is
// the decision sentinel, a new decision level is opened first.
func (vs *VariableStore) Assign(lit Literal, reason Reason) {
	if reason.Decision {
		vs.levelStart = append(vs.levelStart, int32(len(vs.trail)))
		vs.decisionAt = append(vs.decisionAt, lit.Var())
	}
	v := lit.Var()
	vs.state[v] = varState{
		assigned: true,
		value:    !lit.Negated(),
		level:    int32(vs.CurrentLevel()),
		reason:   reason,
	}
	vs.trail = append(vs.trail, lit)
}

// UndoLast pops and unassigns the most recent trail entry, returning
// the literal that was undone. If the popped literal was a decision,
// the current decision level drops by one.
func (vs *VariableStore) UndoLast() Literal {
	last := len(vs.trail) - 1
	lit := vs.trail[last]
	vs.trail = vs.trail[:last]
	v := lit.Var()
	vs.state[v] = varState{}

	if int32(last) == vs.levelStart[len(vs.levelStart)-1] {
		vs.levelStart = vs.levelStart[:len(vs.levelStart)-1]
		vs.decisionAt = vs.decisionAt[:len(vs.decisionAt)-1]
	}
	return lit
}

// DecisionLevelType returns the quantifier kind of the variable
// decided at level d (1-indexed; d must be <= CurrentLevel()).
func (vs *VariableStore) DecisionLevelType(d int) Quantifier {
	return vs.Kind(vs.decisionAt[d-1])
}

// DecisionVarAt returns the variable decided at level d.
func (vs *VariableStore) DecisionVarAt(d int) Var { return vs.decisionAt[d-1] }

// LevelStart returns the trail index at which level d begins.
func (vs *VariableStore) LevelStart(d int) int { return int(vs.levelStart[d]) }

// AllAssigned reports whether every registered variable has a value.
func (vs *VariableStore) AllAssigned() bool {
	return len(vs.trail) == vs.NumVars()
}

// relocateReasons patches the reason reference of every assigned
// variable whose reason is of the given kind, following a compaction
// of that store's arena. A reason can never point at a freed
// constraint (freed constraints are never locked, see
// ClauseDBManager.lockedRefs), so relocate is not expected to return
// NullRef here.
func (vs *VariableStore) relocateReasons(kind Kind, relocate func(Ref) Ref) {
	for v := 1; v < len(vs.state); v++ {
		st := &vs.state[v]
		if st.assigned && !st.reason.Decision && st.reason.Kind == kind {
			st.reason.Ref = relocate(st.reason.Ref)
		}
	}
}

// CountOfKindUntil returns the number of variables of kind k with
// identifier <= v, computed in O(1) from a prefix-sum table
// maintained as variables are added.
func (vs *VariableStore) CountOfKindUntil(k Quantifier, v Var) int32 {
	if k == Existential {
		return vs.existUntil[v]
	}
	return vs.univUntil[v]
}
