package qbf

// Store is one side of the dual CNF/DNF database: a Kind tag over an
// Arena, plus the bookkeeping a constraint store needs beyond raw
// storage — the list of input (never-deleted) references and the list
// of learnt references, both of which must be patched on compaction.
type Store struct {
	kind    Kind
	arena   *Arena
	input   []Ref // clauses/terms present in the original formula
	learnt  []Ref // clauses/terms derived during search
	nextID  uint32
	tracing bool
}

// NewStore creates an empty store for the given kind.
func NewStore(kind Kind, tracing bool) *Store {
	return &Store{
		kind:    kind,
		arena:   NewArena(tracing),
		tracing: tracing,
		nextID:  1,
	}
}

// Kind reports whether this store holds clauses or terms.
func (s *Store) Kind() Kind { return s.kind }

// AddInput allocates an input (never-deleted, never-learnt) constraint
// and records it in the input list.
func (s *Store) AddInput(literals []Literal) Ref {
	ref := s.arena.Alloc(literals, false)
	if s.tracing {
		s.arena.SetID(ref, s.nextID)
		s.nextID++
	}
	s.input = append(s.input, ref)
	return ref
}

// AddLearnt allocates a learnt constraint and records it in the
// learnt list.
func (s *Store) AddLearnt(literals []Literal) Ref {
	ref := s.arena.Alloc(literals, true)
	if s.tracing {
		s.arena.SetID(ref, s.nextID)
		s.nextID++
	}
	s.learnt = append(s.learnt, ref)
	return ref
}

// Input returns the references to the original formula's constraints
// of this kind.
func (s *Store) Input() []Ref { return s.input }

// Learnt returns the references to constraints learned so far.
func (s *Store) Learnt() []Ref { return s.learnt }

// Free lazily deletes a learnt constraint (input constraints are never
// freed; see the Lifecycle invariant in the data model).
func (s *Store) Free(ref Ref) { s.arena.Free(ref) }

// Size, Lit, SetLit, SwapLits, IsLearnt, IsTainted, SetTainted, LBD,
// SetLBD, Activity, SetActivity, ID, and MarkedForDeletion delegate
// straight to the backing arena; they are re-exposed here so callers
// only need to hold a *Store.
func (s *Store) Size(ref Ref) int                { return s.arena.Size(ref) }
func (s *Store) Lit(ref Ref, i int) Literal      { return s.arena.Lit(ref, i) }
func (s *Store) SetLit(ref Ref, i int, l Literal) { s.arena.SetLit(ref, i, l) }
func (s *Store) SwapLits(ref Ref, i, j int)       { s.arena.SwapLits(ref, i, j) }
func (s *Store) IsLearnt(ref Ref) bool            { return s.arena.IsLearnt(ref) }
func (s *Store) IsTainted(ref Ref) bool           { return s.arena.IsTainted(ref) }
func (s *Store) SetTainted(ref Ref, v bool)       { s.arena.SetTainted(ref, v) }
func (s *Store) MarkedForDeletion(ref Ref) bool   { return s.arena.MarkedForDeletion(ref) }
func (s *Store) LBD(ref Ref) int                  { return s.arena.LBD(ref) }
func (s *Store) SetLBD(ref Ref, lbd int)          { s.arena.SetLBD(ref, lbd) }
func (s *Store) Activity(ref Ref) float32         { return s.arena.Activity(ref) }
func (s *Store) SetActivity(ref Ref, v float32)   { s.arena.SetActivity(ref, v) }
func (s *Store) ID(ref Ref) uint32                { return s.arena.ID(ref) }

// WastedWordsHint reports how many arena words are currently occupied
// by freed-but-uncompacted records, the signal the constraint database
// manager uses to decide whether a compaction is worth running.
func (s *Store) WastedWordsHint() int { return s.arena.WastedWords() }

// Literals returns a freshly copied slice of the constraint's
// literals; callers that only need to scan (not mutate watchers)
// should prefer this over repeated Lit calls.
func (s *Store) Literals(ref Ref) []Literal {
	n := s.arena.Size(ref)
	out := make([]Literal, n)
	for i := range out {
		out[i] = s.arena.Lit(ref, i)
	}
	return out
}

// Compact rebuilds the arena from only the live records reachable
// from roots, patching every Ref that roots mutates in place via
// patch.
//
// roots is expected to walk every reference held anywhere in the
// solver for this store's kind (watch lists, reasons, occurrence
// index) and call patch on each one; Compact relocates
// Store.input/Store.learnt itself. relocate returns NullRef for
// NullRef and for marked-for-deletion references; Compact drops those
// from input/learnt, and the caller drops them from any index that
// still names them.
func (s *Store) Compact(patch func(relocate func(Ref) Ref)) {
	dst := NewArena(s.tracing)
	relocate := func(ref Ref) Ref {
		if ref == NullRef || s.arena.MarkedForDeletion(ref) {
			return NullRef
		}
		return dst.Relocate(s.arena, ref)
	}
	patch(relocate)

	newInput := s.input[:0]
	for _, r := range s.input {
		if nr := relocate(r); nr != NullRef {
			newInput = append(newInput, nr)
		}
	}
	s.input = newInput

	newLearnt := s.learnt[:0]
	for _, r := range s.learnt {
		if nr := relocate(r); nr != NullRef {
			newLearnt = append(newLearnt, nr)
		}
	}
	s.learnt = newLearnt

	s.arena.MoveTo(dst)
}
