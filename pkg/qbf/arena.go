package qbf

import "math"

// Ref is a 32-bit offset into an Arena's word buffer. It replaces a
// pointer: watch-list entries, reasons, and occurrence indices all hold
// a Ref rather than a *Constraint, which is what lets a whole-arena
// compaction patch every outstanding reference without chasing a
// pointer graph.
type Ref uint32

// NullRef is the sentinel for "no constraint".
const NullRef Ref = ^Ref(0)

const (
	flagLearnt  uint32 = 1 << 0
	flagTainted uint32 = 1 << 1
	flagMarked  uint32 = 1 << 2 // marked for deletion, physically removed at next compaction
	flagReloc   uint32 = 1 << 3
	headerBits  uint32 = 4
)

// Arena is an append-only region allocator for variable-size
// constraint records. Every record begins with a header word encoding
// its literal count and flags, followed by `size` literal words, an
// LBD word and an activity word for learnt constraints, and a
// trailing id word. The id word is always reserved (regardless of
// whether tracing is enabled) so the record layout never depends on
// whether a given reference will ever have ID/SetID called on it —
// only the values written there depend on `tracing`.
//
// Deletion is lazy: Free only flips the "marked" bit and tallies the
// wasted words; the record's storage is reclaimed only when Compact
// (driven by the constraint database manager) copies live records into
// a fresh Arena.
type Arena struct {
	words   []uint32
	wasted  int
	tracing bool
}

// NewArena creates an empty arena. tracing controls whether Store
// assigns increasing trace ids as records are allocated; ID() returns
// 0 for every record when tracing is disabled.
func NewArena(tracing bool) *Arena {
	return &Arena{tracing: tracing}
}

func recordLen(header uint32) int {
	size := int(header >> headerBits)
	n := 2 + size // header + literals + id
	if header&flagLearnt != 0 {
		n += 2
	}
	return n
}

// Alloc copies literals into the arena and reserves the trailing LBD,
// activity, and id slots as appropriate, returning a stable reference.
func (a *Arena) Alloc(literals []Literal, learnt bool) Ref {
	size := len(literals)
	header := uint32(size) << headerBits
	if learnt {
		header |= flagLearnt
	}
	ref := Ref(len(a.words))
	total := recordLen(header)
	a.words = append(a.words, make([]uint32, total)...)
	a.words[ref] = header
	for i, l := range literals {
		a.words[int(ref)+1+i] = uint32(l)
	}
	if learnt {
		a.words[int(ref)+1+size] = 1 // LBD defaults to 1
		a.words[int(ref)+2+size] = 0 // activity bits, zero
	}
	return ref
}

func (a *Arena) header(ref Ref) uint32 { return a.words[ref] }

// Size returns the number of literals in the constraint at ref.
func (a *Arena) Size(ref Ref) int { return int(a.header(ref) >> headerBits) }

// Lit returns the i-th literal of the constraint at ref.
func (a *Arena) Lit(ref Ref, i int) Literal {
	return Literal(a.words[int(ref)+1+i])
}

// SetLit overwrites the i-th literal, used by the propagator to swap
// watched positions in place.
func (a *Arena) SetLit(ref Ref, i int, l Literal) {
	a.words[int(ref)+1+i] = uint32(l)
}

// SwapLits exchanges two literal positions within a constraint.
func (a *Arena) SwapLits(ref Ref, i, j int) {
	base := int(ref) + 1
	a.words[base+i], a.words[base+j] = a.words[base+j], a.words[base+i]
}

// IsLearnt reports whether the constraint at ref was learned during
// search rather than given in the input.
func (a *Arena) IsLearnt(ref Ref) bool { return a.header(ref)&flagLearnt != 0 }

// IsTainted reports whether the constraint's derivation depended on a
// top-level encoding that has since been replaced by a blocking
// constraint (see the enumeration / tainting design note).
func (a *Arena) IsTainted(ref Ref) bool { return a.header(ref)&flagTainted != 0 }

// SetTainted flips the tainted bit.
func (a *Arena) SetTainted(ref Ref, v bool) {
	if v {
		a.words[ref] |= flagTainted
	} else {
		a.words[ref] &^= flagTainted
	}
}

// MarkedForDeletion reports whether the record has been freed but not
// yet physically reclaimed.
func (a *Arena) MarkedForDeletion(ref Ref) bool { return a.header(ref)&flagMarked != 0 }

// Free lazily deletes a constraint: it is ignored by propagation from
// this point on, and its words are reclaimed at the next compaction.
func (a *Arena) Free(ref Ref) {
	if a.MarkedForDeletion(ref) {
		return
	}
	a.words[ref] |= flagMarked
	a.wasted += recordLen(a.header(ref))
}

// WastedWords returns the total word count of freed-but-not-yet-
// reclaimed records, the signal the constraint database manager uses
// to decide whether a compaction is worth running.
func (a *Arena) WastedWords() int { return a.wasted }

// LiveWords returns the number of words currently holding live
// records (i.e. excluding marked-for-deletion records).
func (a *Arena) LiveWords() int { return len(a.words) - a.wasted }

func lbdOffset(ref Ref, size int) int  { return int(ref) + 1 + size }
func actOffset(ref Ref, size int) int  { return int(ref) + 2 + size }
func idOffset(ref Ref, size int, learnt bool) int {
	o := int(ref) + 1 + size
	if learnt {
		o += 2
	}
	return o
}

// LBD returns the literal block distance of a learnt constraint.
func (a *Arena) LBD(ref Ref) int {
	return int(a.words[lbdOffset(ref, a.Size(ref))])
}

// SetLBD updates the literal block distance of a learnt constraint.
func (a *Arena) SetLBD(ref Ref, lbd int) {
	a.words[lbdOffset(ref, a.Size(ref))] = uint32(lbd)
}

// Activity returns the clause-deletion activity score of a learnt
// constraint.
func (a *Arena) Activity(ref Ref) float32 {
	return math.Float32frombits(a.words[actOffset(ref, a.Size(ref))])
}

// SetActivity overwrites the activity score.
func (a *Arena) SetActivity(ref Ref, v float32) {
	a.words[actOffset(ref, a.Size(ref))] = math.Float32bits(v)
}

// ID returns the trace identifier of a constraint. Only meaningful
// when the arena was created with tracing enabled.
func (a *Arena) ID(ref Ref) uint32 {
	return a.words[idOffset(ref, a.Size(ref), a.IsLearnt(ref))]
}

// SetID assigns the trace identifier of a constraint.
func (a *Arena) SetID(ref Ref, id uint32) {
	a.words[idOffset(ref, a.Size(ref), a.IsLearnt(ref))] = id
}

// Relocate copies the record at ref in src into this (destination)
// arena, following the "relocated" sentinel pattern: the first call
// for a given ref performs the copy and leaves a forwarding pointer in
// src; every subsequent call for the same ref (held by some other
// watch list, reason, or occurrence index) just follows the pointer.
// It is the caller's responsibility to never relocate a
// marked-for-deletion record.
func (dst *Arena) Relocate(src *Arena, ref Ref) Ref {
	if ref == NullRef {
		return NullRef
	}
	header := src.words[ref]
	if header&flagReloc != 0 {
		return Ref(src.words[ref+1])
	}
	n := recordLen(header)
	newRef := Ref(len(dst.words))
	dst.words = append(dst.words, src.words[ref:int(ref)+n]...)
	src.words[ref] = header | flagReloc
	src.words[ref+1] = uint32(newRef)
	return newRef
}

// MoveTo swaps this arena's backing storage and wasted-word count with
// dst's. Store.Compact builds the compacted records in a fresh arena
// and calls MoveTo on the live one, so the live arena takes the
// compacted words and dst is left holding the old ones.
func (a *Arena) MoveTo(dst *Arena) {
	a.words, dst.words = dst.words, a.words
	a.wasted, dst.wasted = dst.wasted, a.wasted
}
