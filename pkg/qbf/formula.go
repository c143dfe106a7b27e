package qbf

// Block is one quantifier block of a prenex prefix: a contiguous run
// of variables sharing the same quantifier kind, in prefix order.
type Block struct {
	Kind Quantifier
	Vars []int32
}

// Formula is the front-end's output contract: everything NewSolver
// needs to build the initial variable store and constraint stores,
// independent of whether it came from QDIMACS or QCIR.
type Formula struct {
	MaxVar int
	Prefix []Block
	// Clauses holds the input CNF, one clause per element, each a
	// signed DIMACS-style literal list (positive = variable id,
	// negative = its negation); zero never appears, unlike the DIMACS
	// file format's trailing terminator.
	Clauses [][]int32
	// Terms optionally seeds the term (DNF) store. Neither the QDIMACS
	// nor the QCIR front-end fills it; QCIR gate encodings are emitted
	// as Clauses.
	Terms [][]int32
	// Auxiliary marks variables introduced by Tseitin/gate encoding
	// rather than present in the original problem, for VarInfo.Auxiliary.
	Auxiliary map[int32]bool
}
