package qbf

// ModelGenerator produces the literals of the initial term inserted
// into the term store once every variable is assigned with no clause
// conflict. That term is, dually, what the learning engine resolves
// down to the final existential decisions that justify the SAT
// answer (and, via universal reduction, the partial certificate
// reported to the caller).
type ModelGenerator interface {
	Generate() []Literal
}

// simpleModelGenerator reads off the literal of every variable exactly
// as currently assigned on the trail: the full current model.
type simpleModelGenerator struct {
	vs *VariableStore
}

// NewSimpleModelGenerator returns the full current assignment as the
// initial term, with no attempt at minimization.
func NewSimpleModelGenerator(vs *VariableStore) ModelGenerator {
	return &simpleModelGenerator{vs: vs}
}

func (g *simpleModelGenerator) Generate() []Literal {
	out := make([]Literal, 0, g.vs.NumVars())
	for v := 1; v <= g.vs.NumVars(); v++ {
		vv := Var(v)
		if !g.vs.IsAssigned(vv) {
			continue
		}
		out = append(out, MkLit(vv, !g.vs.Polarity(vv)))
	}
	return out
}

// weightedModelGenerator greedily drops literals from the full model
// in descending weight order (most expensive to keep first), as long
// as every input clause remains satisfied without it, producing a
// smaller — and, under the supplied weights, cheaper — term than the
// naive full assignment. This mirrors the cost-sensitive hitting-set
// construction used for the partial certificate and for QBF variants
// with per-literal weights.
type weightedModelGenerator struct {
	vs      *VariableStore
	clauses *Store
	weight  map[Literal]float64 // absent entries default to 1.0
}

// NewWeightedModelGenerator returns a generator that minimizes total
// literal weight in the produced term while keeping every input clause
// of clauses satisfied. A nil weight map treats every literal as unit
// weight, which still yields a (plain, unweighted) minimal model.
func NewWeightedModelGenerator(vs *VariableStore, clauses *Store, weight map[Literal]float64) ModelGenerator {
	return &weightedModelGenerator{vs: vs, clauses: clauses, weight: weight}
}

func (g *weightedModelGenerator) weightOf(l Literal) float64 {
	if g.weight == nil {
		return 1
	}
	if w, ok := g.weight[l]; ok {
		return w
	}
	return 1
}

func (g *weightedModelGenerator) Generate() []Literal {
	kept := make(map[Var]bool, g.vs.NumVars())
	order := make([]Var, 0, g.vs.NumVars())
	for v := 1; v <= g.vs.NumVars(); v++ {
		vv := Var(v)
		if g.vs.IsAssigned(vv) {
			kept[vv] = true
			order = append(order, vv)
		}
	}

	// Count, per input clause, how many of its literals are currently
	// satisfied by a kept variable; a variable is droppable only while
	// every clause it alone satisfies has another satisfied literal.
	satisfiedBy := make(map[Ref]int, len(g.clauses.Input()))
	for _, ref := range g.clauses.Input() {
		n := g.clauses.Size(ref)
		count := 0
		for i := 0; i < n; i++ {
			l := g.clauses.Lit(ref, i)
			if val, assigned := g.vs.LiteralValue(l); assigned && val {
				count++
			}
		}
		satisfiedBy[ref] = count
	}
	occursIn := make(map[Var][]Ref)
	for _, ref := range g.clauses.Input() {
		n := g.clauses.Size(ref)
		for i := 0; i < n; i++ {
			v := g.clauses.Lit(ref, i).Var()
			occursIn[v] = append(occursIn[v], ref)
		}
	}

	sortByWeightDesc(order, func(v Var) float64 {
		return g.weightOf(MkLit(v, !g.vs.Polarity(v)))
	})

	for _, v := range order {
		canDrop := true
		for _, ref := range occursIn[v] {
			l := MkLit(v, !g.vs.Polarity(v))
			if val, assigned := g.vs.LiteralValue(l); !assigned || !val {
				continue
			}
			if satisfiedBy[ref] <= 1 {
				canDrop = false
				break
			}
		}
		if !canDrop {
			continue
		}
		for _, ref := range occursIn[v] {
			l := MkLit(v, !g.vs.Polarity(v))
			if val, assigned := g.vs.LiteralValue(l); assigned && val {
				satisfiedBy[ref]--
			}
		}
		delete(kept, v)
	}

	out := make([]Literal, 0, len(kept))
	for v := 1; v <= g.vs.NumVars(); v++ {
		vv := Var(v)
		if kept[vv] {
			out = append(out, MkLit(vv, !g.vs.Polarity(vv)))
		}
	}
	return out
}

// sortByWeightDesc is an insertion sort: the slices this runs over are
// bounded by the variable count of a single QBF instance, not a hot
// inner loop, so O(n^2) is not worth a sort.Slice closure allocation.
func sortByWeightDesc(vars []Var, weight func(Var) float64) {
	for i := 1; i < len(vars); i++ {
		j := i
		for j > 0 && weight(vars[j-1]) < weight(vars[j]) {
			vars[j-1], vars[j] = vars[j], vars[j-1]
			j--
		}
	}
}
