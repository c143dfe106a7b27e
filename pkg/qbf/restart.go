package qbf

// RestartScheduler decides when the driver should tear down the
// current assignment back to decision level 0 and start deciding
// again, keeping every learned constraint. OnConflict is called once
// per conflict (with the LBD of the constraint just learned, or 0 for
// schedulers that ignore it); ShouldRestart is polled by the driver
// immediately afterward.
type RestartScheduler interface {
	OnConflict(lbd int)
	ShouldRestart() bool
	OnRestart()
}

// RestartKind selects a RestartScheduler implementation.
type RestartKind uint8

const (
	RestartNone RestartKind = iota
	RestartInnerOuter
	RestartLuby
	RestartEMA
)

// NewRestartScheduler constructs the scheduler selected by opts.Restart,
// parameterized by the matching fields of opts.
func NewRestartScheduler(opts Options) RestartScheduler {
	switch opts.Restart {
	case RestartInnerOuter:
		return newInnerOuterRestart(opts.RestartInner, opts.RestartOuterMult)
	case RestartLuby:
		return newLubyRestart(opts.RestartLubyMult)
	case RestartEMA:
		return newEMARestart(opts.RestartEMAShort, opts.RestartEMALong, opts.RestartEMAThreshold, opts.RestartEMAMinDist)
	default:
		return noRestart{}
	}
}

// noRestart never signals a restart.
type noRestart struct{}

func (noRestart) OnConflict(int)     {}
func (noRestart) ShouldRestart() bool { return false }
func (noRestart) OnRestart()          {}

// innerOuterRestart implements the geometric inner/outer schedule: the
// inner run length grows geometrically between restarts until it
// exceeds the outer bound, at which point both are reset and the outer
// bound itself grows, giving restarts that start frequent and space
// out over a long run (Biere's "inner-outer" policy).
type innerOuterRestart struct {
	conflicts   int
	inner       int
	outer       int
	factor      float64
	initial     int
	outerFactor float64
}

func newInnerOuterRestart(initialInner int, outerFactor float64) *innerOuterRestart {
	if initialInner <= 0 {
		initialInner = 100
	}
	if outerFactor <= 1 {
		outerFactor = 1.1
	}
	return &innerOuterRestart{
		inner:       initialInner,
		outer:       initialInner,
		initial:     initialInner,
		factor:      outerFactor,
		outerFactor: outerFactor,
	}
}

func (r *innerOuterRestart) OnConflict(int) { r.conflicts++ }

func (r *innerOuterRestart) ShouldRestart() bool {
	return r.conflicts >= r.inner
}

func (r *innerOuterRestart) OnRestart() {
	r.conflicts = 0
	r.inner = int(float64(r.inner) * r.factor)
	if float64(r.inner) > float64(r.outer) {
		r.inner = r.initial
		r.outer = int(float64(r.outer) * r.outerFactor)
	}
}

// lubyRestart implements Luby-sequence restarts: run length between
// restart k is unit * Luby(k), which is known to be within a constant
// factor of the optimal fixed restart strategy for an unknown-length
// search.
type lubyRestart struct {
	conflicts int
	unit      int
	index     int
}

func newLubyRestart(unit int) *lubyRestart {
	if unit <= 0 {
		unit = 100
	}
	return &lubyRestart{unit: unit, index: 1}
}

// luby computes the i-th term (1-indexed) of the Luby sequence
// 1,1,2,1,1,2,4,1,1,2,1,1,2,4,8,... via its standard recursive
// definition.
func luby(i int) int {
	k := 1
	for (1<<uint(k))-1 < i {
		k++
	}
	if i == (1<<uint(k))-1 {
		return 1 << uint(k-1)
	}
	return luby(i - (1 << uint(k-1)) + 1)
}

func (r *lubyRestart) OnConflict(int) { r.conflicts++ }

func (r *lubyRestart) ShouldRestart() bool {
	return r.conflicts >= r.unit*luby(r.index)
}

func (r *lubyRestart) OnRestart() {
	r.conflicts = 0
	r.index++
}

// emaRestart implements the Glucose-style exponential-moving-average
// LBD restart policy: a fast EMA over recent conflicts' LBD is
// compared against a slow long-run EMA, and a restart fires once the
// fast average rises enough above the slow one (recent conflicts are
// "harder" than the long-run trend, so the current search direction
// looks unproductive), subject to a minimum number of conflicts since
// the last restart to avoid thrashing.
type emaRestart struct {
	fast, slow   float64
	fastAlpha    float64
	slowAlpha    float64
	threshold    float64
	conflicts    int
	minConflicts int
	warm         bool
}

func newEMARestart(fastAlpha, slowAlpha, threshold float64, minConflicts int) *emaRestart {
	if fastAlpha <= 0 {
		fastAlpha = 1.0 / 32
	}
	if slowAlpha <= 0 {
		slowAlpha = 1.0 / 4096
	}
	if threshold <= 1 {
		threshold = 1.25
	}
	if minConflicts <= 0 {
		minConflicts = 50
	}
	return &emaRestart{
		fastAlpha:    fastAlpha,
		slowAlpha:    slowAlpha,
		threshold:    threshold,
		minConflicts: minConflicts,
	}
}

func (r *emaRestart) OnConflict(lbd int) {
	r.conflicts++
	x := float64(lbd)
	if !r.warm {
		r.fast, r.slow, r.warm = x, x, true
		return
	}
	r.fast += r.fastAlpha * (x - r.fast)
	r.slow += r.slowAlpha * (x - r.slow)
}

func (r *emaRestart) ShouldRestart() bool {
	return r.conflicts >= r.minConflicts && r.fast > r.threshold*r.slow
}

func (r *emaRestart) OnRestart() {
	r.conflicts = 0
}
