package qbf

import "fmt"

// Options collects every CLI-controlled knob of the solver core. The
// CLI layer (cmd/qute) is responsible for parsing flags/config into an
// Options value and calling Validate before constructing a Solver.
type Options struct {
	// Constraint database.
	InitialLearntBudget      int // --db-init-clauses: initial learnt-clause budget
	InitialLearntTermBudget  int // --db-init-terms: initial learnt-term budget
	LearntBudgetGrowth      float64
	RemovalRatio            float64
	LBDThreshold            int
	ActivityDecay           float64
	ActivityIncrement       float64
	CompactionThresholdWords int

	// Decision heuristic.
	Heuristic HeuristicKind
	TieBreak  TieBreakKind
	Phase     PhaseKind

	// Restart scheduler.
	Restart          RestartKind
	RestartInner     int
	RestartOuterMult float64
	RestartLubyMult  int
	RestartEMAShort  float64
	RestartEMALong   float64
	RestartEMAThreshold float64
	RestartEMAMinDist  int

	// Model generator.
	ModelGen                ModelGenKind
	ModelGenScale           float64
	ModelGenExponent        float64
	ModelGenUniversalPenalty float64

	// Dependency management.
	DependencyLearning DependencyScheme
	RRS                RRSMode
	WatchedLiterals    int // 2 or 3
	OOODecisions       OOOScope

	// Output / execution control.
	Verbose           bool
	PrintStats        bool
	Trace             bool
	MachineReadable   bool
	PartialCertificate bool
	Enumerate         bool
	TimeLimitSeconds  float64 // 0 = unbounded

	ConfigFile string
}

// TieBreakKind selects how equal-score decision candidates are broken.
type TieBreakKind uint8

const (
	TieBreakOccurrence TieBreakKind = iota
	TieBreakRandom
)

// PhaseKind selects the initial/saved polarity strategy.
type PhaseKind uint8

const (
	PhaseInvJW PhaseKind = iota // inverse Jeroslow-Wang
	PhaseQType                  // existential=true, universal=false
	PhaseWatcher                // polarity of the variable's watched dependency
	PhaseRandom
	PhaseTrue
	PhaseFalse
)

// ModelGenKind selects a ModelGenerator implementation.
type ModelGenKind uint8

const (
	ModelGenSimple ModelGenKind = iota
	ModelGenWeighted
)

// DefaultOptions returns the option set the CLI starts from before
// applying --config and flag overrides.
func DefaultOptions() Options {
	return Options{
		InitialLearntBudget:      2000,
		InitialLearntTermBudget:  2000,
		LearntBudgetGrowth:       1.1,
		RemovalRatio:             0.5,
		LBDThreshold:             2,
		ActivityDecay:            0.999,
		ActivityIncrement:        1,
		CompactionThresholdWords: 1 << 16,

		Heuristic: HeuristicVMTF,
		TieBreak:  TieBreakOccurrence,
		Phase:     PhaseInvJW,

		Restart:             RestartInnerOuter,
		RestartInner:        100,
		RestartOuterMult:     1.1,
		RestartLubyMult:      100,
		RestartEMAShort:      1.0 / 32,
		RestartEMALong:       1.0 / 4096,
		RestartEMAThreshold:  1.25,
		RestartEMAMinDist:    50,

		ModelGen:                 ModelGenSimple,
		ModelGenScale:            1,
		ModelGenExponent:         1,
		ModelGenUniversalPenalty: 1,

		DependencyLearning: DepAll,
		RRS:                RRSOff,
		WatchedLiterals:    2,
		OOODecisions:       OOONone,

		TimeLimitSeconds: 0,
	}
}

// OptionError describes a single invalid or mutually-inconsistent
// option. Cross-option validation collects every violation via
// Validate rather than stopping at the first.
type OptionError struct {
	Field string
	Msg   string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %s: %s", e.Field, e.Msg)
}

// Validate checks internal consistency and cross-option constraints,
// returning a joined error (errors.Join) of every *OptionError found,
// or nil if opts is usable as-is.
func (o *Options) Validate() error {
	var errs []error
	add := func(field, msg string) {
		errs = append(errs, &OptionError{Field: field, Msg: msg})
	}

	if o.WatchedLiterals != 2 && o.WatchedLiterals != 3 {
		add("watched-literals", "must be 2 or 3")
	}
	if o.WatchedLiterals == 2 && o.OOODecisions != OOONone {
		add("ooo-decisions", "out-of-order decisions require --watched-literals 3")
	}
	if o.DependencyLearning == DepOff && o.RRS != RRSOff {
		add("rrs", "requires --dependency-learning other than off")
	}
	if o.DependencyLearning == DepOff && (o.Heuristic == HeuristicVMTF) && o.OOODecisions != OOONone {
		add("ooo-decisions", "VMTF with out-of-order decisions needs dependency learning enabled")
	}
	if o.Restart == RestartEMA && o.RestartEMALong <= o.RestartEMAShort {
		add("restart-ema-long", "must be greater than --restart-ema-short")
	}
	if o.RemovalRatio <= 0 || o.RemovalRatio >= 1 {
		add("removal-ratio", "must be in (0, 1)")
	}
	if o.LearntBudgetGrowth <= 1 {
		add("db-increment", "growth factor must be greater than 1")
	}
	if o.TimeLimitSeconds < 0 {
		add("time-limit", "must be >= 0")
	}
	if o.ModelGen == ModelGenWeighted && o.ModelGenScale <= 0 {
		add("model-gen-scale", "must be positive for the weighted strategy")
	}

	return joinOptionErrors(errs)
}

func joinOptionErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &optionErrorList{errs: errs}
}

// optionErrorList joins multiple *OptionError values, printed one per
// line by the CLI as usage text.
type optionErrorList struct {
	errs []error
}

func (l *optionErrorList) Error() string {
	s := ""
	for i, e := range l.errs {
		if i > 0 {
			s += "\n"
		}
		s += e.Error()
	}
	return s
}

func (l *optionErrorList) Unwrap() []error { return l.errs }
